package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oncoward/ward-api/internal/models"
)

// Field length limits for the admission form.
const (
	NameMin        = 2
	NameMax        = 100
	PatientCodeMin = 3
	PatientCodeMax = 20
	RoomNumberMax  = 50
	ReasonMin      = 5
	ReasonMax      = 500
	DiagnosisMin   = 3
	DiagnosisMax   = 500
	NotesMax       = 1000
	BirthYearMin   = 1900
	ProcedureMin   = 3
	SurgeonMin     = 2
)

// FieldError reports one violated rule on one form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is the ordered validation result. Empty means valid.
type FieldErrors []FieldError

// Map converts the result into a field→message lookup.
func (e FieldErrors) Map() map[string]string {
	if len(e) == 0 {
		return nil
	}
	m := make(map[string]string, len(e))
	for _, fe := range e {
		if _, exists := m[fe.Field]; !exists {
			m[fe.Field] = fe.Message
		}
	}
	return m
}

// PatientForm carries the raw admission form fields as submitted. BirthYear
// stays a string because the rule is "parses as integer".
type PatientForm struct {
	Name             string
	BirthYear        string
	PatientCode      string
	RoomNumber       string
	Reason           string
	Diagnosis        string
	TreatmentOptions []models.TreatmentOption
	SurgeryProcedure string
	Surgeon          string
}

var (
	vietnameseNameRe = regexp.MustCompile(`^[a-zA-Z\x{00C0}-\x{1EF9}\s]+$`)
	patientCodeRe    = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)
	emailRe          = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidatePatientForm checks every rule independently and reports all
// violations in field order, not just the first.
func ValidatePatientForm(form PatientForm) FieldErrors {
	var errs FieldErrors

	if msg := nameMessage(form.Name); msg != "" {
		errs = append(errs, FieldError{Field: "name", Message: msg})
	}
	if msg := birthYearMessage(form.BirthYear); msg != "" {
		errs = append(errs, FieldError{Field: "birthYear", Message: msg})
	}
	if !ValidatePatientCode(form.PatientCode) {
		errs = append(errs, FieldError{
			Field:   "patientCode",
			Message: "Mã số bệnh nhân gồm 3-20 ký tự chữ in hoa hoặc số",
		})
	}
	if !ValidateRoomNumber(form.RoomNumber) {
		errs = append(errs, FieldError{
			Field:   "roomNumber",
			Message: "Số phòng không được để trống và tối đa 50 ký tự",
		})
	}
	if msg := lengthMessage(form.Reason, ReasonMin, ReasonMax, "Lý do vào viện"); msg != "" {
		errs = append(errs, FieldError{Field: "reason", Message: msg})
	}
	if msg := lengthMessage(form.Diagnosis, DiagnosisMin, DiagnosisMax, "Chẩn đoán"); msg != "" {
		errs = append(errs, FieldError{Field: "diagnosis", Message: msg})
	}

	// Surgery sub-fields are optional; only supplied values are checked.
	if hasOption(form.TreatmentOptions, models.TreatmentSurgery) {
		if procedure := strings.TrimSpace(form.SurgeryProcedure); procedure != "" && utf8.RuneCountInString(procedure) < ProcedureMin {
			errs = append(errs, FieldError{
				Field:   "surgeryProcedure",
				Message: "Phương pháp phẫu thuật phải có ít nhất 3 ký tự",
			})
		}
		if surgeon := strings.TrimSpace(form.Surgeon); surgeon != "" && utf8.RuneCountInString(surgeon) < SurgeonMin {
			errs = append(errs, FieldError{
				Field:   "surgeon",
				Message: "Phẫu thuật viên chính phải có ít nhất 2 ký tự",
			})
		}
	}

	return errs
}

func nameMessage(name string) string {
	trimmed := strings.TrimSpace(name)
	length := utf8.RuneCountInString(trimmed)
	switch {
	case length < NameMin:
		return "Họ tên phải có ít nhất 2 ký tự"
	case length > NameMax:
		return "Họ tên không được vượt quá 100 ký tự"
	case !vietnameseNameRe.MatchString(trimmed):
		return "Họ tên chỉ được chứa chữ cái và khoảng trắng"
	}
	return ""
}

func birthYearMessage(raw string) string {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "Năm sinh không hợp lệ"
	}
	currentYear := time.Now().Year()
	if year < BirthYearMin || year > currentYear {
		return fmt.Sprintf("Năm sinh phải từ %d đến %d", BirthYearMin, currentYear)
	}
	return ""
}

func lengthMessage(value string, min, max int, label string) string {
	length := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case length < min:
		return fmt.Sprintf("%s phải có ít nhất %d ký tự", label, min)
	case length > max:
		return fmt.Sprintf("%s không được vượt quá %d ký tự", label, max)
	}
	return ""
}

// ValidateName accepts Unicode letters (Vietnamese ranges included) and
// whitespace, 2..100 runes after trimming.
func ValidateName(name string) bool {
	return nameMessage(name) == ""
}

// ValidateBirthYear requires an integer in [1900, current year].
func ValidateBirthYear(raw string) bool {
	return birthYearMessage(raw) == ""
}

// ValidatePatientCode case-normalizes to uppercase and requires exactly
// [A-Z0-9]{3,20}.
func ValidatePatientCode(code string) bool {
	trimmed := strings.TrimSpace(code)
	if utf8.RuneCountInString(trimmed) < PatientCodeMin {
		return false
	}
	return patientCodeRe.MatchString(strings.ToUpper(trimmed))
}

// ValidateRoomNumber requires a non-blank value of at most 50 characters.
// Room labels carry no character whitelist ("#", "/", "-", spaces are fine).
func ValidateRoomNumber(room string) bool {
	trimmed := strings.TrimSpace(room)
	if trimmed == "" {
		return false
	}
	return utf8.RuneCountInString(room) <= RoomNumberMax
}

// ValidateEmail applies an RFC-light pattern with no domain validation.
func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

func hasOption(options []models.TreatmentOption, want models.TreatmentOption) bool {
	for _, o := range options {
		if o == want {
			return true
		}
	}
	return false
}
