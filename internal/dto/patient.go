package dto

import (
	"strconv"
	"strings"
	"time"

	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/internal/service"
	"github.com/oncoward/ward-api/internal/validation"
)

// SurgeryRequest mirrors the optional surgery block of the admission form.
type SurgeryRequest struct {
	Procedure  string     `json:"procedure"`
	Date       *time.Time `json:"date"`
	Surgeon    string     `json:"surgeon"`
	Assistant1 string     `json:"assistant1"`
	Assistant2 string     `json:"assistant2"`
}

// PatientRequest is the admission form as submitted. BirthYear and Status
// arrive as strings so validation can report form-level messages instead of
// JSON binding errors.
type PatientRequest struct {
	Name             string          `json:"name"`
	BirthYear        string          `json:"birthYear"`
	PatientCode      string          `json:"patientCode"`
	RoomNumber       string          `json:"roomNumber"`
	Reason           string          `json:"reason"`
	Diagnosis        string          `json:"diagnosis"`
	Status           string          `json:"status"`
	Notes            string          `json:"notes"`
	TreatmentOptions []string        `json:"treatmentOptions"`
	SurgeryDetails   *SurgeryRequest `json:"surgeryDetails"`
	NewNote          string          `json:"newNote"`
}

// Form converts the request into the validation form.
func (r PatientRequest) Form() validation.PatientForm {
	form := validation.PatientForm{
		Name:             r.Name,
		BirthYear:        r.BirthYear,
		PatientCode:      r.PatientCode,
		RoomNumber:       r.RoomNumber,
		Reason:           r.Reason,
		Diagnosis:        r.Diagnosis,
		TreatmentOptions: r.treatmentOptions(),
	}
	if r.SurgeryDetails != nil {
		form.SurgeryProcedure = r.SurgeryDetails.Procedure
		form.Surgeon = r.SurgeryDetails.Surgeon
	}
	return form
}

// Input converts the request into the record store's save input. Call only
// after validation succeeded; unknown statuses default to inpatient.
func (r PatientRequest) Input() service.SavePatientInput {
	year, _ := strconv.Atoi(strings.TrimSpace(r.BirthYear))
	status, ok := models.ParseAdmissionStatus(r.Status)
	if !ok {
		status = models.StatusInpatient
	}

	input := service.SavePatientInput{
		Name:             r.Name,
		BirthYear:        year,
		PatientCode:      r.PatientCode,
		RoomNumber:       r.RoomNumber,
		Reason:           r.Reason,
		Diagnosis:        r.Diagnosis,
		Status:           status,
		Notes:            r.Notes,
		TreatmentOptions: r.treatmentOptions(),
		NewNote:          r.NewNote,
	}
	if r.SurgeryDetails != nil {
		input.SurgeryDetails = &models.SurgeryDetails{
			Procedure:  r.SurgeryDetails.Procedure,
			Date:       r.SurgeryDetails.Date,
			Surgeon:    r.SurgeryDetails.Surgeon,
			Assistant1: r.SurgeryDetails.Assistant1,
			Assistant2: r.SurgeryDetails.Assistant2,
		}
	}
	return input
}

func (r PatientRequest) treatmentOptions() []models.TreatmentOption {
	if len(r.TreatmentOptions) == 0 {
		return nil
	}
	options := make([]models.TreatmentOption, 0, len(r.TreatmentOptions))
	for _, raw := range r.TreatmentOptions {
		if option, ok := models.ParseTreatmentOption(raw); ok {
			options = append(options, option)
		}
	}
	return options
}

// ListQuery carries the derived-view parameters of the list endpoint.
type ListQuery struct {
	Search string `form:"search"`
	SortBy string `form:"sortBy,default=roomNumber"`
}

// GroupedPatientsResponse is the list endpoint payload: the two display
// groups, already sorted.
type GroupedPatientsResponse struct {
	Active     []models.Patient `json:"active"`
	Discharged []models.Patient `json:"discharged"`
}
