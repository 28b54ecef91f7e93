package validation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncoward/ward-api/internal/models"
)

func validForm() PatientForm {
	return PatientForm{
		Name:        "Nguyễn Văn A",
		BirthYear:   "1960",
		PatientCode: "BN001",
		RoomNumber:  "101",
		Reason:      "Đau bụng dữ dội vùng thượng vị",
		Diagnosis:   "Viêm dạ dày cấp",
	}
}

func TestValidatePatientFormValid(t *testing.T) {
	assert.Empty(t, ValidatePatientForm(validForm()))
}

func TestValidatePatientFormReportsAllViolations(t *testing.T) {
	form := PatientForm{
		Name:        "A",
		BirthYear:   "not-a-year",
		PatientCode: "x",
		RoomNumber:  "",
		Reason:      "ngắn",
		Diagnosis:   "vd",
	}
	errs := ValidatePatientForm(form)
	fields := errs.Map()

	require.Len(t, fields, 6)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "birthYear")
	assert.Contains(t, fields, "patientCode")
	assert.Contains(t, fields, "roomNumber")
	assert.Contains(t, fields, "reason")
	assert.Contains(t, fields, "diagnosis")
}

func TestValidatePatientFormMessagesAreVietnamese(t *testing.T) {
	form := validForm()
	form.Name = "A"
	errs := ValidatePatientForm(form)
	require.Len(t, errs, 1)
	assert.Equal(t, "Họ tên phải có ít nhất 2 ký tự", errs[0].Message)
}

func TestValidateName(t *testing.T) {
	assert.True(t, ValidateName("Nguyễn Thị Ánh Hồng"))
	assert.True(t, ValidateName("Trần Văn B"))
	assert.False(t, ValidateName("A"))
	assert.False(t, ValidateName("Nguyễn Văn A 2"))
	assert.False(t, ValidateName(strings.Repeat("a", 101)))
	assert.False(t, ValidateName(""))
}

func TestValidateBirthYear(t *testing.T) {
	current := time.Now().Year()
	assert.True(t, ValidateBirthYear("1900"))
	assert.True(t, ValidateBirthYear(fmt.Sprintf("%d", current)))
	assert.False(t, ValidateBirthYear("1899"))
	assert.False(t, ValidateBirthYear(fmt.Sprintf("%d", current+1)))
	assert.False(t, ValidateBirthYear("abc"))
	assert.False(t, ValidateBirthYear(""))
}

func TestValidatePatientCode(t *testing.T) {
	assert.True(t, ValidatePatientCode("BN001"))
	assert.True(t, ValidatePatientCode("bn001"), "lowercase input normalises to uppercase")
	assert.False(t, ValidatePatientCode("BN-001"), "hyphen is outside the charset")
	assert.False(t, ValidatePatientCode("BN"))
	assert.False(t, ValidatePatientCode(strings.Repeat("B", 21)))
}

func TestValidateRoomNumber(t *testing.T) {
	assert.True(t, ValidateRoomNumber("101"))
	assert.True(t, ValidateRoomNumber("Phòng #12/A"))
	assert.True(t, ValidateRoomNumber(strings.Repeat("a", 50)))
	assert.False(t, ValidateRoomNumber(strings.Repeat("a", 51)))
	assert.False(t, ValidateRoomNumber(""))
	assert.False(t, ValidateRoomNumber("   "))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("y.ta@benhvien.vn"))
	assert.False(t, ValidateEmail("y.ta@benhvien"))
	assert.False(t, ValidateEmail("not-an-email"))
}

func TestValidatePatientFormSurgeryFields(t *testing.T) {
	form := validForm()
	form.TreatmentOptions = []models.TreatmentOption{models.TreatmentSurgery}
	form.SurgeryProcedure = "ab"
	form.Surgeon = "c"

	fields := ValidatePatientForm(form).Map()
	assert.Contains(t, fields, "surgeryProcedure")
	assert.Contains(t, fields, "surgeon")

	// Empty surgery sub-fields stay optional.
	form.SurgeryProcedure = ""
	form.Surgeon = ""
	assert.Empty(t, ValidatePatientForm(form))

	// Without the surgery option the sub-fields are ignored entirely.
	form.TreatmentOptions = nil
	form.SurgeryProcedure = "ab"
	assert.Empty(t, ValidatePatientForm(form))
}
