package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncoward/ward-api/internal/models"
)

func patient(name, code, room string, status models.AdmissionStatus) models.Patient {
	return models.Patient{Name: name, PatientCode: code, RoomNumber: room, Status: status}
}

func TestFilterShortTermIsNoOp(t *testing.T) {
	patients := []models.Patient{patient("Nguyễn Văn A", "BN001", "101", models.StatusInpatient)}
	assert.Equal(t, patients, Filter(patients, "a"))
	assert.Equal(t, patients, Filter(patients, ""))
}

func TestFilterMatchesAllFourFields(t *testing.T) {
	patients := []models.Patient{
		{Name: "Nguyễn Văn An", PatientCode: "BN001", RoomNumber: "101", Diagnosis: "Viêm phổi"},
		{Name: "Trần Thị Bích", PatientCode: "BN002", RoomNumber: "202", Diagnosis: "Sỏi thận"},
	}

	assert.Len(t, Filter(patients, "An"), 1)
	assert.Len(t, Filter(patients, "bn002"), 1)
	assert.Len(t, Filter(patients, "20"), 1)
	assert.Len(t, Filter(patients, "phổi"), 1)
	assert.Empty(t, Filter(patients, "không khớp"))
}

func TestGroupPartitionsByDischargeState(t *testing.T) {
	patients := []models.Patient{
		patient("A", "BN001", "1", models.StatusInpatient),
		patient("B", "BN002", "2", models.StatusDischarged),
		patient("C", "BN003", "3", models.StatusDischargeToday),
	}

	grouped := Group(patients)
	require.Len(t, grouped.Active, 2)
	require.Len(t, grouped.Discharged, 1)
	assert.Equal(t, "A", grouped.Active[0].Name)
	assert.Equal(t, "C", grouped.Active[1].Name, "discharge-today stays active")
	assert.Equal(t, "B", grouped.Discharged[0].Name)
}

func TestSortActiveByRoomIsNumericAware(t *testing.T) {
	patients := []models.Patient{
		patient("A", "BN001", "Room 10", models.StatusInpatient),
		patient("B", "BN002", "Room 9", models.StatusInpatient),
		patient("C", "BN003", "Room 100", models.StatusInpatient),
	}

	sorted := SortActive(patients, SortByRoom)
	assert.Equal(t, "Room 9", sorted[0].RoomNumber)
	assert.Equal(t, "Room 10", sorted[1].RoomNumber)
	assert.Equal(t, "Room 100", sorted[2].RoomNumber)
}

func TestSortActiveDoesNotMutateInput(t *testing.T) {
	patients := []models.Patient{
		patient("B", "BN002", "2", models.StatusInpatient),
		patient("A", "BN001", "1", models.StatusInpatient),
	}
	_ = SortActive(patients, SortByName)
	assert.Equal(t, "B", patients[0].Name)
}

func TestSortActiveByNameUsesVietnameseOrder(t *testing.T) {
	patients := []models.Patient{
		patient("Đặng Văn C", "BN003", "3", models.StatusInpatient),
		patient("An Nhiên", "BN001", "1", models.StatusInpatient),
		patient("Bình Minh", "BN002", "2", models.StatusInpatient),
	}

	sorted := SortActive(patients, SortByName)
	assert.Equal(t, "An Nhiên", sorted[0].Name)
	assert.Equal(t, "Bình Minh", sorted[1].Name)
	assert.Equal(t, "Đặng Văn C", sorted[2].Name)
}

func TestSortDischargedMostRecentFirst(t *testing.T) {
	older := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	patients := []models.Patient{
		{Name: "old", DischargedAt: &older},
		{Name: "none"},
		{Name: "new", DischargedAt: &newer},
		{Name: "fallback", UpdatedAt: updated},
	}

	sorted := SortDischarged(patients)
	require.Len(t, sorted, 4)
	assert.Equal(t, "new", sorted[0].Name)
	assert.Equal(t, "fallback", sorted[1].Name, "updatedAt substitutes for a missing dischargedAt")
	assert.Equal(t, "old", sorted[2].Name)
	assert.Equal(t, "none", sorted[3].Name, "records with no timestamp sort last")
}

func TestSortDischargedTiesKeepInputOrder(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	patients := []models.Patient{
		{Name: "first", DischargedAt: &ts},
		{Name: "second", DischargedAt: &ts},
	}
	sorted := SortDischarged(patients)
	assert.Equal(t, "first", sorted[0].Name)
	assert.Equal(t, "second", sorted[1].Name)
}

func TestCompareNatural(t *testing.T) {
	assert.Negative(t, CompareNatural("Room 9", "Room 10"))
	assert.Positive(t, CompareNatural("Room 100", "Room 10"))
	assert.Zero(t, CompareNatural("a10", "A10"))
	assert.Negative(t, CompareNatural("A1", "B1"))
	assert.Zero(t, CompareNatural("007", "7"))
	assert.Negative(t, CompareNatural("", "a"))
}
