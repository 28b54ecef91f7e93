package models

import (
	"strings"
	"time"
)

// AdmissionStatus enumerates the admission lifecycle of a patient.
type AdmissionStatus string

const (
	StatusInpatient      AdmissionStatus = "INPATIENT"
	StatusDischargeToday AdmissionStatus = "DISCHARGE_TODAY"
	StatusDischarged     AdmissionStatus = "DISCHARGED"
)

var admissionStatusLabels = map[AdmissionStatus]string{
	StatusInpatient:      "Nội trú",
	StatusDischargeToday: "Dự kiến ra viện",
	StatusDischarged:     "Ra viện",
}

// Label returns the Vietnamese display string used on reports and exports.
func (s AdmissionStatus) Label() string {
	if label, ok := admissionStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether the status is one of the three permitted values.
func (s AdmissionStatus) Valid() bool {
	_, ok := admissionStatusLabels[s]
	return ok
}

// ParseAdmissionStatus accepts the enum value or its Vietnamese label.
func ParseAdmissionStatus(raw string) (AdmissionStatus, bool) {
	candidate := AdmissionStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate, true
	}
	trimmed := strings.TrimSpace(raw)
	for status, label := range admissionStatusLabels {
		if label == trimmed {
			return status, true
		}
	}
	return "", false
}

// TreatmentOption enumerates treatment directions. A patient may carry zero
// or more options; order is irrelevant.
type TreatmentOption string

const (
	TreatmentSurgery        TreatmentOption = "SURGERY"
	TreatmentChemotherapy   TreatmentOption = "CHEMOTHERAPY"
	TreatmentPalliativeCare TreatmentOption = "PALLIATIVE_CARE"
)

var treatmentOptionLabels = map[TreatmentOption]string{
	TreatmentSurgery:        "Phẫu thuật",
	TreatmentChemotherapy:   "Hoá trị",
	TreatmentPalliativeCare: "Chăm sóc giảm nhẹ",
}

// Label returns the Vietnamese display string.
func (t TreatmentOption) Label() string {
	if label, ok := treatmentOptionLabels[t]; ok {
		return label
	}
	return string(t)
}

// Valid reports whether the option is recognised.
func (t TreatmentOption) Valid() bool {
	_, ok := treatmentOptionLabels[t]
	return ok
}

// ParseTreatmentOption accepts the enum value or its Vietnamese label.
func ParseTreatmentOption(raw string) (TreatmentOption, bool) {
	candidate := TreatmentOption(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate, true
	}
	trimmed := strings.TrimSpace(raw)
	for option, label := range treatmentOptionLabels {
		if label == trimmed {
			return option, true
		}
	}
	return "", false
}

// SurgeryDetails is present only when TreatmentSurgery is selected.
// All sub-fields are optional.
type SurgeryDetails struct {
	Procedure  string     `json:"procedure,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Surgeon    string     `json:"surgeon,omitempty"`
	Assistant1 string     `json:"assistant1,omitempty"`
	Assistant2 string     `json:"assistant2,omitempty"`
}

// HistoryEntry is one immutable row of a patient's treatment log.
type HistoryEntry struct {
	Date      time.Time `json:"date"`
	Diagnosis string    `json:"diagnosis"`
	Notes     string    `json:"notes"`
}

// Patient is the central entity of the ward tracker.
type Patient struct {
	ID               string            `json:"id,omitempty"`
	Name             string            `json:"name"`
	BirthYear        int               `json:"birthYear"`
	PatientCode      string            `json:"patientCode"`
	RoomNumber       string            `json:"roomNumber"`
	Reason           string            `json:"reason"`
	Diagnosis        string            `json:"diagnosis"`
	Status           AdmissionStatus   `json:"status"`
	Notes            string            `json:"notes"`
	TreatmentOptions []TreatmentOption `json:"treatmentOptions,omitempty"`
	SurgeryDetails   *SurgeryDetails   `json:"surgeryDetails,omitempty"`
	History          []HistoryEntry    `json:"history,omitempty"`
	DischargedAt     *time.Time        `json:"dischargedAt,omitempty"`
	CreatedAt        time.Time         `json:"createdAt,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt,omitempty"`
}

// HasTreatment reports whether the option is among the patient's selections.
func (p *Patient) HasTreatment(option TreatmentOption) bool {
	for _, t := range p.TreatmentOptions {
		if t == option {
			return true
		}
	}
	return false
}

// LastHistoryDate returns the date of the most recent history entry. History
// is append-only, so the last element is the newest.
func (p *Patient) LastHistoryDate() (time.Time, bool) {
	if len(p.History) == 0 {
		return time.Time{}, false
	}
	return p.History[len(p.History)-1].Date, true
}

// Clone returns a deep copy so callers can never alias store-owned slices.
func (p Patient) Clone() Patient {
	clone := p
	if p.TreatmentOptions != nil {
		clone.TreatmentOptions = append([]TreatmentOption(nil), p.TreatmentOptions...)
	}
	if p.History != nil {
		clone.History = append([]HistoryEntry(nil), p.History...)
	}
	if p.SurgeryDetails != nil {
		details := *p.SurgeryDetails
		if p.SurgeryDetails.Date != nil {
			date := *p.SurgeryDetails.Date
			details.Date = &date
		}
		clone.SurgeryDetails = &details
	}
	if p.DischargedAt != nil {
		ts := *p.DischargedAt
		clone.DischargedAt = &ts
	}
	return clone
}

// ClonePatients deep-copies a patient slice.
func ClonePatients(patients []Patient) []Patient {
	if patients == nil {
		return nil
	}
	out := make([]Patient, len(patients))
	for i := range patients {
		out[i] = patients[i].Clone()
	}
	return out
}
