// Package views holds the pure, deterministic transforms applied to the
// patient collection before display: full-text filtering, status grouping,
// and the two sort orders. No function here mutates its input.
package views

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/oncoward/ward-api/internal/models"
)

// SearchMinLength is the threshold below which the filter is a no-op.
const SearchMinLength = 2

// SortMode selects the active-list ordering.
type SortMode string

const (
	SortByRoom SortMode = "roomNumber"
	SortByName SortMode = "name"
)

var vietnameseCollator = collate.New(language.Vietnamese)

// Filter keeps patients whose name, patient code, room number or diagnosis
// contains the search term, case-insensitively. Terms shorter than
// SearchMinLength return the input unchanged.
func Filter(patients []models.Patient, term string) []models.Patient {
	if utf8.RuneCountInString(term) < SearchMinLength {
		return patients
	}

	needle := strings.ToLower(term)
	filtered := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.PatientCode), needle) ||
			strings.Contains(strings.ToLower(p.RoomNumber), needle) ||
			strings.Contains(strings.ToLower(p.Diagnosis), needle) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Grouped partitions the collection by discharge state, preserving relative
// input order in both groups.
type Grouped struct {
	Active     []models.Patient
	Discharged []models.Patient
}

// Group splits patients into active (status ≠ DISCHARGED) and discharged.
func Group(patients []models.Patient) Grouped {
	grouped := Grouped{
		Active:     make([]models.Patient, 0, len(patients)),
		Discharged: make([]models.Patient, 0),
	}
	for _, p := range patients {
		if p.Status == models.StatusDischarged {
			grouped.Discharged = append(grouped.Discharged, p)
		} else {
			grouped.Active = append(grouped.Active, p)
		}
	}
	return grouped
}

// SortActive orders the active list by patient name (Vietnamese collation)
// or by room number (numeric-aware, so "Room 9" sorts before "Room 10").
func SortActive(patients []models.Patient, mode SortMode) []models.Patient {
	sorted := append([]models.Patient(nil), patients...)
	if mode == SortByName {
		sort.SliceStable(sorted, func(i, j int) bool {
			return vietnameseCollator.CompareString(sorted[i].Name, sorted[j].Name) < 0
		})
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareNatural(sorted[i].RoomNumber, sorted[j].RoomNumber) < 0
	})
	return sorted
}

// SortDischarged orders the discharged list most-recent first, keyed on the
// first present timestamp of dischargedAt, updatedAt, createdAt. Records
// with no timestamp at all sort last; ties keep input order.
func SortDischarged(patients []models.Patient) []models.Patient {
	sorted := append([]models.Patient(nil), patients...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aOK := dischargeSortKey(sorted[i])
		b, bOK := dischargeSortKey(sorted[j])
		if aOK != bOK {
			return aOK
		}
		if !aOK {
			return false
		}
		return a.After(b)
	})
	return sorted
}

func dischargeSortKey(p models.Patient) (time.Time, bool) {
	if p.DischargedAt != nil && !p.DischargedAt.IsZero() {
		return *p.DischargedAt, true
	}
	if !p.UpdatedAt.IsZero() {
		return p.UpdatedAt, true
	}
	if !p.CreatedAt.IsZero() {
		return p.CreatedAt, true
	}
	return time.Time{}, false
}

// CompareNatural compares strings treating embedded digit runs as numbers.
// Non-digit segments compare case-insensitively, rune by rune.
func CompareNatural(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			numA, nextI := readDigits(ra, i)
			numB, nextJ := readDigits(rb, j)
			if cmp := compareDigits(numA, numB); cmp != 0 {
				return cmp
			}
			i, j = nextI, nextJ
			continue
		}
		la, lb := unicode.ToLower(ca), unicode.ToLower(cb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i < len(ra):
		return 1
	case j < len(rb):
		return -1
	}
	return 0
}

func readDigits(runes []rune, start int) (string, int) {
	end := start
	for end < len(runes) && unicode.IsDigit(runes[end]) {
		end++
	}
	return string(runes[start:end]), end
}

func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
