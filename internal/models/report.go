package models

import "time"

// ReportFormat enumerates the rendered export formats.
type ReportFormat string

const (
	ReportCSV  ReportFormat = "csv"
	ReportPDF  ReportFormat = "pdf"
	ReportJSON ReportFormat = "json"
)

// Valid reports whether the format is supported.
func (f ReportFormat) Valid() bool {
	switch f {
	case ReportCSV, ReportPDF, ReportJSON:
		return true
	}
	return false
}

// ReportStatus tracks a report job through its lifetime.
type ReportStatus string

const (
	ReportPending   ReportStatus = "PENDING"
	ReportCompleted ReportStatus = "COMPLETED"
	ReportFailed    ReportStatus = "FAILED"
)

// ReportJob is an asynchronous export request: rendered off the request
// path, downloadable through a signed, expiring token.
type ReportJob struct {
	ID          string       `json:"id"`
	Format      ReportFormat `json:"format"`
	Status      ReportStatus `json:"status"`
	FileName    string       `json:"fileName,omitempty"`
	DownloadURL string       `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time   `json:"expiresAt,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}
