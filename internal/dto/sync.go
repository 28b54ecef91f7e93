package dto

import (
	"time"

	"github.com/oncoward/ward-api/internal/models"
)

// SyncStatusResponse reports the process-wide sync indicator together with
// connectivity and queue depth.
type SyncStatusResponse struct {
	Status         models.SyncState `json:"status"`
	Error          string           `json:"error,omitempty"`
	Online         bool             `json:"online"`
	PendingChanges int              `json:"pendingChanges"`
}

// PendingChangesResponse lists the queued offline mutations in replay order.
type PendingChangesResponse struct {
	Changes []models.PendingChange `json:"changes"`
	Count   int                    `json:"count"`
}

// ImportResponse summarises an import: how many records were accepted and
// how many were dropped as invalid.
type ImportResponse struct {
	Imported int    `json:"imported"`
	Dropped  int    `json:"dropped"`
	Message  string `json:"message,omitempty"`
}

// ReportRequest asks for an export in one of the supported formats.
type ReportRequest struct {
	Format string `json:"format" binding:"required,oneof=csv pdf json"`
}

// LoginRequest carries the ward account credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
