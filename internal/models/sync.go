package models

import "time"

// SyncState is the process-wide synchronisation indicator. One value at a
// time; success auto-reverts to idle after a short delay.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncLoading SyncState = "loading"
	SyncSyncing SyncState = "syncing"
	SyncSuccess SyncState = "success"
	SyncError   SyncState = "error"
)

// SyncStatus couples the state with its user-facing error message, populated
// only in the error state.
type SyncStatus struct {
	State SyncState `json:"status"`
	Error string    `json:"error,omitempty"`
}

// ChangeType identifies the kind of queued mutation.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// PendingChange is a mutation captured while the remote store was
// unreachable. It is consumed only after a successful replay.
type PendingChange struct {
	ID        string     `json:"id"`
	Type      ChangeType `json:"type"`
	PatientID string     `json:"patientId,omitempty"`
	Data      *Patient   `json:"data,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// OfflineState is the durable snapshot persisted under the offline storage
// key. Consumers must tolerate an absent or malformed entry by treating it
// as empty.
type OfflineState struct {
	Patients       []Patient       `json:"patients"`
	LastSync       time.Time       `json:"lastSync"`
	PendingChanges []PendingChange `json:"pendingChanges"`
}

// BackupMetadata summarises a backup payload.
type BackupMetadata struct {
	TotalPatients      int `json:"totalPatients"`
	ActivePatients     int `json:"activePatients"`
	DischargedPatients int `json:"dischargedPatients"`
}

// Backup is the export/restore envelope.
type Backup struct {
	Version   string         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Data      []Patient      `json:"data"`
	Metadata  BackupMetadata `json:"metadata"`
}
