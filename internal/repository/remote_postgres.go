package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oncoward/ward-api/internal/models"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
)

// PostgresDocumentStore is the embedded alternative to the HTTP remote:
// each patient is stored as one JSONB document row. Used by self-hosted
// deployments where the ward server also hosts the store.
type PostgresDocumentStore struct {
	db *sqlx.DB
}

// NewPostgresDocumentStore constructs the store.
func NewPostgresDocumentStore(db *sqlx.DB) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db}
}

type patientRow struct {
	ID        string    `db:"id"`
	Document  []byte    `db:"document"`
	CreatedAt time.Time `db:"created_at"`
}

// List returns the full collection, newest rows first so fresh admissions
// surface at the top like the in-memory prepend does.
func (s *PostgresDocumentStore) List(ctx context.Context) ([]models.Patient, error) {
	var rows []patientRow
	err := s.db.SelectContext(ctx, &rows, `SELECT id, document, created_at FROM patient_documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgFetchFailed)
	}

	patients := make([]models.Patient, 0, len(rows))
	for _, row := range rows {
		var patient models.Patient
		if err := json.Unmarshal(row.Document, &patient); err != nil {
			// A corrupt document should not hide the rest of the ward.
			continue
		}
		patient.ID = row.ID
		patients = append(patients, patient)
	}
	return patients, nil
}

// Create inserts a new document and returns the generated ID.
func (s *PostgresDocumentStore) Create(ctx context.Context, patient models.Patient) (string, error) {
	id := uuid.NewString()
	patient.ID = id
	document, err := json.Marshal(patient)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, models.MsgAddFailed)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO patient_documents (id, document, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())`,
		id, document)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgAddFailed)
	}
	return id, nil
}

// Replace overwrites the document with the given ID.
func (s *PostgresDocumentStore) Replace(ctx context.Context, id string, patient models.Patient) error {
	patient.ID = id
	document, err := json.Marshal(patient)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, models.MsgUpdateFailed)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE patient_documents SET document = $2, updated_at = NOW() WHERE id = $1`,
		id, document)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgUpdateFailed)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, models.MsgNotFound)
	}
	return nil
}

// Remove deletes the document with the given ID.
func (s *PostgresDocumentStore) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM patient_documents WHERE id = $1`, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgDeleteFailed)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, models.MsgNotFound)
	}
	return nil
}

// Ping verifies database reachability.
func (s *PostgresDocumentStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgNetworkError)
	}
	return nil
}
