package repository

import (
	"context"

	"github.com/oncoward/ward-api/internal/models"
)

// DocumentStore is the remote persistence contract the record store
// synchronises against: document CRUD by ID over a network that may fail.
// IDs are assigned by the store on creation.
type DocumentStore interface {
	List(ctx context.Context) ([]models.Patient, error)
	Create(ctx context.Context, patient models.Patient) (string, error)
	Replace(ctx context.Context, id string, patient models.Patient) error
	Remove(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
