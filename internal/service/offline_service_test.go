package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/internal/repository"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
)

type scriptedApplier struct {
	applied []models.PendingChange
	failOn  int // 1-based index of the call that fails; 0 never fails
	calls   int
}

func (a *scriptedApplier) Apply(_ context.Context, change models.PendingChange) error {
	a.calls++
	if a.failOn > 0 && a.calls == a.failOn {
		return appErrors.Clone(appErrors.ErrRemoteUnavailable, models.MsgNetworkError)
	}
	a.applied = append(a.applied, change)
	return nil
}

func newOfflineFixture(t *testing.T) (*OfflineService, *repository.OfflineStateRepository) {
	t.Helper()
	stateRepo, err := repository.NewOfflineStateRepository(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return NewOfflineService(stateRepo, NewMetrics(), zap.NewNop()), stateRepo
}

func TestEnqueueStampsAndPersists(t *testing.T) {
	svc, stateRepo := newOfflineFixture(t)

	patient := models.Patient{Name: "Nguyễn Văn A", PatientCode: "BN001"}
	require.NoError(t, svc.Enqueue(models.PendingChange{Type: models.ChangeAdd, Data: &patient}, nil))

	pending := svc.Pending()
	require.Len(t, pending, 1)
	assert.NotEmpty(t, pending[0].ID)
	assert.False(t, pending[0].Timestamp.IsZero())

	// A fresh service over the same storage sees the queue.
	restarted := NewOfflineService(stateRepo, NewMetrics(), zap.NewNop())
	assert.Len(t, restarted.Pending(), 1)
}

func TestDrainRemovesChangesAsApplied(t *testing.T) {
	svc, stateRepo := newOfflineFixture(t)
	applier := &scriptedApplier{}
	svc.SetApplier(applier)

	for _, code := range []string{"BN001", "BN002", "BN003"} {
		patient := models.Patient{Name: "x", PatientCode: code}
		require.NoError(t, svc.Enqueue(models.PendingChange{Type: models.ChangeAdd, Data: &patient}, nil))
	}

	require.NoError(t, svc.Drain(context.Background()))

	assert.Empty(t, svc.Pending())
	require.Len(t, applier.applied, 3)
	assert.Equal(t, "BN001", applier.applied[0].Data.PatientCode, "strict FIFO replay")
	assert.Equal(t, "BN003", applier.applied[2].Data.PatientCode)
	assert.Empty(t, stateRepo.Load().PendingChanges)
}

func TestDrainFailureLeavesRemainderDurable(t *testing.T) {
	svc, stateRepo := newOfflineFixture(t)
	applier := &scriptedApplier{failOn: 2}
	svc.SetApplier(applier)

	for _, code := range []string{"BN001", "BN002", "BN003"} {
		patient := models.Patient{Name: "x", PatientCode: code}
		require.NoError(t, svc.Enqueue(models.PendingChange{Type: models.ChangeAdd, Data: &patient}, nil))
	}

	err := svc.Drain(context.Background())
	require.Error(t, err)

	// The first change was consumed, the failed one and its successor stay.
	pending := svc.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "BN002", pending[0].Data.PatientCode)
	assert.Equal(t, "BN003", pending[1].Data.PatientCode)
	assert.Len(t, stateRepo.Load().PendingChanges, 2)

	// A later drain resumes where the failed one stopped.
	applier.failOn = 0
	require.NoError(t, svc.Drain(context.Background()))
	assert.Empty(t, svc.Pending())
}

func TestDrainWithoutApplierIsNoOp(t *testing.T) {
	svc, _ := newOfflineFixture(t)
	patient := models.Patient{Name: "x", PatientCode: "BN001"}
	require.NoError(t, svc.Enqueue(models.PendingChange{Type: models.ChangeAdd, Data: &patient}, nil))
	require.NoError(t, svc.Drain(context.Background()))
	assert.Len(t, svc.Pending(), 1)
}

func TestSaveSnapshotKeepsQueue(t *testing.T) {
	svc, stateRepo := newOfflineFixture(t)
	patient := models.Patient{Name: "x", PatientCode: "BN001"}
	require.NoError(t, svc.Enqueue(models.PendingChange{Type: models.ChangeAdd, Data: &patient}, nil))

	require.NoError(t, svc.SaveSnapshot([]models.Patient{{ID: "p1", Name: "y"}}))

	state := stateRepo.Load()
	assert.Len(t, state.Patients, 1)
	assert.Len(t, state.PendingChanges, 1)
	assert.False(t, state.LastSync.IsZero())
}

func TestClearDropsQueueAndStorage(t *testing.T) {
	svc, stateRepo := newOfflineFixture(t)
	patient := models.Patient{Name: "x", PatientCode: "BN001"}
	require.NoError(t, svc.Enqueue(models.PendingChange{Type: models.ChangeAdd, Data: &patient}, nil))

	require.NoError(t, svc.Clear())
	assert.Empty(t, svc.Pending())
	assert.Empty(t, stateRepo.Load().PendingChanges)
}
