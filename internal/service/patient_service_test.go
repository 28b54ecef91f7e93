package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/internal/repository"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
)

type fakeDocumentStore struct {
	mu       sync.Mutex
	patients map[string]models.Patient
	nextID   int

	listErr    error
	createErr  error
	replaceErr error
	removeErr  error
	pingErr    error
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{patients: make(map[string]models.Patient)}
}

func (f *fakeDocumentStore) List(context.Context) ([]models.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Patient, 0, len(f.patients))
	for _, p := range f.patients {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeDocumentStore) Create(_ context.Context, patient models.Patient) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("id-%d", f.nextID)
	patient.ID = id
	f.patients[id] = patient
	return id, nil
}

func (f *fakeDocumentStore) Replace(_ context.Context, id string, patient models.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	if _, ok := f.patients[id]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, models.MsgNotFound)
	}
	patient.ID = id
	f.patients[id] = patient
	return nil
}

func (f *fakeDocumentStore) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	if _, ok := f.patients[id]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, models.MsgNotFound)
	}
	delete(f.patients, id)
	return nil
}

func (f *fakeDocumentStore) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeDocumentStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.patients)
}

type testStack struct {
	store        *fakeDocumentStore
	offline      *OfflineService
	status       *SyncStatusTracker
	connectivity *ConnectivityMonitor
	patients     *PatientService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	logger := zap.NewNop()

	stateRepo, err := repository.NewOfflineStateRepository(t.TempDir(), logger)
	require.NoError(t, err)

	store := newFakeDocumentStore()
	metrics := NewMetrics()
	status := NewSyncStatusTracker(time.Hour, logger)
	t.Cleanup(status.Close)
	connectivity := NewConnectivityMonitor(store, time.Hour, logger)
	offline := NewOfflineService(stateRepo, metrics, logger)
	cacheRepo := repository.NewCacheRepository(nil, logger)

	patients := NewPatientService(store, offline, status, connectivity, cacheRepo, time.Minute, metrics, logger)
	return &testStack{
		store:        store,
		offline:      offline,
		status:       status,
		connectivity: connectivity,
		patients:     patients,
	}
}

func admissionInput() SavePatientInput {
	return SavePatientInput{
		Name:        "Nguyễn Văn A",
		BirthYear:   1960,
		PatientCode: "BN001",
		RoomNumber:  "101",
		Reason:      "Đau bụng dữ dội vùng thượng vị",
		Diagnosis:   "Viêm dạ dày cấp",
		Status:      models.StatusInpatient,
		Notes:       "theo dõi thêm",
	}
}

func TestAddCreatesRecordWithHistory(t *testing.T) {
	stack := newTestStack(t)

	result, err := stack.patients.Add(context.Background(), admissionInput())
	require.NoError(t, err)
	assert.False(t, result.Queued)
	assert.NotEmpty(t, result.Patient.ID)

	require.Len(t, result.Patient.History, 1)
	assert.Equal(t, "Viêm dạ dày cấp", result.Patient.History[0].Diagnosis)
	assert.False(t, result.Patient.CreatedAt.IsZero())
	assert.Equal(t, result.Patient.CreatedAt, result.Patient.UpdatedAt)
	assert.Nil(t, result.Patient.DischargedAt)

	assert.Equal(t, 1, stack.store.count())
	assert.Len(t, stack.patients.Patients(), 1)
	assert.Equal(t, models.SyncSuccess, stack.status.Status().State)
}

func TestAddDirectlyDischargedStampsDischargedAt(t *testing.T) {
	stack := newTestStack(t)

	input := admissionInput()
	input.Status = models.StatusDischarged
	result, err := stack.patients.Add(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, result.Patient.DischargedAt)
}

func TestAddRemoteFailureLeavesCollectionUntouched(t *testing.T) {
	stack := newTestStack(t)
	stack.store.createErr = appErrors.Clone(appErrors.ErrRemoteUnavailable, models.MsgAddFailed)

	_, err := stack.patients.Add(context.Background(), admissionInput())
	require.Error(t, err)

	assert.Empty(t, stack.patients.Patients())
	assert.Equal(t, models.SyncError, stack.status.Status().State)
	assert.Equal(t, models.MsgAddFailed, stack.status.Status().Error)
	assert.False(t, stack.connectivity.Online(), "remote failure flips connectivity")
}

func TestUpdateAppendsHistoryAndRefreshesUpdatedAt(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	added, err := stack.patients.Add(ctx, admissionInput())
	require.NoError(t, err)

	stack.patients.now = func() time.Time { return added.Patient.CreatedAt.Add(time.Hour) }

	input := admissionInput()
	input.Diagnosis = "Viêm dạ dày mạn"
	input.NewNote = "tái khám sau 2 tuần"
	updated, err := stack.patients.Update(ctx, added.Patient.ID, input)
	require.NoError(t, err)

	require.Len(t, updated.Patient.History, 2)
	assert.Equal(t, "Viêm dạ dày mạn", updated.Patient.History[1].Diagnosis)
	assert.Equal(t, "tái khám sau 2 tuần", updated.Patient.History[1].Notes)
	assert.Equal(t, added.Patient.CreatedAt, updated.Patient.CreatedAt)
	assert.True(t, updated.Patient.UpdatedAt.After(added.Patient.UpdatedAt))
}

func TestUpdateDischargeTransitions(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	added, err := stack.patients.Add(ctx, admissionInput())
	require.NoError(t, err)

	// Into discharged: timestamp set.
	input := admissionInput()
	input.Status = models.StatusDischarged
	discharged, err := stack.patients.Update(ctx, added.Patient.ID, input)
	require.NoError(t, err)
	require.NotNil(t, discharged.Patient.DischargedAt)
	firstDischarge := *discharged.Patient.DischargedAt

	// Staying discharged: timestamp untouched.
	again, err := stack.patients.Update(ctx, added.Patient.ID, input)
	require.NoError(t, err)
	require.NotNil(t, again.Patient.DischargedAt)
	assert.Equal(t, firstDischarge, *again.Patient.DischargedAt)

	// Back to inpatient: timestamp cleared.
	input.Status = models.StatusInpatient
	readmitted, err := stack.patients.Update(ctx, added.Patient.ID, input)
	require.NoError(t, err)
	assert.Nil(t, readmitted.Patient.DischargedAt)
}

func TestUpdateUnknownPatient(t *testing.T) {
	stack := newTestStack(t)
	_, err := stack.patients.Update(context.Background(), "missing", admissionInput())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteRemovesFromStoreAndCollection(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	added, err := stack.patients.Add(ctx, admissionInput())
	require.NoError(t, err)

	result, err := stack.patients.Delete(ctx, added.Patient.ID)
	require.NoError(t, err)
	assert.False(t, result.Queued)
	assert.Zero(t, stack.store.count())
	assert.Empty(t, stack.patients.Patients())
}

func TestMutationsQueueWhileOffline(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	added, err := stack.patients.Add(ctx, admissionInput())
	require.NoError(t, err)

	stack.connectivity.ReportOffline()

	result, err := stack.patients.Delete(ctx, added.Patient.ID)
	require.NoError(t, err)
	assert.True(t, result.Queued)

	// Nothing happened yet, neither remotely nor locally.
	assert.Equal(t, 1, stack.store.count())
	assert.Len(t, stack.patients.Patients(), 1)

	pending := stack.offline.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, models.ChangeDelete, pending[0].Type)
	assert.Equal(t, added.Patient.ID, pending[0].PatientID)
}

func TestSyncPendingChangesReplaysQueueInOrder(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	added, err := stack.patients.Add(ctx, admissionInput())
	require.NoError(t, err)

	stack.connectivity.ReportOffline()

	second := admissionInput()
	second.Name = "Trần Thị B"
	second.PatientCode = "BN002"
	queuedAdd, err := stack.patients.Add(ctx, second)
	require.NoError(t, err)
	require.True(t, queuedAdd.Queued)

	queuedDelete, err := stack.patients.Delete(ctx, added.Patient.ID)
	require.NoError(t, err)
	require.True(t, queuedDelete.Queued)

	stack.connectivity.ReportOnline()
	stack.patients.SyncPendingChanges(ctx)

	assert.Empty(t, stack.offline.Pending())
	assert.Equal(t, 1, stack.store.count(), "add replayed, then delete replayed")
	patients := stack.patients.Patients()
	require.Len(t, patients, 1)
	assert.Equal(t, "Trần Thị B", patients[0].Name)
	assert.Equal(t, models.SyncSuccess, stack.status.Status().State)
}

func TestSyncPendingChangesStopsOnFailure(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	stack.connectivity.ReportOffline()
	first, err := stack.patients.Add(ctx, admissionInput())
	require.NoError(t, err)
	require.True(t, first.Queued)
	second := admissionInput()
	second.PatientCode = "BN002"
	_, err = stack.patients.Add(ctx, second)
	require.NoError(t, err)

	stack.store.createErr = appErrors.Clone(appErrors.ErrRemoteUnavailable, models.MsgAddFailed)
	stack.patients.SyncPendingChanges(ctx)

	// Nothing replayed; both changes still queued, in order.
	assert.Len(t, stack.offline.Pending(), 2)
	assert.Equal(t, models.SyncError, stack.status.Status().State)
	assert.False(t, stack.connectivity.Online())
}

func TestSyncPendingChangesDropsUpdateForRemotelyDeletedRecord(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	added, err := stack.patients.Add(ctx, admissionInput())
	require.NoError(t, err)

	stack.connectivity.ReportOffline()

	input := admissionInput()
	input.NewNote = "chuyển phòng"
	queuedUpdate, err := stack.patients.Update(ctx, added.Patient.ID, input)
	require.NoError(t, err)
	require.True(t, queuedUpdate.Queued)

	second := admissionInput()
	second.Name = "Trần Thị B"
	second.PatientCode = "BN002"
	queuedAdd, err := stack.patients.Add(ctx, second)
	require.NoError(t, err)
	require.True(t, queuedAdd.Queued)

	// Another client removed the record while this one sat offline. The
	// stale update must not block the add queued behind it.
	stack.store.mu.Lock()
	delete(stack.store.patients, added.Patient.ID)
	stack.store.mu.Unlock()

	stack.connectivity.ReportOnline()
	stack.patients.SyncPendingChanges(ctx)

	assert.Empty(t, stack.offline.Pending())
	assert.Equal(t, models.SyncSuccess, stack.status.Status().State)
	patients := stack.patients.Patients()
	require.Len(t, patients, 1)
	assert.Equal(t, "Trần Thị B", patients[0].Name)
}

func TestRefreshReplacesCollection(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	_, err := stack.patients.Add(ctx, admissionInput())
	require.NoError(t, err)

	patients, err := stack.patients.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
	assert.Equal(t, models.SyncSuccess, stack.status.Status().State)
}

func TestRefreshFailureServesOfflineSnapshot(t *testing.T) {
	stack := newTestStack(t)

	snapshot := []models.Patient{{ID: "p1", Name: "Nguyễn Văn A", PatientCode: "BN001"}}
	require.NoError(t, stack.offline.SaveSnapshot(snapshot))

	stack.store.listErr = appErrors.Clone(appErrors.ErrRemoteUnavailable, models.MsgFetchFailed)
	patients, err := stack.patients.Refresh(context.Background())
	require.NoError(t, err, "stale data beats no data")
	require.Len(t, patients, 1)
	assert.Equal(t, "BN001", patients[0].PatientCode)
	assert.Equal(t, models.SyncError, stack.status.Status().State)
	assert.Equal(t, models.MsgFetchFailed, stack.status.Status().Error)
}

func TestRefreshFailureWithLoadedCollectionKeepsIt(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	_, err := stack.patients.Add(ctx, admissionInput())
	require.NoError(t, err)

	stack.store.listErr = appErrors.Clone(appErrors.ErrRemoteUnavailable, models.MsgFetchFailed)
	_, err = stack.patients.Refresh(ctx)
	require.Error(t, err)
	assert.Len(t, stack.patients.Patients(), 1)
}

func TestSanitizationAppliedOnSave(t *testing.T) {
	stack := newTestStack(t)

	input := admissionInput()
	input.Name = "Nguyễn Văn A"
	input.Notes = "<script>alert(1)</script>ổn định"
	input.PatientCode = "bn001"

	result, err := stack.patients.Add(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Nguyễn Văn A", result.Patient.Name)
	assert.Equal(t, "BN001", result.Patient.PatientCode)
	assert.NotContains(t, result.Patient.Notes, "<")
	assert.Contains(t, result.Patient.Notes, "ổn định")
}
