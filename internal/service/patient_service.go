package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/internal/repository"
	"github.com/oncoward/ward-api/internal/validation"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
)

// PatientListCacheKey is the Redis key holding the list snapshot.
const PatientListCacheKey = "ward:patients:list"

// SavePatientInput carries the already-validated admission form. Free-text
// fields are sanitised again on the way in; validation happens at the edge.
type SavePatientInput struct {
	Name             string
	BirthYear        int
	PatientCode      string
	RoomNumber       string
	Reason           string
	Diagnosis        string
	Status           models.AdmissionStatus
	Notes            string
	TreatmentOptions []models.TreatmentOption
	SurgeryDetails   *models.SurgeryDetails
	NewNote          string
}

// SaveResult reports the outcome of a mutation. Queued means the remote was
// unreachable and the change sits in the offline queue instead of the store.
type SaveResult struct {
	Patient models.Patient
	Queued  bool
}

// PatientService is the record store: it owns the in-memory collection,
// mirrors every confirmed mutation to the remote document store, and hands
// mutations to the offline queue while the remote is unreachable. Local
// state changes only after the remote confirms, so the collection and the
// store never silently diverge.
type PatientService struct {
	remote       repository.DocumentStore
	offline      *OfflineService
	status       *SyncStatusTracker
	connectivity *ConnectivityMonitor
	cache        *repository.CacheRepository
	cacheTTL     time.Duration
	metrics      *Metrics
	logger       *zap.Logger

	mu       sync.RWMutex
	patients []models.Patient
	loaded   bool

	now func() time.Time
}

// NewPatientService wires the record store and registers it as the offline
// queue's replay target.
func NewPatientService(
	remote repository.DocumentStore,
	offline *OfflineService,
	status *SyncStatusTracker,
	connectivity *ConnectivityMonitor,
	cache *repository.CacheRepository,
	cacheTTL time.Duration,
	metrics *Metrics,
	logger *zap.Logger,
) *PatientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &PatientService{
		remote:       remote,
		offline:      offline,
		status:       status,
		connectivity: connectivity,
		cache:        cache,
		cacheTTL:     cacheTTL,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
	offline.SetApplier(svc)
	return svc
}

// Refresh fetches the full collection from the remote store. On success the
// in-memory collection is replaced wholesale. On failure the collection is
// left untouched; if nothing was loaded yet the last offline snapshot is
// served instead so the ward list survives a dead remote.
func (s *PatientService) Refresh(ctx context.Context) ([]models.Patient, error) {
	s.status.Set(models.SyncLoading, "")

	patients, err := s.remote.List(ctx)
	if err != nil {
		s.metrics.ObserveSyncOperation("fetch", "error")
		s.status.Set(models.SyncError, models.MsgFetchFailed)
		if appErrors.IsRemote(err) {
			s.connectivity.ReportOffline()
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loaded {
			if snapshot := s.loadFallbackLocked(ctx); snapshot != nil {
				s.patients = snapshot
				s.loaded = true
				s.logger.Warn("serving offline snapshot, remote fetch failed",
					zap.Int("patients", len(snapshot)), zap.Error(err))
				return models.ClonePatients(snapshot), nil
			}
		}
		return nil, err
	}

	s.metrics.ObserveSyncOperation("fetch", "success")
	s.connectivity.ReportOnline()

	s.mu.Lock()
	s.patients = patients
	s.loaded = true
	snapshot := models.ClonePatients(s.patients)
	s.mu.Unlock()

	s.status.Set(models.SyncSuccess, "")
	s.storeSnapshot(ctx, snapshot)
	return snapshot, nil
}

// List returns the collection, loading it on first use.
func (s *PatientService) List(ctx context.Context) ([]models.Patient, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return models.ClonePatients(s.patients), nil
	}
	s.mu.RUnlock()
	return s.Refresh(ctx)
}

// Patients returns the current in-memory collection without touching the
// remote.
func (s *PatientService) Patients() []models.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ClonePatients(s.patients)
}

// Get returns one patient by ID.
func (s *PatientService) Get(id string) (models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.patients {
		if s.patients[i].ID == id {
			return s.patients[i].Clone(), nil
		}
	}
	return models.Patient{}, appErrors.Clone(appErrors.ErrNotFound, models.MsgNotFound)
}

// Add admits a new patient. Online, the remote store must confirm before the
// collection changes; offline, the fully-built record is queued for replay
// and the collection stays untouched until the replay lands.
func (s *PatientService) Add(ctx context.Context, input SavePatientInput) (SaveResult, error) {
	patient := s.buildPatient(input)

	if !s.connectivity.Online() {
		s.metrics.ObserveSyncOperation("add", "queued")
		if err := s.offline.Enqueue(models.PendingChange{
			Type: models.ChangeAdd,
			Data: &patient,
		}, s.Patients()); err != nil {
			return SaveResult{}, err
		}
		return SaveResult{Patient: patient, Queued: true}, nil
	}

	s.status.Set(models.SyncSyncing, "")
	id, err := s.remote.Create(ctx, patient)
	if err != nil {
		s.metrics.ObserveSyncOperation("add", "error")
		s.failMutation(err, models.MsgAddFailed)
		return SaveResult{}, err
	}

	patient.ID = id
	s.mu.Lock()
	s.patients = append([]models.Patient{patient.Clone()}, s.patients...)
	s.loaded = true
	snapshot := models.ClonePatients(s.patients)
	s.mu.Unlock()

	s.metrics.ObserveSyncOperation("add", "success")
	s.connectivity.ReportOnline()
	s.status.Set(models.SyncSuccess, "")
	s.storeSnapshot(ctx, snapshot)
	return SaveResult{Patient: patient}, nil
}

// Update saves changes to an existing patient: a history entry is appended,
// and dischargedAt moves only on status transitions into or out of
// discharged. The merge is by ID; order is preserved.
func (s *PatientService) Update(ctx context.Context, id string, input SavePatientInput) (SaveResult, error) {
	existing, err := s.Get(id)
	if err != nil {
		return SaveResult{}, err
	}
	next := s.applyUpdate(existing, input)

	if !s.connectivity.Online() {
		s.metrics.ObserveSyncOperation("update", "queued")
		if err := s.offline.Enqueue(models.PendingChange{
			Type:      models.ChangeUpdate,
			PatientID: id,
			Data:      &next,
		}, s.Patients()); err != nil {
			return SaveResult{}, err
		}
		return SaveResult{Patient: next, Queued: true}, nil
	}

	s.status.Set(models.SyncSyncing, "")
	if err := s.remote.Replace(ctx, id, next); err != nil {
		s.metrics.ObserveSyncOperation("update", "error")
		s.failMutation(err, models.MsgUpdateFailed)
		return SaveResult{}, err
	}

	snapshot := s.mergeByID(next)
	s.metrics.ObserveSyncOperation("update", "success")
	s.connectivity.ReportOnline()
	s.status.Set(models.SyncSuccess, "")
	s.storeSnapshot(ctx, snapshot)
	return SaveResult{Patient: next}, nil
}

// Delete removes a patient. Offline, only the patient ID is queued.
func (s *PatientService) Delete(ctx context.Context, id string) (SaveResult, error) {
	if _, err := s.Get(id); err != nil {
		return SaveResult{}, err
	}

	if !s.connectivity.Online() {
		s.metrics.ObserveSyncOperation("delete", "queued")
		if err := s.offline.Enqueue(models.PendingChange{
			Type:      models.ChangeDelete,
			PatientID: id,
		}, s.Patients()); err != nil {
			return SaveResult{}, err
		}
		return SaveResult{Queued: true}, nil
	}

	s.status.Set(models.SyncSyncing, "")
	if err := s.remote.Remove(ctx, id); err != nil {
		s.metrics.ObserveSyncOperation("delete", "error")
		s.failMutation(err, models.MsgDeleteFailed)
		return SaveResult{}, err
	}

	snapshot := s.filterOut(id)
	s.metrics.ObserveSyncOperation("delete", "success")
	s.connectivity.ReportOnline()
	s.status.Set(models.SyncSuccess, "")
	s.storeSnapshot(ctx, snapshot)
	return SaveResult{}, nil
}

// Replace installs a full collection, used by backup restore: every current
// document is removed and the backup's records recreated.
func (s *PatientService) Replace(ctx context.Context, patients []models.Patient) error {
	s.status.Set(models.SyncSyncing, "")

	current, err := s.remote.List(ctx)
	if err != nil {
		s.failMutation(err, models.MsgFetchFailed)
		return err
	}
	for _, p := range current {
		if err := s.remote.Remove(ctx, p.ID); err != nil && !isNotFound(err) {
			s.failMutation(err, models.MsgDeleteFailed)
			return err
		}
	}

	restored := make([]models.Patient, 0, len(patients))
	for _, p := range patients {
		id, err := s.remote.Create(ctx, p)
		if err != nil {
			s.failMutation(err, models.MsgAddFailed)
			return err
		}
		p.ID = id
		restored = append(restored, p)
	}

	s.mu.Lock()
	s.patients = restored
	s.loaded = true
	snapshot := models.ClonePatients(s.patients)
	s.mu.Unlock()

	s.status.Set(models.SyncSuccess, "")
	s.storeSnapshot(ctx, snapshot)
	return nil
}

// SyncStatus exposes the current indicator.
func (s *PatientService) SyncStatus() models.SyncStatus {
	return s.status.Status()
}

// SyncPendingChanges drains the offline queue under a syncing indicator.
// Drain failures set the error status and are otherwise swallowed; the
// queue keeps whatever could not be replayed.
func (s *PatientService) SyncPendingChanges(ctx context.Context) {
	if !s.offline.HasPending() {
		return
	}
	s.status.Set(models.SyncSyncing, "")
	if err := s.offline.Drain(ctx); err != nil {
		if appErrors.IsRemote(err) {
			s.connectivity.ReportOffline()
		}
		s.status.Set(models.SyncError, appErrors.FromError(err).Message)
		return
	}
	s.status.Set(models.SyncSuccess, "")
}

// Apply replays one queued change against the remote store and, on success,
// performs the same local mutation the online path would have. A replayed
// delete tolerates an already-missing document, and a replayed update whose
// target was deleted remotely is dropped rather than left blocking the queue.
func (s *PatientService) Apply(ctx context.Context, change models.PendingChange) error {
	switch change.Type {
	case models.ChangeAdd:
		if change.Data == nil {
			return appErrors.Clone(appErrors.ErrInternal, models.MsgInvalidData)
		}
		id, err := s.remote.Create(ctx, *change.Data)
		if err != nil {
			return err
		}
		patient := change.Data.Clone()
		patient.ID = id
		s.mu.Lock()
		s.patients = append([]models.Patient{patient}, s.patients...)
		s.loaded = true
		snapshot := models.ClonePatients(s.patients)
		s.mu.Unlock()
		s.storeSnapshot(ctx, snapshot)
		return nil

	case models.ChangeUpdate:
		if change.Data == nil {
			return appErrors.Clone(appErrors.ErrInternal, models.MsgInvalidData)
		}
		if err := s.remote.Replace(ctx, change.PatientID, *change.Data); err != nil {
			if !isNotFound(err) {
				return err
			}
			// The record was deleted remotely while this update sat in the
			// queue. Dropping it keeps the rest of the queue draining; a
			// NOT_FOUND would never clear on retry.
			s.logger.Warn("dropping queued update for a record deleted remotely",
				zap.String("patientID", change.PatientID))
			snapshot := s.filterOut(change.PatientID)
			s.storeSnapshot(ctx, snapshot)
			return nil
		}
		snapshot := s.mergeByID(*change.Data)
		s.storeSnapshot(ctx, snapshot)
		return nil

	case models.ChangeDelete:
		if err := s.remote.Remove(ctx, change.PatientID); err != nil && !isNotFound(err) {
			return err
		}
		snapshot := s.filterOut(change.PatientID)
		s.storeSnapshot(ctx, snapshot)
		return nil
	}

	s.logger.Warn("dropping pending change of unknown type", zap.String("type", string(change.Type)))
	return nil
}

// buildPatient assembles a new record from the form: sanitised text,
// uppercased code, an initial history entry, and dischargedAt stamped when
// admitted directly as discharged.
func (s *PatientService) buildPatient(input SavePatientInput) models.Patient {
	now := s.now()
	sanitized := s.sanitizeInput(input)

	note := sanitized.NewNote
	if note == "" {
		note = sanitized.Notes
	}

	patient := models.Patient{
		Name:             sanitized.Name,
		BirthYear:        sanitized.BirthYear,
		PatientCode:      sanitized.PatientCode,
		RoomNumber:       sanitized.RoomNumber,
		Reason:           sanitized.Reason,
		Diagnosis:        sanitized.Diagnosis,
		Status:           sanitized.Status,
		Notes:            sanitized.Notes,
		TreatmentOptions: sanitized.TreatmentOptions,
		SurgeryDetails:   sanitized.SurgeryDetails,
		History: []models.HistoryEntry{{
			Date:      now,
			Diagnosis: sanitized.Diagnosis,
			Notes:     note,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if patient.Status == models.StatusDischarged {
		discharged := now
		patient.DischargedAt = &discharged
	}
	return patient
}

// applyUpdate computes the next version of an existing record. CreatedAt and
// prior history are preserved; a fresh history entry is appended on every
// save, mirroring the treatment log's append-only contract.
func (s *PatientService) applyUpdate(existing models.Patient, input SavePatientInput) models.Patient {
	now := s.now()
	sanitized := s.sanitizeInput(input)

	next := existing.Clone()
	next.Name = sanitized.Name
	next.BirthYear = sanitized.BirthYear
	next.PatientCode = sanitized.PatientCode
	next.RoomNumber = sanitized.RoomNumber
	next.Reason = sanitized.Reason
	next.Diagnosis = sanitized.Diagnosis
	next.Status = sanitized.Status
	next.Notes = sanitized.Notes
	next.TreatmentOptions = sanitized.TreatmentOptions
	next.SurgeryDetails = sanitized.SurgeryDetails
	next.UpdatedAt = now

	next.History = append(next.History, models.HistoryEntry{
		Date:      now,
		Diagnosis: sanitized.Diagnosis,
		Notes:     sanitized.NewNote,
	})

	switch {
	case existing.Status != models.StatusDischarged && next.Status == models.StatusDischarged:
		discharged := now
		next.DischargedAt = &discharged
	case existing.Status == models.StatusDischarged && next.Status != models.StatusDischarged:
		next.DischargedAt = nil
	}

	return next
}

// sanitizeInput runs every free-text field through the sanitiser. Room
// labels skip the character whitelist so forms like "Phòng #12/A" survive.
func (s *PatientService) sanitizeInput(input SavePatientInput) SavePatientInput {
	out := input
	out.Name = validation.SanitizeInput(input.Name, validation.SanitizeOptions{MaxLength: validation.NameMax})
	out.PatientCode = strings.ToUpper(validation.SanitizeInput(input.PatientCode, validation.SanitizeOptions{MaxLength: validation.PatientCodeMax}))
	out.RoomNumber = validation.SanitizeInput(input.RoomNumber, validation.SanitizeOptions{
		SkipCharacterWhitelist: true,
		MaxLength:              validation.RoomNumberMax,
	})
	out.Reason = validation.SanitizeInput(input.Reason, validation.SanitizeOptions{MaxLength: validation.ReasonMax})
	out.Diagnosis = validation.SanitizeInput(input.Diagnosis, validation.SanitizeOptions{MaxLength: validation.DiagnosisMax})
	out.Notes = validation.SanitizeInput(input.Notes)
	out.NewNote = validation.SanitizeInput(input.NewNote)

	if !input.Status.Valid() {
		out.Status = models.StatusInpatient
	}

	if out.SurgeryDetails != nil && input.SurgeryDetails != nil {
		details := *input.SurgeryDetails
		details.Procedure = validation.SanitizeInput(details.Procedure)
		details.Surgeon = validation.SanitizeInput(details.Surgeon)
		details.Assistant1 = validation.SanitizeInput(details.Assistant1)
		details.Assistant2 = validation.SanitizeInput(details.Assistant2)
		out.SurgeryDetails = &details
	}

	// Surgery details only travel with the surgery option.
	hasSurgery := false
	for _, option := range out.TreatmentOptions {
		if option == models.TreatmentSurgery {
			hasSurgery = true
			break
		}
	}
	if !hasSurgery {
		out.SurgeryDetails = nil
	}

	return out
}

// failMutation records a failed remote mutation: the collection stays as it
// was, the sync status carries the Vietnamese message, and a remote-class
// failure flips the connectivity flag so later writes queue.
func (s *PatientService) failMutation(err error, fallback string) {
	msg := appErrors.FromError(err).Message
	if msg == "" {
		msg = fallback
	}
	s.status.Set(models.SyncError, msg)
	if appErrors.IsRemote(err) {
		s.connectivity.ReportOffline()
	}
}

func (s *PatientService) mergeByID(patient models.Patient) []models.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.patients {
		if s.patients[i].ID == patient.ID {
			s.patients[i] = patient.Clone()
			break
		}
	}
	return models.ClonePatients(s.patients)
}

func (s *PatientService) filterOut(id string) []models.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.patients[:0]
	for _, p := range s.patients {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.patients = kept
	return models.ClonePatients(s.patients)
}

// storeSnapshot refreshes the Redis snapshot and the durable offline copy
// after every confirmed change. Both are best-effort.
func (s *PatientService) storeSnapshot(ctx context.Context, patients []models.Patient) {
	if err := s.cache.Set(ctx, PatientListCacheKey, patients, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache patient list", zap.Error(err))
	}
	if err := s.offline.SaveSnapshot(patients); err != nil {
		s.logger.Warn("failed to persist offline snapshot", zap.Error(err))
	}
}

// loadFallbackLocked recovers a collection when the remote is down and
// nothing is in memory: Redis first, then the durable offline snapshot.
func (s *PatientService) loadFallbackLocked(ctx context.Context) []models.Patient {
	var cached []models.Patient
	if err := s.cache.Get(ctx, PatientListCacheKey, &cached); err == nil && len(cached) > 0 {
		return cached
	}
	state := s.offline.state.Load()
	if len(state.Patients) > 0 {
		return state.Patients
	}
	return nil
}

func isNotFound(err error) bool {
	e := appErrors.FromError(err)
	return e != nil && e.Code == appErrors.ErrNotFound.Code
}
