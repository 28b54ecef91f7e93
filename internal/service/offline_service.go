package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/internal/repository"
)

// changeApplier replays one queued change against the remote store. The
// record store implements it; the indirection keeps the queue testable.
type changeApplier interface {
	Apply(ctx context.Context, change models.PendingChange) error
}

// OfflineService owns the pending-change queue: an ordered, durable list of
// mutations captured while the remote store was unreachable. Changes are
// replayed strictly in arrival order and removed one by one as each replay
// succeeds, so a failed drain resumes exactly where it stopped.
type OfflineService struct {
	state   *repository.OfflineStateRepository
	metrics *Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	pending []models.PendingChange
	applier changeApplier

	draining bool
	now      func() time.Time
}

// NewOfflineService loads whatever queue survived the last run; a missing or
// malformed snapshot starts empty.
func NewOfflineService(state *repository.OfflineStateRepository, metrics *Metrics, logger *zap.Logger) *OfflineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &OfflineService{
		state:   state,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
	loaded := state.Load()
	svc.pending = loaded.PendingChanges
	metrics.SetPendingChanges(len(svc.pending))
	if len(svc.pending) > 0 {
		logger.Info("restored pending offline changes", zap.Int("count", len(svc.pending)))
	}
	return svc
}

// SetApplier wires the record store in after construction; the two services
// reference each other, so one side has to bind late.
func (s *OfflineService) SetApplier(applier changeApplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applier = applier
}

// Pending returns a copy of the queue in replay order.
func (s *OfflineService) Pending() []models.PendingChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PendingChange, len(s.pending))
	copy(out, s.pending)
	return out
}

// HasPending reports whether any change awaits replay.
func (s *OfflineService) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Enqueue appends a change, stamping its ID and capture time, and persists
// the queue together with the given collection snapshot.
func (s *OfflineService) Enqueue(change models.PendingChange, snapshot []models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	change.ID = uuid.NewString()
	change.Timestamp = s.now()
	s.pending = append(s.pending, change)
	s.metrics.SetPendingChanges(len(s.pending))

	s.logger.Info("queued offline change",
		zap.String("changeId", change.ID),
		zap.String("type", string(change.Type)),
		zap.String("patientId", change.PatientID))

	return s.persistLocked(snapshot)
}

// Drain replays the queue head-first, removing each change as its replay
// succeeds. The first failure stops the drain and leaves the remainder
// queued; drain failures are logged, never surfaced to interactive callers.
func (s *OfflineService) Drain(ctx context.Context) error {
	s.mu.Lock()
	if s.draining || s.applier == nil {
		s.mu.Unlock()
		return nil
	}
	s.draining = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.draining = false
		s.mu.Unlock()
	}()

	started := s.now()
	replayed := 0

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			break
		}
		head := s.pending[0]
		s.mu.Unlock()

		if err := s.applier.Apply(ctx, head); err != nil {
			s.logger.Warn("offline replay stopped",
				zap.String("changeId", head.ID),
				zap.String("type", string(head.Type)),
				zap.Int("replayed", replayed),
				zap.Error(err))
			s.metrics.ObserveDrain(s.now().Sub(started))
			return err
		}

		s.mu.Lock()
		// Concurrent enqueues only append, so the head we just replayed is
		// still at index 0.
		if len(s.pending) > 0 && s.pending[0].ID == head.ID {
			s.pending = s.pending[1:]
		}
		s.metrics.SetPendingChanges(len(s.pending))
		if err := s.persistLocked(nil); err != nil {
			s.logger.Error("failed to persist queue after replay", zap.Error(err))
		}
		s.mu.Unlock()
		replayed++
	}

	s.metrics.ObserveDrain(s.now().Sub(started))
	if replayed > 0 {
		s.logger.Info("offline queue drained", zap.Int("replayed", replayed))
	}
	return nil
}

// SaveSnapshot persists the current collection alongside the queue so a
// restart while offline still has data to serve.
func (s *OfflineService) SaveSnapshot(patients []models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(patients)
}

// Clear drops the queue and its durable snapshot.
func (s *OfflineService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.metrics.SetPendingChanges(0)
	return s.state.Clear()
}

// persistLocked writes the durable snapshot. When patients is nil the
// previously saved collection is preserved.
func (s *OfflineService) persistLocked(patients []models.Patient) error {
	state := s.state.Load()
	if patients != nil {
		state.Patients = patients
		state.LastSync = s.now()
	}
	state.PendingChanges = s.pending
	return s.state.Save(state)
}
