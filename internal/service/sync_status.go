package service

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
)

// SyncStatusTracker owns the process-wide sync indicator: one value at a
// time, moving through idle → loading/syncing → success/error. A success
// auto-reverts to idle after a fixed delay; the pending timer is cancelled
// whenever a newer status lands so a stale clear can never clobber a more
// recent error.
type SyncStatusTracker struct {
	mu         sync.Mutex
	status     models.SyncStatus
	clearDelay time.Duration
	timer      *time.Timer
	generation uint64

	subscribers map[int]func(models.SyncStatus)
	nextSubID   int

	logger *zap.Logger
	closed bool
}

// NewSyncStatusTracker starts in the idle state.
func NewSyncStatusTracker(clearDelay time.Duration, logger *zap.Logger) *SyncStatusTracker {
	if clearDelay <= 0 {
		clearDelay = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncStatusTracker{
		status:      models.SyncStatus{State: models.SyncIdle},
		clearDelay:  clearDelay,
		subscribers: make(map[int]func(models.SyncStatus)),
		logger:      logger,
	}
}

// Status returns the current value.
func (t *SyncStatusTracker) Status() models.SyncStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Set transitions to the given state. The message is kept only for the
// error state. Setting success schedules the auto-clear back to idle.
func (t *SyncStatusTracker) Set(state models.SyncState, errMsg string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.cancelTimerLocked()

	status := models.SyncStatus{State: state}
	if state == models.SyncError {
		status.Error = errMsg
	}
	t.status = status
	t.generation++

	if state == models.SyncSuccess {
		gen := t.generation
		t.timer = time.AfterFunc(t.clearDelay, func() {
			t.clearIfCurrent(gen)
		})
	}

	listeners := t.snapshotSubscribersLocked()
	t.mu.Unlock()

	for _, notify := range listeners {
		notify(status)
	}
}

// Subscribe registers a listener invoked on every transition and returns
// its detach function.
func (t *SyncStatusTracker) Subscribe(fn func(models.SyncStatus)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSubID
	t.nextSubID++
	t.subscribers[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subscribers, id)
	}
}

// Close cancels the pending timer and drops all subscribers. Further Set
// calls are ignored.
func (t *SyncStatusTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.cancelTimerLocked()
	t.subscribers = make(map[int]func(models.SyncStatus))
}

// clearIfCurrent reverts success to idle only when no newer transition has
// happened since the timer was armed.
func (t *SyncStatusTracker) clearIfCurrent(generation uint64) {
	t.mu.Lock()
	if t.closed || t.generation != generation || t.status.State != models.SyncSuccess {
		t.mu.Unlock()
		return
	}
	t.status = models.SyncStatus{State: models.SyncIdle}
	t.generation++
	listeners := t.snapshotSubscribersLocked()
	status := t.status
	t.mu.Unlock()

	for _, notify := range listeners {
		notify(status)
	}
}

func (t *SyncStatusTracker) cancelTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *SyncStatusTracker) snapshotSubscribersLocked() []func(models.SyncStatus) {
	listeners := make([]func(models.SyncStatus), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		listeners = append(listeners, fn)
	}
	return listeners
}
