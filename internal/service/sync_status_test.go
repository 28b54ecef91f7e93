package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
)

func TestSyncStatusStartsIdle(t *testing.T) {
	tracker := NewSyncStatusTracker(time.Hour, zap.NewNop())
	defer tracker.Close()
	assert.Equal(t, models.SyncIdle, tracker.Status().State)
}

func TestSyncStatusKeepsErrorMessageOnlyForErrors(t *testing.T) {
	tracker := NewSyncStatusTracker(time.Hour, zap.NewNop())
	defer tracker.Close()

	tracker.Set(models.SyncError, models.MsgNetworkError)
	assert.Equal(t, models.MsgNetworkError, tracker.Status().Error)

	tracker.Set(models.SyncSyncing, "ignored")
	assert.Empty(t, tracker.Status().Error)
}

func TestSyncStatusSuccessAutoClears(t *testing.T) {
	tracker := NewSyncStatusTracker(20*time.Millisecond, zap.NewNop())
	defer tracker.Close()

	tracker.Set(models.SyncSuccess, "")
	assert.Equal(t, models.SyncSuccess, tracker.Status().State)

	require.Eventually(t, func() bool {
		return tracker.Status().State == models.SyncIdle
	}, time.Second, 5*time.Millisecond)
}

func TestSyncStatusNewerTransitionCancelsClear(t *testing.T) {
	tracker := NewSyncStatusTracker(20*time.Millisecond, zap.NewNop())
	defer tracker.Close()

	tracker.Set(models.SyncSuccess, "")
	tracker.Set(models.SyncError, models.MsgServerError)

	// The stale success timer must not wipe the error.
	time.Sleep(60 * time.Millisecond)
	status := tracker.Status()
	assert.Equal(t, models.SyncError, status.State)
	assert.Equal(t, models.MsgServerError, status.Error)
}

func TestSyncStatusSubscription(t *testing.T) {
	tracker := NewSyncStatusTracker(time.Hour, zap.NewNop())
	defer tracker.Close()

	var mu sync.Mutex
	var seen []models.SyncState
	unsubscribe := tracker.Subscribe(func(status models.SyncStatus) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, status.State)
	})

	tracker.Set(models.SyncLoading, "")
	tracker.Set(models.SyncError, "x")
	unsubscribe()
	tracker.Set(models.SyncSyncing, "")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.SyncState{models.SyncLoading, models.SyncError}, seen)
}

func TestSyncStatusCloseStopsTransitions(t *testing.T) {
	tracker := NewSyncStatusTracker(time.Hour, zap.NewNop())
	tracker.Set(models.SyncError, "x")
	tracker.Close()
	tracker.Set(models.SyncSuccess, "")
	assert.Equal(t, models.SyncError, tracker.Status().State)
}
