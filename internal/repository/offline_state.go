package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
)

// OfflineStateKey is the fixed durable-storage key for the offline snapshot.
const OfflineStateKey = "offline_data"

// OfflineStateRepository is the durable local key-value storage backing the
// offline queue: one JSON value per key, written atomically, surviving
// restarts. Absent or malformed entries read back as empty.
type OfflineStateRepository struct {
	dir    string
	logger *zap.Logger
}

// NewOfflineStateRepository ensures the state directory exists.
func NewOfflineStateRepository(dir string, logger *zap.Logger) (*OfflineStateRepository, error) {
	if dir == "" {
		dir = "./data"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create offline state directory: %w", err)
	}
	return &OfflineStateRepository{dir: dir, logger: logger}, nil
}

// Load reads the offline snapshot. A missing or unreadable entry is treated
// as empty, never as an error: the queue must come up regardless.
func (r *OfflineStateRepository) Load() models.OfflineState {
	raw, err := os.ReadFile(r.path(OfflineStateKey))
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("failed to read offline state", zap.Error(err))
		}
		return models.OfflineState{}
	}

	var state models.OfflineState
	if err := json.Unmarshal(raw, &state); err != nil {
		r.logger.Warn("malformed offline state, treating as empty", zap.Error(err))
		return models.OfflineState{}
	}
	return state
}

// Save persists the snapshot atomically (temp file + rename) so a crash
// mid-write never corrupts the queue.
func (r *OfflineStateRepository) Save(state models.OfflineState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal offline state: %w", err)
	}

	target := r.path(OfflineStateKey)
	tmp, err := os.CreateTemp(r.dir, OfflineStateKey+"-*")
	if err != nil {
		return fmt.Errorf("create offline state temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()          //nolint:errcheck
		os.Remove(tmpName)   //nolint:errcheck
		return fmt.Errorf("write offline state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("close offline state temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("commit offline state: %w", err)
	}
	return nil
}

// Clear removes the persisted snapshot entirely.
func (r *OfflineStateRepository) Clear() error {
	if err := os.Remove(r.path(OfflineStateKey)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear offline state: %w", err)
	}
	return nil
}

func (r *OfflineStateRepository) path(key string) string {
	return filepath.Join(r.dir, key+".json")
}
