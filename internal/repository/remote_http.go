package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/pkg/config"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
)

// HTTPDocumentStore talks to the remote document service over JSON/HTTP.
// Transient failures are retried a bounded number of times before the
// operation is surfaced as REMOTE_UNAVAILABLE.
type HTTPDocumentStore struct {
	baseURL  string
	client   *http.Client
	attempts int
	delay    time.Duration
	logger   *zap.Logger
}

// NewHTTPDocumentStore constructs the client from remote config.
func NewHTTPDocumentStore(cfg config.RemoteConfig, logger *zap.Logger) *HTTPDocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDocumentStore{
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: timeout},
		attempts: attempts,
		delay:    delay,
		logger:   logger,
	}
}

type createdResponse struct {
	ID string `json:"id"`
}

// List fetches the full patient collection. No pagination contract exists.
func (s *HTTPDocumentStore) List(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	err := s.do(ctx, http.MethodGet, "/patients", nil, &patients)
	if err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []models.Patient{}
	}
	return patients, nil
}

// Create persists a new document and returns the store-assigned ID.
func (s *HTTPDocumentStore) Create(ctx context.Context, patient models.Patient) (string, error) {
	var created createdResponse
	if err := s.do(ctx, http.MethodPost, "/patients", patient, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", appErrors.Clone(appErrors.ErrRemoteUnavailable, models.MsgServerError)
	}
	return created.ID, nil
}

// Replace overwrites the document with the given ID.
func (s *HTTPDocumentStore) Replace(ctx context.Context, id string, patient models.Patient) error {
	return s.do(ctx, http.MethodPut, "/patients/"+id, patient, nil)
}

// Remove deletes the document with the given ID.
func (s *HTTPDocumentStore) Remove(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/patients/"+id, nil, nil)
}

// Ping probes the remote health endpoint without retries; the connectivity
// monitor calls it on an interval.
func (s *HTTPDocumentStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgNetworkError)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgNetworkError)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= http.StatusBadRequest {
		return appErrors.Clone(appErrors.ErrRemoteUnavailable, models.MsgServerError)
	}
	return nil
}

func (s *HTTPDocumentStore) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, models.MsgUnknownError)
		}
		payload = encoded
	}

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return appErrors.Wrap(ctx.Err(), appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgNetworkError)
			case <-time.After(s.delay):
			}
		}

		retryable, err := s.once(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
		s.logger.Warn("remote store request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return lastErr
}

// once performs a single request; the bool reports whether a retry is
// worthwhile (network errors and 5xx responses only).
func (s *HTTPDocumentStore) once(ctx context.Context, method, path string, payload []byte, out interface{}) (bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, models.MsgUnknownError)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return true, appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgNetworkError)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, appErrors.Clone(appErrors.ErrNotFound, models.MsgNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return true, appErrors.Clone(appErrors.ErrRemoteUnavailable, models.MsgServerError)
	case resp.StatusCode >= http.StatusBadRequest:
		return false, appErrors.New(appErrors.ErrRemoteUnavailable.Code, resp.StatusCode, models.MsgServerError)
	}

	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, models.MsgServerError)
	}
	return false, nil
}
