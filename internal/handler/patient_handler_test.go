package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/internal/repository"
	"github.com/oncoward/ward-api/internal/service"
)

type memoryDocumentStore struct {
	mu       sync.Mutex
	patients map[string]models.Patient
	nextID   int
}

func (m *memoryDocumentStore) List(context.Context) ([]models.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryDocumentStore) Create(_ context.Context, patient models.Patient) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("id-%d", m.nextID)
	patient.ID = id
	m.patients[id] = patient
	return id, nil
}

func (m *memoryDocumentStore) Replace(_ context.Context, id string, patient models.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	patient.ID = id
	m.patients[id] = patient
	return nil
}

func (m *memoryDocumentStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.patients, id)
	return nil
}

func (m *memoryDocumentStore) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	stateRepo, err := repository.NewOfflineStateRepository(t.TempDir(), logger)
	require.NoError(t, err)

	store := &memoryDocumentStore{patients: make(map[string]models.Patient)}
	metrics := service.NewMetrics()
	status := service.NewSyncStatusTracker(time.Hour, logger)
	t.Cleanup(status.Close)
	connectivity := service.NewConnectivityMonitor(store, time.Hour, logger)
	offline := service.NewOfflineService(stateRepo, metrics, logger)
	cacheRepo := repository.NewCacheRepository(nil, logger)
	patients := service.NewPatientService(store, offline, status, connectivity, cacheRepo, time.Minute, metrics, logger)

	h := NewPatientHandler(patients)
	r := gin.New()
	r.GET("/patients", h.List)
	r.POST("/patients", h.Create)
	r.GET("/patients/:id", h.Get)
	r.PUT("/patients/:id", h.Update)
	r.DELETE("/patients/:id", h.Delete)
	return r
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":        "Nguyễn Văn A",
		"birthYear":   "1960",
		"patientCode": "BN001",
		"roomNumber":  "101",
		"reason":      "Đau bụng dữ dội vùng thượng vị",
		"diagnosis":   "Viêm dạ dày cấp",
		"status":      "INPATIENT",
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader = strings.NewReader("")
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndListGrouped(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/patients", validPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	discharged := validPayload()
	discharged["patientCode"] = "BN002"
	discharged["name"] = "Trần Thị B"
	discharged["status"] = "DISCHARGED"
	w = doJSON(t, r, http.MethodPost, "/patients", discharged)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/patients", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Active     []models.Patient `json:"active"`
			Discharged []models.Patient `json:"discharged"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Active, 1)
	assert.Len(t, envelope.Data.Discharged, 1)
	assert.Contains(t, envelope.Meta, "syncStatus")
}

func TestCreateValidationFailureListsFields(t *testing.T) {
	r := newTestRouter(t)

	payload := validPayload()
	payload["name"] = "A"
	payload["patientCode"] = "x"

	w := doJSON(t, r, http.MethodPost, "/patients", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
		Meta struct {
			Fields map[string]string `json:"fields"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
	assert.Contains(t, envelope.Meta.Fields, "name")
	assert.Contains(t, envelope.Meta.Fields, "patientCode")
	assert.Equal(t, "Họ tên phải có ít nhất 2 ký tự", envelope.Meta.Fields["name"])
}

func TestListSearchFilters(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/patients", validPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/patients?search=BN999", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Active []models.Patient `json:"active"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.Active)
}

func TestDeleteUnknownPatientIs404(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodDelete, "/patients/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
