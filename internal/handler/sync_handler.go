package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oncoward/ward-api/internal/dto"
	"github.com/oncoward/ward-api/internal/service"
	"github.com/oncoward/ward-api/pkg/response"
)

// SyncHandler exposes the sync indicator, the offline queue and a manual
// drain trigger.
type SyncHandler struct {
	patients     *service.PatientService
	offline      *service.OfflineService
	connectivity *service.ConnectivityMonitor
}

// NewSyncHandler constructs SyncHandler.
func NewSyncHandler(patients *service.PatientService, offline *service.OfflineService, connectivity *service.ConnectivityMonitor) *SyncHandler {
	return &SyncHandler{patients: patients, offline: offline, connectivity: connectivity}
}

// Status godoc
// @Summary Current sync status, connectivity and queue depth
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	status := h.patients.SyncStatus()
	response.JSON(c, http.StatusOK, dto.SyncStatusResponse{
		Status:         status.State,
		Error:          status.Error,
		Online:         h.connectivity.Online(),
		PendingChanges: len(h.offline.Pending()),
	})
}

// Pending godoc
// @Summary Queued offline changes in replay order
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/pending [get]
func (h *SyncHandler) Pending(c *gin.Context) {
	changes := h.offline.Pending()
	response.JSON(c, http.StatusOK, dto.PendingChangesResponse{
		Changes: changes,
		Count:   len(changes),
	})
}

// Drain godoc
// @Summary Replay the offline queue now
// @Tags Sync
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /sync/drain [post]
func (h *SyncHandler) Drain(c *gin.Context) {
	// The drain outlives the request, so it gets its own context.
	go h.patients.SyncPendingChanges(context.Background())
	response.JSON(c, http.StatusAccepted, nil, map[string]interface{}{
		"message": "đang đồng bộ các thay đổi đã lưu",
	})
}
