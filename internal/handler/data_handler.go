package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oncoward/ward-api/internal/dto"
	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/internal/service"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
	"github.com/oncoward/ward-api/pkg/response"
)

// maxImportBytes bounds uploaded import/restore payloads.
const maxImportBytes = 10 << 20

// DataHandler covers the synchronous data-interchange endpoints: direct CSV
// and JSON downloads, the backup envelope, restore and import.
type DataHandler struct {
	patients *service.PatientService
	exports  *service.ExportService
}

// NewDataHandler constructs DataHandler.
func NewDataHandler(patients *service.PatientService, exports *service.ExportService) *DataHandler {
	return &DataHandler{patients: patients, exports: exports}
}

// ExportCSV godoc
// @Summary Download the patient list as CSV
// @Tags Data
// @Produce text/csv
// @Success 200 {string} string "CSV content"
// @Router /export/csv [get]
func (h *DataHandler) ExportCSV(c *gin.Context) {
	patients, err := h.patients.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.exports.RenderCSV(patients)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("danh-sach-benh-nhan-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ExportJSON godoc
// @Summary Download the patient list as JSON
// @Tags Data
// @Produce json
// @Success 200 {array} models.Patient
// @Router /export/json [get]
func (h *DataHandler) ExportJSON(c *gin.Context) {
	patients, err := h.patients.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.exports.RenderJSON(patients)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("danh-sach-benh-nhan-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Backup godoc
// @Summary Download the versioned backup envelope
// @Tags Data
// @Produce json
// @Success 200 {object} models.Backup
// @Router /backup [get]
func (h *DataHandler) Backup(c *gin.Context) {
	patients, err := h.patients.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	backup := h.exports.BuildBackup(patients)
	filename := fmt.Sprintf("backup-benh-nhan-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.JSON(http.StatusOK, backup)
}

// Restore godoc
// @Summary Replace the collection from a backup envelope
// @Tags Data
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /restore [post]
func (h *DataHandler) Restore(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrImportFormat.Code, appErrors.ErrImportFormat.Status, models.MsgBackupInvalid))
		return
	}
	patients, err := h.exports.ParseBackup(raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.patients.Replace(c.Request.Context(), patients); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ImportResponse{
		Imported: len(patients),
		Message:  models.MsgDataSynced,
	})
}

// Import godoc
// @Summary Import patients from a JSON array
// @Tags Data
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /import [post]
func (h *DataHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrImportFormat.Code, appErrors.ErrImportFormat.Status, models.MsgImportInvalid))
		return
	}
	patients, dropped, err := h.exports.ParseImport(raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	imported := 0
	for i := range patients {
		patients[i].ID = ""
		if _, err := h.patients.Add(c.Request.Context(), importInput(patients[i])); err != nil {
			response.Error(c, err)
			return
		}
		imported++
	}

	payload := dto.ImportResponse{Imported: imported, Dropped: dropped}
	if dropped > 0 {
		payload.Message = fmt.Sprintf("Đã bỏ qua %d bản ghi không hợp lệ", dropped)
	}
	response.JSON(c, http.StatusOK, payload)
}

// importInput maps an imported record onto the save input, preserving its
// status and treatment data.
func importInput(p models.Patient) service.SavePatientInput {
	return service.SavePatientInput{
		Name:             p.Name,
		BirthYear:        p.BirthYear,
		PatientCode:      p.PatientCode,
		RoomNumber:       p.RoomNumber,
		Reason:           p.Reason,
		Diagnosis:        p.Diagnosis,
		Status:           p.Status,
		Notes:            p.Notes,
		TreatmentOptions: p.TreatmentOptions,
		SurgeryDetails:   p.SurgeryDetails,
	}
}
