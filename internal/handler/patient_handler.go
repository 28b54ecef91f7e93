package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oncoward/ward-api/internal/dto"
	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/internal/service"
	"github.com/oncoward/ward-api/internal/validation"
	"github.com/oncoward/ward-api/internal/views"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
	"github.com/oncoward/ward-api/pkg/response"
)

// PatientHandler exposes the patient collection and its derived views.
type PatientHandler struct {
	patients *service.PatientService
}

// NewPatientHandler constructs PatientHandler.
func NewPatientHandler(patients *service.PatientService) *PatientHandler {
	return &PatientHandler{patients: patients}
}

// List godoc
// @Summary List patients grouped by discharge state
// @Tags Patients
// @Produce json
// @Param search query string false "Search across name, code, room and diagnosis (min 2 characters)"
// @Param sortBy query string false "Active list order: roomNumber or name" default(roomNumber)
// @Success 200 {object} response.Envelope
// @Router /patients [get]
func (h *PatientHandler) List(c *gin.Context) {
	var query dto.ListQuery
	query.Search = strings.TrimSpace(c.Query("search"))
	query.SortBy = c.DefaultQuery("sortBy", string(views.SortByRoom))

	patients, err := h.patients.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	mode := views.SortMode(query.SortBy)
	if mode != views.SortByName {
		mode = views.SortByRoom
	}

	grouped := views.Group(views.Filter(patients, query.Search))
	payload := dto.GroupedPatientsResponse{
		Active:     views.SortActive(grouped.Active, mode),
		Discharged: views.SortDischarged(grouped.Discharged),
	}

	status := h.patients.SyncStatus()
	response.JSON(c, http.StatusOK, payload, map[string]interface{}{
		"syncStatus": status,
		"total":      len(patients),
	})
}

// Get godoc
// @Summary Get one patient
// @Tags Patients
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Envelope
// @Router /patients/{id} [get]
func (h *PatientHandler) Get(c *gin.Context) {
	patient, err := h.patients.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, patient)
}

// Create godoc
// @Summary Admit a new patient
// @Tags Patients
// @Accept json
// @Produce json
// @Param payload body dto.PatientRequest true "Admission form"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope "Saved to the offline queue"
// @Failure 400 {object} response.Envelope
// @Router /patients [post]
func (h *PatientHandler) Create(c *gin.Context) {
	input, ok := h.bindAndValidate(c)
	if !ok {
		return
	}

	result, err := h.patients.Add(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Queued {
		response.JSON(c, http.StatusAccepted, result.Patient, map[string]interface{}{
			"queued":  true,
			"message": models.MsgSavedOffline,
		})
		return
	}
	response.JSON(c, http.StatusCreated, result.Patient, map[string]interface{}{
		"message": models.MsgPatientAdded,
	})
}

// Update godoc
// @Summary Update a patient
// @Tags Patients
// @Accept json
// @Produce json
// @Param id path string true "Patient ID"
// @Param payload body dto.PatientRequest true "Admission form"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope "Saved to the offline queue"
// @Failure 400 {object} response.Envelope
// @Router /patients/{id} [put]
func (h *PatientHandler) Update(c *gin.Context) {
	input, ok := h.bindAndValidate(c)
	if !ok {
		return
	}

	result, err := h.patients.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Queued {
		response.JSON(c, http.StatusAccepted, result.Patient, map[string]interface{}{
			"queued":  true,
			"message": models.MsgSavedOffline,
		})
		return
	}
	response.JSON(c, http.StatusOK, result.Patient, map[string]interface{}{
		"message": models.MsgPatientUpdated,
	})
}

// Delete godoc
// @Summary Delete a patient
// @Tags Patients
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope "Queued for deletion offline"
// @Router /patients/{id} [delete]
func (h *PatientHandler) Delete(c *gin.Context) {
	result, err := h.patients.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Queued {
		response.JSON(c, http.StatusAccepted, nil, map[string]interface{}{
			"queued":  true,
			"message": models.MsgSavedOffline,
		})
		return
	}
	response.JSON(c, http.StatusOK, nil, map[string]interface{}{
		"message": models.MsgPatientDeleted,
	})
}

// bindAndValidate parses the admission form and runs the full validation
// pipeline; on failure it writes the per-field Vietnamese messages itself.
func (h *PatientHandler) bindAndValidate(c *gin.Context) (service.SavePatientInput, bool) {
	var request dto.PatientRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, models.MsgInvalidData))
		return service.SavePatientInput{}, false
	}

	if fieldErrs := validation.ValidatePatientForm(request.Form()); len(fieldErrs) > 0 {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusBadRequest, response.Envelope{
			Error: appErrors.Clone(appErrors.ErrValidation, models.MsgInvalidData),
			Meta: map[string]interface{}{
				"fields": fieldErrs.Map(),
			},
		})
		return service.SavePatientInput{}, false
	}

	return request.Input(), true
}
