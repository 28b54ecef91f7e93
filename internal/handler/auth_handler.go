package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oncoward/ward-api/internal/dto"
	"github.com/oncoward/ward-api/internal/models"
	"github.com/oncoward/ward-api/internal/service"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
	"github.com/oncoward/ward-api/pkg/response"
)

// AuthHandler exposes the single-account login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// @Summary Log in with the ward account
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var request dto.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, models.MsgInvalidData))
		return
	}

	token, expiresAt, err := h.auth.Login(request.Username, request.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.LoginResponse{Token: token, ExpiresAt: expiresAt})
}
