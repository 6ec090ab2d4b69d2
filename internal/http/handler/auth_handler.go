package handler

import (
	"net/http"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Exchanges username or email and password for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.APIResponse{data=domain.LoginResponse}
// @Failure 400 {object} domain.APIResponse
// @Failure 401 {object} domain.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "log in")
		return
	}
	respondData(w, http.StatusOK, resp)
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user. With authentication disabled an anonymous admin is returned.
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.APIResponse{data=domain.UserDTO}
// @Failure 401 {object} domain.APIResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "get current user")
		return
	}
	respondData(w, http.StatusOK, user)
}
