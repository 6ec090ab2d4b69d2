package handler

import (
	"fmt"
	"net/http"

	"github.com/crm-argus/argus-api/internal/auth"
	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

// UserHandler serves user management. Everything except the password route
// is mounted behind the admin check.
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {object} domain.APIResponse{data=[]domain.UserDTO}
// @Failure 403 {object} domain.APIResponse
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list users")
		return
	}
	respondData(w, http.StatusOK, users)
}

// GetByID godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} domain.APIResponse{data=domain.UserDTO}
// @Failure 403 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get user")
		return
	}
	respondData(w, http.StatusOK, user)
}

// Create godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User data"
// @Success 201 {object} domain.APIResponse{data=domain.UserDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 403 {object} domain.APIResponse
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create user")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/users/%d", user.UserID), user)
}

// Update godoc
// @Summary Update user
// @Description The last active admin can neither be demoted nor deactivated
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body domain.UpdateUserRequest true "User data"
// @Success 200 {object} domain.APIResponse{data=domain.UserDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 403 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update user")
		return
	}
	respondData(w, http.StatusOK, user)
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.APIResponse "Last active admin"
// @Failure 403 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete user")
		return
	}
	respondMessage(w, "User deleted")
}

// ChangePassword godoc
// @Summary Change password
// @Description Users change their own password with current_password. Admins may reset any password without it.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body domain.ChangePasswordRequest true "Passwords"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.APIResponse
// @Failure 403 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /users/{id}/password [put]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	current, ok := auth.FromContext(r.Context())
	if !ok {
		handleServiceError(w, h.logger, service.ErrUnauthorized, "change password")
		return
	}
	self := !current.Anonymous && current.UserID == id
	if !self && !current.IsAdmin() {
		handleServiceError(w, h.logger, service.ErrForbidden, "change password")
		return
	}

	var req domain.ChangePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), id, &req, self); err != nil {
		handleServiceError(w, h.logger, err, "change password")
		return
	}
	respondMessage(w, "Password changed")
}
