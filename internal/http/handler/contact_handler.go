package handler

import (
	"fmt"
	"net/http"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

type ContactHandler struct {
	contactService *service.ContactService
	logger         *zap.Logger
}

func NewContactHandler(contactService *service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// List godoc
// @Summary List contacts
// @Tags Contacts
// @Produce json
// @Param account_id query int false "Only contacts of this account"
// @Param search query string false "Match on first name, last name or email"
// @Success 200 {object} domain.APIResponse{data=[]domain.ContactDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /contacts [get]
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := queryInt64(w, r, "account_id")
	if !ok {
		return
	}

	contacts, err := h.contactService.List(r.Context(), repository.ContactFilter{
		AccountID: accountID,
		Search:    r.URL.Query().Get("search"),
	})
	if err != nil {
		handleServiceError(w, h.logger, err, "list contacts")
		return
	}
	respondData(w, http.StatusOK, contacts)
}

// GetByID godoc
// @Summary Get contact
// @Tags Contacts
// @Produce json
// @Param id path int true "Contact ID"
// @Success 200 {object} domain.APIResponse{data=domain.ContactDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	contact, err := h.contactService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get contact")
		return
	}
	respondData(w, http.StatusOK, contact)
}

// Create godoc
// @Summary Create contact
// @Description Marking a contact as primary clears the flag on the other contacts of the account
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body domain.ContactRequest true "Contact data"
// @Success 201 {object} domain.APIResponse{data=domain.ContactDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /contacts [post]
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.ContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	contact, err := h.contactService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create contact")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/contacts/%d", contact.ContactID), contact)
}

// Update godoc
// @Summary Update contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path int true "Contact ID"
// @Param request body domain.ContactRequest true "Contact data"
// @Success 200 {object} domain.APIResponse{data=domain.ContactDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.ContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	contact, err := h.contactService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update contact")
		return
	}
	respondData(w, http.StatusOK, contact)
}

// Delete godoc
// @Summary Delete contact
// @Tags Contacts
// @Produce json
// @Param id path int true "Contact ID"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.APIResponse "Contact is referenced by a quote or invoice"
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.contactService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete contact")
		return
	}
	respondMessage(w, "Contact deleted")
}

// ListProperties godoc
// @Summary List properties a contact is linked to
// @Tags Contacts
// @Produce json
// @Param id path int true "Contact ID"
// @Success 200 {object} domain.APIResponse{data=[]domain.PropertyContactDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /contacts/{id}/properties [get]
func (h *ContactHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	links, err := h.contactService.ListProperties(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list contact properties")
		return
	}
	respondData(w, http.StatusOK, links)
}
