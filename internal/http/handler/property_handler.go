package handler

import (
	"fmt"
	"net/http"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

type PropertyHandler struct {
	propertyService *service.PropertyService
	logger          *zap.Logger
}

func NewPropertyHandler(propertyService *service.PropertyService, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		logger:          logger,
	}
}

// List godoc
// @Summary List properties
// @Tags Properties
// @Produce json
// @Param account_id query int false "Only properties of this account"
// @Param search query string false "Match on name, street or city"
// @Success 200 {object} domain.APIResponse{data=[]domain.PropertyDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /properties [get]
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := queryInt64(w, r, "account_id")
	if !ok {
		return
	}

	properties, err := h.propertyService.List(r.Context(), repository.PropertyFilter{
		AccountID: accountID,
		Search:    r.URL.Query().Get("search"),
	})
	if err != nil {
		handleServiceError(w, h.logger, err, "list properties")
		return
	}
	respondData(w, http.StatusOK, properties)
}

// GetByID godoc
// @Summary Get property
// @Tags Properties
// @Produce json
// @Param id path int true "Property ID"
// @Success 200 {object} domain.APIResponse{data=domain.PropertyDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /properties/{id} [get]
func (h *PropertyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	property, err := h.propertyService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get property")
		return
	}
	respondData(w, http.StatusOK, property)
}

// Create godoc
// @Summary Create property
// @Tags Properties
// @Accept json
// @Produce json
// @Param request body domain.PropertyRequest true "Property data"
// @Success 201 {object} domain.APIResponse{data=domain.PropertyDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /properties [post]
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.PropertyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	property, err := h.propertyService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create property")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/properties/%d", property.PropertyID), property)
}

// Update godoc
// @Summary Update property
// @Tags Properties
// @Accept json
// @Produce json
// @Param id path int true "Property ID"
// @Param request body domain.PropertyRequest true "Property data"
// @Success 200 {object} domain.APIResponse{data=domain.PropertyDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /properties/{id} [put]
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.PropertyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	property, err := h.propertyService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update property")
		return
	}
	respondData(w, http.StatusOK, property)
}

// Delete godoc
// @Summary Delete property
// @Tags Properties
// @Produce json
// @Param id path int true "Property ID"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.APIResponse "Property is referenced by a quote or invoice"
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /properties/{id} [delete]
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.propertyService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete property")
		return
	}
	respondMessage(w, "Property deleted")
}

// ListContacts godoc
// @Summary List contacts linked to a property
// @Tags Properties
// @Produce json
// @Param id path int true "Property ID"
// @Success 200 {object} domain.APIResponse{data=[]domain.PropertyContactDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /properties/{id}/contacts [get]
func (h *PropertyHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	links, err := h.propertyService.ListContacts(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list property contacts")
		return
	}
	respondData(w, http.StatusOK, links)
}

// AddContact godoc
// @Summary Link a contact to a property
// @Description The contact must belong to the account that owns the property
// @Tags Properties
// @Accept json
// @Produce json
// @Param id path int true "Property ID"
// @Param request body domain.PropertyContactRequest true "Contact link"
// @Success 201 {object} domain.APIResponse{data=domain.PropertyContactDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /properties/{id}/contacts [post]
func (h *PropertyHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.PropertyContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	link, err := h.propertyService.AddContact(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "link contact")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/properties/%d/contacts", id), link)
}

// RemoveContact godoc
// @Summary Unlink a contact from a property
// @Tags Properties
// @Produce json
// @Param id path int true "Property ID"
// @Param contactId path int true "Contact ID"
// @Success 200 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /properties/{id}/contacts/{contactId} [delete]
func (h *PropertyHandler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	contactID, ok := parseID(w, r, "contactId")
	if !ok {
		return
	}

	if err := h.propertyService.RemoveContact(r.Context(), id, contactID); err != nil {
		handleServiceError(w, h.logger, err, "unlink contact")
		return
	}
	respondMessage(w, "Contact unlinked")
}
