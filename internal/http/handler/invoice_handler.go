package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	logger         *zap.Logger
}

func NewInvoiceHandler(invoiceService *service.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// List godoc
// @Summary List invoices
// @Description Newest invoices first
// @Tags Invoices
// @Produce json
// @Param account_id query int false "Filter by account"
// @Param property_id query int false "Filter by property"
// @Param quote_id query int false "Filter by source quote"
// @Param status query string false "Filter by status" Enums(created, sent, paid, overdue, cancelled)
// @Success 200 {object} domain.APIResponse{data=[]domain.InvoiceDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.InvoiceFilter{}

	var ok bool
	if filter.AccountID, ok = queryInt64(w, r, "account_id"); !ok {
		return
	}
	if filter.PropertyID, ok = queryInt64(w, r, "property_id"); !ok {
		return
	}
	if filter.QuoteID, ok = queryInt64(w, r, "quote_id"); !ok {
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.InvoiceStatus(raw)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		filter.Status = &status
	}

	invoices, err := h.invoiceService.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, h.logger, err, "list invoices")
		return
	}
	respondData(w, http.StatusOK, invoices)
}

// GetByID godoc
// @Summary Get invoice with items
// @Tags Invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} domain.APIResponse{data=domain.InvoiceDetailDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get invoice")
		return
	}
	respondData(w, http.StatusOK, invoice)
}

// Create godoc
// @Summary Create invoice
// @Description Creates an invoice with optional items. A missing invoice_number is generated.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body domain.InvoiceRequest true "Invoice data"
// @Success 201 {object} domain.APIResponse{data=domain.InvoiceDetailDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.InvoiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create invoice")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/invoices/%d", invoice.InvoiceID), invoice)
}

// Update godoc
// @Summary Update invoice
// @Description Overwrites the invoice. A present items array replaces all items in one transaction.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body domain.InvoiceRequest true "Invoice data"
// @Success 200 {object} domain.APIResponse{data=domain.InvoiceDetailDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.InvoiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update invoice")
		return
	}
	respondData(w, http.StatusOK, invoice)
}

// Delete godoc
// @Summary Delete invoice
// @Tags Invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete invoice")
		return
	}
	respondMessage(w, "Invoice deleted")
}

// ListItems godoc
// @Summary List invoice items
// @Tags Invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} domain.APIResponse{data=[]domain.InvoiceItemDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/{id}/items [get]
func (h *InvoiceHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.invoiceService.ListItems(r.Context(), invoiceID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list invoice items")
		return
	}
	respondData(w, http.StatusOK, items)
}

// AddItem godoc
// @Summary Add invoice item
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body domain.InvoiceItemRequest true "Item data"
// @Success 201 {object} domain.APIResponse{data=domain.InvoiceItemDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/{id}/items [post]
func (h *InvoiceHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.InvoiceItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.invoiceService.AddItem(r.Context(), invoiceID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "add invoice item")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/invoices/items/%d", item.InvoiceItemID), item)
}

// UpdateItem godoc
// @Summary Update invoice item
// @Tags Invoices
// @Accept json
// @Produce json
// @Param itemId path int true "Invoice item ID"
// @Param request body domain.InvoiceItemRequest true "Item data"
// @Success 200 {object} domain.APIResponse{data=domain.InvoiceItemDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/items/{itemId} [put]
func (h *InvoiceHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseID(w, r, "itemId")
	if !ok {
		return
	}

	var req domain.InvoiceItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.invoiceService.UpdateItem(r.Context(), itemID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update invoice item")
		return
	}
	respondData(w, http.StatusOK, item)
}

// DeleteItem godoc
// @Summary Delete invoice item
// @Tags Invoices
// @Produce json
// @Param itemId path int true "Invoice item ID"
// @Success 200 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/items/{itemId} [delete]
func (h *InvoiceHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseID(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteItem(r.Context(), itemID); err != nil {
		handleServiceError(w, h.logger, err, "delete invoice item")
		return
	}
	respondMessage(w, "Invoice item deleted")
}

func (h *InvoiceHandler) transition(fn func(ctx context.Context, id int64) (*domain.InvoiceDTO, error), action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		invoice, err := fn(r.Context(), id)
		if err != nil {
			handleServiceError(w, h.logger, err, action)
			return
		}
		respondData(w, http.StatusOK, invoice)
	}
}

// Send godoc
// @Summary Send invoice
// @Description created -> sent. Invoices without items cannot be sent.
// @Tags Invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} domain.APIResponse{data=domain.InvoiceDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(h.invoiceService.Send, "send invoice")(w, r)
}

// Cancel godoc
// @Summary Cancel invoice
// @Description Paid invoices cannot be cancelled
// @Tags Invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} domain.APIResponse{data=domain.InvoiceDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(h.invoiceService.Cancel, "cancel invoice")(w, r)
}

// RecordPayment godoc
// @Summary Record a payment
// @Description Adds to amount_paid of a sent or overdue invoice. The invoice becomes paid once the gross total is reached.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body domain.PaymentRequest true "Payment"
// @Success 200 {object} domain.APIResponse{data=domain.InvoiceDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.PaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.RecordPayment(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "record payment")
		return
	}
	respondData(w, http.StatusOK, invoice)
}
