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

type QuoteHandler struct {
	quoteService   *service.QuoteService
	invoiceService *service.InvoiceService
	logger         *zap.Logger
}

func NewQuoteHandler(quoteService *service.QuoteService, invoiceService *service.InvoiceService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService:   quoteService,
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// List godoc
// @Summary List quotes
// @Description Newest quotes first
// @Tags Quotes
// @Produce json
// @Param account_id query int false "Filter by account"
// @Param property_id query int false "Filter by property"
// @Param status query string false "Filter by status" Enums(created, sent, accepted, rejected)
// @Success 200 {object} domain.APIResponse{data=[]domain.QuoteDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes [get]
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.QuoteFilter{}

	var ok bool
	if filter.AccountID, ok = queryInt64(w, r, "account_id"); !ok {
		return
	}
	if filter.PropertyID, ok = queryInt64(w, r, "property_id"); !ok {
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.QuoteStatus(raw)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		filter.Status = &status
	}

	quotes, err := h.quoteService.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, h.logger, err, "list quotes")
		return
	}
	respondData(w, http.StatusOK, quotes)
}

// GetByID godoc
// @Summary Get quote with items
// @Tags Quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteDetailDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/{id} [get]
func (h *QuoteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	quote, err := h.quoteService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get quote")
		return
	}
	respondData(w, http.StatusOK, quote)
}

// Create godoc
// @Summary Create quote
// @Description Creates a quote with optional items. Totals are computed by the server; a missing quote_number is generated.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body domain.QuoteRequest true "Quote data"
// @Success 201 {object} domain.APIResponse{data=domain.QuoteDetailDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes [post]
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quote, err := h.quoteService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create quote")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/quotes/%d", quote.QuoteID), quote)
}

// Update godoc
// @Summary Update quote
// @Description Overwrites the quote. A present items array replaces all items in one transaction.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param request body domain.QuoteRequest true "Quote data"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteDetailDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/{id} [put]
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.QuoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	quote, err := h.quoteService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update quote")
		return
	}
	respondData(w, http.StatusOK, quote)
}

// Delete godoc
// @Summary Delete quote
// @Tags Quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.APIResponse "Quote has been invoiced"
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/{id} [delete]
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.quoteService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete quote")
		return
	}
	respondMessage(w, "Quote deleted")
}

// ListItems godoc
// @Summary List quote items
// @Tags Quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} domain.APIResponse{data=[]domain.QuoteItemDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/items [get]
func (h *QuoteHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.quoteService.ListItems(r.Context(), quoteID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list quote items")
		return
	}
	respondData(w, http.StatusOK, items)
}

// AddItem godoc
// @Summary Add quote item
// @Description Adds an item and recomputes the quote totals
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param request body domain.QuoteItemRequest true "Item data"
// @Success 201 {object} domain.APIResponse{data=domain.QuoteItemDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/items [post]
func (h *QuoteHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.QuoteItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.quoteService.AddItem(r.Context(), quoteID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "add quote item")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/quotes/items/%d", item.QuoteItemID), item)
}

// UpdateItem godoc
// @Summary Update quote item
// @Tags Quotes
// @Accept json
// @Produce json
// @Param itemId path int true "Quote item ID"
// @Param request body domain.QuoteItemRequest true "Item data"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteItemDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/items/{itemId} [put]
func (h *QuoteHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseID(w, r, "itemId")
	if !ok {
		return
	}

	var req domain.QuoteItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.quoteService.UpdateItem(r.Context(), itemID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update quote item")
		return
	}
	respondData(w, http.StatusOK, item)
}

// DeleteItem godoc
// @Summary Delete quote item
// @Tags Quotes
// @Produce json
// @Param itemId path int true "Quote item ID"
// @Success 200 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/items/{itemId} [delete]
func (h *QuoteHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseID(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.quoteService.DeleteItem(r.Context(), itemID); err != nil {
		handleServiceError(w, h.logger, err, "delete quote item")
		return
	}
	respondMessage(w, "Quote item deleted")
}

// transition runs one lifecycle step
func (h *QuoteHandler) transition(fn func(ctx context.Context, id int64) (*domain.QuoteDTO, error), action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		quote, err := fn(r.Context(), id)
		if err != nil {
			handleServiceError(w, h.logger, err, action)
			return
		}
		respondData(w, http.StatusOK, quote)
	}
}

// Send godoc
// @Summary Send quote
// @Description created -> sent. Quotes without items cannot be sent.
// @Tags Quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/send [post]
func (h *QuoteHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(h.quoteService.Send, "send quote")(w, r)
}

// Accept godoc
// @Summary Accept quote
// @Description sent -> accepted
// @Tags Quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/accept [post]
func (h *QuoteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(h.quoteService.Accept, "accept quote")(w, r)
}

// Reject godoc
// @Summary Reject quote
// @Description sent -> rejected
// @Tags Quotes
// @Produce json
// @Param id path int true "Quote ID"
// @Success 200 {object} domain.APIResponse{data=domain.QuoteDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/reject [post]
func (h *QuoteHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(h.quoteService.Reject, "reject quote")(w, r)
}

// CreateInvoice godoc
// @Summary Invoice an accepted quote
// @Description Copies parties and items into a new invoice. due_date defaults to invoice_date plus payment_term_days (14).
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path int true "Quote ID"
// @Param request body domain.CreateInvoiceFromQuoteRequest false "Invoice options"
// @Success 201 {object} domain.APIResponse{data=domain.InvoiceDetailDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/invoice [post]
func (h *QuoteHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.CreateInvoiceFromQuoteRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	invoice, err := h.invoiceService.CreateFromQuote(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create invoice from quote")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/invoices/%d", invoice.InvoiceID), invoice)
}
