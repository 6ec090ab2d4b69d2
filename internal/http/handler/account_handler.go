package handler

import (
	"fmt"
	"net/http"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accountService *service.AccountService
	logger         *zap.Logger
}

func NewAccountHandler(accountService *service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// List godoc
// @Summary List accounts
// @Description List property-management accounts ordered by name
// @Tags Accounts
// @Produce json
// @Param search query string false "Case-insensitive match on name or email"
// @Success 200 {object} domain.APIResponse{data=[]domain.AccountDTO}
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		handleServiceError(w, h.logger, err, "list accounts")
		return
	}
	respondData(w, http.StatusOK, accounts)
}

// GetByID godoc
// @Summary Get account
// @Tags Accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} domain.APIResponse{data=domain.AccountDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	account, err := h.accountService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get account")
		return
	}
	respondData(w, http.StatusOK, account)
}

// Create godoc
// @Summary Create account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body domain.AccountRequest true "Account data"
// @Success 201 {object} domain.APIResponse{data=domain.AccountDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /accounts [post]
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.AccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create account")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/accounts/%d", account.AccountID), account)
}

// Update godoc
// @Summary Update account
// @Description Overwrites all fields of the account
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path int true "Account ID"
// @Param request body domain.AccountRequest true "Account data"
// @Success 200 {object} domain.APIResponse{data=domain.AccountDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /accounts/{id} [put]
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.AccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update account")
		return
	}
	respondData(w, http.StatusOK, account)
}

// Delete godoc
// @Summary Delete account
// @Description Deletes the account with its contacts and properties. Fails while quotes or invoices reference it.
// @Tags Accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} domain.APIResponse
// @Failure 400 {object} domain.APIResponse "Account still has quotes or invoices"
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /accounts/{id} [delete]
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.accountService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete account")
		return
	}
	respondMessage(w, "Account deleted")
}

// ListContacts godoc
// @Summary List contacts of an account
// @Tags Accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} domain.APIResponse{data=[]domain.ContactDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /accounts/{id}/contacts [get]
func (h *AccountHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	contacts, err := h.accountService.ListContacts(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list account contacts")
		return
	}
	respondData(w, http.StatusOK, contacts)
}

// ListProperties godoc
// @Summary List properties of an account
// @Tags Accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} domain.APIResponse{data=[]domain.PropertyDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /accounts/{id}/properties [get]
func (h *AccountHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	properties, err := h.accountService.ListProperties(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list account properties")
		return
	}
	respondData(w, http.StatusOK, properties)
}

// ListQuotes godoc
// @Summary List quotes of an account
// @Tags Accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} domain.APIResponse{data=[]domain.QuoteDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /accounts/{id}/quotes [get]
func (h *AccountHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	quotes, err := h.accountService.ListQuotes(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list account quotes")
		return
	}
	respondData(w, http.StatusOK, quotes)
}

// ListInvoices godoc
// @Summary List invoices of an account
// @Tags Accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} domain.APIResponse{data=[]domain.InvoiceDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /accounts/{id}/invoices [get]
func (h *AccountHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	invoices, err := h.accountService.ListInvoices(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "list account invoices")
		return
	}
	respondData(w, http.StatusOK, invoices)
}
