package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", fmt.Errorf("failed to get quote: %w", domain.ErrNotFound), http.StatusNotFound, "Resource not found"},
		{"validation", domain.NewValidationError("due_date", "must not be before invoice_date"), http.StatusBadRequest, "due_date: must not be before invoice_date"},
		{"constraint", &domain.ConstraintViolationError{Kind: domain.ConstraintUnique, Column: "quote_number", Err: errors.New("UNIQUE")}, http.StatusBadRequest, "quote_number must be unique"},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, service.ErrInvalidCredentials.Error()},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"internal", errors.New("disk I/O error"), http.StatusInternalServerError, "Failed to create quote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, zap.NewNop(), tt.err, "create quote")

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
			assert.Equal(t, tt.message, gjson.Get(rec.Body.String(), "message").String())
			assert.False(t, gjson.Get(rec.Body.String(), "data").Exists())
		})
	}
}

func TestHandleServiceError_ValidationField(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, zap.NewNop(), domain.NewValidationError("items[1].unit_price", "is required without a product"), "create quote")

	assert.Equal(t, "is required without a product", gjson.Get(rec.Body.String(), `errors.items\[1\]\.unit_price`).String())

	rec = httptest.NewRecorder()
	handleServiceError(rec, zap.NewNop(), domain.NewValidationError("", "cannot send an empty quote"), "send quote")
	assert.False(t, gjson.Get(rec.Body.String(), "errors").Exists())
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "name", fieldKey("AccountRequest.name"))
	assert.Equal(t, "items[0].quantity", fieldKey("QuoteRequest.items[0].LineItemRequest.quantity"))
	assert.Equal(t, "items[2].quote_item_id", fieldKey("InvoiceRequest.items[2].quote_item_id"))
}

func TestDecodeAndValidate(t *testing.T) {
	decode := func(body string) (*httptest.ResponseRecorder, bool) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dst domain.ContactRequest
		return rec, decodeAndValidate(rec, req, &dst)
	}

	rec, ok := decode(`{"account_id": 1, "first_name": "Anna", "last_name": "Becker"}`)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, ok = decode(`[`)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", gjson.Get(rec.Body.String(), "message").String())

	rec, ok = decode(`{"account_id": 1, "first_name": "", "last_name": "Becker", "birthday": "12.05.1980", "email": "x"}`)
	require.False(t, ok)
	body := rec.Body.String()
	assert.Equal(t, "One or more fields failed validation", gjson.Get(body, "message").String())
	assert.Equal(t, "first_name is required", gjson.Get(body, "errors.first_name").String())
	assert.Equal(t, "Must be a date in YYYY-MM-DD format", gjson.Get(body, "errors.birthday").String())
	assert.Equal(t, "Must be a valid email address", gjson.Get(body, "errors.email").String())
}

func TestParseID(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		got = id
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/17", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(17), got)

	for _, bad := range []string{"/0", "/-3", "/abc"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		assert.Equal(t, "Invalid id", gjson.Get(rec.Body.String(), "message").String())
	}
}

func TestQueryHelpers(t *testing.T) {
	rec := httptest.NewRecorder()
	v, ok := queryInt64(rec, httptest.NewRequest(http.MethodGet, "/?account_id=5", nil), "account_id")
	require.True(t, ok)
	assert.Equal(t, int64(5), *v)

	v, ok = queryInt64(rec, httptest.NewRequest(http.MethodGet, "/", nil), "account_id")
	assert.True(t, ok)
	assert.Nil(t, v)

	rec = httptest.NewRecorder()
	_, ok = queryInt64(rec, httptest.NewRequest(http.MethodGet, "/?account_id=x", nil), "account_id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	b, ok := queryBool(rec, httptest.NewRequest(http.MethodGet, "/?active=false", nil), "active")
	require.True(t, ok)
	assert.False(t, *b)

	rec = httptest.NewRecorder()
	_, ok = queryBool(rec, httptest.NewRequest(http.MethodGet, "/?active=maybe", nil), "active")
	assert.False(t, ok)
}

func TestRespondJSON_UnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	respondData(rec, http.StatusOK, map[string]float64{"total_gross": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
	assert.Equal(t, "Failed to encode response", gjson.Get(rec.Body.String(), "message").String())
}

func TestRespondJSON_WritesStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	respondData(rec, http.StatusCreated, map[string]int{"quote_id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "success").Bool())
	assert.Equal(t, int64(7), gjson.Get(rec.Body.String(), "data.quote_id").Int())
}
