package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = newValidator()

// newValidator reports field errors under their json names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// respondJSON encodes data before writing the status so that an unencodable
// value still produces a valid 500 envelope
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(status)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Failed to encode response"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// respondData wraps data in a success envelope
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, domain.APIResponse{Success: true, Data: data})
}

// respondCreated answers 201 with a Location header pointing at the new resource
func respondCreated(w http.ResponseWriter, location string, data interface{}) {
	w.Header().Set("Location", location)
	respondData(w, http.StatusCreated, data)
}

// respondMessage sends a success envelope carrying only a message
func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, domain.APIResponse{Success: true, Message: message})
}

// respondWithError sends a failure envelope
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIResponse{Success: false, Message: message})
}

// respondValidationError sends a 400 envelope with one message per offending field
func respondValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fieldKey(fe.Namespace())] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIResponse{
		Success: false,
		Message: "One or more fields failed validation",
		Errors:  fields,
	})
}

// fieldKey turns "QuoteRequest.items[0].LineItemRequest.quantity" into "items[0].quantity".
// The root type and embedded struct names are dropped.
func fieldKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	kept := parts[:0]
	for _, part := range parts[1:] {
		if part == "" || unicode.IsUpper(rune(part[0])) {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, ".")
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "datetime":
		return "Must be a date in YYYY-MM-DD format"
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// decodeAndValidate reads the JSON body into dst and validates it. It writes the
// 400 response itself and returns false when the request cannot be used.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// parseID reads a positive integer path parameter
func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", param))
		return 0, false
	}
	return id, true
}

// queryInt64 reads an optional positive integer query parameter
func queryInt64(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return nil, false
	}
	return &v, true
}

// queryBool reads an optional boolean query parameter
func queryBool(w http.ResponseWriter, r *http.Request, name string) (*bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return nil, false
	}
	return &v, true
}

// handleServiceError maps service errors onto HTTP status codes. Unclassified
// errors are logged and answered with a generic 500.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	var ve *domain.ValidationError
	var cv *domain.ConstraintViolationError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Resource not found")
	case errors.As(err, &ve):
		resp := domain.APIResponse{Success: false, Message: ve.Error()}
		if ve.Field != "" {
			resp.Errors = map[string]string{ve.Field: ve.Message}
		}
		respondJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &cv):
		logger.Info("constraint violation", zap.String("action", action), zap.Error(cv.Err))
		respondWithError(w, http.StatusBadRequest, cv.Message())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserInactive):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "Forbidden")
	default:
		logger.Error("failed to "+action, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}
