package domain

import (
	"errors"
	"fmt"
)

// Error classes shared by the repository, service and HTTP layers
var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrConstraintViolation is matched by every *ConstraintViolationError
	ErrConstraintViolation = errors.New("constraint violation")
)

// ConstraintKind names the store constraint that rejected a write
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintCheck      ConstraintKind = "check"
)

// ConstraintViolationError reports a uniqueness, foreign-key, not-null or check failure
type ConstraintViolationError struct {
	Kind   ConstraintKind
	Column string
	Err    error
}

func (e *ConstraintViolationError) Error() string {
	return e.Message()
}

// Message is the client-facing description of the violation
func (e *ConstraintViolationError) Message() string {
	switch e.Kind {
	case ConstraintUnique:
		if e.Column != "" {
			return fmt.Sprintf("%s must be unique", e.Column)
		}
		return "a record with the same unique value already exists"
	case ConstraintForeignKey:
		return "the record references a missing entry or is still referenced by other records"
	case ConstraintNotNull:
		if e.Column != "" {
			return fmt.Sprintf("%s is required", e.Column)
		}
		return "a required value is missing"
	default:
		return "the record violates a database constraint"
	}
}

func (e *ConstraintViolationError) Is(target error) bool {
	return target == ErrConstraintViolation
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

// ValidationError reports a business-rule failure on caller input
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationMessages provides human-readable validation error messages
// keyed by validator tag
var ValidationMessages = map[string]string{
	"required": "This field is required",
	"email":    "Must be a valid email address",
	"max":      "Exceeds maximum length",
	"min":      "Below minimum length",
	"gte":      "Must be greater than or equal to minimum value",
	"gt":       "Must be greater than minimum value",
	"lte":      "Must be less than or equal to maximum value",
	"lt":       "Must be less than maximum value",
	"url":      "Must be a valid URL",
	"oneof":    "Must be one of the allowed values",
	"alphanum": "Must contain only alphanumeric characters",
	"numeric":  "Must be a numeric value",
	"datetime": "Must be a date in YYYY-MM-DD format",
	"dive":     "Contains an invalid entry",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}
