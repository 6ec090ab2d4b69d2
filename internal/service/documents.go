package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/mapper"
	"github.com/crm-argus/argus-api/internal/repository"
)

// dateOnly truncates t to midnight UTC
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseDate parses a YYYY-MM-DD request field, returning fallback when empty
func parseDate(field, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := mapper.ParseDate(value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// parseOptionalDate parses a YYYY-MM-DD request field, returning nil when empty
func parseOptionalDate(field, value string) (*time.Time, error) {
	t, err := mapper.ParseOptionalDate(value)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// checkDocumentParties verifies that the property and the optional contact exist
// and belong to the account a quote or invoice is written for
func checkDocumentParties(
	ctx context.Context,
	properties *repository.PropertyRepository,
	contacts *repository.ContactRepository,
	accountID, propertyID int64,
	contactID *int64,
) error {
	property, err := properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("property_id", "property %d does not exist", propertyID)
		}
		return err
	}
	if property.AccountID != accountID {
		return domain.NewValidationError("property_id", "property %d belongs to a different account", propertyID)
	}

	if contactID == nil {
		return nil
	}
	contact, err := contacts.GetByID(ctx, *contactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("contact_id", "contact %d does not exist", *contactID)
		}
		return err
	}
	if contact.AccountID != accountID {
		return domain.NewValidationError("contact_id", "contact %d belongs to a different account", *contactID)
	}
	return nil
}

// itemFieldError prefixes a validation error with the index of the offending item
func itemFieldError(err error, index int) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return domain.NewValidationError(fmt.Sprintf("items[%d].%s", index, ve.Field), "%s", ve.Message)
	}
	return err
}
