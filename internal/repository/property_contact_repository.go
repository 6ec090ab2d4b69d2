package repository

import (
	"context"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
)

type PropertyContactRepository struct {
	db *gorm.DB
}

func NewPropertyContactRepository(db *gorm.DB) *PropertyContactRepository {
	return &PropertyContactRepository{db: db}
}

// Create links a contact to a property. A second link for the same pair is a unique violation.
func (r *PropertyContactRepository) Create(ctx context.Context, link *domain.PropertyContact) error {
	return translateError(r.db.WithContext(ctx).Omit("Contact", "Property").Create(link).Error)
}

// Delete removes the link between a property and a contact
func (r *PropertyContactRepository) Delete(ctx context.Context, propertyID, contactID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("property_id = ? AND contact_id = ?", propertyID, contactID).
		Delete(&domain.PropertyContact{})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListByProperty returns the contacts linked to a property, ordered by contact name
func (r *PropertyContactRepository) ListByProperty(ctx context.Context, propertyID int64) ([]domain.PropertyContact, error) {
	var links []domain.PropertyContact
	err := r.db.WithContext(ctx).
		Preload("Contact").
		Joins("JOIN contacts ON contacts.contact_id = property_contacts.contact_id").
		Where("property_contacts.property_id = ?", propertyID).
		Order("contacts.last_name ASC").Order("contacts.first_name ASC").
		Find(&links).Error
	return links, translateError(err)
}

// ListByContact returns the properties a contact is linked to, ordered by property name
func (r *PropertyContactRepository) ListByContact(ctx context.Context, contactID int64) ([]domain.PropertyContact, error) {
	var links []domain.PropertyContact
	err := r.db.WithContext(ctx).
		Preload("Property").
		Joins("JOIN properties ON properties.property_id = property_contacts.property_id").
		Where("property_contacts.contact_id = ?", contactID).
		Order("properties.name ASC").
		Find(&links).Error
	return links, translateError(err)
}
