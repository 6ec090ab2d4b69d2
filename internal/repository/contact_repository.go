package repository

import (
	"context"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
)

// ContactFilter narrows contact listings
type ContactFilter struct {
	AccountID *int64
	Search    string
}

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *ContactRepository) WithTx(tx *gorm.DB) *ContactRepository {
	return &ContactRepository{db: tx}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return translateError(r.db.WithContext(ctx).Create(contact).Error)
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.db.WithContext(ctx).First(&contact, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &contact, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) (bool, error) {
	return updateRow(r.db.WithContext(ctx), contact)
}

func (r *ContactRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &domain.Contact{}, id)
}

// List returns contacts ordered by last name, first name
func (r *ContactRepository) List(ctx context.Context, filter ContactFilter) ([]domain.Contact, error) {
	var contacts []domain.Contact
	query := r.db.WithContext(ctx).Model(&domain.Contact{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern)
	}
	err := query.Order("last_name ASC").Order("first_name ASC").Find(&contacts).Error
	return contacts, translateError(err)
}

// ListByAccount returns the contacts of one account
func (r *ContactRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.Contact, error) {
	return r.List(ctx, ContactFilter{AccountID: &accountID})
}

// ClearPrimary unsets the primary flag on every other contact of the account
func (r *ContactRepository) ClearPrimary(ctx context.Context, accountID, exceptID int64) error {
	return r.db.WithContext(ctx).Model(&domain.Contact{}).
		Where("account_id = ? AND contact_id <> ? AND is_primary_contact = ?", accountID, exceptID, true).
		Update("is_primary_contact", false).Error
}

func (r *ContactRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Contact{}).Count(&count).Error
	return count, err
}
