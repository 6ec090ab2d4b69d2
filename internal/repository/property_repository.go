package repository

import (
	"context"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
)

// PropertyFilter narrows property listings
type PropertyFilter struct {
	AccountID *int64
	Search    string
}

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *PropertyRepository) WithTx(tx *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: tx}
}

func (r *PropertyRepository) Create(ctx context.Context, property *domain.Property) error {
	return translateError(r.db.WithContext(ctx).Create(property).Error)
}

func (r *PropertyRepository) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	var property domain.Property
	if err := r.db.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &property, nil
}

func (r *PropertyRepository) Update(ctx context.Context, property *domain.Property) (bool, error) {
	return updateRow(r.db.WithContext(ctx), property)
}

func (r *PropertyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &domain.Property{}, id)
}

// List returns properties ordered by name
func (r *PropertyRepository) List(ctx context.Context, filter PropertyFilter) ([]domain.Property, error) {
	var properties []domain.Property
	query := r.db.WithContext(ctx).Model(&domain.Property{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(street) LIKE ? OR LOWER(city) LIKE ? OR postal_code LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	err := query.Order("name ASC").Order("property_id ASC").Find(&properties).Error
	return properties, translateError(err)
}

// ListByAccount returns the properties of one account
func (r *PropertyRepository) ListByAccount(ctx context.Context, accountID int64) ([]domain.Property, error) {
	return r.List(ctx, PropertyFilter{AccountID: &accountID})
}

func (r *PropertyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Property{}).Count(&count).Error
	return count, err
}
