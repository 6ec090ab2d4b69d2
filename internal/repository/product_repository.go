package repository

import (
	"context"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	Active *bool
	Search string
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return translateError(r.db.WithContext(ctx).Create(product).Error)
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) (bool, error) {
	return updateRow(r.db.WithContext(ctx), product)
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &domain.Product{}, id)
}

// List returns products ordered by name
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	var products []domain.Product
	query := r.db.WithContext(ctx).Model(&domain.Product{})
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	err := query.Order("name ASC").Find(&products).Error
	return products, translateError(err)
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&count).Error
	return count, err
}
