package repository

import (
	"context"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
)

type QuoteItemRepository struct {
	db *gorm.DB
}

func NewQuoteItemRepository(db *gorm.DB) *QuoteItemRepository {
	return &QuoteItemRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *QuoteItemRepository) WithTx(tx *gorm.DB) *QuoteItemRepository {
	return &QuoteItemRepository{db: tx}
}

func (r *QuoteItemRepository) Create(ctx context.Context, item *domain.QuoteItem) error {
	return translateError(r.db.WithContext(ctx).Create(item).Error)
}

// CreateBatch inserts several items in one statement
func (r *QuoteItemRepository) CreateBatch(ctx context.Context, items []domain.QuoteItem) error {
	if len(items) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(&items).Error)
}

func (r *QuoteItemRepository) GetByID(ctx context.Context, id int64) (*domain.QuoteItem, error) {
	var item domain.QuoteItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (r *QuoteItemRepository) Update(ctx context.Context, item *domain.QuoteItem) (bool, error) {
	return updateRow(r.db.WithContext(ctx), item)
}

func (r *QuoteItemRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &domain.QuoteItem{}, id)
}

// ListByQuote returns the items of a quote ordered by position
func (r *QuoteItemRepository) ListByQuote(ctx context.Context, quoteID int64) ([]domain.QuoteItem, error) {
	var items []domain.QuoteItem
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("position ASC").
		Find(&items).Error
	return items, translateError(err)
}

// DeleteByQuote removes every item of a quote
func (r *QuoteItemRepository) DeleteByQuote(ctx context.Context, quoteID int64) error {
	return translateError(r.db.WithContext(ctx).Where("quote_id = ?", quoteID).Delete(&domain.QuoteItem{}).Error)
}

// MaxPosition returns the highest position in use, or 0 for a quote without items
func (r *QuoteItemRepository) MaxPosition(ctx context.Context, quoteID int64) (int, error) {
	var pos int
	err := r.db.WithContext(ctx).Model(&domain.QuoteItem{}).
		Where("quote_id = ?", quoteID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&pos).Error
	return pos, err
}
