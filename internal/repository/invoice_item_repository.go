package repository

import (
	"context"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
)

type InvoiceItemRepository struct {
	db *gorm.DB
}

func NewInvoiceItemRepository(db *gorm.DB) *InvoiceItemRepository {
	return &InvoiceItemRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *InvoiceItemRepository) WithTx(tx *gorm.DB) *InvoiceItemRepository {
	return &InvoiceItemRepository{db: tx}
}

func (r *InvoiceItemRepository) Create(ctx context.Context, item *domain.InvoiceItem) error {
	return translateError(r.db.WithContext(ctx).Create(item).Error)
}

// CreateBatch inserts several items in one statement
func (r *InvoiceItemRepository) CreateBatch(ctx context.Context, items []domain.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(&items).Error)
}

func (r *InvoiceItemRepository) GetByID(ctx context.Context, id int64) (*domain.InvoiceItem, error) {
	var item domain.InvoiceItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

func (r *InvoiceItemRepository) Update(ctx context.Context, item *domain.InvoiceItem) (bool, error) {
	return updateRow(r.db.WithContext(ctx), item)
}

func (r *InvoiceItemRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &domain.InvoiceItem{}, id)
}

// ListByInvoice returns the items of an invoice ordered by position
func (r *InvoiceItemRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]domain.InvoiceItem, error) {
	var items []domain.InvoiceItem
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position ASC").
		Find(&items).Error
	return items, translateError(err)
}

// DeleteByInvoice removes every item of an invoice
func (r *InvoiceItemRepository) DeleteByInvoice(ctx context.Context, invoiceID int64) error {
	return translateError(r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Delete(&domain.InvoiceItem{}).Error)
}

// MaxPosition returns the highest position in use, or 0 for an invoice without items
func (r *InvoiceItemRepository) MaxPosition(ctx context.Context, invoiceID int64) (int, error) {
	var pos int
	err := r.db.WithContext(ctx).Model(&domain.InvoiceItem{}).
		Where("invoice_id = ?", invoiceID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&pos).Error
	return pos, err
}
