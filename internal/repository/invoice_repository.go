package repository

import (
	"context"
	"time"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	AccountID  *int64
	PropertyID *int64
	QuoteID    *int64
	Status     *domain.InvoiceStatus
}

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *InvoiceRepository) WithTx(tx *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: tx}
}

// Create inserts the invoice header. Items are written through InvoiceItemRepository.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	return translateError(r.db.WithContext(ctx).Omit("Items").Create(invoice).Error)
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &invoice, nil
}

// GetByIDWithItems loads the invoice and its items ordered by position
func (r *InvoiceRepository) GetByIDWithItems(ctx context.Context, id int64) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&invoice, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &invoice, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) (bool, error) {
	return updateRow(r.db.WithContext(ctx), invoice)
}

func (r *InvoiceRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &domain.Invoice{}, id)
}

// List returns invoices newest first
func (r *InvoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	query := r.db.WithContext(ctx).Model(&domain.Invoice{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.QuoteID != nil {
		query = query.Where("quote_id = ?", *filter.QuoteID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	err := query.Order("invoice_date DESC").Order("invoice_id DESC").Find(&invoices).Error
	return invoices, translateError(err)
}

// ExistsByNumber reports whether an invoice already carries the number
func (r *InvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Invoice{}).Where("invoice_number = ?", number).Count(&count).Error
	return count > 0, err
}

// ExistsForQuote reports whether a non-cancelled invoice was already raised from the quote
func (r *InvoiceRepository) ExistsForQuote(ctx context.Context, quoteID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("quote_id = ? AND status <> ?", quoteID, domain.InvoiceStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

// UpdateTotals stores recomputed aggregates
func (r *InvoiceRepository) UpdateTotals(ctx context.Context, id int64, totals domain.LineTotals) error {
	return r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("invoice_id = ?", id).
		Updates(map[string]interface{}{
			"total_net":   totals.TotalNet,
			"total_gross": totals.TotalGross,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// UpdateStatus sets the status and reports whether the invoice exists
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int64, status domain.InvoiceStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("invoice_id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// RecordPayment stores the new paid amount and status in one statement
func (r *InvoiceRepository) RecordPayment(ctx context.Context, id int64, amountPaid float64, status domain.InvoiceStatus) error {
	return translateError(r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("invoice_id = ?", id).
		Updates(map[string]interface{}{
			"amount_paid": amountPaid,
			"status":      status,
			"updated_at":  time.Now().UTC(),
		}).Error)
}

// MarkOverdue flips sent invoices whose due date lies before today to overdue
func (r *InvoiceRepository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("status = ? AND due_date < ?", domain.InvoiceStatusSent, today).
		Updates(map[string]interface{}{"status": domain.InvoiceStatusOverdue, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

func (r *InvoiceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Invoice{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of invoices per status
func (r *InvoiceRepository) CountByStatus(ctx context.Context) (map[domain.InvoiceStatus]int64, error) {
	var rows []struct {
		Status domain.InvoiceStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.InvoiceStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumOutstanding sums the unpaid gross of sent and overdue invoices
func (r *InvoiceRepository) SumOutstanding(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("status IN ?", []domain.InvoiceStatus{domain.InvoiceStatusSent, domain.InvoiceStatusOverdue}).
		Select("COALESCE(SUM(total_gross - amount_paid), 0)").
		Scan(&sum).Error
	return domain.RoundMoney(sum), err
}
