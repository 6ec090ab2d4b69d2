package repository

import (
	"context"
	"time"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
)

// QuoteFilter narrows quote listings
type QuoteFilter struct {
	AccountID  *int64
	PropertyID *int64
	ContactID  *int64
	Status     *domain.QuoteStatus
}

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *QuoteRepository) WithTx(tx *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: tx}
}

// Create inserts the quote header. Items are written through QuoteItemRepository.
func (r *QuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	return translateError(r.db.WithContext(ctx).Omit("Items").Create(quote).Error)
}

func (r *QuoteRepository) GetByID(ctx context.Context, id int64) (*domain.Quote, error) {
	var quote domain.Quote
	if err := r.db.WithContext(ctx).First(&quote, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &quote, nil
}

// GetByIDWithItems loads the quote and its items ordered by position
func (r *QuoteRepository) GetByIDWithItems(ctx context.Context, id int64) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&quote, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &quote, nil
}

func (r *QuoteRepository) Update(ctx context.Context, quote *domain.Quote) (bool, error) {
	return updateRow(r.db.WithContext(ctx), quote)
}

func (r *QuoteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &domain.Quote{}, id)
}

// List returns quotes newest first
func (r *QuoteRepository) List(ctx context.Context, filter QuoteFilter) ([]domain.Quote, error) {
	var quotes []domain.Quote
	query := r.db.WithContext(ctx).Model(&domain.Quote{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	err := query.Order("quote_date DESC").Order("quote_id DESC").Find(&quotes).Error
	return quotes, translateError(err)
}

// ExistsByNumber reports whether a quote already carries the number
func (r *QuoteRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Quote{}).Where("quote_number = ?", number).Count(&count).Error
	return count > 0, err
}

// UpdateTotals stores recomputed aggregates
func (r *QuoteRepository) UpdateTotals(ctx context.Context, id int64, totals domain.LineTotals) error {
	return r.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("quote_id = ?", id).
		Updates(map[string]interface{}{
			"total_net":   totals.TotalNet,
			"total_gross": totals.TotalGross,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// UpdateStatus sets the status and reports whether the quote exists
func (r *QuoteRepository) UpdateStatus(ctx context.Context, id int64, status domain.QuoteStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("quote_id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *QuoteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Quote{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of quotes per status
func (r *QuoteRepository) CountByStatus(ctx context.Context) (map[domain.QuoteStatus]int64, error) {
	var rows []struct {
		Status domain.QuoteStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Quote{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.QuoteStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumOpenValue sums the gross totals of quotes awaiting a decision
func (r *QuoteRepository) SumOpenValue(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("status IN ?", []domain.QuoteStatus{domain.QuoteStatusCreated, domain.QuoteStatusSent}).
		Select("COALESCE(SUM(total_gross), 0)").
		Scan(&sum).Error
	return domain.RoundMoney(sum), err
}
