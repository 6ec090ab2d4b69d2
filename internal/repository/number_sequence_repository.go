package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crm-argus/argus-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document kinds with their own number sequence
const (
	SequenceQuote   = "quote"
	SequenceInvoice = "invoice"
)

// NumberSequenceRepository hands out per-kind, per-year document sequence numbers
type NumberSequenceRepository struct {
	db *gorm.DB
}

func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// WithTx returns a copy bound to the given transaction
func (r *NumberSequenceRepository) WithTx(tx *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: tx}
}

// NextNumber atomically increments and returns the sequence for kind/year.
// A missing sequence starts at 1. The row is locked on databases that support it.
func (r *NumberSequenceRepository) NextNumber(ctx context.Context, kind string, year int) (int, error) {
	var next int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq domain.NumberSequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("kind = ? AND year = ?", kind, year).
			First(&seq).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			seq = domain.NumberSequence{Kind: kind, Year: year, LastSequence: 1, UpdatedAt: time.Now().UTC()}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create number sequence: %w", translateError(err))
			}
			next = 1
		case err != nil:
			return fmt.Errorf("failed to get number sequence: %w", err)
		default:
			next = seq.LastSequence + 1
			if err := tx.Model(&seq).Updates(map[string]interface{}{
				"last_sequence": next,
				"updated_at":    time.Now().UTC(),
			}).Error; err != nil {
				return fmt.Errorf("failed to update number sequence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
