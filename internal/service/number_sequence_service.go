package service

import (
	"context"
	"fmt"
	"time"

	"github.com/crm-argus/argus-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds the search for a free number when callers have
// used numbers of the generated format manually
const maxNumberAttempts = 100

// Document number prefixes
const (
	QuoteNumberPrefix   = "Q"
	InvoiceNumberPrefix = "R"
)

// NumberSequenceService assigns document numbers of the form {PREFIX}-{YEAR}-{SEQUENCE},
// e.g. Q-2025-0001. Quotes and invoices have separate sequences per year.
type NumberSequenceService struct {
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(logger *zap.Logger) *NumberSequenceService {
	return &NumberSequenceService{logger: logger}
}

// GenerateQuoteNumber returns the next free quote number for the year of date.
// tx must be the transaction that inserts the quote.
func (s *NumberSequenceService) GenerateQuoteNumber(ctx context.Context, tx *gorm.DB, date time.Time) (string, error) {
	quotes := repository.NewQuoteRepository(tx)
	return s.generate(ctx, tx, repository.SequenceQuote, QuoteNumberPrefix, date.Year(), quotes.ExistsByNumber)
}

// GenerateInvoiceNumber returns the next free invoice number for the year of date.
// tx must be the transaction that inserts the invoice.
func (s *NumberSequenceService) GenerateInvoiceNumber(ctx context.Context, tx *gorm.DB, date time.Time) (string, error) {
	invoices := repository.NewInvoiceRepository(tx)
	return s.generate(ctx, tx, repository.SequenceInvoice, InvoiceNumberPrefix, date.Year(), invoices.ExistsByNumber)
}

func (s *NumberSequenceService) generate(
	ctx context.Context,
	tx *gorm.DB,
	kind, prefix string,
	year int,
	exists func(context.Context, string) (bool, error),
) (string, error) {
	seqRepo := repository.NewNumberSequenceRepository(tx)

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		seq, err := seqRepo.NextNumber(ctx, kind, year)
		if err != nil {
			s.logger.Error("failed to get next sequence number",
				zap.String("kind", kind),
				zap.Int("year", year),
				zap.Error(err))
			return "", fmt.Errorf("failed to generate %s number: %w", kind, err)
		}

		number := fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
		taken, err := exists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("failed to check %s number: %w", kind, err)
		}
		if !taken {
			s.logger.Debug("generated number",
				zap.String("number", number),
				zap.String("kind", kind),
				zap.Int("sequence", seq))
			return number, nil
		}
	}

	return "", fmt.Errorf("failed to generate %s number: no free number after %d attempts", kind, maxNumberAttempts)
}
