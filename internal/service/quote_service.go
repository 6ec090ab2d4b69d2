package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/mapper"
	"github.com/crm-argus/argus-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuoteService owns quotes and their items. Every write that touches items
// recomputes the quote totals in the same transaction.
type QuoteService struct {
	quoteRepo    *repository.QuoteRepository
	itemRepo     *repository.QuoteItemRepository
	productRepo  *repository.ProductRepository
	propertyRepo *repository.PropertyRepository
	contactRepo  *repository.ContactRepository
	numbers      *NumberSequenceService
	db           *gorm.DB
	logger       *zap.Logger
	now          func() time.Time
}

func NewQuoteService(
	quoteRepo *repository.QuoteRepository,
	itemRepo *repository.QuoteItemRepository,
	productRepo *repository.ProductRepository,
	propertyRepo *repository.PropertyRepository,
	contactRepo *repository.ContactRepository,
	numbers *NumberSequenceService,
	db *gorm.DB,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		quoteRepo:    quoteRepo,
		itemRepo:     itemRepo,
		productRepo:  productRepo,
		propertyRepo: propertyRepo,
		contactRepo:  contactRepo,
		numbers:      numbers,
		db:           db,
		logger:       logger,
		now:          time.Now,
	}
}

// quoteTx holds the repositories bound to one transaction
type quoteTx struct {
	tx         *gorm.DB
	quotes     *repository.QuoteRepository
	items      *repository.QuoteItemRepository
	products   *repository.ProductRepository
	properties *repository.PropertyRepository
	contacts   *repository.ContactRepository
}

func (s *QuoteService) inTx(ctx context.Context, fn func(q *quoteTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&quoteTx{
			tx:         tx,
			quotes:     s.quoteRepo.WithTx(tx),
			items:      s.itemRepo.WithTx(tx),
			products:   s.productRepo.WithTx(tx),
			properties: s.propertyRepo.WithTx(tx),
			contacts:   s.contactRepo.WithTx(tx),
		})
	})
}

// applyRequest copies the request onto quote. Empty number, date and status keep
// the current value, or the defaults for a new quote.
func (s *QuoteService) applyRequest(quote *domain.Quote, req *domain.QuoteRequest) error {
	fallback := quote.QuoteDate
	if fallback.IsZero() {
		fallback = dateOnly(s.now())
	}
	quoteDate, err := parseDate("quote_date", req.QuoteDate, fallback)
	if err != nil {
		return err
	}
	validUntil, err := parseOptionalDate("valid_until", req.ValidUntil)
	if err != nil {
		return err
	}
	if validUntil != nil && validUntil.Before(quoteDate) {
		return domain.NewValidationError("valid_until", "must not be before quote_date")
	}

	if req.Status != "" {
		if !req.Status.IsValid() {
			return domain.NewValidationError("status", "unknown quote status %q", req.Status)
		}
		quote.Status = req.Status
	}
	if quote.Status == "" {
		quote.Status = domain.QuoteStatusCreated
	}

	if number := strings.TrimSpace(req.QuoteNumber); number != "" {
		quote.QuoteNumber = number
	}

	quote.AccountID = req.AccountID
	quote.PropertyID = req.PropertyID
	quote.ContactID = req.ContactID
	quote.QuoteDate = quoteDate
	quote.ValidUntil = validUntil
	quote.Notes = req.Notes
	return nil
}

func newQuoteItem(quoteID int64, line *resolvedLine, position int) domain.QuoteItem {
	return domain.QuoteItem{
		QuoteID:     quoteID,
		ProductID:   line.ProductID,
		Description: line.Description,
		Quantity:    line.Quantity,
		Unit:        line.Unit,
		UnitPrice:   line.UnitPrice,
		VatRate:     line.VatRate,
		TotalNet:    line.Totals.TotalNet,
		TotalGross:  line.Totals.TotalGross,
		Position:    position,
	}
}

func (s *QuoteService) insertItems(ctx context.Context, q *quoteTx, quoteID int64, reqs []domain.QuoteItemRequest) error {
	requested := make([]int, len(reqs))
	for i := range reqs {
		requested[i] = reqs[i].Position
	}
	positions, err := assignPositions(requested, 0)
	if err != nil {
		return err
	}

	items := make([]domain.QuoteItem, len(reqs))
	for i := range reqs {
		line, err := resolveLine(ctx, q.products, &reqs[i].LineItemRequest)
		if err != nil {
			return itemFieldError(err, i)
		}
		items[i] = newQuoteItem(quoteID, line, positions[i])
	}
	return q.items.CreateBatch(ctx, items)
}

// recalculate stores the sum of the item totals on the quote
func (s *QuoteService) recalculate(ctx context.Context, q *quoteTx, quoteID int64) error {
	items, err := q.items.ListByQuote(ctx, quoteID)
	if err != nil {
		return err
	}

	lines := make([]domain.LineTotals, len(items))
	for i := range items {
		lines[i] = domain.LineTotals{TotalNet: items[i].TotalNet, TotalGross: items[i].TotalGross}
	}
	sum := domain.SumLines(lines)
	if err := domain.CheckTotals("items", sum); err != nil {
		return err
	}
	return q.quotes.UpdateTotals(ctx, quoteID, sum)
}

// checkStatusContent rejects a quote that has left the created state without items
func (s *QuoteService) checkStatusContent(ctx context.Context, q *quoteTx, quoteID int64) error {
	quote, err := q.quotes.GetByID(ctx, quoteID)
	if err != nil {
		return err
	}
	if quote.Status == domain.QuoteStatusCreated {
		return nil
	}

	items, err := q.items.ListByQuote(ctx, quoteID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return domain.NewValidationError("status", "a quote without items cannot be %s", quote.Status)
	}
	return nil
}

// Create inserts a quote with its optional items. An empty quote number is
// assigned from the quote sequence of the quote year.
func (s *QuoteService) Create(ctx context.Context, req *domain.QuoteRequest) (*domain.QuoteDetailDTO, error) {
	quote := &domain.Quote{}
	if err := s.applyRequest(quote, req); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, func(q *quoteTx) error {
		if err := checkDocumentParties(ctx, q.properties, q.contacts, quote.AccountID, quote.PropertyID, quote.ContactID); err != nil {
			return err
		}

		if quote.QuoteNumber == "" {
			number, err := s.numbers.GenerateQuoteNumber(ctx, q.tx, quote.QuoteDate)
			if err != nil {
				return err
			}
			quote.QuoteNumber = number
		}

		if err := q.quotes.Create(ctx, quote); err != nil {
			return err
		}
		if req.Items != nil {
			if err := s.insertItems(ctx, q, quote.ID, *req.Items); err != nil {
				return err
			}
		}
		if err := s.recalculate(ctx, q, quote.ID); err != nil {
			return err
		}
		return s.checkStatusContent(ctx, q, quote.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	s.logger.Info("quote created",
		zap.Int64("quote_id", quote.ID),
		zap.String("quote_number", quote.QuoteNumber))

	return s.GetByID(ctx, quote.ID)
}

func (s *QuoteService) GetByID(ctx context.Context, id int64) (*domain.QuoteDetailDTO, error) {
	quote, err := s.quoteRepo.GetByIDWithItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	dto := mapper.ToQuoteDetailDTO(quote)
	return &dto, nil
}

// Update overwrites the quote. A present items array, even an empty one,
// replaces the whole item set.
func (s *QuoteService) Update(ctx context.Context, id int64, req *domain.QuoteRequest) (*domain.QuoteDetailDTO, error) {
	err := s.inTx(ctx, func(q *quoteTx) error {
		quote, err := q.quotes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.applyRequest(quote, req); err != nil {
			return err
		}
		if err := checkDocumentParties(ctx, q.properties, q.contacts, quote.AccountID, quote.PropertyID, quote.ContactID); err != nil {
			return err
		}

		ok, err := q.quotes.Update(ctx, quote)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}

		if req.Items != nil {
			if err := q.items.DeleteByQuote(ctx, id); err != nil {
				return err
			}
			if err := s.insertItems(ctx, q, id, *req.Items); err != nil {
				return err
			}
		}
		if err := s.recalculate(ctx, q, id); err != nil {
			return err
		}
		return s.checkStatusContent(ctx, q, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes the quote and its items. Quotes referenced by an invoice cannot be deleted.
func (s *QuoteService) Delete(ctx context.Context, id int64) error {
	ok, err := s.quoteRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to delete quote: %w", domain.ErrNotFound)
	}

	s.logger.Info("quote deleted", zap.Int64("quote_id", id))
	return nil
}

func (s *QuoteService) List(ctx context.Context, filter repository.QuoteFilter) ([]domain.QuoteDTO, error) {
	quotes, err := s.quoteRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	dtos := make([]domain.QuoteDTO, len(quotes))
	for i := range quotes {
		dtos[i] = mapper.ToQuoteDTO(&quotes[i])
	}
	return dtos, nil
}

// ListItems returns the items of a quote ordered by position
func (s *QuoteService) ListItems(ctx context.Context, quoteID int64) ([]domain.QuoteItemDTO, error) {
	if _, err := s.quoteRepo.GetByID(ctx, quoteID); err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	items, err := s.itemRepo.ListByQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote items: %w", err)
	}
	return mapper.ToQuoteItemDTOs(items), nil
}

// AddItem appends an item to the quote. Without a position the item goes after the last one.
func (s *QuoteService) AddItem(ctx context.Context, quoteID int64, req *domain.QuoteItemRequest) (*domain.QuoteItemDTO, error) {
	var item domain.QuoteItem

	err := s.inTx(ctx, func(q *quoteTx) error {
		if _, err := q.quotes.GetByID(ctx, quoteID); err != nil {
			return err
		}

		line, err := resolveLine(ctx, q.products, &req.LineItemRequest)
		if err != nil {
			return err
		}

		position := req.Position
		if position == 0 {
			last, err := q.items.MaxPosition(ctx, quoteID)
			if err != nil {
				return err
			}
			position = last + 1
		}

		item = newQuoteItem(quoteID, line, position)
		if err := q.items.Create(ctx, &item); err != nil {
			return err
		}
		return s.recalculate(ctx, q, quoteID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add quote item: %w", err)
	}

	dto := mapper.ToQuoteItemDTO(&item)
	return &dto, nil
}

// UpdateItem overwrites an item. Without a position the item keeps its place.
func (s *QuoteService) UpdateItem(ctx context.Context, itemID int64, req *domain.QuoteItemRequest) (*domain.QuoteItemDTO, error) {
	var item *domain.QuoteItem

	err := s.inTx(ctx, func(q *quoteTx) error {
		existing, err := q.items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		line, err := resolveLine(ctx, q.products, &req.LineItemRequest)
		if err != nil {
			return err
		}

		position := req.Position
		if position == 0 {
			position = existing.Position
		}

		updated := newQuoteItem(existing.QuoteID, line, position)
		updated.ID = existing.ID
		updated.CreatedAt = existing.CreatedAt
		item = &updated

		ok, err := q.items.Update(ctx, item)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		return s.recalculate(ctx, q, existing.QuoteID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update quote item: %w", err)
	}

	dto := mapper.ToQuoteItemDTO(item)
	return &dto, nil
}

// DeleteItem removes an item and recomputes the quote totals
func (s *QuoteService) DeleteItem(ctx context.Context, itemID int64) error {
	err := s.inTx(ctx, func(q *quoteTx) error {
		item, err := q.items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		ok, err := q.items.Delete(ctx, itemID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		return s.recalculate(ctx, q, item.QuoteID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete quote item: %w", err)
	}
	return nil
}

// Send moves a created quote with at least one item to sent
func (s *QuoteService) Send(ctx context.Context, id int64) (*domain.QuoteDTO, error) {
	return s.transition(ctx, id, domain.QuoteStatusSent)
}

// Accept records the customer's acceptance of a sent quote
func (s *QuoteService) Accept(ctx context.Context, id int64) (*domain.QuoteDTO, error) {
	return s.transition(ctx, id, domain.QuoteStatusAccepted)
}

// Reject records the customer's rejection of a sent quote
func (s *QuoteService) Reject(ctx context.Context, id int64) (*domain.QuoteDTO, error) {
	return s.transition(ctx, id, domain.QuoteStatusRejected)
}

func (s *QuoteService) transition(ctx context.Context, id int64, target domain.QuoteStatus) (*domain.QuoteDTO, error) {
	var quote *domain.Quote

	err := s.inTx(ctx, func(q *quoteTx) error {
		var err error
		quote, err = q.quotes.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !quote.Status.CanTransitionTo(target) {
			return domain.NewValidationError("status", "cannot change quote status from %s to %s", quote.Status, target)
		}

		if target == domain.QuoteStatusSent {
			last, err := q.items.MaxPosition(ctx, id)
			if err != nil {
				return err
			}
			if last == 0 {
				return domain.NewValidationError("items", "a quote without items cannot be sent")
			}
		}

		if _, err := q.quotes.UpdateStatus(ctx, id, target); err != nil {
			return err
		}
		quote.Status = target
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to change quote status: %w", err)
	}

	s.logger.Info("quote status changed",
		zap.Int64("quote_id", id),
		zap.String("status", string(target)))

	dto := mapper.ToQuoteDTO(quote)
	return &dto, nil
}
