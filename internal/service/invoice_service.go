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

// DefaultPaymentTermDays is the due period of invoices raised from quotes
const DefaultPaymentTermDays = 14

// InvoiceService owns invoices and their items, payments and the invoice lifecycle
type InvoiceService struct {
	invoiceRepo  *repository.InvoiceRepository
	itemRepo     *repository.InvoiceItemRepository
	quoteRepo    *repository.QuoteRepository
	productRepo  *repository.ProductRepository
	propertyRepo *repository.PropertyRepository
	contactRepo  *repository.ContactRepository
	numbers      *NumberSequenceService
	db           *gorm.DB
	logger       *zap.Logger
	now          func() time.Time
}

func NewInvoiceService(
	invoiceRepo *repository.InvoiceRepository,
	itemRepo *repository.InvoiceItemRepository,
	quoteRepo *repository.QuoteRepository,
	productRepo *repository.ProductRepository,
	propertyRepo *repository.PropertyRepository,
	contactRepo *repository.ContactRepository,
	numbers *NumberSequenceService,
	db *gorm.DB,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		itemRepo:     itemRepo,
		quoteRepo:    quoteRepo,
		productRepo:  productRepo,
		propertyRepo: propertyRepo,
		contactRepo:  contactRepo,
		numbers:      numbers,
		db:           db,
		logger:       logger,
		now:          time.Now,
	}
}

// invoiceTx holds the repositories bound to one transaction
type invoiceTx struct {
	tx         *gorm.DB
	invoices   *repository.InvoiceRepository
	items      *repository.InvoiceItemRepository
	quotes     *repository.QuoteRepository
	products   *repository.ProductRepository
	properties *repository.PropertyRepository
	contacts   *repository.ContactRepository
}

func (s *InvoiceService) inTx(ctx context.Context, fn func(q *invoiceTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&invoiceTx{
			tx:         tx,
			invoices:   s.invoiceRepo.WithTx(tx),
			items:      s.itemRepo.WithTx(tx),
			quotes:     s.quoteRepo.WithTx(tx),
			products:   s.productRepo.WithTx(tx),
			properties: s.propertyRepo.WithTx(tx),
			contacts:   s.contactRepo.WithTx(tx),
		})
	})
}

func (s *InvoiceService) applyRequest(invoice *domain.Invoice, req *domain.InvoiceRequest) error {
	fallback := invoice.InvoiceDate
	if fallback.IsZero() {
		fallback = dateOnly(s.now())
	}
	invoiceDate, err := parseDate("invoice_date", req.InvoiceDate, fallback)
	if err != nil {
		return err
	}
	dueDate, err := parseDate("due_date", req.DueDate, invoice.DueDate)
	if err != nil {
		return err
	}
	if dueDate.IsZero() {
		return domain.NewValidationError("due_date", "is required")
	}
	if dueDate.Before(invoiceDate) {
		return domain.NewValidationError("due_date", "must not be before invoice_date")
	}

	if req.Status != "" {
		if !req.Status.IsValid() {
			return domain.NewValidationError("status", "unknown invoice status %q", req.Status)
		}
		invoice.Status = req.Status
	}
	if invoice.Status == "" {
		invoice.Status = domain.InvoiceStatusCreated
	}

	if number := strings.TrimSpace(req.InvoiceNumber); number != "" {
		invoice.InvoiceNumber = number
	}

	// An omitted quote_id keeps the link to the originating quote
	if req.QuoteID != nil {
		invoice.QuoteID = req.QuoteID
	}
	invoice.AccountID = req.AccountID
	invoice.PropertyID = req.PropertyID
	invoice.ContactID = req.ContactID
	invoice.InvoiceDate = invoiceDate
	invoice.DueDate = dueDate
	invoice.PaymentTerms = req.PaymentTerms
	invoice.Notes = req.Notes
	return nil
}

func newInvoiceItem(invoiceID int64, quoteItemID *int64, line *resolvedLine, position int) domain.InvoiceItem {
	return domain.InvoiceItem{
		InvoiceID:   invoiceID,
		QuoteItemID: quoteItemID,
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

func (s *InvoiceService) insertItems(ctx context.Context, q *invoiceTx, invoiceID int64, reqs []domain.InvoiceItemRequest) error {
	requested := make([]int, len(reqs))
	for i := range reqs {
		requested[i] = reqs[i].Position
	}
	positions, err := assignPositions(requested, 0)
	if err != nil {
		return err
	}

	items := make([]domain.InvoiceItem, len(reqs))
	for i := range reqs {
		line, err := resolveLine(ctx, q.products, &reqs[i].LineItemRequest)
		if err != nil {
			return itemFieldError(err, i)
		}
		items[i] = newInvoiceItem(invoiceID, reqs[i].QuoteItemID, line, positions[i])
	}
	return q.items.CreateBatch(ctx, items)
}

// recalculate stores the sum of the item totals on the invoice
func (s *InvoiceService) recalculate(ctx context.Context, q *invoiceTx, invoiceID int64) error {
	items, err := q.items.ListByInvoice(ctx, invoiceID)
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
	return q.invoices.UpdateTotals(ctx, invoiceID, sum)
}

// checkStatusContent rejects an issued invoice without items and a paid status
// that the recorded payments do not cover
func (s *InvoiceService) checkStatusContent(ctx context.Context, q *invoiceTx, invoiceID int64) error {
	invoice, err := q.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status == domain.InvoiceStatusCreated || invoice.Status == domain.InvoiceStatusCancelled {
		return nil
	}

	items, err := q.items.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return domain.NewValidationError("status", "an invoice without items cannot be %s", invoice.Status)
	}
	if invoice.Status == domain.InvoiceStatusPaid && invoice.OpenAmount() > 0 {
		return domain.NewValidationError("status", "cannot be paid while %.2f is outstanding, record a payment instead", invoice.OpenAmount())
	}
	return nil
}

// Create inserts an invoice with its optional items. An empty invoice number is
// assigned from the invoice sequence of the invoice year.
func (s *InvoiceService) Create(ctx context.Context, req *domain.InvoiceRequest) (*domain.InvoiceDetailDTO, error) {
	invoice := &domain.Invoice{}
	if err := s.applyRequest(invoice, req); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, func(q *invoiceTx) error {
		if err := checkDocumentParties(ctx, q.properties, q.contacts, invoice.AccountID, invoice.PropertyID, invoice.ContactID); err != nil {
			return err
		}

		if invoice.InvoiceNumber == "" {
			number, err := s.numbers.GenerateInvoiceNumber(ctx, q.tx, invoice.InvoiceDate)
			if err != nil {
				return err
			}
			invoice.InvoiceNumber = number
		}

		if err := q.invoices.Create(ctx, invoice); err != nil {
			return err
		}
		if req.Items != nil {
			if err := s.insertItems(ctx, q, invoice.ID, *req.Items); err != nil {
				return err
			}
		}
		if err := s.recalculate(ctx, q, invoice.ID); err != nil {
			return err
		}
		return s.checkStatusContent(ctx, q, invoice.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("invoice created",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber))

	return s.GetByID(ctx, invoice.ID)
}

// CreateFromQuote raises an invoice for an accepted quote, copying its parties
// and items. Each quote can be invoiced once unless that invoice was cancelled.
func (s *InvoiceService) CreateFromQuote(ctx context.Context, quoteID int64, req *domain.CreateInvoiceFromQuoteRequest) (*domain.InvoiceDetailDTO, error) {
	invoiceDate, err := parseDate("invoice_date", req.InvoiceDate, dateOnly(s.now()))
	if err != nil {
		return nil, err
	}

	termDays := req.PaymentTermDays
	if termDays == 0 {
		termDays = DefaultPaymentTermDays
	}
	dueDate, err := parseDate("due_date", req.DueDate, invoiceDate.AddDate(0, 0, termDays))
	if err != nil {
		return nil, err
	}
	if dueDate.Before(invoiceDate) {
		return nil, domain.NewValidationError("due_date", "must not be before invoice_date")
	}

	paymentTerms := req.PaymentTerms
	if paymentTerms == "" {
		paymentTerms = fmt.Sprintf("Payable within %d days", termDays)
	}

	var invoice *domain.Invoice

	err = s.inTx(ctx, func(q *invoiceTx) error {
		quote, err := q.quotes.GetByIDWithItems(ctx, quoteID)
		if err != nil {
			return err
		}
		if quote.Status != domain.QuoteStatusAccepted {
			return domain.NewValidationError("status", "only accepted quotes can be invoiced, quote is %s", quote.Status)
		}
		if len(quote.Items) == 0 {
			return domain.NewValidationError("quote_id", "quote %d has no items to invoice", quoteID)
		}

		invoiced, err := q.invoices.ExistsForQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		if invoiced {
			return domain.NewValidationError("quote_id", "quote %d has already been invoiced", quoteID)
		}

		number := strings.TrimSpace(req.InvoiceNumber)
		if number == "" {
			number, err = s.numbers.GenerateInvoiceNumber(ctx, q.tx, invoiceDate)
			if err != nil {
				return err
			}
		}

		invoice = &domain.Invoice{
			QuoteID:       &quote.ID,
			AccountID:     quote.AccountID,
			PropertyID:    quote.PropertyID,
			ContactID:     quote.ContactID,
			InvoiceNumber: number,
			InvoiceDate:   invoiceDate,
			DueDate:       dueDate,
			Status:        domain.InvoiceStatusCreated,
			PaymentTerms:  paymentTerms,
			Notes:         quote.Notes,
		}
		if err := q.invoices.Create(ctx, invoice); err != nil {
			return err
		}

		items := make([]domain.InvoiceItem, len(quote.Items))
		for i := range quote.Items {
			qi := &quote.Items[i]
			quoteItemID := qi.ID
			items[i] = domain.InvoiceItem{
				InvoiceID:   invoice.ID,
				QuoteItemID: &quoteItemID,
				ProductID:   qi.ProductID,
				Description: qi.Description,
				Quantity:    qi.Quantity,
				Unit:        qi.Unit,
				UnitPrice:   qi.UnitPrice,
				VatRate:     qi.VatRate,
				TotalNet:    qi.TotalNet,
				TotalGross:  qi.TotalGross,
				Position:    qi.Position,
			}
		}
		if err := q.items.CreateBatch(ctx, items); err != nil {
			return err
		}
		return s.recalculate(ctx, q, invoice.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice from quote: %w", err)
	}

	s.logger.Info("invoice created from quote",
		zap.Int64("invoice_id", invoice.ID),
		zap.Int64("quote_id", quoteID),
		zap.String("invoice_number", invoice.InvoiceNumber))

	return s.GetByID(ctx, invoice.ID)
}

func (s *InvoiceService) GetByID(ctx context.Context, id int64) (*domain.InvoiceDetailDTO, error) {
	invoice, err := s.invoiceRepo.GetByIDWithItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	dto := mapper.ToInvoiceDetailDTO(invoice)
	return &dto, nil
}

// Update overwrites the invoice. A present items array, even an empty one,
// replaces the whole item set. The paid amount is only changed through payments.
func (s *InvoiceService) Update(ctx context.Context, id int64, req *domain.InvoiceRequest) (*domain.InvoiceDetailDTO, error) {
	err := s.inTx(ctx, func(q *invoiceTx) error {
		invoice, err := q.invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.applyRequest(invoice, req); err != nil {
			return err
		}
		if err := checkDocumentParties(ctx, q.properties, q.contacts, invoice.AccountID, invoice.PropertyID, invoice.ContactID); err != nil {
			return err
		}

		ok, err := q.invoices.Update(ctx, invoice)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}

		if req.Items != nil {
			if err := q.items.DeleteByInvoice(ctx, id); err != nil {
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
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	ok, err := s.invoiceRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to delete invoice: %w", domain.ErrNotFound)
	}

	s.logger.Info("invoice deleted", zap.Int64("invoice_id", id))
	return nil
}

func (s *InvoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]domain.InvoiceDTO, error) {
	invoices, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i])
	}
	return dtos, nil
}

// ListItems returns the items of an invoice ordered by position
func (s *InvoiceService) ListItems(ctx context.Context, invoiceID int64) ([]domain.InvoiceItemDTO, error) {
	if _, err := s.invoiceRepo.GetByID(ctx, invoiceID); err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := s.itemRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice items: %w", err)
	}
	return mapper.ToInvoiceItemDTOs(items), nil
}

// AddItem appends an item to the invoice. Without a position the item goes after the last one.
func (s *InvoiceService) AddItem(ctx context.Context, invoiceID int64, req *domain.InvoiceItemRequest) (*domain.InvoiceItemDTO, error) {
	var item domain.InvoiceItem

	err := s.inTx(ctx, func(q *invoiceTx) error {
		if _, err := q.invoices.GetByID(ctx, invoiceID); err != nil {
			return err
		}

		line, err := resolveLine(ctx, q.products, &req.LineItemRequest)
		if err != nil {
			return err
		}

		position := req.Position
		if position == 0 {
			last, err := q.items.MaxPosition(ctx, invoiceID)
			if err != nil {
				return err
			}
			position = last + 1
		}

		item = newInvoiceItem(invoiceID, req.QuoteItemID, line, position)
		if err := q.items.Create(ctx, &item); err != nil {
			return err
		}
		return s.recalculate(ctx, q, invoiceID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add invoice item: %w", err)
	}

	dto := mapper.ToInvoiceItemDTO(&item)
	return &dto, nil
}

// UpdateItem overwrites an item. Without a position the item keeps its place.
func (s *InvoiceService) UpdateItem(ctx context.Context, itemID int64, req *domain.InvoiceItemRequest) (*domain.InvoiceItemDTO, error) {
	var item *domain.InvoiceItem

	err := s.inTx(ctx, func(q *invoiceTx) error {
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

		updated := newInvoiceItem(existing.InvoiceID, req.QuoteItemID, line, position)
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
		return s.recalculate(ctx, q, existing.InvoiceID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice item: %w", err)
	}

	dto := mapper.ToInvoiceItemDTO(item)
	return &dto, nil
}

// DeleteItem removes an item and recomputes the invoice totals
func (s *InvoiceService) DeleteItem(ctx context.Context, itemID int64) error {
	err := s.inTx(ctx, func(q *invoiceTx) error {
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
		return s.recalculate(ctx, q, item.InvoiceID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete invoice item: %w", err)
	}
	return nil
}

// Send moves a created invoice with at least one item to sent
func (s *InvoiceService) Send(ctx context.Context, id int64) (*domain.InvoiceDTO, error) {
	return s.transition(ctx, id, domain.InvoiceStatusSent)
}

// Cancel cancels an invoice that is not paid yet
func (s *InvoiceService) Cancel(ctx context.Context, id int64) (*domain.InvoiceDTO, error) {
	return s.transition(ctx, id, domain.InvoiceStatusCancelled)
}

func (s *InvoiceService) transition(ctx context.Context, id int64, target domain.InvoiceStatus) (*domain.InvoiceDTO, error) {
	var invoice *domain.Invoice

	err := s.inTx(ctx, func(q *invoiceTx) error {
		var err error
		invoice, err = q.invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !invoice.Status.CanTransitionTo(target) {
			return domain.NewValidationError("status", "cannot change invoice status from %s to %s", invoice.Status, target)
		}

		if target == domain.InvoiceStatusSent {
			last, err := q.items.MaxPosition(ctx, id)
			if err != nil {
				return err
			}
			if last == 0 {
				return domain.NewValidationError("items", "an invoice without items cannot be sent")
			}
		}

		if _, err := q.invoices.UpdateStatus(ctx, id, target); err != nil {
			return err
		}
		invoice.Status = target
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to change invoice status: %w", err)
	}

	s.logger.Info("invoice status changed",
		zap.Int64("invoice_id", id),
		zap.String("status", string(target)))

	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

// RecordPayment adds a payment to a sent or overdue invoice. The invoice becomes
// paid once the paid amount reaches the gross total. Overpayments are rejected.
func (s *InvoiceService) RecordPayment(ctx context.Context, id int64, req *domain.PaymentRequest) (*domain.InvoiceDTO, error) {
	var invoice *domain.Invoice

	err := s.inTx(ctx, func(q *invoiceTx) error {
		var err error
		invoice, err = q.invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !invoice.Status.AcceptsPayments() {
			return domain.NewValidationError("status", "payments can only be recorded on sent or overdue invoices, invoice is %s", invoice.Status)
		}

		amount := domain.RoundMoney(req.Amount)
		if amount <= 0 {
			return domain.NewValidationError("amount", "must be greater than zero")
		}
		if amount > invoice.OpenAmount() {
			return domain.NewValidationError("amount", "exceeds the open amount of %.2f", invoice.OpenAmount())
		}

		invoice.AmountPaid = domain.RoundMoney(invoice.AmountPaid + amount)
		if invoice.AmountPaid >= invoice.TotalGross {
			invoice.Status = domain.InvoiceStatusPaid
		}
		return q.invoices.RecordPayment(ctx, id, invoice.AmountPaid, invoice.Status)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info("payment recorded",
		zap.Int64("invoice_id", id),
		zap.Float64("amount", req.Amount),
		zap.String("status", string(invoice.Status)))

	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

// MarkOverdue flips sent invoices whose due date has passed to overdue and
// returns how many were changed
func (s *InvoiceService) MarkOverdue(ctx context.Context) (int64, error) {
	count, err := s.invoiceRepo.MarkOverdue(ctx, dateOnly(s.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	if count > 0 {
		s.logger.Info("invoices marked overdue", zap.Int64("count", count))
	}
	return count, nil
}
