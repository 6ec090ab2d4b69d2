package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceItems(lines ...domain.LineItemRequest) *[]domain.InvoiceItemRequest {
	items := make([]domain.InvoiceItemRequest, len(lines))
	for i, l := range lines {
		items[i] = domain.InvoiceItemRequest{LineItemRequest: l}
	}
	return &items
}

// sentInvoice creates an invoice with one line and sends it
func (s *testServices) sentInvoice(t *testing.T, p party, qty, price, vat float64) *domain.InvoiceDetailDTO {
	t.Helper()
	ctx := context.Background()
	invoice, err := s.invoices.Create(ctx, &domain.InvoiceRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		DueDate:    "2025-03-24",
		Items:      invoiceItems(line("Service", qty, price, vat)),
	})
	require.NoError(t, err)
	_, err = s.invoices.Send(ctx, invoice.InvoiceID)
	require.NoError(t, err)
	return invoice
}

func TestInvoiceService_Create(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	invoice, err := s.invoices.Create(ctx, &domain.InvoiceRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		DueDate:    "2025-03-24",
		Items:      invoiceItems(line("Window cleaning", 2, 50, 19)),
	})
	require.NoError(t, err)

	assert.Equal(t, "R-2025-0001", invoice.InvoiceNumber)
	assert.Equal(t, "2025-03-10", invoice.InvoiceDate)
	assert.Equal(t, "2025-03-24", invoice.DueDate)
	assert.Equal(t, domain.InvoiceStatusCreated, invoice.Status)
	assert.InDelta(t, 100.00, invoice.TotalNet, 0.001)
	assert.InDelta(t, 119.00, invoice.TotalGross, 0.001)
	assert.InDelta(t, 119.00, invoice.OpenAmount, 0.001)
	require.Len(t, invoice.Items, 1)
}

func TestInvoiceService_CreateValidatesDates(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	_, err := s.invoices.Create(ctx, &domain.InvoiceRequest{AccountID: p.account.ID, PropertyID: p.property.ID})
	assert.ErrorIs(t, err, domain.ErrValidation, "due date is required")

	_, err = s.invoices.Create(ctx, &domain.InvoiceRequest{
		AccountID:   p.account.ID,
		PropertyID:  p.property.ID,
		InvoiceDate: "2025-03-10",
		DueDate:     "2025-03-01",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.invoices.Create(ctx, &domain.InvoiceRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		DueDate:    "24.03.2025",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInvoiceService_CreateFromQuote(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")
	quote := s.acceptedQuote(t, p, line("a", 2, 50, 19), line("b", 1, 10, 7))

	invoice, err := s.invoices.CreateFromQuote(ctx, quote.QuoteID, &domain.CreateInvoiceFromQuoteRequest{})
	require.NoError(t, err)

	require.NotNil(t, invoice.QuoteID)
	assert.Equal(t, quote.QuoteID, *invoice.QuoteID)
	assert.Equal(t, p.account.ID, invoice.AccountID)
	assert.Equal(t, p.property.ID, invoice.PropertyID)
	assert.Equal(t, "2025-03-10", invoice.InvoiceDate)
	assert.Equal(t, "2025-03-24", invoice.DueDate)
	assert.Equal(t, "Payable within 14 days", invoice.PaymentTerms)
	assert.InDelta(t, quote.TotalNet, invoice.TotalNet, 0.001)
	assert.InDelta(t, quote.TotalGross, invoice.TotalGross, 0.001)

	require.Len(t, invoice.Items, 2)
	for i, item := range invoice.Items {
		require.NotNil(t, item.QuoteItemID)
		assert.Equal(t, quote.Items[i].QuoteItemID, *item.QuoteItemID)
		assert.Equal(t, quote.Items[i].Position, item.Position)
		assert.InDelta(t, quote.Items[i].TotalGross, item.TotalGross, 0.001)
	}

	_, err = s.invoices.CreateFromQuote(ctx, quote.QuoteID, &domain.CreateInvoiceFromQuoteRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation, "a quote is invoiced once")

	_, err = s.invoices.Cancel(ctx, invoice.InvoiceID)
	require.NoError(t, err)

	again, err := s.invoices.CreateFromQuote(ctx, quote.QuoteID, &domain.CreateInvoiceFromQuoteRequest{PaymentTermDays: 30})
	require.NoError(t, err, "a cancelled invoice frees the quote")
	assert.Equal(t, "2025-04-09", again.DueDate)
	assert.NotEqual(t, invoice.InvoiceNumber, again.InvoiceNumber)
}

func TestInvoiceService_CreateFromQuoteRequiresAccepted(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	quote, err := s.quotes.Create(ctx, &domain.QuoteRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		Items:      quoteItems(line("a", 1, 10, 19)),
	})
	require.NoError(t, err)

	_, err = s.invoices.CreateFromQuote(ctx, quote.QuoteID, &domain.CreateInvoiceFromQuoteRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.invoices.CreateFromQuote(ctx, 9999, &domain.CreateInvoiceFromQuoteRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceService_Payments(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")
	invoice := s.sentInvoice(t, p, 2, 50, 19)

	partial, err := s.invoices.RecordPayment(ctx, invoice.InvoiceID, &domain.PaymentRequest{Amount: 19})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, partial.Status)
	assert.InDelta(t, 19, partial.AmountPaid, 0.001)
	assert.InDelta(t, 100, partial.OpenAmount, 0.001)

	_, err = s.invoices.RecordPayment(ctx, invoice.InvoiceID, &domain.PaymentRequest{Amount: 100.01})
	assert.ErrorIs(t, err, domain.ErrValidation, "overpayment")

	paid, err := s.invoices.RecordPayment(ctx, invoice.InvoiceID, &domain.PaymentRequest{Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	assert.Zero(t, paid.OpenAmount)

	_, err = s.invoices.RecordPayment(ctx, invoice.InvoiceID, &domain.PaymentRequest{Amount: 1})
	assert.ErrorIs(t, err, domain.ErrValidation, "paid invoices accept no payments")

	_, err = s.invoices.Cancel(ctx, invoice.InvoiceID)
	assert.ErrorIs(t, err, domain.ErrValidation, "paid is terminal")
}

func TestInvoiceService_PaymentRequiresSent(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	invoice, err := s.invoices.Create(ctx, &domain.InvoiceRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		DueDate:    "2025-03-24",
		Items:      invoiceItems(line("a", 1, 10, 0)),
	})
	require.NoError(t, err)

	_, err = s.invoices.RecordPayment(ctx, invoice.InvoiceID, &domain.PaymentRequest{Amount: 5})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInvoiceService_SendRequiresItems(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	invoice, err := s.invoices.Create(ctx, &domain.InvoiceRequest{AccountID: p.account.ID, PropertyID: p.property.ID, DueDate: "2025-03-24"})
	require.NoError(t, err)

	_, err = s.invoices.Send(ctx, invoice.InvoiceID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	item, err := s.invoices.AddItem(ctx, invoice.InvoiceID, &domain.InvoiceItemRequest{LineItemRequest: line("a", 1, 10, 19)})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Position)

	sent, err := s.invoices.Send(ctx, invoice.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, sent.Status)
	assert.InDelta(t, 11.90, sent.TotalGross, 0.001)
}

func TestInvoiceService_ItemsRecompute(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	invoice, err := s.invoices.Create(ctx, &domain.InvoiceRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		DueDate:    "2025-03-24",
		Items:      invoiceItems(line("a", 2, 50, 19)),
	})
	require.NoError(t, err)

	added, err := s.invoices.AddItem(ctx, invoice.InvoiceID, &domain.InvoiceItemRequest{LineItemRequest: line("b", 1, 10, 0)})
	require.NoError(t, err)

	_, err = s.invoices.UpdateItem(ctx, added.InvoiceItemID, &domain.InvoiceItemRequest{LineItemRequest: line("b", 2, 10, 0)})
	require.NoError(t, err)

	got, err := s.invoices.GetByID(ctx, invoice.InvoiceID)
	require.NoError(t, err)
	assert.InDelta(t, 120.00, got.TotalNet, 0.001)
	assert.InDelta(t, 139.00, got.TotalGross, 0.001)

	require.NoError(t, s.invoices.DeleteItem(ctx, added.InvoiceItemID))
	items, err := s.invoices.ListItems(ctx, invoice.InvoiceID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	replaced, err := s.invoices.Update(ctx, invoice.InvoiceID, &domain.InvoiceRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		DueDate:    "2025-04-01",
		Items:      invoiceItems(line("c", 1, 200, 19)),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", replaced.DueDate)
	assert.Equal(t, invoice.InvoiceNumber, replaced.InvoiceNumber)
	require.Len(t, replaced.Items, 1)
	assert.InDelta(t, 238.00, replaced.TotalGross, 0.001)
}

func TestInvoiceService_MarkOverdue(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	late := testutil.CreateTestInvoice(t, s.db, p.account.ID, p.property.ID, "R-1", domain.InvoiceStatusSent, today.AddDate(0, 0, -1))
	dueToday := testutil.CreateTestInvoice(t, s.db, p.account.ID, p.property.ID, "R-2", domain.InvoiceStatusSent, today)
	draft := testutil.CreateTestInvoice(t, s.db, p.account.ID, p.property.ID, "R-3", domain.InvoiceStatusCreated, today.AddDate(0, 0, -30))

	count, err := s.invoices.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	for id, want := range map[int64]domain.InvoiceStatus{
		late.ID:     domain.InvoiceStatusOverdue,
		dueToday.ID: domain.InvoiceStatusSent,
		draft.ID:    domain.InvoiceStatusCreated,
	} {
		got, err := s.invoices.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "invoice %d", id)
	}

	overdue := domain.InvoiceStatusOverdue
	list, err := s.invoices.List(ctx, repository.InvoiceFilter{Status: &overdue})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "R-1", list[0].InvoiceNumber)
}

func TestInvoiceService_Delete(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")
	invoice := s.sentInvoice(t, p, 1, 10, 19)

	require.NoError(t, s.invoices.Delete(ctx, invoice.InvoiceID))
	assert.ErrorIs(t, s.invoices.Delete(ctx, invoice.InvoiceID), domain.ErrNotFound)

	_, err := s.accounts.GetByID(ctx, p.account.ID)
	require.NoError(t, err)
	require.NoError(t, s.accounts.Delete(ctx, p.account.ID), "an account without documents can be deleted")
}

func TestInvoiceService_DueDateBeforeDateOnUpdate(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	invoice, err := s.invoices.Create(ctx, &domain.InvoiceRequest{AccountID: p.account.ID, PropertyID: p.property.ID, DueDate: "2025-03-24"})
	require.NoError(t, err)

	_, err = s.invoices.Update(ctx, invoice.InvoiceID, &domain.InvoiceRequest{
		AccountID:   p.account.ID,
		PropertyID:  p.property.ID,
		InvoiceDate: "2025-04-01",
		DueDate:     "2025-03-24",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInvoiceService_PaidRequiresPayments(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")
	invoice := s.sentInvoice(t, p, 1, 10, 19)

	update := &domain.InvoiceRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		DueDate:    "2025-03-24",
		Status:     domain.InvoiceStatusPaid,
	}
	_, err := s.invoices.Update(ctx, invoice.InvoiceID, update)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	assert.Equal(t, "status", ve.Field)

	stored, err := s.invoices.GetByID(ctx, invoice.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, stored.Status)

	paid, err := s.invoices.RecordPayment(ctx, invoice.InvoiceID, &domain.PaymentRequest{Amount: 11.90})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)

	update.Notes = "settled"
	updated, err := s.invoices.Update(ctx, invoice.InvoiceID, update)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, updated.Status)

	_, err = s.invoices.Create(ctx, &domain.InvoiceRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		DueDate:    "2025-03-24",
		Status:     domain.InvoiceStatusPaid,
		Items:      invoiceItems(line("a", 1, 10, 19)),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInvoiceService_UpdateKeepsQuoteLink(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")
	quote := s.acceptedQuote(t, p, line("a", 2, 50, 19))

	invoice, err := s.invoices.CreateFromQuote(ctx, quote.QuoteID, &domain.CreateInvoiceFromQuoteRequest{})
	require.NoError(t, err)

	updated, err := s.invoices.Update(ctx, invoice.InvoiceID, &domain.InvoiceRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		DueDate:    invoice.DueDate,
		Notes:      "without quote_id",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.QuoteID)
	assert.Equal(t, quote.QuoteID, *updated.QuoteID)

	_, err = s.invoices.CreateFromQuote(ctx, quote.QuoteID, &domain.CreateInvoiceFromQuoteRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation, "the quote stays invoiced")
}

func TestInvoiceService_CreateFromEmptyQuote(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	quote := testutil.CreateTestQuote(t, s.db, p.account.ID, p.property.ID, "Q-EMPTY")
	require.NoError(t, s.db.Model(&domain.Quote{}).Where("id = ?", quote.ID).Update("status", domain.QuoteStatusAccepted).Error)

	_, err := s.invoices.CreateFromQuote(ctx, quote.ID, &domain.CreateInvoiceFromQuoteRequest{})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	assert.Equal(t, "quote_id", ve.Field)
}
