package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)
	ctx := context.Background()

	account := &domain.Account{Name: "Hausverwaltung Nord", Email: "nord@example.com"}
	require.NoError(t, repo.Create(ctx, account))
	assert.NotZero(t, account.ID)
	assert.False(t, account.CreatedAt.IsZero())

	found, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hausverwaltung Nord", found.Name)

	found.Name = "Hausverwaltung Süd"
	found.Phone = "040 123"
	ok, err := repo.Update(ctx, found)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hausverwaltung Süd", reloaded.Name)
	assert.Equal(t, "040 123", reloaded.Phone)
	assert.Equal(t, account.CreatedAt.Unix(), reloaded.CreatedAt.Unix())

	ok, err = repo.Delete(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetByID(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_UpdateMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)

	ok, err := repo.Update(context.Background(), &domain.Account{ID: 999, Name: "Ghost"})
	require.NoError(t, err)
	assert.False(t, ok)

	var count int64
	require.NoError(t, db.Model(&domain.Account{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAccountRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)
	ctx := context.Background()

	testutil.CreateTestAccount(t, db, "Zeta Immobilien")
	testutil.CreateTestAccount(t, db, "Alpha Verwaltung")
	testutil.CreateTestAccount(t, db, "Beta Immobilien")

	t.Run("ordered by name", func(t *testing.T) {
		accounts, err := repo.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, accounts, 3)
		assert.Equal(t, "Alpha Verwaltung", accounts[0].Name)
		assert.Equal(t, "Zeta Immobilien", accounts[2].Name)
	})

	t.Run("search", func(t *testing.T) {
		accounts, err := repo.List(ctx, "immobilien")
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})
}

func TestAccountRepository_DeleteCascadesToContactsAndProperties(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Cascade GmbH")
	contact := testutil.CreateTestContact(t, db, account.ID, "Anna", "Schmidt")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus A")
	require.NoError(t, db.Create(&domain.PropertyContact{PropertyID: property.ID, ContactID: contact.ID}).Error)

	ok, err := repo.Delete(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	var contacts, properties, links int64
	db.Model(&domain.Contact{}).Count(&contacts)
	db.Model(&domain.Property{}).Count(&properties)
	db.Model(&domain.PropertyContact{}).Count(&links)
	assert.Zero(t, contacts)
	assert.Zero(t, properties)
	assert.Zero(t, links)
}

func TestAccountRepository_DeleteRestrictedByQuotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Restrict GmbH")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus B")
	testutil.CreateTestQuote(t, db, account.ID, property.ID, "Q-2025-0001")

	has, err := repo.HasDocuments(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = repo.Delete(ctx, account.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)

	var cv *domain.ConstraintViolationError
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, domain.ConstraintForeignKey, cv.Kind)

	_, err = repo.GetByID(ctx, account.ID)
	assert.NoError(t, err)
}

func TestContactRepository_ListAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewContactRepository(db)
	ctx := context.Background()

	first := testutil.CreateTestAccount(t, db, "First")
	second := testutil.CreateTestAccount(t, db, "Second")
	testutil.CreateTestContact(t, db, first.ID, "Zoe", "Meyer")
	testutil.CreateTestContact(t, db, first.ID, "Anton", "Meyer")
	testutil.CreateTestContact(t, db, second.ID, "Bernd", "Albrecht")

	all, err := repo.List(ctx, repository.ContactFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Albrecht", all[0].LastName)
	assert.Equal(t, "Anton", all[1].FirstName)
	assert.Equal(t, "Zoe", all[2].FirstName)

	byAccount, err := repo.ListByAccount(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, byAccount, 2)

	searched, err := repo.List(ctx, repository.ContactFilter{Search: "ALBR"})
	require.NoError(t, err)
	assert.Len(t, searched, 1)
}

func TestContactRepository_CreateWithUnknownAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewContactRepository(db)

	err := repo.Create(context.Background(), &domain.Contact{AccountID: 4711, FirstName: "No", LastName: "Body"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestContactRepository_ClearPrimary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewContactRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Primary")
	a := testutil.CreateTestContact(t, db, account.ID, "A", "One")
	b := testutil.CreateTestContact(t, db, account.ID, "B", "Two")
	require.NoError(t, db.Model(a).Update("is_primary_contact", true).Error)

	require.NoError(t, repo.ClearPrimary(ctx, account.ID, b.ID))

	reloaded, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsPrimaryContact)
}

func TestPropertyContactRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPropertyContactRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Links")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus C")
	other := testutil.CreateTestProperty(t, db, account.ID, "Anbau")
	contact := testutil.CreateTestContact(t, db, account.ID, "Clara", "Zimmer")
	second := testutil.CreateTestContact(t, db, account.ID, "Bert", "Adler")

	require.NoError(t, repo.Create(ctx, &domain.PropertyContact{PropertyID: property.ID, ContactID: contact.ID, Role: "Hausmeister"}))
	require.NoError(t, repo.Create(ctx, &domain.PropertyContact{PropertyID: property.ID, ContactID: second.ID}))
	require.NoError(t, repo.Create(ctx, &domain.PropertyContact{PropertyID: other.ID, ContactID: contact.ID}))

	t.Run("duplicate link", func(t *testing.T) {
		err := repo.Create(ctx, &domain.PropertyContact{PropertyID: property.ID, ContactID: contact.ID})
		var cv *domain.ConstraintViolationError
		require.True(t, errors.As(err, &cv))
		assert.Equal(t, domain.ConstraintUnique, cv.Kind)
	})

	t.Run("by property", func(t *testing.T) {
		links, err := repo.ListByProperty(ctx, property.ID)
		require.NoError(t, err)
		require.Len(t, links, 2)
		require.NotNil(t, links[0].Contact)
		assert.Equal(t, "Adler", links[0].Contact.LastName)
		assert.Equal(t, "Hausmeister", links[1].Role)
	})

	t.Run("by contact", func(t *testing.T) {
		links, err := repo.ListByContact(ctx, contact.ID)
		require.NoError(t, err)
		require.Len(t, links, 2)
		require.NotNil(t, links[0].Property)
		assert.Equal(t, "Anbau", links[0].Property.Name)
	})

	t.Run("delete", func(t *testing.T) {
		ok, err := repo.Delete(ctx, property.ID, contact.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Delete(ctx, property.ID, contact.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestProductRepository_ListActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewProductRepository(db)
	ctx := context.Background()

	testutil.CreateTestProduct(t, db, "Wartung", 80, 19)
	retired := testutil.CreateTestProduct(t, db, "Altgerät", 10, 19)
	require.NoError(t, db.Model(retired).Update("is_active", false).Error)

	active := true
	products, err := repo.List(ctx, repository.ProductFilter{Active: &active})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Wartung", products[0].Name)

	all, err := repo.List(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestQuoteRepository_UniqueNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewQuoteRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Unique")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus D")
	testutil.CreateTestQuote(t, db, account.ID, property.ID, "Q-1")

	exists, err := repo.ExistsByNumber(ctx, "Q-1")
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.Create(ctx, &domain.Quote{
		AccountID:   account.ID,
		PropertyID:  property.ID,
		QuoteNumber: "Q-1",
		QuoteDate:   testutil.Date(2025, time.February, 1),
		Status:      domain.QuoteStatusCreated,
	})
	var cv *domain.ConstraintViolationError
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, domain.ConstraintUnique, cv.Kind)
	assert.Equal(t, "quote_number", cv.Column)
}

func TestQuoteRepository_ItemsAndTotals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	quotes := repository.NewQuoteRepository(db)
	items := repository.NewQuoteItemRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Totals")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus E")
	quote := testutil.CreateTestQuote(t, db, account.ID, property.ID, "Q-2")

	lines := []domain.QuoteItem{
		{QuoteID: quote.ID, Description: "B", Quantity: 1, Unit: "Stk", UnitPrice: 10, VatRate: 19, Position: 2},
		{QuoteID: quote.ID, Description: "A", Quantity: 2, Unit: "Stk", UnitPrice: 50, VatRate: 19, Position: 1},
	}
	for i := range lines {
		line := domain.ComputeLine(lines[i].Line())
		lines[i].TotalNet, lines[i].TotalGross = line.TotalNet, line.TotalGross
	}
	require.NoError(t, items.CreateBatch(ctx, lines))

	t.Run("duplicate position", func(t *testing.T) {
		err := items.Create(ctx, &domain.QuoteItem{QuoteID: quote.ID, Description: "X", Quantity: 1, Unit: "Stk", Position: 1})
		assert.ErrorIs(t, err, domain.ErrConstraintViolation)
	})

	maxPos, err := items.MaxPosition(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, maxPos)

	loaded, err := items.ListByQuote(ctx, quote.ID)
	require.NoError(t, err)
	lineTotals := make([]domain.LineTotals, len(loaded))
	for i, item := range loaded {
		lineTotals[i] = domain.LineTotals{TotalNet: item.TotalNet, TotalGross: item.TotalGross}
	}
	totals := domain.SumLines(lineTotals)
	require.NoError(t, quotes.UpdateTotals(ctx, quote.ID, totals))

	withItems, err := quotes.GetByIDWithItems(ctx, quote.ID)
	require.NoError(t, err)
	require.Len(t, withItems.Items, 2)
	assert.Equal(t, "A", withItems.Items[0].Description)
	assert.InDelta(t, 110.00, withItems.TotalNet, 0.001)
	assert.InDelta(t, 130.90, withItems.TotalGross, 0.001)

	require.NoError(t, items.DeleteByQuote(ctx, quote.ID))
	maxPos, err = items.MaxPosition(ctx, quote.ID)
	require.NoError(t, err)
	assert.Zero(t, maxPos)
}

func TestQuoteRepository_DeleteCascadesItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	quotes := repository.NewQuoteRepository(db)
	items := repository.NewQuoteItemRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Cascade")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus F")
	quote := testutil.CreateTestQuote(t, db, account.ID, property.ID, "Q-3")
	require.NoError(t, items.Create(ctx, &domain.QuoteItem{QuoteID: quote.ID, Description: "A", Quantity: 1, Unit: "Stk", Position: 1}))

	ok, err := quotes.Delete(ctx, quote.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	var count int64
	db.Model(&domain.QuoteItem{}).Count(&count)
	assert.Zero(t, count)
}

func TestQuoteRepository_StatsAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewQuoteRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Stats")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus G")
	open := testutil.CreateTestQuote(t, db, account.ID, property.ID, "Q-10")
	accepted := testutil.CreateTestQuote(t, db, account.ID, property.ID, "Q-11")
	require.NoError(t, repo.UpdateTotals(ctx, open.ID, domain.LineTotals{TotalNet: 100, TotalGross: 119}))
	require.NoError(t, repo.UpdateTotals(ctx, accepted.ID, domain.LineTotals{TotalNet: 50, TotalGross: 59.5}))
	ok, err := repo.UpdateStatus(ctx, accepted.ID, domain.QuoteStatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.QuoteStatusCreated])
	assert.Equal(t, int64(1), counts[domain.QuoteStatusAccepted])

	sum, err := repo.SumOpenValue(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 119.0, sum, 0.001)

	status := domain.QuoteStatusAccepted
	filtered, err := repo.List(ctx, repository.QuoteFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Q-11", filtered[0].QuoteNumber)

	_, err = repo.UpdateStatus(ctx, open.ID, domain.QuoteStatus("archived"))
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestInvoiceRepository_MarkOverdue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Overdue")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus H")
	late := testutil.CreateTestInvoice(t, db, account.ID, property.ID, "R-1", domain.InvoiceStatusSent, testutil.Date(2025, time.March, 1))
	onTime := testutil.CreateTestInvoice(t, db, account.ID, property.ID, "R-2", domain.InvoiceStatusSent, testutil.Date(2025, time.March, 20))
	draft := testutil.CreateTestInvoice(t, db, account.ID, property.ID, "R-3", domain.InvoiceStatusCreated, testutil.Date(2025, time.March, 1))

	n, err := repo.MarkOverdue(ctx, testutil.Date(2025, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for id, want := range map[int64]domain.InvoiceStatus{
		late.ID:   domain.InvoiceStatusOverdue,
		onTime.ID: domain.InvoiceStatusSent,
		draft.ID:  domain.InvoiceStatusCreated,
	} {
		inv, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, inv.Status)
	}
}

func TestInvoiceRepository_PaymentsAndOutstanding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Payments")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus I")
	invoice := testutil.CreateTestInvoice(t, db, account.ID, property.ID, "R-10", domain.InvoiceStatusSent, testutil.Date(2025, time.April, 1))
	require.NoError(t, repo.UpdateTotals(ctx, invoice.ID, domain.LineTotals{TotalNet: 100, TotalGross: 119}))
	require.NoError(t, repo.RecordPayment(ctx, invoice.ID, 19, domain.InvoiceStatusSent))

	outstanding, err := repo.SumOutstanding(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, outstanding, 0.001)

	exists, err := repo.ExistsByNumber(ctx, "R-10")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInvoiceRepository_ProtectsQuote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	quotes := repository.NewQuoteRepository(db)
	invoices := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	account := testutil.CreateTestAccount(t, db, "Protect")
	property := testutil.CreateTestProperty(t, db, account.ID, "Haus J")
	quote := testutil.CreateTestQuote(t, db, account.ID, property.ID, "Q-20")
	invoice := testutil.CreateTestInvoice(t, db, account.ID, property.ID, "R-20", domain.InvoiceStatusCreated, testutil.Date(2025, time.May, 1))
	require.NoError(t, db.Model(invoice).Update("quote_id", quote.ID).Error)

	exists, err := invoices.ExistsForQuote(ctx, quote.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = quotes.Delete(ctx, quote.ID)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)

	var cv *domain.ConstraintViolationError
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, domain.ConstraintForeignKey, cv.Kind)
	assert.Equal(t, "the record references a missing entry or is still referenced by other records", cv.Message())
}

func TestNumberSequenceRepository_NextNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := repo.NextNumber(ctx, repository.SequenceQuote, 2025)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := repo.NextNumber(ctx, repository.SequenceInvoice, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = repo.NextNumber(ctx, repository.SequenceQuote, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = repo.NextNumber(ctx, repository.SequenceQuote, 2025)
	require.NoError(t, err)
	assert.Equal(t, 4, got, "each year keeps its own counter")
}

func TestUserRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{Username: "jdoe", Email: "jdoe@example.com", PasswordHash: "x", Role: domain.UserRoleAdmin, IsActive: true}
	require.NoError(t, repo.Create(ctx, user))

	byName, err := repo.GetByLogin(ctx, "JDOE")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := repo.GetByLogin(ctx, "jdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.Create(ctx, &domain.User{Username: "jdoe", Email: "other@example.com", PasswordHash: "x", Role: domain.UserRoleUser})
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)

	admins, err := repo.CountActiveAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, now))
	ok, err := repo.UpdatePassword(ctx, user.ID, "y")
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "y", reloaded.PasswordHash)
	require.NotNil(t, reloaded.LastLogin)
	assert.True(t, now.Equal(reloaded.LastLogin.UTC()))
}
