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

func TestAccountService_CRUD(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	created, err := s.accounts.Create(ctx, &domain.AccountRequest{Name: "Nordhaus Verwaltung", Email: "info@nordhaus.example"})
	require.NoError(t, err)
	assert.NotZero(t, created.AccountID)
	assert.NotEmpty(t, created.CreatedAt)

	updated, err := s.accounts.Update(ctx, created.AccountID, &domain.AccountRequest{Name: "Nordhaus GmbH", Phone: "040 123"})
	require.NoError(t, err)
	assert.Equal(t, "Nordhaus GmbH", updated.Name)
	assert.Equal(t, "040 123", updated.Phone)
	assert.Empty(t, updated.Email, "PUT overwrites omitted fields")

	list, err := s.accounts.List(ctx, "nordhaus")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.accounts.Update(ctx, 9999, &domain.AccountRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.accounts.Delete(ctx, created.AccountID))
	_, err = s.accounts.GetByID(ctx, created.AccountID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.accounts.Delete(ctx, created.AccountID), domain.ErrNotFound)
}

func TestAccountService_DeleteCascadesAndRestricts(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	free := s.createParty(t, "Free")
	contact := testutil.CreateTestContact(t, s.db, free.account.ID, "Anna", "Free")
	require.NoError(t, s.accounts.Delete(ctx, free.account.ID))

	_, err := s.contacts.GetByID(ctx, contact.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.props.GetByID(ctx, free.property.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	busy := s.createParty(t, "Busy")
	testutil.CreateTestQuote(t, s.db, busy.account.ID, busy.property.ID, "Q-1")

	err = s.accounts.Delete(ctx, busy.account.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
	var cv *domain.ConstraintViolationError
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, domain.ConstraintForeignKey, cv.Kind)
	assert.Equal(t, "account_id", cv.Column)

	invoiced := s.createParty(t, "Invoiced")
	testutil.CreateTestInvoice(t, s.db, invoiced.account.ID, invoiced.property.ID, "R-1", domain.InvoiceStatusCreated, today)
	assert.ErrorIs(t, s.accounts.Delete(ctx, invoiced.account.ID), domain.ErrConstraintViolation)

	_, err = s.accounts.GetByID(ctx, busy.account.ID)
	assert.NoError(t, err, "restricted delete leaves the account in place")
}

func TestAccountService_SubResources(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")
	testutil.CreateTestContact(t, s.db, p.account.ID, "Anna", "Berg")
	testutil.CreateTestQuote(t, s.db, p.account.ID, p.property.ID, "Q-1")
	testutil.CreateTestInvoice(t, s.db, p.account.ID, p.property.ID, "R-1", domain.InvoiceStatusCreated, today)

	contacts, err := s.accounts.ListContacts(ctx, p.account.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	properties, err := s.accounts.ListProperties(ctx, p.account.ID)
	require.NoError(t, err)
	assert.Len(t, properties, 1)

	quotes, err := s.accounts.ListQuotes(ctx, p.account.ID)
	require.NoError(t, err)
	assert.Len(t, quotes, 1)

	invoices, err := s.accounts.ListInvoices(ctx, p.account.ID)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)

	_, err = s.accounts.ListContacts(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContactService_PrimaryIsUniquePerAccount(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	acme := s.createParty(t, "Acme")
	other := s.createParty(t, "Other")

	first, err := s.contacts.Create(ctx, &domain.ContactRequest{AccountID: acme.account.ID, FirstName: "Anna", LastName: "Berg", IsPrimaryContact: true})
	require.NoError(t, err)
	elsewhere, err := s.contacts.Create(ctx, &domain.ContactRequest{AccountID: other.account.ID, FirstName: "Olaf", LastName: "Dahl", IsPrimaryContact: true})
	require.NoError(t, err)
	second, err := s.contacts.Create(ctx, &domain.ContactRequest{AccountID: acme.account.ID, FirstName: "Ben", LastName: "Cole", IsPrimaryContact: true})
	require.NoError(t, err)
	assert.True(t, second.IsPrimaryContact)

	got, err := s.contacts.GetByID(ctx, first.ContactID)
	require.NoError(t, err)
	assert.False(t, got.IsPrimaryContact)

	got, err = s.contacts.GetByID(ctx, elsewhere.ContactID)
	require.NoError(t, err)
	assert.True(t, got.IsPrimaryContact, "other accounts are untouched")
}

func TestContactService_Validation(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	_, err := s.contacts.Create(ctx, &domain.ContactRequest{AccountID: 9999, FirstName: "Anna", LastName: "Berg"})
	assert.ErrorIs(t, err, domain.ErrConstraintViolation, "unknown account")

	p := s.createParty(t, "Acme")
	_, err = s.contacts.Create(ctx, &domain.ContactRequest{AccountID: p.account.ID, FirstName: "Anna", LastName: "Berg", Birthday: "31.12.1980"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	created, err := s.contacts.Create(ctx, &domain.ContactRequest{AccountID: p.account.ID, FirstName: "Anna", LastName: "Berg", Birthday: "1980-12-31"})
	require.NoError(t, err)
	require.NotNil(t, created.Birthday)
	assert.Equal(t, "1980-12-31", *created.Birthday)

	list, err := s.contacts.List(ctx, repository.ContactFilter{AccountID: &p.account.ID, Search: "ber"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPropertyService_Contacts(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	acme := s.createParty(t, "Acme")
	other := s.createParty(t, "Other")
	anna := testutil.CreateTestContact(t, s.db, acme.account.ID, "Anna", "Berg")
	olaf := testutil.CreateTestContact(t, s.db, other.account.ID, "Olaf", "Dahl")

	link, err := s.props.AddContact(ctx, acme.property.ID, &domain.PropertyContactRequest{ContactID: anna.ID, Role: "caretaker"})
	require.NoError(t, err)
	assert.Equal(t, "caretaker", link.Role)
	require.NotNil(t, link.Contact)
	assert.Equal(t, "Anna", link.Contact.FirstName)

	_, err = s.props.AddContact(ctx, acme.property.ID, &domain.PropertyContactRequest{ContactID: anna.ID})
	var cv *domain.ConstraintViolationError
	require.True(t, errors.As(err, &cv), "duplicate link, got %v", err)
	assert.Equal(t, domain.ConstraintUnique, cv.Kind)

	_, err = s.props.AddContact(ctx, acme.property.ID, &domain.PropertyContactRequest{ContactID: olaf.ID})
	assert.ErrorIs(t, err, domain.ErrValidation, "contact of another account")

	_, err = s.props.AddContact(ctx, acme.property.ID, &domain.PropertyContactRequest{ContactID: 9999})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.props.AddContact(ctx, 9999, &domain.PropertyContactRequest{ContactID: anna.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	links, err := s.props.ListContacts(ctx, acme.property.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	properties, err := s.contacts.ListProperties(ctx, anna.ID)
	require.NoError(t, err)
	require.Len(t, properties, 1)
	require.NotNil(t, properties[0].Property)
	assert.Equal(t, acme.property.Name, properties[0].Property.Name)

	require.NoError(t, s.props.RemoveContact(ctx, acme.property.ID, anna.ID))
	assert.ErrorIs(t, s.props.RemoveContact(ctx, acme.property.ID, anna.ID), domain.ErrNotFound)
}

func TestPropertyAndContactStayWithTheirAccount(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	acme := s.createParty(t, "Acme")
	other := s.createParty(t, "Other")
	anna := testutil.CreateTestContact(t, s.db, acme.account.ID, "Anna", "Berg")

	quote, err := s.quotes.Create(ctx, &domain.QuoteRequest{
		AccountID:  acme.account.ID,
		PropertyID: acme.property.ID,
		ContactID:  int64Ptr(anna.ID),
	})
	require.NoError(t, err)

	_, err = s.props.Update(ctx, acme.property.ID, &domain.PropertyRequest{
		AccountID:   other.account.ID,
		Name:        "Moved",
		Street:      "Main",
		HouseNumber: "1",
		PostalCode:  "00000",
		City:        "X",
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	assert.Equal(t, "account_id", ve.Field)

	_, err = s.contacts.Update(ctx, anna.ID, &domain.ContactRequest{
		AccountID: other.account.ID,
		FirstName: "Anna",
		LastName:  "Berg",
	})
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	assert.Equal(t, "account_id", ve.Field)

	renamed, err := s.props.Update(ctx, acme.property.ID, &domain.PropertyRequest{
		AccountID:   acme.account.ID,
		Name:        "Acme Tower East",
		Street:      "Main",
		HouseNumber: "1",
		PostalCode:  "00000",
		City:        "X",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Tower East", renamed.Name)

	_, err = s.quotes.Update(ctx, quote.QuoteID, &domain.QuoteRequest{
		AccountID:  acme.account.ID,
		PropertyID: acme.property.ID,
		ContactID:  int64Ptr(anna.ID),
		Notes:      "still editable",
	})
	assert.NoError(t, err)
}

func TestPropertyService_DeleteRestrictedByQuote(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")
	testutil.CreateTestQuote(t, s.db, p.account.ID, p.property.ID, "Q-1")

	assert.ErrorIs(t, s.props.Delete(ctx, p.property.ID), domain.ErrConstraintViolation)
}

func TestProductService_Defaults(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	product, err := s.products.Create(ctx, &domain.ProductRequest{Name: "Gardening", Price: 35.555})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultUnit, product.Unit)
	assert.InDelta(t, domain.DefaultVatRate, product.VatRate, 0.001)
	assert.InDelta(t, 35.56, product.Price, 0.001)
	assert.True(t, product.IsActive)

	inactive := false
	_, err = s.products.Update(ctx, product.ProductID, &domain.ProductRequest{Name: "Gardening", Price: 30, IsActive: &inactive, VatRate: float(7)})
	require.NoError(t, err)

	active := true
	list, err := s.products.List(ctx, repository.ProductFilter{Active: &active})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.products.Delete(ctx, product.ProductID))
	assert.ErrorIs(t, s.products.Delete(ctx, product.ProductID), domain.ErrNotFound)
}

func TestProductService_DeleteKeepsQuoteItems(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")
	product := testutil.CreateTestProduct(t, s.db, "Caretaker hour", 40, 19)

	quote, err := s.quotes.Create(ctx, &domain.QuoteRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		Items:      &[]domain.QuoteItemRequest{{LineItemRequest: domain.LineItemRequest{ProductID: &product.ID, Quantity: 1}}},
	})
	require.NoError(t, err)

	require.NoError(t, s.products.Delete(ctx, product.ID))

	got, err := s.quotes.GetByID(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Nil(t, got.Items[0].ProductID)
	assert.Equal(t, "Caretaker hour", got.Items[0].Description)
}
