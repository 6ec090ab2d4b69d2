package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/auth"
	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/service"
	"github.com/crm-argus/argus-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var today = testutil.Date(2025, time.March, 10)

type testServices struct {
	db        *gorm.DB
	accounts  *service.AccountService
	contacts  *service.ContactService
	props     *service.PropertyService
	products  *service.ProductService
	quotes    *service.QuoteService
	invoices  *service.InvoiceService
	users     *service.UserService
	auth      *service.AuthService
	dashboard *service.DashboardService
}

func setupServices(t *testing.T) *testServices {
	t.Helper()
	return newTestServices(t, testutil.SetupTestDB(t))
}

// newTestServices wires every service against an already migrated database
func newTestServices(t *testing.T, db *gorm.DB) *testServices {
	t.Helper()
	logger := zap.NewNop()

	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	linkRepo := repository.NewPropertyContactRepository(db)
	productRepo := repository.NewProductRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	quoteItemRepo := repository.NewQuoteItemRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	invoiceItemRepo := repository.NewInvoiceItemRepository(db)
	userRepo := repository.NewUserRepository(db)
	numbers := service.NewNumberSequenceService(logger)

	quotes := service.NewQuoteService(quoteRepo, quoteItemRepo, productRepo, propertyRepo, contactRepo, numbers, db, logger)
	quotes.SetClock(func() time.Time { return today.Add(9 * time.Hour) })
	invoices := service.NewInvoiceService(invoiceRepo, invoiceItemRepo, quoteRepo, productRepo, propertyRepo, contactRepo, numbers, db, logger)
	invoices.SetClock(func() time.Time { return today.Add(9 * time.Hour) })

	tokens := auth.NewTokenManager(&config.AuthConfig{JWTSecret: "test-secret", Issuer: "crm-argus", TokenTTL: 60})

	return &testServices{
		db:        db,
		accounts:  service.NewAccountService(accountRepo, contactRepo, propertyRepo, quoteRepo, invoiceRepo, logger),
		contacts:  service.NewContactService(contactRepo, linkRepo, db, logger),
		props:     service.NewPropertyService(propertyRepo, contactRepo, linkRepo, logger),
		products:  service.NewProductService(productRepo, logger),
		quotes:    quotes,
		invoices:  invoices,
		users:     service.NewUserService(userRepo, db, logger).WithHashCost(bcrypt.MinCost),
		auth:      service.NewAuthService(userRepo, tokens, logger),
		dashboard: service.NewDashboardService(accountRepo, contactRepo, propertyRepo, productRepo, quoteRepo, invoiceRepo, logger),
	}
}

// party is an account with one property, used as the addressee of documents
type party struct {
	account  *domain.Account
	property *domain.Property
}

func (s *testServices) createParty(t *testing.T, name string) party {
	t.Helper()
	account := testutil.CreateTestAccount(t, s.db, name)
	property := testutil.CreateTestProperty(t, s.db, account.ID, name+" Tower")
	return party{account: account, property: property}
}

func float(v float64) *float64 { return &v }

func int64Ptr(v int64) *int64 { return &v }

func line(description string, qty, price, vat float64) domain.LineItemRequest {
	return domain.LineItemRequest{Description: description, Quantity: qty, UnitPrice: float(price), VatRate: float(vat)}
}

func quoteItems(lines ...domain.LineItemRequest) *[]domain.QuoteItemRequest {
	items := make([]domain.QuoteItemRequest, len(lines))
	for i, l := range lines {
		items[i] = domain.QuoteItemRequest{LineItemRequest: l}
	}
	return &items
}

// acceptedQuote creates a quote with the given lines and moves it to accepted
func (s *testServices) acceptedQuote(t *testing.T, p party, lines ...domain.LineItemRequest) *domain.QuoteDetailDTO {
	t.Helper()
	ctx := context.Background()
	quote, err := s.quotes.Create(ctx, &domain.QuoteRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		Items:      quoteItems(lines...),
	})
	require.NoError(t, err)
	_, err = s.quotes.Send(ctx, quote.QuoteID)
	require.NoError(t, err)
	_, err = s.quotes.Accept(ctx, quote.QuoteID)
	require.NoError(t, err)
	return quote
}
