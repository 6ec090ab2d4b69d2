//go:build integration

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/database"
	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgres starts a throwaway PostgreSQL container and returns a migrated connection
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("argus"),
		postgres.WithUsername("argus"),
		postgres.WithPassword("argus"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(gormpostgres.Open(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, sqlDB, config.DriverPostgres))
	require.NoError(t, database.HealthCheck(ctx, db))

	return db
}

func TestPostgres_MigrationsApply(t *testing.T) {
	db := setupPostgres(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	version, err := database.MigrationVersion(context.Background(), sqlDB, config.DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	for _, table := range []string{"accounts", "contacts", "properties", "property_contacts", "products",
		"quotes", "quote_items", "invoices", "invoice_items", "users", "number_sequences"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestPostgres_QuoteTotalsAndInvoice(t *testing.T) {
	s := newTestServices(t, setupPostgres(t))
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	quote, err := s.quotes.Create(ctx, &domain.QuoteRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		Items:      quoteItems(line("Cleaning", 2, 50, 19)),
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, quote.TotalNet)
	assert.Equal(t, 119.0, quote.TotalGross)

	_, err = s.quotes.Send(ctx, quote.QuoteID)
	require.NoError(t, err)
	_, err = s.quotes.Accept(ctx, quote.QuoteID)
	require.NoError(t, err)

	invoice, err := s.invoices.CreateFromQuote(ctx, quote.QuoteID, &domain.CreateInvoiceFromQuoteRequest{})
	require.NoError(t, err)
	assert.Equal(t, 119.0, invoice.TotalGross)
	require.Len(t, invoice.Items, 1)
}

func TestPostgres_ConstraintViolations(t *testing.T) {
	s := newTestServices(t, setupPostgres(t))
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	_, err := s.quotes.Create(ctx, &domain.QuoteRequest{
		AccountID:   p.account.ID,
		PropertyID:  p.property.ID,
		QuoteNumber: "Q-DUP",
	})
	require.NoError(t, err)

	_, err = s.quotes.Create(ctx, &domain.QuoteRequest{
		AccountID:   p.account.ID,
		PropertyID:  p.property.ID,
		QuoteNumber: "Q-DUP",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConstraintViolation))

	var cv *domain.ConstraintViolationError
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, domain.ConstraintUnique, cv.Kind)
	assert.Equal(t, "quote_number", cv.Column)

	err = s.accounts.Delete(ctx, p.account.ID)
	assert.True(t, errors.Is(err, domain.ErrConstraintViolation))

	other := testutil.CreateTestAccount(t, s.db, "Empty")
	require.NoError(t, s.accounts.Delete(ctx, other.ID))
}
