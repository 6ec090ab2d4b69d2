// Package testutil provides an isolated, fully migrated database per test plus fixture helpers.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/database"
	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB opens a private in-memory SQLite database with foreign keys on
// and the production migrations applied. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:argus_%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	require.NoError(t, database.Migrate(context.Background(), sqlDB, config.DriverSQLite))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestAccount inserts an account
func CreateTestAccount(t *testing.T, db *gorm.DB, name string) *domain.Account {
	t.Helper()
	account := &domain.Account{Name: name, Email: "office@example.com"}
	require.NoError(t, db.Create(account).Error)
	return account
}

// CreateTestContact inserts a contact for the account
func CreateTestContact(t *testing.T, db *gorm.DB, accountID int64, firstName, lastName string) *domain.Contact {
	t.Helper()
	contact := &domain.Contact{AccountID: accountID, FirstName: firstName, LastName: lastName}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

// CreateTestProperty inserts a property for the account
func CreateTestProperty(t *testing.T, db *gorm.DB, accountID int64, name string) *domain.Property {
	t.Helper()
	property := &domain.Property{
		AccountID:   accountID,
		Name:        name,
		Street:      "Main",
		HouseNumber: "1",
		PostalCode:  "00000",
		City:        "X",
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

// CreateTestProduct inserts an active product
func CreateTestProduct(t *testing.T, db *gorm.DB, name string, price, vatRate float64) *domain.Product {
	t.Helper()
	product := &domain.Product{Name: name, Unit: "h", Price: price, VatRate: vatRate, IsActive: true}
	require.NoError(t, db.Create(product).Error)
	return product
}

// CreateTestQuote inserts a quote without items
func CreateTestQuote(t *testing.T, db *gorm.DB, accountID, propertyID int64, number string) *domain.Quote {
	t.Helper()
	quote := &domain.Quote{
		AccountID:   accountID,
		PropertyID:  propertyID,
		QuoteNumber: number,
		QuoteDate:   Date(2025, time.January, 1),
		Status:      domain.QuoteStatusCreated,
	}
	require.NoError(t, db.Omit("Items").Create(quote).Error)
	return quote
}

// CreateTestInvoice inserts an invoice without items
func CreateTestInvoice(t *testing.T, db *gorm.DB, accountID, propertyID int64, number string, status domain.InvoiceStatus, due time.Time) *domain.Invoice {
	t.Helper()
	invoice := &domain.Invoice{
		AccountID:     accountID,
		PropertyID:    propertyID,
		InvoiceNumber: number,
		InvoiceDate:   due.AddDate(0, 0, -14),
		DueDate:       due,
		Status:        status,
	}
	require.NoError(t, db.Omit("Items").Create(invoice).Error)
	return invoice
}
