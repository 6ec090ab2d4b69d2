package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/database"
	"github.com/crm-argus/argus-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestNewDatabase_SQLiteFile(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "argus.db"),
	}

	db, err := database.NewDatabase(cfg)
	require.NoError(t, err)
	defer database.Close(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := database.NewDatabase(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrate_UpDownVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	ctx := context.Background()

	version, err := database.MigrationVersion(ctx, sqlDB, config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	for _, table := range []string{"accounts", "contacts", "properties", "property_contacts", "products",
		"quotes", "quote_items", "invoices", "invoice_items", "users", "number_sequences"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	require.NoError(t, database.MigrateDown(ctx, sqlDB, config.DriverSQLite))
	version, err = database.MigrationVersion(ctx, sqlDB, config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.False(t, db.Migrator().HasTable("users"))

	require.NoError(t, database.Migrate(ctx, sqlDB, config.DriverSQLite))
	assert.True(t, db.Migrator().HasTable("users"))
}

func TestHealthCheck_SQLite(t *testing.T) {
	db := testutil.SetupTestDB(t)

	require.NoError(t, database.HealthCheck(context.Background(), db))

	stats, err := database.HealthCheckWithStats(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestHealthCheck_PingFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err = database.HealthCheck(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	_, err = database.HealthCheckWithStats(context.Background(), db)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
