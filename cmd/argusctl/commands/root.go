package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/database"
	"github.com/crm-argus/argus-api/internal/logger"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cli carries the flags shared by every subcommand
type cli struct {
	driver  string
	dbPath  string
	verbose bool

	// loadConfig is replaced in tests
	loadConfig func(ctx context.Context, log *zap.Logger) (*config.Config, error)
}

// NewRootCommand builds the argusctl command tree
func NewRootCommand() *cobra.Command {
	c := &cli{loadConfig: config.LoadWithSecrets}
	return c.rootCommand()
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "argusctl",
		Short: "CRM-Argus operations tool",
		Long: `argusctl manages a CRM-Argus database.

Configuration is read the same way as the API server: config.json, .env and
environment variables. --driver and --db-path override the database settings.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&c.driver, "driver", "", "Database driver (sqlite or postgres)")
	root.PersistentFlags().StringVar(&c.dbPath, "db-path", "", "SQLite database file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(c.migrateCommand(), c.seedCommand(), c.userCommand())
	return root
}

func (c *cli) logger() *zap.Logger {
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(&config.LoggingConfig{Level: level}, &config.AppConfig{Name: "argusctl", Environment: "cli"})
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func (c *cli) config(ctx context.Context, log *zap.Logger) (*config.Config, error) {
	cfg, err := c.loadConfig(ctx, log)
	if err != nil {
		return nil, err
	}
	if c.driver != "" {
		cfg.Database.Driver = c.driver
	}
	if c.dbPath != "" {
		cfg.Database.Path = c.dbPath
	}
	return cfg, nil
}

// openSQL opens a plain database/sql handle for goose
func openSQL(cfg *config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err = sql.Open("sqlite3", cfg.SQLiteDSN())
	case config.DriverPostgres:
		db, err = sql.Open("postgres", cfg.ConnectionString())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// withGorm opens the application database, requiring a migrated schema
func (c *cli) withGorm(cmd *cobra.Command, fn func(ctx context.Context, db *gorm.DB, log *zap.Logger) error) error {
	ctx := cmd.Context()
	log := c.logger()
	defer func() { _ = log.Sync() }()

	cfg, err := c.config(ctx, log)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	version, err := database.MigrationVersion(ctx, sqlDB, cfg.Database.Driver)
	if err != nil {
		return err
	}
	if version == 0 {
		return fmt.Errorf("database has no schema, run \"argusctl migrate up\" first")
	}

	return fn(ctx, db, log)
}
