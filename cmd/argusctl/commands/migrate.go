package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/database"
	"github.com/spf13/cobra"
)

// writerLogger prints goose output to the command's stdout
type writerLogger struct {
	w io.Writer
}

func (l writerLogger) Printf(format string, v ...interface{}) {
	fmt.Fprintf(l.w, format, v...)
	if len(format) == 0 || format[len(format)-1] != '\n' {
		fmt.Fprintln(l.w)
	}
}

func (l writerLogger) Fatalf(format string, v ...interface{}) {
	l.Printf(format, v...)
}

func (c *cli) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply or roll back the embedded schema migrations.

Subcommands:
  up       - Apply pending migrations
  down     - Roll back the latest migration
  status   - Show applied and pending migrations
  version  - Print the current schema version`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: c.migrateRun(func(ctx context.Context, cmd *cobra.Command, db *sql.DB, cfg *config.Config) error {
				if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
					return err
				}
				return printVersion(ctx, cmd, db, cfg, "Migrations applied, schema version %d\n")
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: c.migrateRun(func(ctx context.Context, cmd *cobra.Command, db *sql.DB, cfg *config.Config) error {
				if err := database.MigrateDown(ctx, db, cfg.Database.Driver); err != nil {
					return err
				}
				return printVersion(ctx, cmd, db, cfg, "Migration rolled back, schema version %d\n")
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: c.migrateRun(func(ctx context.Context, cmd *cobra.Command, db *sql.DB, cfg *config.Config) error {
				return database.MigrationStatus(ctx, db, cfg.Database.Driver, writerLogger{w: cmd.OutOrStdout()})
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: c.migrateRun(func(ctx context.Context, cmd *cobra.Command, db *sql.DB, cfg *config.Config) error {
				return printVersion(ctx, cmd, db, cfg, "%d\n")
			}),
		},
	)

	return cmd
}

func (c *cli) migrateRun(fn func(ctx context.Context, cmd *cobra.Command, db *sql.DB, cfg *config.Config) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := c.logger()
		defer func() { _ = log.Sync() }()

		cfg, err := c.config(ctx, log)
		if err != nil {
			return err
		}

		db, err := openSQL(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.PingSQL(ctx, db); err != nil {
			return err
		}
		return fn(ctx, cmd, db, cfg)
	}
}

func printVersion(ctx context.Context, cmd *cobra.Command, db *sql.DB, cfg *config.Config, format string) error {
	version, err := database.MigrationVersion(ctx, db, cfg.Database.Driver)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), format, version)
	return nil
}
