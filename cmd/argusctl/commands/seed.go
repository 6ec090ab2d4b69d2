package commands

import (
	"context"
	"fmt"

	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/seed"
	"github.com/crm-argus/argus-api/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (c *cli) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo accounts, contacts, properties and products",
		Long:  "Load a small demo data set. Nothing is written when accounts already exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withGorm(cmd, func(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
				accountRepo := repository.NewAccountRepository(db)
				contactRepo := repository.NewContactRepository(db)
				propertyRepo := repository.NewPropertyRepository(db)
				linkRepo := repository.NewPropertyContactRepository(db)

				seeder := seed.NewSeeder(
					accountRepo,
					service.NewAccountService(accountRepo, contactRepo, propertyRepo, repository.NewQuoteRepository(db), repository.NewInvoiceRepository(db), log),
					service.NewContactService(contactRepo, linkRepo, db, log),
					service.NewPropertyService(propertyRepo, contactRepo, linkRepo, log),
					service.NewProductService(repository.NewProductRepository(db), log),
					log,
				)

				result, err := seeder.Run(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if result.Skipped {
					fmt.Fprintln(out, "Database already contains accounts, nothing seeded")
					return nil
				}
				fmt.Fprintf(out, "Seeded %d accounts, %d contacts, %d properties, %d products\n",
					result.Accounts, result.Contacts, result.Properties, result.Products)
				return nil
			})
		},
	}
}
