package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (c *cli) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var (
		req   domain.CreateUserRequest
		admin bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Create a user. Useful to add the first admin when the server runs with
authentication enabled.

Example:
  argusctl user create --username admin --email admin@example.com --password 's3cret-pass' --admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if admin {
				req.Role = domain.UserRoleAdmin
			}
			if err := validator.New().Struct(&req); err != nil {
				return fmt.Errorf("invalid user: %w", err)
			}
			return c.withGorm(cmd, func(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
				users := service.NewUserService(repository.NewUserRepository(db), db, log)
				user, err := users.Create(ctx, &req)
				if err != nil {
					return describeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d, role %s)\n", user.Username, user.UserID, user.Role)
				return nil
			})
		},
	}
	create.Flags().StringVar(&req.Username, "username", "", "Login name")
	create.Flags().StringVar(&req.Email, "email", "", "Email address")
	create.Flags().StringVar(&req.Password, "password", "", "Password, at least 8 characters")
	create.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	create.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	create.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

// describeError turns domain errors into a single readable line
func describeError(err error) error {
	var cv *domain.ConstraintViolationError
	if errors.As(err, &cv) {
		return errors.New(cv.Message())
	}
	return err
}
