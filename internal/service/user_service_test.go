package service_test

import (
	"context"
	"testing"

	"github.com/crm-argus/argus-api/internal/auth"
	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_EnsureAdmin(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	cfg := &config.AuthConfig{AdminUsername: "admin", AdminEmail: "admin@argus.local"}

	created, err := s.users.EnsureAdmin(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, created, "no password configured")

	cfg.AdminPassword = "s3cret-password"
	created, err = s.users.EnsureAdmin(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.users.EnsureAdmin(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, created, "only bootstraps an empty users table")

	users, err := s.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domain.UserRoleAdmin, users[0].Role)
}

func TestUserService_LastAdminGuard(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	admin, err := s.users.Create(ctx, &domain.CreateUserRequest{Username: "root", Email: "root@example.com", Password: "password1", Role: domain.UserRoleAdmin})
	require.NoError(t, err)

	_, err = s.users.Update(ctx, admin.UserID, &domain.UpdateUserRequest{Email: "root@example.com", Role: domain.UserRoleUser})
	assert.ErrorIs(t, err, domain.ErrValidation)

	inactive := false
	_, err = s.users.Update(ctx, admin.UserID, &domain.UpdateUserRequest{Email: "root@example.com", Role: domain.UserRoleAdmin, IsActive: &inactive})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.ErrorIs(t, s.users.Delete(ctx, admin.UserID), domain.ErrValidation)

	second, err := s.users.Create(ctx, &domain.CreateUserRequest{Username: "second", Email: "second@example.com", Password: "password1", Role: domain.UserRoleAdmin})
	require.NoError(t, err)

	demoted, err := s.users.Update(ctx, admin.UserID, &domain.UpdateUserRequest{Email: "root@example.com", Role: domain.UserRoleUser})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleUser, demoted.Role)

	require.NoError(t, s.users.Delete(ctx, admin.UserID))
	assert.ErrorIs(t, s.users.Delete(ctx, second.UserID), domain.ErrValidation)
}

func TestUserService_DuplicateUsername(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	_, err := s.users.Create(ctx, &domain.CreateUserRequest{Username: "anna", Email: "anna@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = s.users.Create(ctx, &domain.CreateUserRequest{Username: "anna", Email: "other@example.com", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestAuthService_Login(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	user, err := s.users.Create(ctx, &domain.CreateUserRequest{Username: "anna", Email: "anna@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleUser, user.Role)
	assert.Nil(t, user.LastLogin)

	resp, err := s.auth.Login(ctx, &domain.LoginRequest{Username: "ANNA@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.ExpiresAt)
	assert.Equal(t, "anna", resp.User.Username)
	assert.NotNil(t, resp.User.LastLogin)

	_, err = s.auth.Login(ctx, &domain.LoginRequest{Username: "anna", Password: "wrong-password"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = s.auth.Login(ctx, &domain.LoginRequest{Username: "nobody", Password: "password1"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	inactive := false
	_, err = s.users.Update(ctx, user.UserID, &domain.UpdateUserRequest{Email: "anna@example.com", Role: domain.UserRoleUser, IsActive: &inactive})
	require.NoError(t, err)
	_, err = s.auth.Login(ctx, &domain.LoginRequest{Username: "anna", Password: "password1"})
	assert.ErrorIs(t, err, service.ErrUserInactive)
}

func TestAuthService_Me(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	_, err := s.auth.Me(ctx)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	anon, err := s.auth.Me(auth.WithUserContext(ctx, auth.AnonymousUser))
	require.NoError(t, err)
	assert.Equal(t, "anonymous", anon.Username)

	user, err := s.users.Create(ctx, &domain.CreateUserRequest{Username: "anna", Email: "anna@example.com", Password: "password1"})
	require.NoError(t, err)

	me, err := s.auth.Me(auth.WithUserContext(ctx, &auth.UserContext{UserID: user.UserID, Username: "anna", Role: domain.UserRoleUser}))
	require.NoError(t, err)
	assert.Equal(t, user.UserID, me.UserID)

	_, err = s.auth.Me(auth.WithUserContext(ctx, &auth.UserContext{UserID: 9999, Role: domain.UserRoleUser}))
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestUserService_ChangePassword(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	user, err := s.users.Create(ctx, &domain.CreateUserRequest{Username: "anna", Email: "anna@example.com", Password: "password1"})
	require.NoError(t, err)

	err = s.users.ChangePassword(ctx, user.UserID, &domain.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "password2"}, true)
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, s.users.ChangePassword(ctx, user.UserID, &domain.ChangePasswordRequest{CurrentPassword: "password1", NewPassword: "password2"}, true))

	_, err = s.auth.Login(ctx, &domain.LoginRequest{Username: "anna", Password: "password1"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = s.auth.Login(ctx, &domain.LoginRequest{Username: "anna", Password: "password2"})
	assert.NoError(t, err)

	require.NoError(t, s.users.ChangePassword(ctx, user.UserID, &domain.ChangePasswordRequest{NewPassword: "password3"}, false))
	assert.ErrorIs(t, s.users.ChangePassword(ctx, 9999, &domain.ChangePasswordRequest{NewPassword: "password3"}, false), domain.ErrNotFound)
}

func TestDashboardService_GetStats(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	p := s.createParty(t, "Acme")

	_, err := s.quotes.Create(ctx, &domain.QuoteRequest{
		AccountID:  p.account.ID,
		PropertyID: p.property.ID,
		Items:      quoteItems(line("a", 2, 50, 19)),
	})
	require.NoError(t, err)
	invoice := s.sentInvoice(t, p, 1, 100, 0)
	_, err = s.invoices.RecordPayment(ctx, invoice.InvoiceID, &domain.PaymentRequest{Amount: 40})
	require.NoError(t, err)

	stats, err := s.dashboard.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Accounts)
	assert.Equal(t, int64(1), stats.Properties)
	assert.Equal(t, int64(1), stats.Quotes)
	assert.Equal(t, int64(1), stats.Invoices)
	assert.InDelta(t, 119.00, stats.OpenQuoteValue, 0.001)
	assert.InDelta(t, 60.00, stats.OutstandingAmount, 0.001)
	assert.Equal(t, int64(1), stats.QuotesByStatus[domain.QuoteStatusCreated])
	assert.Equal(t, int64(1), stats.InvoicesByStatus[domain.InvoiceStatusSent])
}

func TestPreviewTotals(t *testing.T) {
	preview, err := service.PreviewTotals(&domain.TotalsPreviewRequest{Items: []domain.TotalsPreviewLine{
		{Quantity: 2, UnitPrice: 50, VatRate: float(19)},
		{Quantity: 1, UnitPrice: 10, VatRate: float(7)},
	}})
	require.NoError(t, err)

	require.Len(t, preview.Lines, 2)
	assert.InDelta(t, 119.00, preview.Lines[0].TotalGross, 0.001)
	assert.InDelta(t, 110.00, preview.TotalNet, 0.001)
	assert.InDelta(t, 129.70, preview.TotalGross, 0.001)
}

func TestPreviewTotals_DefaultVatRate(t *testing.T) {
	preview, err := service.PreviewTotals(&domain.TotalsPreviewRequest{Items: []domain.TotalsPreviewLine{
		{Quantity: 2, UnitPrice: 50},
	}})
	require.NoError(t, err)
	assert.InDelta(t, 119.00, preview.TotalGross, 0.001)
}

func TestPreviewTotals_RejectsOverflow(t *testing.T) {
	_, err := service.PreviewTotals(&domain.TotalsPreviewRequest{Items: []domain.TotalsPreviewLine{
		{Quantity: 1e308, UnitPrice: 1e10, VatRate: float(19)},
	}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
