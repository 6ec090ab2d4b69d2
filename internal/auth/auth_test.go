package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crm-argus/argus-api/internal/auth"
	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret-with-enough-entropy",
		Issuer:    "argus-test",
		TokenTTL:  60,
	}
}

func testUser() *domain.User {
	return &domain.User{ID: 42, Username: "jdoe", Role: domain.UserRoleUser}
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tokens := auth.NewTokenManager(testAuthConfig())

	token, expiresAt, err := tokens.Issue(testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userCtx, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userCtx.UserID)
	assert.Equal(t, "jdoe", userCtx.Username)
	assert.Equal(t, domain.UserRoleUser, userCtx.Role)
	assert.False(t, userCtx.IsAdmin())
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	other := testAuthConfig()
	other.JWTSecret = "a-different-secret"
	token, _, err := auth.NewTokenManager(other).Issue(testUser())
	require.NoError(t, err)

	_, err = auth.NewTokenManager(testAuthConfig()).Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	cfg := testAuthConfig()
	claims := auth.Claims{
		Username: "jdoe",
		Role:     domain.UserRoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = auth.NewTokenManager(cfg).Validate(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_RejectsWrongIssuer(t *testing.T) {
	other := testAuthConfig()
	other.Issuer = "someone-else"
	token, _, err := auth.NewTokenManager(other).Issue(testUser())
	require.NoError(t, err)

	_, err = auth.NewTokenManager(testAuthConfig()).Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func captureUser(captured **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	cfg := testAuthConfig()
	tokens := auth.NewTokenManager(cfg)
	mw := auth.NewMiddleware(tokens, true, zap.NewNop())
	token, _, err := tokens.Issue(testUser())
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		var captured *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		mw.Authenticate(captureUser(&captured)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured)
		assert.Equal(t, int64(42), captured.UserID)
	})

	t.Run("missing header", func(t *testing.T) {
		var captured *auth.UserContext
		w := httptest.NewRecorder()

		mw.Authenticate(captureUser(&captured)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, gjson.Get(w.Body.String(), "success").Bool())
		assert.Nil(t, captured)
	})

	t.Run("malformed header", func(t *testing.T) {
		var captured *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()

		mw.Authenticate(captureUser(&captured)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMiddleware_Disabled(t *testing.T) {
	mw := auth.NewMiddleware(auth.NewTokenManager(testAuthConfig()), false, zap.NewNop())

	var captured *auth.UserContext
	w := httptest.NewRecorder()
	mw.Authenticate(captureUser(&captured)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.True(t, captured.Anonymous)
	assert.False(t, mw.Enabled())
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	mw := auth.NewMiddleware(auth.NewTokenManager(testAuthConfig()), true, zap.NewNop())
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name string
		user *auth.UserContext
		want int
	}{
		{"admin", &auth.UserContext{UserID: 1, Role: domain.UserRoleAdmin}, http.StatusOK},
		{"user", &auth.UserContext{UserID: 2, Role: domain.UserRoleUser}, http.StatusForbidden},
		{"no context", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()

			mw.RequireAdmin(ok).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
