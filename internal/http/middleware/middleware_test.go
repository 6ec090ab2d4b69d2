package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestLogging_AssignsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	var seen string
	h := middleware.Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/accounts", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, seen, fields["request_id"])
	assert.Equal(t, int64(http.StatusCreated), fields["status_code"])
	assert.Equal(t, "/api/accounts", fields["path"])
}

func TestLogging_ReusesIncomingID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	h := middleware.Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/9", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(middleware.RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "req-123", entry.ContextMap()["request_id"])
	assert.Equal(t, "GET", entry.ContextMap()["method"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	h := middleware.Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, rec.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: "default-src 'self'",
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "camera=()",
	}

	rec := httptest.NewRecorder()
	middleware.SecurityHeaders(cfg, zap.NewNop())(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "camera=()", rec.Header().Get("Permissions-Policy"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_Disabled(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.SecurityHeaders(&config.SecurityConfig{}, zap.NewNop())(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func preflight(h http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/accounts", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS(t *testing.T) {
	base := config.CORSConfig{AllowedMethods: []string{"GET", "POST"}, AllowedHeaders: []string{"Authorization"}}

	t.Run("explicit origins", func(t *testing.T) {
		cfg := base
		cfg.AllowedOrigins = []string{"https://app.example"}
		h := middleware.CORS(&cfg, "production", zap.NewNop())(okHandler)

		assert.Equal(t, "https://app.example", preflight(h, "https://app.example").Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, preflight(h, "https://other.example").Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("development allows any origin", func(t *testing.T) {
		cfg := base
		h := middleware.CORS(&cfg, "development", zap.NewNop())(okHandler)
		assert.Equal(t, "https://anything.example", preflight(h, "https://anything.example").Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("production without origins denies", func(t *testing.T) {
		cfg := base
		h := middleware.CORS(&cfg, "production", zap.NewNop())(okHandler)
		assert.Empty(t, preflight(h, "https://anything.example").Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		cfg := base
		cfg.AllowedOrigins = []string{"*"}
		h := middleware.CORS(&cfg, "staging", zap.NewNop())(okHandler)
		assert.Equal(t, "https://anything.example", preflight(h, "https://anything.example").Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"10.0.0.1"},
		WhitelistPaths:    []string{"/health", "/docs/*"},
	}, zap.NewNop())
	h := rl.Limit(okHandler)

	call := func(path, remote, xff string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remote
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("/api/accounts", "192.0.2.10:5000", ""))
	assert.Equal(t, http.StatusTooManyRequests, call("/api/accounts", "192.0.2.10:5001", ""))

	// separate budget per client
	assert.Equal(t, http.StatusOK, call("/api/accounts", "192.0.2.11:5000", ""))
	assert.Equal(t, http.StatusOK, call("/api/accounts", "192.0.2.99:5000", "198.51.100.7, 10.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("/api/accounts", "192.0.2.98:5000", "198.51.100.7"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, call("/health", "192.0.2.10:5000", ""))
		assert.Equal(t, http.StatusOK, call("/docs/index.html", "192.0.2.10:5000", ""))
		assert.Equal(t, http.StatusOK, call("/api/accounts", "10.0.0.1:5000", ""))
	}
}

func TestRateLimiter_Envelope(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, zap.NewNop())
	h := rl.Limit(okHandler)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "message").String())
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	h := rl.Limit(okHandler)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
