package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/logger"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	tokens  *TokenManager
	enabled bool
	logger  *zap.Logger
}

// NewMiddleware creates a new authentication middleware. With enabled false every
// request runs as AnonymousUser.
func NewMiddleware(tokens *TokenManager, enabled bool, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens:  tokens,
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether bearer tokens are required
func (m *Middleware) Enabled() bool {
	return m.enabled
}

// Authenticate requires a valid bearer token and stores its user context
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), AnonymousUser)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized: missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "Unauthorized: invalid authorization header format")
			return
		}

		userCtx, err := m.tokens.Validate(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
			return
		}

		logger.WithUser(m.logger, userCtx.UserID, userCtx.Username).Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("role", string(userCtx.Role)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// RequireAdmin ensures the user has the admin role
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusForbidden, "Forbidden: no user context")
			return
		}

		if !userCtx.IsAdmin() {
			writeError(w, http.StatusForbidden, "Forbidden: admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIResponse{Success: false, Message: message})
}
