package middleware

import (
	"net/http"

	"github.com/crm-argus/argus-api/internal/config"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// SecurityHeaders sets the response security headers from config
func SecurityHeaders(cfg *config.SecurityConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	options := secure.Options{
		ContentTypeNosniff:      cfg.ContentTypeNosniff,
		ContentSecurityPolicy:   cfg.ContentSecurityPolicy,
		ReferrerPolicy:          cfg.ReferrerPolicy,
		PermissionsPolicy:       cfg.PermissionsPolicy,
		CustomFrameOptionsValue: cfg.FrameOptions,
		BrowserXssFilter:        true,
	}
	if cfg.EnableHSTS {
		options.STSSeconds = int64(cfg.HSTSMaxAge)
		options.STSIncludeSubdomains = cfg.HSTSIncludeSubdomains
		options.STSPreload = cfg.HSTSPreload
		// sent on plain HTTP too, TLS ends at the proxy
		options.ForceSTSHeader = true
	}

	sec := secure.New(options)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sec.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeJSONError(w, http.StatusBadRequest, "Request blocked")
				return
			}
			w.Header().Del("X-Powered-By")
			w.Header().Del("Server")
			next.ServeHTTP(w, r)
		})
	}
}
