package router

import (
	"encoding/json"
	"net/http"

	"github.com/crm-argus/argus-api/internal/auth"
	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/database"
	"github.com/crm-argus/argus-api/internal/http/handler"
	"github.com/crm-argus/argus-api/internal/http/middleware"
	"github.com/crm-argus/argus-api/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/crm-argus/argus-api/docs" // registers the swagger docs
)

// Handlers bundles the HTTP handlers mounted under /api
type Handlers struct {
	Account   *handler.AccountHandler
	Contact   *handler.ContactHandler
	Property  *handler.PropertyHandler
	Product   *handler.ProductHandler
	Quote     *handler.QuoteHandler
	Invoice   *handler.InvoiceHandler
	User      *handler.UserHandler
	Auth      *handler.AuthHandler
	Dashboard *handler.DashboardHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	metrics        *metrics.Metrics
	h              Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	m *metrics.Metrics,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		metrics:        m,
		h:              handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(rt.metrics.Middleware)
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security, rt.logger))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)
	r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api", func(r chi.Router) {
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimiddleware.Timeout(timeout))
		}

		r.Post("/auth/login", rt.h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			r.Get("/auth/me", rt.h.Auth.Me)

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", rt.h.Account.List)
				r.Post("/", rt.h.Account.Create)
				r.Get("/{id}", rt.h.Account.GetByID)
				r.Put("/{id}", rt.h.Account.Update)
				r.Delete("/{id}", rt.h.Account.Delete)
				r.Get("/{id}/contacts", rt.h.Account.ListContacts)
				r.Get("/{id}/properties", rt.h.Account.ListProperties)
				r.Get("/{id}/quotes", rt.h.Account.ListQuotes)
				r.Get("/{id}/invoices", rt.h.Account.ListInvoices)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", rt.h.Contact.List)
				r.Post("/", rt.h.Contact.Create)
				r.Get("/{id}", rt.h.Contact.GetByID)
				r.Put("/{id}", rt.h.Contact.Update)
				r.Delete("/{id}", rt.h.Contact.Delete)
				r.Get("/{id}/properties", rt.h.Contact.ListProperties)
			})

			r.Route("/properties", func(r chi.Router) {
				r.Get("/", rt.h.Property.List)
				r.Post("/", rt.h.Property.Create)
				r.Get("/{id}", rt.h.Property.GetByID)
				r.Put("/{id}", rt.h.Property.Update)
				r.Delete("/{id}", rt.h.Property.Delete)
				r.Get("/{id}/contacts", rt.h.Property.ListContacts)
				r.Post("/{id}/contacts", rt.h.Property.AddContact)
				r.Delete("/{id}/contacts/{contactId}", rt.h.Property.RemoveContact)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", rt.h.Product.List)
				r.Post("/", rt.h.Product.Create)
				r.Get("/{id}", rt.h.Product.GetByID)
				r.Put("/{id}", rt.h.Product.Update)
				r.Delete("/{id}", rt.h.Product.Delete)
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", rt.h.Quote.List)
				r.Post("/", rt.h.Quote.Create)
				r.Put("/items/{itemId}", rt.h.Quote.UpdateItem)
				r.Delete("/items/{itemId}", rt.h.Quote.DeleteItem)
				r.Get("/{id}/items", rt.h.Quote.ListItems)
				r.Post("/{id}/items", rt.h.Quote.AddItem)
				r.Get("/{id}", rt.h.Quote.GetByID)
				r.Put("/{id}", rt.h.Quote.Update)
				r.Delete("/{id}", rt.h.Quote.Delete)
				r.Post("/{id}/send", rt.h.Quote.Send)
				r.Post("/{id}/accept", rt.h.Quote.Accept)
				r.Post("/{id}/reject", rt.h.Quote.Reject)
				r.Post("/{id}/invoice", rt.h.Quote.CreateInvoice)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", rt.h.Invoice.List)
				r.Post("/", rt.h.Invoice.Create)
				r.Put("/items/{itemId}", rt.h.Invoice.UpdateItem)
				r.Delete("/items/{itemId}", rt.h.Invoice.DeleteItem)
				r.Get("/{id}/items", rt.h.Invoice.ListItems)
				r.Post("/{id}/items", rt.h.Invoice.AddItem)
				r.Get("/{id}", rt.h.Invoice.GetByID)
				r.Put("/{id}", rt.h.Invoice.Update)
				r.Delete("/{id}", rt.h.Invoice.Delete)
				r.Post("/{id}/send", rt.h.Invoice.Send)
				r.Post("/{id}/cancel", rt.h.Invoice.Cancel)
				r.Post("/{id}/payments", rt.h.Invoice.RecordPayment)
			})

			r.Route("/users", func(r chi.Router) {
				// Users may change their own password, the handler checks ownership
				r.Put("/{id}/password", rt.h.User.ChangePassword)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)
					r.Get("/", rt.h.User.List)
					r.Post("/", rt.h.User.Create)
					r.Get("/{id}", rt.h.User.GetByID)
					r.Put("/{id}", rt.h.User.Update)
					r.Delete("/{id}", rt.h.User.Delete)
				})
			})

			r.Get("/dashboard/stats", rt.h.Dashboard.GetStats)
			r.Post("/totals/preview", rt.h.Dashboard.PreviewTotals)
		})
	})

	return r
}

// databaseHealth reports pool statistics alongside the ping result
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"driver":  rt.cfg.Database.Driver,
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			"max_idle_closed":      stats.MaxIdleClosed,
			"max_lifetime_closed":  stats.MaxLifetimeClosed,
		},
	})
}

// readiness combines all dependency checks
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(r.Context(), rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeEnvelope(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
