package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crm-argus/argus-api/docs"
	"github.com/crm-argus/argus-api/internal/auth"
	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/database"
	"github.com/crm-argus/argus-api/internal/http/handler"
	"github.com/crm-argus/argus-api/internal/http/middleware"
	"github.com/crm-argus/argus-api/internal/http/router"
	"github.com/crm-argus/argus-api/internal/jobs"
	"github.com/crm-argus/argus-api/internal/logger"
	"github.com/crm-argus/argus-api/internal/metrics"
	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

// @title CRM-Argus API
// @version 1.0
// @description Property management CRM: accounts, contacts, properties, products, quotes and invoices

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// Environment variables in development, Key Vault when configured
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database instance: %w", err)
		}
		if err := database.Migrate(ctx, sqlDB, cfg.Database.Driver); err != nil {
			return err
		}
		version, _ := database.MigrationVersion(ctx, sqlDB, cfg.Database.Driver)
		log.Info("Database migrated", zap.Int64("version", version))
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	linkRepo := repository.NewPropertyContactRepository(db)
	productRepo := repository.NewProductRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	quoteItemRepo := repository.NewQuoteItemRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	invoiceItemRepo := repository.NewInvoiceItemRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	numbers := service.NewNumberSequenceService(log)
	accountService := service.NewAccountService(accountRepo, contactRepo, propertyRepo, quoteRepo, invoiceRepo, log)
	contactService := service.NewContactService(contactRepo, linkRepo, db, log)
	propertyService := service.NewPropertyService(propertyRepo, contactRepo, linkRepo, log)
	productService := service.NewProductService(productRepo, log)
	quoteService := service.NewQuoteService(quoteRepo, quoteItemRepo, productRepo, propertyRepo, contactRepo, numbers, db, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, invoiceItemRepo, quoteRepo, productRepo, propertyRepo, contactRepo, numbers, db, log)
	userService := service.NewUserService(userRepo, db, log)
	tokens := auth.NewTokenManager(&cfg.Auth)
	authService := service.NewAuthService(userRepo, tokens, log)
	dashboardService := service.NewDashboardService(accountRepo, contactRepo, propertyRepo, productRepo, quoteRepo, invoiceRepo, log)

	created, err := userService.EnsureAdmin(ctx, &cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin user: %w", err)
	}
	if created {
		log.Info("Bootstrap admin created", zap.String("username", cfg.Auth.AdminUsername))
	}
	if !cfg.Auth.Enabled {
		log.Warn("Authentication disabled, every request runs as an anonymous admin")
	}

	// Middleware
	authMiddleware := auth.NewMiddleware(tokens, cfg.Auth.Enabled, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	appMetrics := metrics.New()

	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, appMetrics, router.Handlers{
		Account:   handler.NewAccountHandler(accountService, log),
		Contact:   handler.NewContactHandler(contactService, log),
		Property:  handler.NewPropertyHandler(propertyService, log),
		Product:   handler.NewProductHandler(productService, log),
		Quote:     handler.NewQuoteHandler(quoteService, invoiceService, log),
		Invoice:   handler.NewInvoiceHandler(invoiceService, log),
		User:      handler.NewUserHandler(userService, log),
		Auth:      handler.NewAuthHandler(authService, log),
		Dashboard: handler.NewDashboardHandler(dashboardService, log),
	})

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log, appMetrics)
		overdue := jobs.NewOverdueInvoicesJob(invoiceService, appMetrics, log, time.Minute)
		if err := overdue.Register(scheduler, cfg.Jobs.OverdueInvoicesSchedule); err != nil {
			return err
		}

		// Catch up on anything that fell due while the server was down
		if err := scheduler.RunNow(ctx, jobs.OverdueInvoicesJobName, overdue.Run); err != nil {
			log.Warn("Startup overdue sweep failed", zap.Error(err))
		}
		scheduler.Start()
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
