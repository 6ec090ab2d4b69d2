package service

import (
	"context"
	"fmt"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardService aggregates counts and open amounts across the CRM
type DashboardService struct {
	accountRepo  *repository.AccountRepository
	contactRepo  *repository.ContactRepository
	propertyRepo *repository.PropertyRepository
	productRepo  *repository.ProductRepository
	quoteRepo    *repository.QuoteRepository
	invoiceRepo  *repository.InvoiceRepository
	logger       *zap.Logger
}

func NewDashboardService(
	accountRepo *repository.AccountRepository,
	contactRepo *repository.ContactRepository,
	propertyRepo *repository.PropertyRepository,
	productRepo *repository.ProductRepository,
	quoteRepo *repository.QuoteRepository,
	invoiceRepo *repository.InvoiceRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		accountRepo:  accountRepo,
		contactRepo:  contactRepo,
		propertyRepo: propertyRepo,
		productRepo:  productRepo,
		quoteRepo:    quoteRepo,
		invoiceRepo:  invoiceRepo,
		logger:       logger,
	}
}

func (s *DashboardService) GetStats(ctx context.Context) (*domain.DashboardStatsDTO, error) {
	stats := &domain.DashboardStatsDTO{}
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(ctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&stats.Accounts, s.accountRepo.Count)
	count(&stats.Contacts, s.contactRepo.Count)
	count(&stats.Properties, s.propertyRepo.Count)
	count(&stats.Products, s.productRepo.Count)
	count(&stats.Quotes, s.quoteRepo.Count)
	count(&stats.Invoices, s.invoiceRepo.Count)

	g.Go(func() error {
		v, err := s.quoteRepo.SumOpenValue(ctx)
		stats.OpenQuoteValue = v
		return err
	})
	g.Go(func() error {
		v, err := s.invoiceRepo.SumOutstanding(ctx)
		stats.OutstandingAmount = v
		return err
	})
	g.Go(func() error {
		byStatus, err := s.quoteRepo.CountByStatus(ctx)
		stats.QuotesByStatus = byStatus
		return err
	})
	g.Go(func() error {
		byStatus, err := s.invoiceRepo.CountByStatus(ctx)
		stats.InvoicesByStatus = byStatus
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}
	return stats, nil
}
