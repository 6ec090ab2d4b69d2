package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// OverdueInvoicesJobName is the scheduler name of the overdue invoice sweep
const OverdueInvoicesJobName = "overdue_invoices"

// InvoiceMarker is implemented by the invoice service
type InvoiceMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// OverdueCounter receives the number of invoices moved to overdue
type OverdueCounter interface {
	AddOverdueInvoices(n int64)
}

// OverdueInvoicesJob moves sent invoices past their due date to overdue
type OverdueInvoicesJob struct {
	invoices InvoiceMarker
	counter  OverdueCounter
	logger   *zap.Logger
	timeout  time.Duration
}

// NewOverdueInvoicesJob creates the job. counter may be nil.
func NewOverdueInvoicesJob(invoices InvoiceMarker, counter OverdueCounter, logger *zap.Logger, timeout time.Duration) *OverdueInvoicesJob {
	return &OverdueInvoicesJob{
		invoices: invoices,
		counter:  counter,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run performs one sweep
func (j *OverdueInvoicesJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	marked, err := j.invoices.MarkOverdue(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	if j.counter != nil {
		j.counter.AddOverdueInvoices(marked)
	}

	j.logger.Info("overdue invoice sweep finished", zap.Int64("marked_overdue", marked))
	return nil
}

// Register adds the job to the scheduler
func (j *OverdueInvoicesJob) Register(s *Scheduler, cronExpr string) error {
	return s.AddJob(OverdueInvoicesJobName, cronExpr, j.Run)
}
