package service

import (
	"fmt"

	"github.com/crm-argus/argus-api/internal/domain"
)

// PreviewTotals computes line and document totals without storing anything
func PreviewTotals(req *domain.TotalsPreviewRequest) (*domain.TotalsPreviewDTO, error) {
	inputs := make([]domain.LineInput, len(req.Items))
	for i, item := range req.Items {
		inputs[i] = domain.LineInput{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			VatRate:   domain.ResolveVatRate(item.VatRate, nil),
		}
	}

	lines, sum := domain.ComputeDocument(inputs)
	for i := range lines {
		if err := domain.CheckTotals(fmt.Sprintf("items[%d]", i), lines[i]); err != nil {
			return nil, err
		}
	}
	if err := domain.CheckTotals("items", sum); err != nil {
		return nil, err
	}

	return &domain.TotalsPreviewDTO{
		Lines:      lines,
		TotalNet:   sum.TotalNet,
		TotalGross: sum.TotalGross,
	}, nil
}
