package service

import (
	"context"
	"errors"
	"strings"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
)

// resolvedLine is a line item request with product defaults applied and totals computed
type resolvedLine struct {
	ProductID   *int64
	Description string
	Quantity    float64
	Unit        string
	UnitPrice   float64
	VatRate     float64
	Totals      domain.LineTotals
}

// resolveLine fills omitted fields from the referenced product, falls back to the
// default unit and VAT rate, and computes the line totals
func resolveLine(ctx context.Context, products *repository.ProductRepository, req *domain.LineItemRequest) (*resolvedLine, error) {
	line := &resolvedLine{
		ProductID:   req.ProductID,
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,
		Unit:        strings.TrimSpace(req.Unit),
	}

	var product *domain.Product
	if req.ProductID != nil {
		p, err := products.GetByID(ctx, *req.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewValidationError("product_id", "product %d does not exist", *req.ProductID)
			}
			return nil, err
		}
		product = p
	}

	if line.Description == "" && product != nil {
		line.Description = product.Name
	}
	if line.Description == "" {
		return nil, domain.NewValidationError("description", "is required")
	}

	if line.Unit == "" && product != nil {
		line.Unit = product.Unit
	}
	if line.Unit == "" {
		line.Unit = domain.DefaultUnit
	}

	switch {
	case req.UnitPrice != nil:
		line.UnitPrice = *req.UnitPrice
	case product != nil:
		line.UnitPrice = product.Price
	default:
		return nil, domain.NewValidationError("unit_price", "is required when no product is referenced")
	}

	line.VatRate = domain.ResolveVatRate(req.VatRate, product)

	line.Totals = domain.ComputeLine(domain.LineInput{
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		VatRate:   line.VatRate,
	})
	if err := domain.CheckTotals("unit_price", line.Totals); err != nil {
		return nil, err
	}
	return line, nil
}

// assignPositions keeps explicit positions and numbers the remaining lines after
// the highest one in use. Duplicate explicit positions are rejected.
func assignPositions(requested []int, start int) ([]int, error) {
	positions := make([]int, len(requested))
	seen := make(map[int]bool, len(requested))
	highest := start

	for i, pos := range requested {
		if pos == 0 {
			continue
		}
		if seen[pos] {
			return nil, domain.NewValidationError("position", "position %d is used more than once", pos)
		}
		seen[pos] = true
		positions[i] = pos
		if pos > highest {
			highest = pos
		}
	}

	for i, pos := range requested {
		if pos == 0 {
			highest++
			positions[i] = highest
		}
	}
	return positions, nil
}
