package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/mapper"
	"github.com/crm-argus/argus-api/internal/repository"
	"go.uber.org/zap"
)

type ProductService struct {
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

func NewProductService(productRepo *repository.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// applyProductRequest copies the request, defaulting unit, VAT rate and the active flag
func applyProductRequest(product *domain.Product, req *domain.ProductRequest) {
	product.Name = req.Name
	product.Description = req.Description
	product.Price = domain.RoundMoney(req.Price)

	product.Unit = strings.TrimSpace(req.Unit)
	if product.Unit == "" {
		product.Unit = domain.DefaultUnit
	}

	product.VatRate = domain.DefaultVatRate
	if req.VatRate != nil {
		product.VatRate = *req.VatRate
	}

	product.IsActive = true
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
}

func (s *ProductService) Create(ctx context.Context, req *domain.ProductRequest) (*domain.ProductDTO, error) {
	product := &domain.Product{}
	applyProductRequest(product, req)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, req *domain.ProductRequest) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	applyProductRequest(product, req)

	ok, err := s.productRepo.Update(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to update product: %w", domain.ErrNotFound)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// Delete removes the product. Items referencing it keep their copied values.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	ok, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to delete product: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter) ([]domain.ProductDTO, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	dtos := make([]domain.ProductDTO, len(products))
	for i := range products {
		dtos[i] = mapper.ToProductDTO(&products[i])
	}
	return dtos, nil
}
