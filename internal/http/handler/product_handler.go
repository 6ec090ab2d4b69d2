package handler

import (
	"fmt"
	"net/http"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/repository"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

type ProductHandler struct {
	productService *service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// List godoc
// @Summary List products
// @Tags Products
// @Produce json
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Match on name or description"
// @Success 200 {object} domain.APIResponse{data=[]domain.ProductDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	active, ok := queryBool(w, r, "active")
	if !ok {
		return
	}

	products, err := h.productService.List(r.Context(), repository.ProductFilter{
		Active: active,
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		handleServiceError(w, h.logger, err, "list products")
		return
	}
	respondData(w, http.StatusOK, products)
}

// GetByID godoc
// @Summary Get product
// @Tags Products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.APIResponse{data=domain.ProductDTO}
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get product")
		return
	}
	respondData(w, http.StatusOK, product)
}

// Create godoc
// @Summary Create product
// @Description Unit defaults to Stk, vat_rate to 19 and is_active to true
// @Tags Products
// @Accept json
// @Produce json
// @Param request body domain.ProductRequest true "Product data"
// @Success 201 {object} domain.APIResponse{data=domain.ProductDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.productService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create product")
		return
	}
	respondCreated(w, fmt.Sprintf("/api/products/%d", product.ProductID), product)
}

// Update godoc
// @Summary Update product
// @Tags Products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body domain.ProductRequest true "Product data"
// @Success 200 {object} domain.APIResponse{data=domain.ProductDTO}
// @Failure 400 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req domain.ProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.productService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update product")
		return
	}
	respondData(w, http.StatusOK, product)
}

// Delete godoc
// @Summary Delete product
// @Description Items that referenced the product keep their values and lose the reference
// @Tags Products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} domain.APIResponse
// @Failure 404 {object} domain.APIResponse
// @Security BearerAuth
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete product")
		return
	}
	respondMessage(w, "Product deleted")
}
