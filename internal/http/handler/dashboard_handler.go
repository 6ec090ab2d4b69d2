package handler

import (
	"net/http"

	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetStats godoc
// @Summary Get dashboard statistics
// @Description Entity counts, quotes and invoices per status, the gross value of open quotes
// @Description (created, sent) and the unpaid amount of sent and overdue invoices.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.APIResponse{data=domain.DashboardStatsDTO}
// @Failure 500 {object} domain.APIResponse
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "get dashboard stats")
		return
	}
	respondData(w, http.StatusOK, stats)
}

// PreviewTotals godoc
// @Summary Preview totals
// @Description Computes line and document totals with the same function used when saving. Nothing is stored.
// @Tags Totals
// @Accept json
// @Produce json
// @Param request body domain.TotalsPreviewRequest true "Lines"
// @Success 200 {object} domain.APIResponse{data=domain.TotalsPreviewDTO}
// @Failure 400 {object} domain.APIResponse
// @Security BearerAuth
// @Router /totals/preview [post]
func (h *DashboardHandler) PreviewTotals(w http.ResponseWriter, r *http.Request) {
	var req domain.TotalsPreviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	preview, err := service.PreviewTotals(&req)
	if err != nil {
		handleServiceError(w, h.logger, err, "preview totals")
		return
	}
	respondData(w, http.StatusOK, preview)
}
