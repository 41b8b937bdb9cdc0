package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/efvillarin/sis-api/internal/middleware"
	"github.com/efvillarin/sis-api/internal/service"
	"github.com/efvillarin/sis-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context) (*service.DashboardSummary, bool, error)
}

// DashboardHandler serves the cached admin dashboard summary.
type DashboardHandler struct {
	dashboard dashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @Summary Aggregate counts for the admin dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, hit, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
