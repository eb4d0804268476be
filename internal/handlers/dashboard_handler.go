package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetwise/internal/services"
)

// DashboardHandler serves the computed views.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard returns the monthly summary
// @Summary     Monthly dashboard
// @Description Budget, spend, per-category cards and recent expenses for one month. Defaults to the current month.
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM)"
// @Success     200 {object} analytics.MonthlySummary "Monthly summary"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.dashboardService.Dashboard(userID, c.Query("month"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": summary})
}

// GetAnalytics returns the trend summary
// @Summary     Spending analytics
// @Description Month-over-month change, 14-day trend, 6-month budget series and top category
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM)"
// @Success     200 {object} analytics.TrendSummary "Trend summary"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics [get]
func (h *DashboardHandler) GetAnalytics(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	trends, err := h.dashboardService.Analytics(userID, c.Query("month"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analytics": trends})
}
