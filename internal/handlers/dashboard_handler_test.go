package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetwise/internal/analytics"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/services"
)

// --- mock dashboard service ---

type mockDashboardService struct {
	dashboardFn func(userID, monthKey string) (*analytics.MonthlySummary, error)
	analyticsFn func(userID, monthKey string) (*analytics.TrendSummary, error)
	viewFn      func(userID, monthKey string) (*analytics.ViewModel, error)
}

func (m *mockDashboardService) Dashboard(userID, monthKey string) (*analytics.MonthlySummary, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(userID, monthKey)
	}
	return &analytics.MonthlySummary{MonthKey: monthKey}, nil
}

func (m *mockDashboardService) Analytics(userID, monthKey string) (*analytics.TrendSummary, error) {
	if m.analyticsFn != nil {
		return m.analyticsFn(userID, monthKey)
	}
	return &analytics.TrendSummary{MonthKey: monthKey}, nil
}

func (m *mockDashboardService) View(userID, monthKey string) (*analytics.ViewModel, error) {
	if m.viewFn != nil {
		return m.viewFn(userID, monthKey)
	}
	return &analytics.ViewModel{}, nil
}

func (m *mockDashboardService) Cursor(monthKey string) (time.Time, error) {
	return analytics.ParseMonthKey(monthKey, time.UTC)
}

var _ services.DashboardServicer = (*mockDashboardService)(nil)

func setupDashboardRouter(handler *DashboardHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/dashboard", handler.GetDashboard)
	auth.GET("/analytics", handler.GetAnalytics)
	return r
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	t.Run("returns 200 with the summary", func(t *testing.T) {
		var gotUser, gotMonth string
		svc := &mockDashboardService{
			dashboardFn: func(userID, monthKey string) (*analytics.MonthlySummary, error) {
				gotUser, gotMonth = userID, monthKey
				return &analytics.MonthlySummary{
					MonthKey:    monthKey,
					TotalBudget: decimal.RequireFromString("200"),
					Spent:       decimal.RequireFromString("80"),
					Remaining:   decimal.RequireFromString("120"),
				}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard?month=2026-02", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUser != testUserID || gotMonth != "2026-02" {
			t.Errorf("unexpected arguments %q %q", gotUser, gotMonth)
		}
		dash := parseJSON(t, rec)["dashboard"].(map[string]interface{})
		if dash["remaining"] != "120" {
			t.Errorf("expected remaining 120, got %v", dash["remaining"])
		}
	})

	t.Run("returns 400 on invalid month", func(t *testing.T) {
		svc := &mockDashboardService{
			dashboardFn: func(_, _ string) (*analytics.MonthlySummary, error) {
				return nil, apperrors.ErrInvalidMonth
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard?month=nope", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_MONTH")
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		r := gin.New()
		r.GET("/dashboard", NewDashboardHandler(&mockDashboardService{}).GetDashboard)

		rec := doRequest(r, "GET", "/dashboard", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestDashboardHandler_GetAnalytics(t *testing.T) {
	t.Run("returns 200 with the trends", func(t *testing.T) {
		svc := &mockDashboardService{
			analyticsFn: func(_, monthKey string) (*analytics.TrendSummary, error) {
				return &analytics.TrendSummary{
					MonthKey:        monthKey,
					ChangeLabel:     "+100.0%",
					TopCategoryName: analytics.FallbackTopCategoryName,
				}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/analytics?month=2026-02", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		trends := parseJSON(t, rec)["analytics"].(map[string]interface{})
		if trends["change_label"] != "+100.0%" {
			t.Errorf("expected change label, got %v", trends["change_label"])
		}
	})

	t.Run("returns 500 on unexpected errors", func(t *testing.T) {
		svc := &mockDashboardService{
			analyticsFn: func(_, _ string) (*analytics.TrendSummary, error) {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, http.ErrHandlerTimeout)
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/analytics", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}
