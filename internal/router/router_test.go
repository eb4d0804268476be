package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetwise/internal/events"
	"budgetwise/internal/handlers"
	"budgetwise/internal/logger"
	"budgetwise/internal/middleware"
	"budgetwise/internal/services"
	"budgetwise/internal/testutil"
	"budgetwise/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

type testApp struct {
	router *gin.Engine
	bus    *events.Bus
	live   *handlers.WSHandler
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	jwt := middleware.NewJWTManager("router-test-secret", 15*time.Minute, 24*time.Hour)
	categories := services.NewCategoryService(db, bus)
	transactions := services.NewTransactionService(db, categories, time.UTC, bus)
	dashboard := services.NewDashboardService(categories, transactions, time.UTC, func() time.Time {
		return time.Date(2026, time.February, 20, 9, 0, 0, 0, time.UTC)
	})
	live := handlers.NewWSHandler(jwt, dashboard)

	r := New(Deps{
		JWT:            jwt,
		Users:          services.NewUserService(db),
		Categories:     categories,
		Transactions:   transactions,
		Dashboard:      dashboard,
		Audit:          services.NewAuditService(db),
		Live:           live,
		Location:       time.UTC,
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return &testApp{router: r, bus: bus, live: live}
}

func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), "body: %s", rec.Body.String())
	return result
}

func (app *testApp) register(t *testing.T, email string) (access, refresh string) {
	t.Helper()
	rec := app.request("POST", "/api/v1/auth/register", fmt.Sprintf(`{"email":%q,"password":"password123"}`, email), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

func (app *testApp) createCategory(t *testing.T, token, name, budget, month string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/categories",
		fmt.Sprintf(`{"name":%q,"budget":%q,"month_key":%q}`, name, budget, month), token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return parseJSON(t, rec)["category"].(map[string]interface{})["id"].(string)
}

func (app *testApp) createTransaction(t *testing.T, token, categoryID, amount, date string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"category_id":%q,"amount":%q,"description":"expense","date":%q}`, categoryID, amount, date), token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)
}

func TestHealth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", parseJSON(t, rec)["status"])
}

func TestCORSPreflight(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/categories", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)
	access, refresh := app.register(t, "flow@example.com")

	rec := app.request("GET", "/api/v1/profile", "", access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "flow", parseJSON(t, rec)["user"].(map[string]interface{})["name"])

	rec = app.request("POST", "/api/v1/auth/login", `{"email":"FLOW@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refresh = parseJSON(t, rec)["refresh_token"].(string)

	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refresh), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := parseJSON(t, rec)["refresh_token"].(string)

	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refresh), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a rotated refresh token is no longer accepted")

	rec = app.request("POST", "/api/v1/auth/logout", "", access)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, rotated), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "logout revokes the refresh token")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/api/v1/profile", "/api/v1/dashboard", "/api/v1/analytics", "/api/v1/transactions"} {
		rec := app.request("GET", path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestGoogleLoginDisabledWithoutVerifier(t *testing.T) {
	app := setupApp(t)

	rec := app.request("POST", "/api/v1/auth/google", `{"id_token":"x"}`, "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBudgetFlow(t *testing.T) {
	app := setupApp(t)
	token, _ := app.register(t, "budget@example.com")

	groceries := app.createCategory(t, token, "Groceries", "200", "2026-02")
	rent := app.createCategory(t, token, "rent", "900", "2026-02")
	janFood := app.createCategory(t, token, "groceries", "150", "2026-01")

	app.createTransaction(t, token, groceries, "50", "2026-02-05")
	app.createTransaction(t, token, groceries, "30.50", "2026-02-10")
	app.createTransaction(t, token, rent, "900", "2026-02-01")
	app.createTransaction(t, token, janFood, "100", "2026-01-15")
	lastID := app.createTransaction(t, token, groceries, "150", "2026-02-18")

	t.Run("dashboard", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/dashboard?month=2026-02", "", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		dash := parseJSON(t, rec)["dashboard"].(map[string]interface{})

		assert.Equal(t, "1100", dash["total_budget"])
		assert.Equal(t, "1130.5", dash["spent"])
		assert.Equal(t, "-30.5", dash["remaining"])
		assert.Equal(t, true, dash["over_budget"])
		assert.Equal(t, float64(1), dash["alerts"])
		assert.Equal(t, float64(4), dash["transaction_count"])
		recent := dash["recent"].([]interface{})
		require.Len(t, recent, 4)
		assert.Equal(t, lastID, recent[0].(map[string]interface{})["id"])
		assert.Equal(t, "groceries", recent[0].(map[string]interface{})["category"])
	})

	t.Run("analytics", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/analytics?month=2026-02", "", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		trends := parseJSON(t, rec)["analytics"].(map[string]interface{})

		assert.Equal(t, "1130.5", trends["this_month_spent"])
		assert.Equal(t, "100", trends["last_month_spent"])
		assert.Equal(t, "+1030.5%", trends["change_label"])
		assert.Equal(t, rent, trends["top_category_id"])
		assert.Equal(t, "rent", trends["top_category_name"])
		assert.Equal(t, float64(1), trends["over_budget_count"])
		assert.Len(t, trends["daily_trend"], 14)
		assert.Len(t, trends["months"], 6)
	})

	t.Run("feed filtered by month", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/transactions?month=2026-01", "", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		result := parseJSON(t, rec)
		assert.Equal(t, float64(1), result["total_items"])
	})

	t.Run("categories of a month", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/categories?month=2026-02", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, parseJSON(t, rec)["categories"], 2)
	})

	t.Run("delete updates the dashboard", func(t *testing.T) {
		rec := app.request("DELETE", "/api/v1/transactions/"+lastID, "", token)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = app.request("GET", "/api/v1/dashboard?month=2026-02", "", token)
		dash := parseJSON(t, rec)["dashboard"].(map[string]interface{})
		assert.Equal(t, "980.5", dash["spent"])
		assert.Equal(t, false, dash["over_budget"])
	})
}

func TestMoneyPrecision(t *testing.T) {
	app := setupApp(t)
	token, _ := app.register(t, "cents@example.com")
	category := app.createCategory(t, token, "food", "10.50", "2026-02")

	for _, amount := range []string{"0.001", "10.005", "1000000000000"} {
		rec := app.request("POST", "/api/v1/transactions",
			fmt.Sprintf(`{"category_id":%q,"amount":%q,"description":"x"}`, category, amount), token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "amount %s", amount)
	}

	rec := app.request("POST", "/api/v1/categories", `{"name":"rent","budget":"99.999","month_key":"2026-02"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserIsolation(t *testing.T) {
	app := setupApp(t)
	alice, _ := app.register(t, "alice@example.com")
	bob, _ := app.register(t, "bob@example.com")

	category := app.createCategory(t, alice, "food", "10", "2026-02")
	txID := app.createTransaction(t, alice, category, "5", "2026-02-03")

	rec := app.request("GET", "/api/v1/transactions/"+txID, "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"category_id":%q,"amount":"1","description":"x"}`, category), bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request("GET", "/api/v1/dashboard?month=2026-02", "", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", parseJSON(t, rec)["dashboard"].(map[string]interface{})["spent"])
}

func TestLiveUpdates(t *testing.T) {
	app := setupApp(t)
	token, _ := app.register(t, "live@example.com")
	category := app.createCategory(t, token, "food", "100", "2026-02")

	changes, cancelSub := app.bus.Subscribe(16)
	defer cancelSub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = app.live.Run(ctx, changes) }()

	srv := httptest.NewServer(app.router)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?view=dashboard&month=2026-02&token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	read := func() map[string]interface{} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	first := read()
	assert.Equal(t, "connected", first["event"])

	app.createTransaction(t, token, category, "42", "2026-02-07")

	msg := read()
	assert.Equal(t, string(events.TransactionCreated), msg["event"])
	assert.Equal(t, "42", msg["data"].(map[string]interface{})["spent"])
}
