package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetwise/internal/analytics"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
	loc             *time.Location
}

// NewCategoryHandler creates a new CategoryHandler. loc decides which month
// is current when a request omits one.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer, loc *time.Location) *CategoryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CategoryHandler{categoryService: categoryService, auditService: auditService, loc: loc}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name     string          `json:"name" binding:"required,notblank,max=100"`
	Budget   decimal.Decimal `json:"budget" swaggertype:"string" binding:"gte=0"`
	MonthKey string          `json:"month_key" binding:"required,month_key"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a budget category for one month
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(userID, req.Name, req.Budget, req.MonthKey)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "budget": category.Budget.String(), "month_key": category.MonthKey})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories returns the categories of one month
// @Summary     List categories
// @Description List the categories of a month, newest first. Defaults to the current month.
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM)"
// @Success     200 {object} map[string]interface{} "Categories"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	monthKey := c.Query("month")
	if monthKey == "" {
		monthKey = analytics.MonthKey(time.Now().In(h.loc))
	}

	categories, err := h.categoryService.GetMonthCategories(userID, monthKey)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"month_key": monthKey, "categories": categories})
}

// GetCategoryByID returns a single category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}
