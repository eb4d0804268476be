package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetwise/internal/analytics"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/pagination"
	"budgetwise/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	loc                *time.Location
}

// NewTransactionHandler creates a new TransactionHandler. Dates without a
// zone and month filters are read in loc.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionHandler{transactionService: transactionService, auditService: auditService, loc: loc}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	CategoryID  string          `json:"category_id" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" binding:"required,gt=0"`
	Description string          `json:"description" binding:"required,notblank,max=500"`
	Notes       string          `json:"notes" binding:"max=2000"`
	Date        *string         `json:"date"`
}

// ListTransactionsQuery holds the filters of the transaction feed.
type ListTransactionsQuery struct {
	pagination.PageRequest
	Month      string `form:"month" binding:"omitempty,month_key"`
	From       string `form:"from"`
	To         string `form:"to"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
}

// CreateTransaction handles the creation of a new expense
// @Summary     Create a transaction
// @Description Record an expense against one of the user's categories
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var date time.Time
	if req.Date != nil && *req.Date != "" {
		date, err = parseDate(*req.Date, h.loc)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	transaction, err := h.transactionService.CreateTransaction(userID, services.CreateTransactionInput{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
		Notes:       req.Notes,
		Date:        date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"amount": transaction.Amount.String(), "category_id": req.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions returns the user's transaction feed
// @Summary     List transactions
// @Description Paginated feed ordered by date, newest first. month takes precedence over from/to.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       month       query string false "Month (YYYY-MM)"
// @Param       from        query string false "From date (YYYY-MM-DD)"
// @Param       to          query string false "To date (YYYY-MM-DD)"
// @Param       category_id query string false "Category ID"
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Page size (max 100)"
// @Success     200 {object} map[string]interface{} "Page of transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := h.buildFilter(q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, q.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *TransactionHandler) buildFilter(q ListTransactionsQuery) (services.TransactionFilter, error) {
	var filter services.TransactionFilter
	if q.CategoryID != "" {
		filter.CategoryID = &q.CategoryID
	}

	if q.Month != "" {
		m, err := analytics.ParseMonthKey(q.Month, h.loc)
		if err != nil {
			return filter, apperrors.ErrInvalidMonth
		}
		from, to := analytics.MonthStart(m), analytics.MonthEnd(m)
		filter.FromDate, filter.ToDate = &from, &to
		return filter, nil
	}

	if q.From != "" {
		from, err := parseDate(q.From, h.loc)
		if err != nil {
			return filter, err
		}
		from = analytics.DayStart(from)
		filter.FromDate = &from
	}
	if q.To != "" {
		to, err := parseDate(q.To, h.loc)
		if err != nil {
			return filter, err
		}
		to = analytics.DayEnd(to)
		filter.ToDate = &to
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must not be after to")
	}
	return filter, nil
}

// GetTransactionByID returns a single transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction removes a transaction
// @Summary     Delete a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}
