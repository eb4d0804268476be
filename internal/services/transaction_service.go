package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"budgetwise/internal/analytics"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/events"
	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
)

// feedOrder is the order the transaction feed is read in: newest date first,
// then newest insert.
const feedOrder = "date DESC, created_at DESC, id DESC"

// transactionService handles transaction-related business logic.
type transactionService struct {
	db              *gorm.DB
	categoryService CategoryServicer
	loc             *time.Location
	publisher       events.Publisher
	now             func() time.Time
}

// NewTransactionService creates a new TransactionServicer. Dates are pinned
// to midday in loc so that they fall on the intended calendar day.
func NewTransactionService(db *gorm.DB, categoryService CategoryServicer, loc *time.Location, publisher events.Publisher) TransactionServicer {
	if loc == nil {
		loc = time.UTC
	}
	return &transactionService{
		db:              db,
		categoryService: categoryService,
		loc:             loc,
		publisher:       publisher,
		now:             time.Now,
	}
}

// CreateTransaction records an expense against one of the user's categories.
func (s *transactionService) CreateTransaction(userID string, in CreateTransactionInput) (*models.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if !models.ValidMoney(in.Amount) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must have at most 2 decimal places and 12 integer digits")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.CategoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category_id is required")
	}

	if _, err := s.categoryService.GetCategoryByID(userID, in.CategoryID); err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}

	categoryID := in.CategoryID
	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  &categoryID,
		Amount:      in.Amount,
		Description: description,
		Notes:       strings.TrimSpace(in.Notes),
		Date:        analytics.Midday(date.In(s.loc), s.loc),
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	publish(s.publisher, events.TransactionCreated, userID, transaction.ID)
	return transaction, nil
}

// GetUserTransactions retrieves a page of the user's transaction feed.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		base = base.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", *filter.ToDate)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	base = base.Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Order(feedOrder).Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page, totalItems)
	return &result, nil
}

// GetTransactionsInRange returns every transaction dated in [from, to] in
// feed order.
func (s *transactionService) GetTransactionsInRange(userID string, from, to time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order(feedOrder).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction soft-deletes a transaction.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	publish(s.publisher, events.TransactionDeleted, userID, transaction.ID)
	return nil
}
