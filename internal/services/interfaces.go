package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/analytics"
	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, displayName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	FindOrCreateFederatedUser(identity *FederatedIdentity) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	SignOut(userID string) error
}

// FederatedIdentity is a verified identity asserted by an external provider.
type FederatedIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// IdentityVerifier verifies a provider-issued ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*FederatedIdentity, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, budget decimal.Decimal, monthKey string) (*models.Category, error)
	GetMonthCategories(userID, monthKey string) ([]models.Category, error)
	GetCategoriesInRange(userID, fromKey, toKey string) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	CategoryID *string
}

// CreateTransactionInput carries the fields of a new expense.
type CreateTransactionInput struct {
	CategoryID  string
	Amount      decimal.Decimal
	Description string
	Notes       string
	Date        time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in CreateTransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionsInRange(userID string, from, to time.Time) ([]models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// DashboardServicer builds the read-only views over a user's data.
type DashboardServicer interface {
	Dashboard(userID, monthKey string) (*analytics.MonthlySummary, error)
	Analytics(userID, monthKey string) (*analytics.TrendSummary, error)
	View(userID, monthKey string) (*analytics.ViewModel, error)
	// Cursor resolves a month key, or the current month when empty.
	Cursor(monthKey string) (time.Time, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
