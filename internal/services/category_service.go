package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budgetwise/internal/analytics"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/events"
	"budgetwise/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db        *gorm.DB
	publisher events.Publisher
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, publisher events.Publisher) CategoryServicer {
	return &categoryService{db: db, publisher: publisher}
}

// CreateCategory creates a budget bucket for one month. Names are stored
// trimmed and lowercased.
func (s *categoryService) CreateCategory(userID, name string, budget decimal.Decimal, monthKey string) (*models.Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if budget.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget must not be negative")
	}
	if !models.ValidMoney(budget) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget must have at most 2 decimal places and 12 integer digits")
	}
	if !analytics.ValidMonthKey(monthKey) {
		return nil, apperrors.ErrInvalidMonth
	}

	category := &models.Category{
		UserID:   userID,
		Name:     name,
		Budget:   budget,
		MonthKey: monthKey,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	publish(s.publisher, events.CategoryCreated, userID, category.ID)
	return category, nil
}

// GetMonthCategories returns the categories of one month, newest first.
func (s *categoryService) GetMonthCategories(userID, monthKey string) ([]models.Category, error) {
	if !analytics.ValidMonthKey(monthKey) {
		return nil, apperrors.ErrInvalidMonth
	}

	var categories []models.Category
	if err := s.db.Where("user_id = ? AND month_key = ?", userID, monthKey).
		Order("created_at DESC").Order("id DESC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoriesInRange returns the categories whose month lies in
// [fromKey, toKey]. Month keys sort lexicographically in calendar order.
func (s *categoryService) GetCategoriesInRange(userID, fromKey, toKey string) ([]models.Category, error) {
	if !analytics.ValidMonthKey(fromKey) || !analytics.ValidMonthKey(toKey) {
		return nil, apperrors.ErrInvalidMonth
	}

	var categories []models.Category
	if err := s.db.Where("user_id = ? AND month_key >= ? AND month_key <= ?", userID, fromKey, toKey).
		Order("created_at DESC").Order("id DESC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID for a specific user.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}
