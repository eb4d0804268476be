package models

import (
	"budgetwise/internal/analytics"

	"github.com/shopspring/decimal"
)

// Category is a monthly budget bucket. Each month has its own categories;
// nothing is carried over between months.
type Category struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;index:idx_categories_user_month" json:"user_id"`
	Name     string          `gorm:"not null" json:"name"`
	Budget   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"budget"`
	MonthKey string          `gorm:"size:7;not null;index:idx_categories_user_month" json:"month_key"`
}

// Snapshot returns the immutable copy used by the aggregator.
func (c *Category) Snapshot() analytics.Category {
	return analytics.Category{
		ID:        c.ID,
		Name:      c.Name,
		Budget:    c.Budget,
		MonthKey:  c.MonthKey,
		CreatedAt: c.CreatedAt,
	}
}

// CategorySnapshots converts a slice of categories.
func CategorySnapshots(cats []Category) []analytics.Category {
	out := make([]analytics.Category, 0, len(cats))
	for i := range cats {
		out = append(out, cats[i].Snapshot())
	}
	return out
}
