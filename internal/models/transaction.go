package models

import (
	"time"

	"budgetwise/internal/analytics"

	"github.com/shopspring/decimal"
)

// Transaction is a single expense. Amounts are always positive magnitudes.
// CategoryID is a weak reference: the category may no longer exist.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index:idx_transactions_user_date" json:"user_id"`
	CategoryID  *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Description string          `gorm:"not null" json:"description"`
	Notes       string          `json:"notes,omitempty"`
	Date        time.Time       `gorm:"not null;index:idx_transactions_user_date" json:"date"`
}

// Snapshot returns the immutable copy used by the aggregator.
func (t *Transaction) Snapshot() analytics.Transaction {
	var categoryID string
	if t.CategoryID != nil {
		categoryID = *t.CategoryID
	}
	return analytics.Transaction{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Notes:       t.Notes,
		CategoryID:  categoryID,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

// TransactionSnapshots converts a slice of transactions, keeping their order.
func TransactionSnapshots(txs []Transaction) []analytics.Transaction {
	out := make([]analytics.Transaction, 0, len(txs))
	for i := range txs {
		out = append(out, txs[i].Snapshot())
	}
	return out
}
