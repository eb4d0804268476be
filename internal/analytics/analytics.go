// Package analytics derives the dashboard and analytics view-models from a
// snapshot of categories and transactions.
//
// Every function in this package is pure: it reads only its arguments, keeps
// no state between calls and never fails. Empty inputs and zero budgets
// resolve to zero values rather than errors. Money is accumulated with
// shopspring/decimal and is never rounded before presentation.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// UncategorizedKey groups transactions without a category reference.
	UncategorizedKey = "uncat"
	// UncategorizedName labels a transaction whose category cannot be resolved.
	UncategorizedName = "uncategorized"
	// FallbackTopCategoryName is shown when the top category has no name.
	FallbackTopCategoryName = "grocery"

	recentLimit     = 5
	trendDays       = 14
	seriesMonths    = 6
	categoryMonths  = 3
	maxDisplayedPct = 100
)

var hundred = decimal.NewFromInt(100)

// Category is an immutable copy of a budget category.
type Category struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Budget    decimal.Decimal `json:"budget"`
	MonthKey  string          `json:"month_key"`
	CreatedAt time.Time       `json:"created_at"`
}

// Transaction is an immutable copy of an expense.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Notes       string          `json:"notes,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Snapshot is the pair of collections the aggregator works on.
type Snapshot struct {
	Categories   []Category
	Transactions []Transaction
}

// ViewModel bundles the monthly and trend summaries for one cursor month.
type ViewModel struct {
	Monthly MonthlySummary `json:"monthly"`
	Trends  TrendSummary   `json:"trends"`
}

// Compute derives the full view-model. cursor selects the month being viewed;
// today anchors the daily trend.
func Compute(s Snapshot, cursor, today time.Time) ViewModel {
	return ViewModel{
		Monthly: Summarize(s.Categories, s.Transactions, cursor),
		Trends:  Trends(s.Categories, s.Transactions, cursor, today),
	}
}

// PercentChange returns the change from prev to curr in percent.
// Both zero gives 0; a zero prev gives 100.
func PercentChange(curr, prev decimal.Decimal) decimal.Decimal {
	if prev.IsZero() && curr.IsZero() {
		return decimal.Zero
	}
	if prev.IsZero() {
		return hundred
	}
	return curr.Sub(prev).Div(prev).Mul(hundred)
}

// FormatChange renders a percent change with a sign and one decimal, e.g. "+12.5%".
func FormatChange(change decimal.Decimal) string {
	s := change.StringFixed(1)
	if !change.IsNegative() {
		s = "+" + s
	}
	return s + "%"
}

// FormatMoney renders an amount with two decimals and the euro sign.
func FormatMoney(amount decimal.Decimal) string {
	return "€" + amount.StringFixed(2)
}

func sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

func filterByDate(txs []Transaction, from, to time.Time) []Transaction {
	var out []Transaction
	for _, t := range txs {
		if inRange(t.Date, from, to) {
			out = append(out, t)
		}
	}
	return out
}

func filterByMonthKey(cats []Category, key string) []Category {
	var out []Category
	for _, c := range cats {
		if c.MonthKey == key {
			out = append(out, c)
		}
	}
	return out
}

func totalBudget(cats []Category) decimal.Decimal {
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(c.Budget)
	}
	return total
}
