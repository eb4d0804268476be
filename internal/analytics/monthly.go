package analytics

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MonthlySummary is the dashboard view of a single month.
type MonthlySummary struct {
	Label            string          `json:"label"`
	MonthKey         string          `json:"month_key"`
	PrevMonth        string          `json:"prev_month"`
	NextMonth        string          `json:"next_month"`
	TotalBudget      decimal.Decimal `json:"total_budget"`
	Spent            decimal.Decimal `json:"spent"`
	Remaining        decimal.Decimal `json:"remaining"`
	OverBudget       bool            `json:"over_budget"`
	Alerts           int             `json:"alerts"`
	CategoriesCount  int             `json:"categories_count"`
	TransactionCount int             `json:"transaction_count"`
	Categories       []CategoryCard  `json:"categories"`
	Recent           []RecentItem    `json:"recent"`
}

// CategoryCard is the per-category budget breakdown.
type CategoryCard struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Pct        int64           `json:"pct"`
	Over       bool            `json:"over"`
	OverAmount decimal.Decimal `json:"over_amount"`
}

// RecentItem is one row of the recent transactions list.
type RecentItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	DateLabel   string          `json:"date_label"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Avatar      string          `json:"avatar"`
}

// Summarize computes the dashboard summary for the month containing cursor.
// Only categories keyed to that month and transactions dated within its
// boundaries take part.
func Summarize(categories []Category, transactions []Transaction, cursor time.Time) MonthlySummary {
	key := MonthKey(cursor)
	cats := filterByMonthKey(categories, key)
	txs := filterByDate(transactions, MonthStart(cursor), MonthEnd(cursor))

	budget := totalBudget(cats)
	spent := sum(txs)
	remaining := budget.Sub(spent)

	spentByCategory := make(map[string]decimal.Decimal)
	for _, t := range txs {
		k := t.CategoryID
		if k == "" {
			k = UncategorizedKey
		}
		spentByCategory[k] = spentByCategory[k].Add(t.Amount)
	}

	cards := make([]CategoryCard, 0, len(cats))
	alerts := 0
	for _, c := range cats {
		card := categoryCard(c, spentByCategory[c.ID])
		if card.Over {
			alerts++
		}
		cards = append(cards, card)
	}

	return MonthlySummary{
		Label:            cursor.Format("January 2006"),
		MonthKey:         key,
		PrevMonth:        MonthKey(ShiftMonth(cursor, -1)),
		NextMonth:        MonthKey(ShiftMonth(cursor, 1)),
		TotalBudget:      budget,
		Spent:            spent,
		Remaining:        remaining,
		OverBudget:       remaining.IsNegative(),
		Alerts:           alerts,
		CategoriesCount:  len(cats),
		TransactionCount: len(txs),
		Categories:       cards,
		Recent:           recent(txs, cats),
	}
}

func categoryCard(c Category, spent decimal.Decimal) CategoryCard {
	var pct int64
	if c.Budget.IsPositive() {
		pct = spent.Div(c.Budget).Mul(hundred).Round(0).IntPart()
	}
	pct = min(max(pct, 0), maxDisplayedPct)

	return CategoryCard{
		ID:         c.ID,
		Name:       c.Name,
		Budget:     c.Budget,
		Spent:      spent,
		Pct:        pct,
		Over:       spent.GreaterThan(c.Budget) && c.Budget.IsPositive(),
		OverAmount: decimal.Max(decimal.Zero, spent.Sub(c.Budget)),
	}
}

func recent(txs []Transaction, cats []Category) []RecentItem {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > recentLimit {
		sorted = sorted[:recentLimit]
	}

	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	items := make([]RecentItem, 0, len(sorted))
	for _, t := range sorted {
		name := names[t.CategoryID]
		items = append(items, RecentItem{
			ID:          t.ID,
			Description: orDefault(t.Description, "expense"),
			Category:    orDefault(name, UncategorizedName),
			DateLabel:   t.Date.Format("Jan 02"),
			Date:        t.Date,
			Amount:      t.Amount,
			Avatar:      avatar(name),
		})
	}
	return items
}

// avatar is the lowercased first character of the category name, "u" when unnamed.
func avatar(name string) string {
	if name == "" {
		return "u"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToLower(string(r))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
