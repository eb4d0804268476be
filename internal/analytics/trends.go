package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendSummary is the analytics view anchored at a cursor month.
type TrendSummary struct {
	MonthKey           string          `json:"month_key"`
	ThisMonthSpent     decimal.Decimal `json:"this_month_spent"`
	ThisMonthCount     int             `json:"this_month_count"`
	LastMonthSpent     decimal.Decimal `json:"last_month_spent"`
	Change             decimal.Decimal `json:"change"`
	ChangeLabel        string          `json:"change_label"`
	DailyAverage       decimal.Decimal `json:"daily_average"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
	DailyTrend         []DayPoint      `json:"daily_trend"`
	Months             []MonthPoint    `json:"months"`
	TopCategoryID      string          `json:"top_category_id"`
	TopCategoryName    string          `json:"top_category_name"`
	CategoryTrend      []TrendPoint    `json:"category_trend"`
	// OverBudgetCount is 1 when the cursor month is over budget, 0 otherwise.
	OverBudgetCount int             `json:"over_budget_count"`
	Projected       decimal.Decimal `json:"projected"`
}

// DayPoint is the spend of one calendar day.
type DayPoint struct {
	Date  time.Time       `json:"date"`
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

// MonthPoint compares budget and actual spend for one month.
type MonthPoint struct {
	Label    string          `json:"label"`
	MonthKey string          `json:"month_key"`
	Budget   decimal.Decimal `json:"budget"`
	Actual   decimal.Decimal `json:"actual"`
}

// TrendPoint is one labelled value of the category trend.
type TrendPoint struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// Trends computes the analytics summary. Monthly comparisons follow cursor;
// the 14-day trend always ends on today.
func Trends(categories []Category, transactions []Transaction, cursor, today time.Time) TrendSummary {
	thisTx := filterByDate(transactions, MonthStart(cursor), MonthEnd(cursor))
	last := ShiftMonth(cursor, -1)
	lastTx := filterByDate(transactions, MonthStart(last), MonthEnd(last))

	thisSpent := sum(thisTx)
	lastSpent := sum(lastTx)
	change := PercentChange(thisSpent, lastSpent)

	days := decimal.NewFromInt(int64(DaysInMonth(cursor)))
	dailyAvg := thisSpent.Div(days)

	avgTx := decimal.Zero
	if len(thisTx) > 0 {
		avgTx = thisSpent.Div(decimal.NewFromInt(int64(len(thisTx))))
	}

	months := monthSeries(categories, transactions, cursor)
	windowTx := filterByDate(transactions, MonthStart(ShiftMonth(cursor, 1-seriesMonths)), MonthEnd(cursor))
	topID := topCategory(windowTx)

	overBudget := 0
	if len(months) > 0 {
		if m := months[len(months)-1]; m.Actual.GreaterThan(m.Budget) {
			overBudget = 1
		}
	}

	return TrendSummary{
		MonthKey:           MonthKey(cursor),
		ThisMonthSpent:     thisSpent,
		ThisMonthCount:     len(thisTx),
		LastMonthSpent:     lastSpent,
		Change:             change,
		ChangeLabel:        FormatChange(change),
		DailyAverage:       dailyAvg,
		AverageTransaction: avgTx,
		DailyTrend:         dailyTrend(transactions, today),
		Months:             months,
		TopCategoryID:      topID,
		TopCategoryName:    categoryName(categories, topID),
		CategoryTrend:      categoryTrend(transactions, months[len(months)-categoryMonths:], topID, cursor.Location()),
		OverBudgetCount:    overBudget,
		// daily average × days in month; multiplied before dividing so the
		// result stays exact.
		Projected: thisSpent.Mul(days).Div(days),
	}
}

func dailyTrend(transactions []Transaction, today time.Time) []DayPoint {
	points := make([]DayPoint, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		day := DayStart(today.AddDate(0, 0, -i))
		points = append(points, DayPoint{
			Date:  day,
			Label: day.Format("Jan 02"),
			Total: sum(filterByDate(transactions, day, DayEnd(day))),
		})
	}
	return points
}

func monthSeries(categories []Category, transactions []Transaction, cursor time.Time) []MonthPoint {
	points := make([]MonthPoint, 0, seriesMonths)
	for i := seriesMonths - 1; i >= 0; i-- {
		m := ShiftMonth(cursor, -i)
		key := MonthKey(m)
		points = append(points, MonthPoint{
			Label:    m.Format("Jan"),
			MonthKey: key,
			Budget:   totalBudget(filterByMonthKey(categories, key)),
			Actual:   sum(filterByDate(transactions, MonthStart(m), MonthEnd(m))),
		})
	}
	return points
}

// topCategory returns the category key with the highest total spend. Ties go
// to the key seen first in feed order.
func topCategory(txs []Transaction) string {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, t := range txs {
		k := t.CategoryID
		if k == "" {
			k = UncategorizedKey
		}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] = totals[k].Add(t.Amount)
	}

	top := UncategorizedKey
	var best decimal.Decimal
	for i, k := range order {
		if i == 0 || totals[k].GreaterThan(best) {
			top, best = k, totals[k]
		}
	}
	return top
}

func categoryName(categories []Category, id string) string {
	for _, c := range categories {
		if c.ID == id && c.Name != "" {
			return c.Name
		}
	}
	return FallbackTopCategoryName
}

// categoryTrend sums the top category per month. The uncategorised sentinel
// never matches a stored reference, so it yields zeros.
func categoryTrend(transactions []Transaction, months []MonthPoint, topID string, loc *time.Location) []TrendPoint {
	points := make([]TrendPoint, 0, len(months))
	for _, mp := range months {
		m, err := ParseMonthKey(mp.MonthKey, loc)
		total := decimal.Zero
		if err == nil {
			for _, t := range filterByDate(transactions, MonthStart(m), MonthEnd(m)) {
				if t.CategoryID == topID {
					total = total.Add(t.Amount)
				}
			}
		}
		points = append(points, TrendPoint{Label: mp.Label, Value: total})
	}
	return points
}
