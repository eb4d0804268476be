package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name       string
		curr, prev string
		want       string
	}{
		{"both zero", "0", "0", "0"},
		{"from nothing", "100", "0", "100"},
		{"equal", "42.5", "42.5", "0"},
		{"halved", "50", "100", "-50"},
		{"doubled", "200", "100", "100"},
		{"to nothing", "0", "80", "-100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentChange(d(tt.curr), d(tt.prev))
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+100.0%", FormatChange(d("100")))
	assert.Equal(t, "-50.0%", FormatChange(d("-50")))
	assert.Equal(t, "+0.0%", FormatChange(decimal.Zero))
	assert.Equal(t, "+33.3%", FormatChange(d("33.33333")))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "€12.50", FormatMoney(d("12.5")))
	assert.Equal(t, "€0.00", FormatMoney(decimal.Zero))
}

func TestTrends_Empty(t *testing.T) {
	cursor := day(2026, time.February, 1)
	today := day(2026, time.October, 18)

	s := Trends(nil, nil, cursor, today)

	assert.True(t, s.ThisMonthSpent.IsZero())
	assert.True(t, s.Change.IsZero())
	assert.Equal(t, "+0.0%", s.ChangeLabel)
	assert.True(t, s.DailyAverage.IsZero())
	assert.True(t, s.AverageTransaction.IsZero())
	assert.True(t, s.Projected.IsZero())
	assert.Len(t, s.DailyTrend, 14)
	assert.Len(t, s.Months, 6)
	assert.Len(t, s.CategoryTrend, 3)
	assert.Equal(t, UncategorizedKey, s.TopCategoryID)
	assert.Equal(t, "grocery", s.TopCategoryName)
	assert.Equal(t, 0, s.OverBudgetCount)
	for _, p := range s.DailyTrend {
		assert.True(t, p.Total.IsZero())
	}
}

func TestTrends_MonthOverMonth(t *testing.T) {
	cursor := day(2026, time.March, 1)
	txs := []Transaction{
		{ID: "1", Amount: d("50"), Date: day(2026, time.March, 4)},
		{ID: "2", Amount: d("100"), Date: day(2026, time.February, 4)},
	}

	s := Trends(nil, txs, cursor, cursor)

	assert.True(t, s.ThisMonthSpent.Equal(d("50")))
	assert.True(t, s.LastMonthSpent.Equal(d("100")))
	assert.True(t, s.Change.Equal(d("-50")))
	assert.Equal(t, "-50.0%", s.ChangeLabel)
	assert.Equal(t, 1, s.ThisMonthCount)
}

func TestTrends_ChangeFromEmptyMonth(t *testing.T) {
	cursor := day(2026, time.March, 1)
	txs := []Transaction{{ID: "1", Amount: d("100"), Date: day(2026, time.March, 4)}}

	s := Trends(nil, txs, cursor, cursor)

	assert.True(t, s.Change.Equal(d("100")))
}

func TestTrends_AveragesAndProjection(t *testing.T) {
	cursor := day(2026, time.April, 1) // 30 days
	txs := []Transaction{
		{ID: "1", Amount: d("60"), Date: day(2026, time.April, 2)},
		{ID: "2", Amount: d("30"), Date: day(2026, time.April, 9)},
	}

	s := Trends(nil, txs, cursor, cursor)

	assert.True(t, s.DailyAverage.Equal(d("3")))
	assert.True(t, s.AverageTransaction.Equal(d("45")))
	assert.True(t, s.Projected.Equal(d("90")))
}

func TestTrends_DailyTrendAnchoredToToday(t *testing.T) {
	today := time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)
	cursor := day(2026, time.January, 1)
	txs := []Transaction{
		{ID: "today", Amount: d("5"), Date: day(2026, time.October, 18)},
		{ID: "today-2", Amount: d("2.5"), Date: day(2026, time.October, 18)},
		{ID: "oldest", Amount: d("7"), Date: time.Date(2026, time.October, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "too-old", Amount: d("11"), Date: day(2026, time.October, 4)},
	}

	s := Trends(nil, txs, cursor, today)

	require.Len(t, s.DailyTrend, 14)
	first, last := s.DailyTrend[0], s.DailyTrend[13]
	assert.Equal(t, time.Date(2026, time.October, 5, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC), last.Date)
	assert.True(t, first.Total.Equal(d("7")))
	assert.True(t, last.Total.Equal(d("7.5")))
	assert.Equal(t, "Oct 18", last.Label)
	for i := 1; i < len(s.DailyTrend); i++ {
		assert.True(t, s.DailyTrend[i].Date.After(s.DailyTrend[i-1].Date))
	}
}

func TestTrends_SixMonthSeries(t *testing.T) {
	cursor := day(2026, time.February, 10)
	cats := []Category{
		{ID: "feb", Name: "rent", Budget: d("100"), MonthKey: "2026-02"},
		{ID: "feb-2", Name: "food", Budget: d("50"), MonthKey: "2026-02"},
		{ID: "sep", Name: "rent", Budget: d("70"), MonthKey: "2025-09"},
		{ID: "aug", Name: "rent", Budget: d("999"), MonthKey: "2025-08"},
	}
	txs := []Transaction{
		{ID: "1", Amount: d("160"), CategoryID: "feb", Date: day(2026, time.February, 1)},
		{ID: "2", Amount: d("20"), CategoryID: "sep", Date: day(2025, time.September, 30)},
		{ID: "3", Amount: d("500"), CategoryID: "aug", Date: day(2025, time.August, 30)},
	}

	s := Trends(cats, txs, cursor, cursor)

	require.Len(t, s.Months, 6)
	labels := make([]string, 0, 6)
	for _, m := range s.Months {
		labels = append(labels, m.Label)
	}
	assert.Equal(t, []string{"Sep", "Oct", "Nov", "Dec", "Jan", "Feb"}, labels)
	assert.Equal(t, "2025-09", s.Months[0].MonthKey)
	assert.True(t, s.Months[0].Budget.Equal(d("70")))
	assert.True(t, s.Months[0].Actual.Equal(d("20")))
	assert.True(t, s.Months[5].Budget.Equal(d("150")))
	assert.True(t, s.Months[5].Actual.Equal(d("160")))
	assert.Equal(t, 1, s.OverBudgetCount)

	// August is outside the window, so its large spend cannot win top category.
	assert.Equal(t, "feb", s.TopCategoryID)
	assert.Equal(t, "rent", s.TopCategoryName)
}

func TestTrends_CategoryTrend(t *testing.T) {
	cursor := day(2026, time.June, 1)
	cats := []Category{{ID: "food", Name: "food", Budget: d("10"), MonthKey: "2026-06"}}
	txs := []Transaction{
		{ID: "1", Amount: d("10"), CategoryID: "food", Date: day(2026, time.June, 3)},
		{ID: "2", Amount: d("15"), CategoryID: "food", Date: day(2026, time.April, 3)},
		{ID: "3", Amount: d("40"), CategoryID: "food", Date: day(2026, time.January, 3)},
		{ID: "4", Amount: d("30"), CategoryID: "fuel", Date: day(2026, time.May, 3)},
		{ID: "5", Amount: d("5"), Date: day(2026, time.May, 4)},
	}

	s := Trends(cats, txs, cursor, cursor)

	assert.Equal(t, "food", s.TopCategoryID)
	require.Len(t, s.CategoryTrend, 3)
	assert.Equal(t, "Apr", s.CategoryTrend[0].Label)
	assert.True(t, s.CategoryTrend[0].Value.Equal(d("15")))
	assert.True(t, s.CategoryTrend[1].Value.IsZero())
	assert.True(t, s.CategoryTrend[2].Value.Equal(d("10")))
	assert.Equal(t, 0, s.OverBudgetCount)
}

func TestTrends_TopCategoryTieKeepsFeedOrder(t *testing.T) {
	cursor := day(2026, time.June, 1)
	txs := []Transaction{
		{ID: "1", Amount: d("10"), CategoryID: "second", Date: day(2026, time.June, 9)},
		{ID: "2", Amount: d("10"), CategoryID: "first", Date: day(2026, time.June, 8)},
	}

	s := Trends(nil, txs, cursor, cursor)

	assert.Equal(t, "second", s.TopCategoryID)
	assert.Equal(t, FallbackTopCategoryName, s.TopCategoryName, "unknown ids fall back to the placeholder name")
}

func TestTrends_UncategorizedTop(t *testing.T) {
	cursor := day(2026, time.June, 1)
	txs := []Transaction{
		{ID: "1", Amount: d("99"), Date: day(2026, time.June, 9)},
		{ID: "2", Amount: d("1"), CategoryID: "small", Date: day(2026, time.June, 8)},
	}

	s := Trends(nil, txs, cursor, cursor)

	assert.Equal(t, UncategorizedKey, s.TopCategoryID)
	for _, p := range s.CategoryTrend {
		assert.True(t, p.Value.IsZero())
	}
}

func TestCompute(t *testing.T) {
	cursor := day(2026, time.February, 1)
	snap := Snapshot{
		Categories:   []Category{groceries()},
		Transactions: []Transaction{{ID: "1", Amount: d("80"), CategoryID: "cat-groceries", Date: day(2026, time.February, 5)}},
	}

	vm := Compute(snap, cursor, day(2026, time.February, 6))

	assert.True(t, vm.Monthly.Spent.Equal(vm.Trends.ThisMonthSpent))
	assert.True(t, vm.Monthly.Remaining.Equal(d("120")))
	assert.True(t, vm.Trends.DailyTrend[12].Total.Equal(d("80")))
}
