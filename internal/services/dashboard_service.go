package services

import (
	"sort"
	"time"

	"budgetwise/internal/analytics"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/models"
)

const (
	seriesMonths = 6
	trendDays    = 14
)

// dashboardService loads snapshots and hands them to the aggregator.
type dashboardService struct {
	categories   CategoryServicer
	transactions TransactionServicer
	loc          *time.Location
	now          func() time.Time
}

// NewDashboardService creates a new DashboardServicer. Month and day
// boundaries are computed in loc; now supplies "today" for the daily trend.
func NewDashboardService(categories CategoryServicer, transactions TransactionServicer, loc *time.Location, now func() time.Time) DashboardServicer {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &dashboardService{categories: categories, transactions: transactions, loc: loc, now: now}
}

// Cursor resolves a month key to the first instant of that month. An empty
// key selects the current month.
func (s *dashboardService) Cursor(monthKey string) (time.Time, error) {
	if monthKey == "" {
		return analytics.MonthStart(s.now().In(s.loc)), nil
	}
	cursor, err := analytics.ParseMonthKey(monthKey, s.loc)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidMonth
	}
	return cursor, nil
}

// Dashboard computes the monthly summary for one month.
func (s *dashboardService) Dashboard(userID, monthKey string) (*analytics.MonthlySummary, error) {
	cursor, err := s.Cursor(monthKey)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.GetMonthCategories(userID, analytics.MonthKey(cursor))
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactions.GetTransactionsInRange(userID, analytics.MonthStart(cursor), analytics.MonthEnd(cursor))
	if err != nil {
		return nil, err
	}

	summary := analytics.Summarize(models.CategorySnapshots(categories), s.localize(transactions), cursor)
	return &summary, nil
}

// Analytics computes the trend summary anchored at one month.
func (s *dashboardService) Analytics(userID, monthKey string) (*analytics.TrendSummary, error) {
	cursor, err := s.Cursor(monthKey)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshot(userID, cursor)
	if err != nil {
		return nil, err
	}

	trends := analytics.Trends(snap.Categories, snap.Transactions, cursor, s.now().In(s.loc))
	return &trends, nil
}

// View computes both summaries from a single snapshot.
func (s *dashboardService) View(userID, monthKey string) (*analytics.ViewModel, error) {
	cursor, err := s.Cursor(monthKey)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshot(userID, cursor)
	if err != nil {
		return nil, err
	}

	vm := analytics.Compute(snap, cursor, s.now().In(s.loc))
	return &vm, nil
}

// snapshot loads everything the trend views read: the six months ending at
// cursor and the fourteen days ending today. The two windows are disjoint
// whenever cursor is far from today, so both are queried and merged.
func (s *dashboardService) snapshot(userID string, cursor time.Time) (analytics.Snapshot, error) {
	first := analytics.ShiftMonth(cursor, 1-seriesMonths)

	categories, err := s.categories.GetCategoriesInRange(userID, analytics.MonthKey(first), analytics.MonthKey(cursor))
	if err != nil {
		return analytics.Snapshot{}, err
	}

	monthly, err := s.transactions.GetTransactionsInRange(userID, analytics.MonthStart(first), analytics.MonthEnd(cursor))
	if err != nil {
		return analytics.Snapshot{}, err
	}

	today := s.now().In(s.loc)
	recent, err := s.transactions.GetTransactionsInRange(userID,
		analytics.DayStart(today.AddDate(0, 0, 1-trendDays)), analytics.DayEnd(today))
	if err != nil {
		return analytics.Snapshot{}, err
	}

	return analytics.Snapshot{
		Categories:   models.CategorySnapshots(categories),
		Transactions: s.localize(mergeFeeds(monthly, recent)),
	}, nil
}

// localize converts transactions to snapshots with dates in the configured
// location, so day labels and boundaries agree.
func (s *dashboardService) localize(transactions []models.Transaction) []analytics.Transaction {
	snaps := models.TransactionSnapshots(transactions)
	for i := range snaps {
		snaps[i].Date = snaps[i].Date.In(s.loc)
	}
	return snaps
}

// mergeFeeds unions two feeds by ID and restores feed order.
func mergeFeeds(a, b []models.Transaction) []models.Transaction {
	seen := make(map[string]struct{}, len(a)+len(b))
	merged := make([]models.Transaction, 0, len(a)+len(b))
	for _, feed := range [][]models.Transaction{a, b} {
		for _, t := range feed {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			merged = append(merged, t)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Date.Equal(merged[j].Date) {
			return merged[i].Date.After(merged[j].Date)
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}
