package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/events"
	"budgetwise/internal/pagination"
	"budgetwise/internal/testutil"
)

func newTransactionService(t *testing.T, pub events.Publisher) (TransactionServicer, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewTransactionService(db, NewCategoryService(db, nil), time.UTC, pub), func() { testutil.TeardownTestDB(t, db) }
}

func TestCreateTransaction(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pub := &recordingPublisher{}
		svc := NewTransactionService(db, NewCategoryService(db, nil), time.UTC, pub)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, "2026-02", "200")

		tx, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
			CategoryID:  cat.ID,
			Amount:      decimal.RequireFromString("12.50"),
			Description: " coffee beans ",
			Notes:       "weekly",
			Date:        time.Date(2026, time.February, 5, 23, 30, 0, 0, time.UTC),
		})
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected transaction ID to be set")
		}
		if tx.Description != "coffee beans" {
			t.Errorf("expected trimmed description, got %q", tx.Description)
		}
		want := time.Date(2026, time.February, 5, 12, 0, 0, 0, time.UTC)
		if !tx.Date.Equal(want) {
			t.Errorf("expected date pinned to midday %s, got %s", want, tx.Date)
		}
		if tx.CategoryID == nil || *tx.CategoryID != cat.ID {
			t.Error("expected category reference to be stored")
		}
		if kinds := pub.kinds(); len(kinds) != 1 || kinds[0] != events.TransactionCreated {
			t.Errorf("expected one transaction.created event, got %v", kinds)
		}
	})

	t.Run("midday_in_configured_location", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		loc := time.FixedZone("UTC+10", 10*3600)
		svc := NewTransactionService(db, NewCategoryService(db, nil), loc, nil)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, "2026-02", "200")

		// 20:00 UTC on the 5th is already the 6th in UTC+10.
		tx, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
			CategoryID:  cat.ID,
			Amount:      decimal.NewFromInt(1),
			Description: "late",
			Date:        time.Date(2026, time.February, 5, 20, 0, 0, 0, time.UTC),
		})
		testutil.AssertNoError(t, err)

		local := tx.Date.In(loc)
		if local.Day() != 6 || local.Hour() != 12 {
			t.Errorf("expected the 6th at 12:00 local, got %s", local)
		}
	})

	t.Run("defaults_date_to_today", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewCategoryService(db, nil), time.UTC, nil).(*transactionService)
		svc.now = func() time.Time { return time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC) }
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, "2026-10", "10")

		tx, err := svc.CreateTransaction(user.ID, CreateTransactionInput{
			CategoryID: cat.ID, Amount: decimal.NewFromInt(3), Description: "bus",
		})
		testutil.AssertNoError(t, err)
		if !tx.Date.Equal(time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("expected today at midday, got %s", tx.Date)
		}
	})

	t.Run("rejects_invalid_input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pub := &recordingPublisher{}
		svc := NewTransactionService(db, NewCategoryService(db, nil), time.UTC, pub)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, "2026-02", "200")
		foreign := testutil.CreateTestCategory(t, db, other.ID, "2026-02", "200")

		tests := []struct {
			name string
			in   CreateTransactionInput
			code string
		}{
			{"zero_amount", CreateTransactionInput{CategoryID: cat.ID, Amount: decimal.Zero, Description: "x"}, "INVALID_AMOUNT"},
			{"negative_amount", CreateTransactionInput{CategoryID: cat.ID, Amount: decimal.NewFromInt(-5), Description: "x"}, "INVALID_AMOUNT"},
			{"sub_cent_amount", CreateTransactionInput{CategoryID: cat.ID, Amount: decimal.RequireFromString("0.001"), Description: "x"}, "INVALID_AMOUNT"},
			{"half_cent_amount", CreateTransactionInput{CategoryID: cat.ID, Amount: decimal.RequireFromString("10.005"), Description: "x"}, "INVALID_AMOUNT"},
			{"oversized_amount", CreateTransactionInput{CategoryID: cat.ID, Amount: decimal.RequireFromString("1000000000000"), Description: "x"}, "INVALID_AMOUNT"},
			{"blank_description", CreateTransactionInput{CategoryID: cat.ID, Amount: decimal.NewFromInt(5), Description: "  "}, "INVALID_INPUT"},
			{"missing_category", CreateTransactionInput{Amount: decimal.NewFromInt(5), Description: "x"}, "INVALID_INPUT"},
			{"foreign_category", CreateTransactionInput{CategoryID: foreign.ID, Amount: decimal.NewFromInt(5), Description: "x"}, "CATEGORY_NOT_FOUND"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateTransaction(user.ID, tt.in)
				testutil.AssertAppError(t, err, tt.code)
			})
		}

		if len(pub.kinds()) != 0 {
			t.Error("rejected writes must not publish events")
		}
	})
}

func TestGetTransactionsInRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewCategoryService(db, nil), time.UTC, nil)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	day := func(d int) time.Time { return time.Date(2026, time.February, d, 12, 0, 0, 0, time.UTC) }
	a := testutil.CreateTestTransaction(t, db, user.ID, "", "1", day(3))
	b := testutil.CreateTestTransaction(t, db, user.ID, "", "2", day(10))
	c := testutil.CreateTestTransaction(t, db, user.ID, "", "3", day(10))
	testutil.CreateTestTransaction(t, db, user.ID, "", "4", time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	testutil.CreateTestTransaction(t, db, other.ID, "", "5", day(4))

	txs, err := svc.GetTransactionsInRange(user.ID,
		time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC))
	testutil.AssertNoError(t, err)

	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	got := []string{txs[0].ID, txs[1].ID, txs[2].ID}
	want := []string{c.ID, b.ID, a.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestGetUserTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewCategoryService(db, nil), time.UTC, nil)
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID, "2026-02", "100")

	for d := 1; d <= 5; d++ {
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, "1", time.Date(2026, time.February, d, 12, 0, 0, 0, time.UTC))
	}
	testutil.CreateTestTransaction(t, db, user.ID, "", "1", time.Date(2026, time.February, 6, 12, 0, 0, 0, time.UTC))

	t.Run("paginated", func(t *testing.T) {
		page, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{Page: 2, PageSize: 4}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if page.TotalItems != 6 || page.TotalPages != 2 {
			t.Errorf("expected 6 items over 2 pages, got %d over %d", page.TotalItems, page.TotalPages)
		}
		if len(page.Data) != 2 {
			t.Errorf("expected 2 items on the last page, got %d", len(page.Data))
		}
	})

	t.Run("filtered_by_category", func(t *testing.T) {
		page, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{CategoryID: &cat.ID})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 5 {
			t.Errorf("expected 5 categorized transactions, got %d", page.TotalItems)
		}
	})

	t.Run("filtered_by_date", func(t *testing.T) {
		from := time.Date(2026, time.February, 4, 0, 0, 0, 0, time.UTC)
		page, err := svc.GetUserTransactions(user.ID, pagination.PageRequest{}, TransactionFilter{FromDate: &from})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 3 {
			t.Errorf("expected 3 transactions from the 4th, got %d", page.TotalItems)
		}
		if !page.Data[0].Date.After(page.Data[1].Date) {
			t.Error("expected newest first")
		}
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pub := &recordingPublisher{}
		svc := NewTransactionService(db, NewCategoryService(db, nil), time.UTC, pub)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.ID, "", "5", time.Now())

		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))

		_, err := svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		if kinds := pub.kinds(); len(kinds) != 1 || kinds[0] != events.TransactionDeleted {
			t.Errorf("expected one transaction.deleted event, got %v", kinds)
		}
	})

	t.Run("other_users_transaction", func(t *testing.T) {
		svc, teardown := newTransactionService(t, nil)
		defer teardown()
		db := svc.(*transactionService).db
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, owner.ID, "", "5", time.Now())

		err := svc.DeleteTransaction(intruder.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}
