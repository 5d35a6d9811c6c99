// Package testutil seeds ledgers for tests. Ledgers are in-memory SQLite
// databases, migrated and closed with the test.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
	"github.com/Veraticus/the-spice-must-talk/internal/storage"
)

// TestLedger is a migrated SQLite ledger with a fixed clock.
type TestLedger struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestLedger creates an in-memory ledger whose active month follows
// now, seeded with expenses.
//
// Example:
//
//	ledger := testutil.SetupTestLedger(t, testutil.Clock(2025, time.November, 20),
//		testutil.NewExpenseBuilder(2025, time.November).
//			With("500", "rent", 1).
//			With("4.50", "coffee", 5).
//			Build()...,
//	)
func SetupTestLedger(t *testing.T, now func() time.Time, expenses ...model.Expense) *TestLedger {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:", storage.WithClock(now))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if len(expenses) > 0 {
		if err := store.Append(ctx, expenses...); err != nil {
			t.Fatalf("failed to seed expenses: %v", err)
		}
	}

	return &TestLedger{Storage: store, t: t}
}

// MustExpenses returns a month's expenses or fails the test.
func (l *TestLedger) MustExpenses(month string) []model.Expense {
	l.t.Helper()
	expenses, err := l.Storage.Expenses(context.Background(), month)
	if err != nil {
		l.t.Fatalf("failed to load %s: %v", month, err)
	}
	return expenses
}

// MustExchanges returns the session's logged exchanges or fails the test.
func (l *TestLedger) MustExchanges(sessionID string) []model.ConversationExchange {
	l.t.Helper()
	exchanges, err := l.Storage.Exchanges(context.Background(), sessionID)
	if err != nil {
		l.t.Fatalf("failed to load exchanges: %v", err)
	}
	return exchanges
}

// Clock returns a fixed clock at 10:00 UTC on the given day.
func Clock(year int, month time.Month, day int) func() time.Time {
	at := time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}
