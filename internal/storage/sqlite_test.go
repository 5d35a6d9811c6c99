package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

var testNow = time.Date(2025, time.November, 20, 9, 0, 0, 0, time.UTC)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath, WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func testExpense(amount, description string, month time.Month, day int) model.Expense {
	return model.NewExpense(decimal.RequireFromString(amount), description, time.Date(2025, month, day, 0, 0, 0, 0, time.UTC))
}

func TestSQLiteStorage_AppendAndRead(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if got := store.ActiveMonth(); got != "2025-11" {
		t.Fatalf("ActiveMonth() = %q, want 2025-11", got)
	}

	err := store.Append(ctx,
		testExpense("100", "rent", time.November, 3),
		testExpense("50.25", "gas", time.November, 2),
		testExpense("12", "coffee", time.October, 30),
	)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	november, err := store.Expenses(ctx, "2025-11")
	if err != nil {
		t.Fatalf("Expenses() error = %v", err)
	}
	if len(november) != 2 {
		t.Fatalf("got %d November expenses, want 2", len(november))
	}
	if november[0].Description != "rent" || november[1].Description != "gas" {
		t.Errorf("expenses out of insertion order: %+v", november)
	}
	if !november[1].Amount.Equal(decimal.RequireFromString("50.25")) {
		t.Errorf("amount = %s, want 50.25", november[1].Amount)
	}
	if !november[0].Date.Equal(time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, want Nov 3", november[0].Date)
	}

	months, err := store.Months(ctx)
	if err != nil {
		t.Fatalf("Months() error = %v", err)
	}
	if len(months) != 2 || months[0] != "2025-10" || months[1] != "2025-11" {
		t.Errorf("Months() = %v, want [2025-10 2025-11]", months)
	}

	empty, err := store.Expenses(ctx, "2024-01")
	if err != nil {
		t.Fatalf("Expenses() for empty month error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty month = %v, want empty non-nil slice", empty)
	}
}

func TestSQLiteStorage_AppendRejectsInvalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name     string
		expenses []model.Expense
	}{
		{name: "no expenses", expenses: nil},
		{name: "zero amount", expenses: []model.Expense{testExpense("0", "air", time.November, 1)}},
		{name: "empty description", expenses: []model.Expense{testExpense("5", " ", time.November, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Append(ctx, tt.expenses...); err == nil {
				t.Error("Append() expected error, got nil")
			}
		})
	}
}

func TestSQLiteStorage_Delete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Append(ctx,
		testExpense("1", "first", time.November, 1),
		testExpense("2", "second", time.November, 2),
		testExpense("3", "third", time.November, 3),
	); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := store.Delete(ctx, "2025-11", 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	remaining, err := store.Expenses(ctx, "2025-11")
	if err != nil {
		t.Fatalf("Expenses() error = %v", err)
	}
	if len(remaining) != 2 || remaining[0].Description != "first" || remaining[1].Description != "third" {
		t.Errorf("remaining = %+v, want first and third", remaining)
	}

	for _, index := range []int{-1, 2, 10} {
		if err := store.Delete(ctx, "2025-11", index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Delete(%d) error = %v, want ErrIndexOutOfRange", index, err)
		}
	}

	if err := store.Persist(ctx); err != nil {
		t.Errorf("Persist() error = %v", err)
	}
}

func TestSQLiteStorage_Exchanges(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first := model.ConversationExchange{
		At:       testNow,
		Input:    "Add $5 for coffee",
		Intent:   model.IntentAdd,
		Response: "Added $5.00 for coffee.",
		Trace:    []string{"Classified as add", "Model extracted 1 expense(s)"},
		Added:    1,
	}
	second := model.ConversationExchange{
		At:       testNow.Add(time.Minute),
		Input:    "what's my total?",
		Intent:   model.IntentQuery,
		Response: "You've spent $5.00 this month across 1 expense.",
	}

	for _, ex := range []model.ConversationExchange{first, second} {
		if err := store.LogExchange(ctx, "session-a", ex); err != nil {
			t.Fatalf("LogExchange() error = %v", err)
		}
	}
	if err := store.LogExchange(ctx, "session-b", second); err != nil {
		t.Fatalf("LogExchange() error = %v", err)
	}
	if err := store.LogExchange(ctx, "", second); !errors.Is(err, ErrEmptyString) {
		t.Errorf("LogExchange() without session error = %v, want ErrEmptyString", err)
	}

	got, err := store.Exchanges(ctx, "session-a")
	if err != nil {
		t.Fatalf("Exchanges() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d exchanges, want 2", len(got))
	}
	if got[0].Input != first.Input || got[0].Intent != model.IntentAdd || got[0].Added != 1 {
		t.Errorf("first exchange = %+v", got[0])
	}
	if len(got[0].Trace) != 2 || got[0].Trace[1] != "Model extracted 1 expense(s)" {
		t.Errorf("trace = %v", got[0].Trace)
	}
	if got[1].Trace == nil || len(got[1].Trace) != 0 {
		t.Errorf("empty trace = %#v, want empty slice", got[1].Trace)
	}
	if !got[0].At.Equal(testNow) {
		t.Errorf("at = %v, want %v", got[0].At, testNow)
	}
}

func TestSQLiteStorage_Backup(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	path, err := store.Backup(ctx, "")
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if filepath.Base(path) != "backup-2025-11-20-090000.db" {
		t.Errorf("backup path = %s", path)
	}
	if _, err := store.Backup(ctx, ""); !errors.Is(err, ErrBackupExists) {
		t.Errorf("second Backup() error = %v, want ErrBackupExists", err)
	}
	if _, err := store.Backup(ctx, "../escape"); err == nil {
		t.Error("Backup() with path separators should fail")
	}
}

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(func() time.Time { return testNow },
		testExpense("100", "rent", time.November, 3),
		testExpense("12", "coffee", time.October, 30),
	)

	if got := ledger.ActiveMonth(); got != "2025-11" {
		t.Errorf("ActiveMonth() = %q", got)
	}
	if err := ledger.Append(ctx, testExpense("50", "gas", time.November, 2)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := ledger.Delete(ctx, "2025-11", 0); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := ledger.Delete(ctx, "2025-11", 5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Delete() out of range error = %v", err)
	}

	november, _ := ledger.Expenses(ctx, "2025-11")
	if len(november) != 1 || november[0].Description != "gas" {
		t.Errorf("November = %+v, want only gas", november)
	}
	months, _ := ledger.Months(ctx)
	if len(months) != 2 || months[0] != "2025-10" {
		t.Errorf("Months() = %v", months)
	}

	_ = ledger.Persist(ctx)
	if ledger.Persists() != 1 {
		t.Errorf("Persists() = %d, want 1", ledger.Persists())
	}
}
