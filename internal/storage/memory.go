package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// MemoryLedger is an in-memory ledger for tests and throwaway sessions.
type MemoryLedger struct {
	now      func() time.Time
	months   map[string][]model.Expense
	persists int
	mu       sync.Mutex
}

// NewMemoryLedger creates a ledger seeded with expenses. A nil clock means
// time.Now.
func NewMemoryLedger(now func() time.Time, expenses ...model.Expense) *MemoryLedger {
	if now == nil {
		now = time.Now
	}
	l := &MemoryLedger{now: now, months: make(map[string][]model.Expense)}
	for _, e := range expenses {
		l.months[e.MonthKey()] = append(l.months[e.MonthKey()], e)
	}
	return l
}

// ActiveMonth returns the current calendar month key.
func (l *MemoryLedger) ActiveMonth() string {
	return l.now().Format(model.MonthKeyLayout)
}

// Months lists every month holding expenses, oldest first.
func (l *MemoryLedger) Months(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.months))
	for k, v := range l.months {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Expenses returns a copy of a month's expenses.
func (l *MemoryLedger) Expenses(_ context.Context, month string) ([]model.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Expense{}, l.months[month]...), nil
}

// Append stores expenses in the month of their date.
func (l *MemoryLedger) Append(_ context.Context, expenses ...model.Expense) error {
	if err := validateExpenses(expenses); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range expenses {
		l.months[e.MonthKey()] = append(l.months[e.MonthKey()], e)
	}
	return nil
}

// Delete removes the expense at index within the month.
func (l *MemoryLedger) Delete(_ context.Context, month string, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	records := l.months[month]
	if index < 0 || index >= len(records) {
		return fmt.Errorf("%w: %d in %s", ErrIndexOutOfRange, index, month)
	}
	l.months[month] = slices.Delete(records, index, index+1)
	return nil
}

// Persist counts flushes; there is nothing to write.
func (l *MemoryLedger) Persist(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.persists++
	return nil
}

// Persists returns how many times Persist was called.
func (l *MemoryLedger) Persists() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persists
}
