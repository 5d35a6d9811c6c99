// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength bounds the stored description of an expense.
const MaxDescriptionLength = 100

// MonthKeyLayout is the time layout of a ledger month key ("2025-11").
const MonthKeyLayout = "2006-01"

// Expense validation errors.
var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrEmptyDescription  = errors.New("description cannot be empty")
	ErrMissingDate       = errors.New("date is required")
)

// Expense is a single ledger entry.
type Expense struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// NewExpense builds an expense with a trimmed, length-capped description and a
// date truncated to the calendar day.
func NewExpense(amount decimal.Decimal, description string, date time.Time) Expense {
	return Expense{
		Amount:      amount,
		Description: CleanDescription(description),
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
	}
}

// CleanDescription collapses whitespace and caps the description length.
func CleanDescription(description string) string {
	description = strings.Join(strings.Fields(description), " ")
	if runes := []rune(description); len(runes) > MaxDescriptionLength {
		description = strings.TrimSpace(string(runes[:MaxDescriptionLength]))
	}
	return description
}

// Validate checks the ledger invariants for an expense.
func (e Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrNonPositiveAmount, e.Amount.String())
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len([]rune(e.Description)) > MaxDescriptionLength {
		return fmt.Errorf("description longer than %d characters", MaxDescriptionLength)
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// MonthKey returns the ledger month the expense belongs to.
func (e Expense) MonthKey() string {
	return e.Date.Format(MonthKeyLayout)
}

// MonthlyDataset is a read-only snapshot of one ledger month.
type MonthlyDataset struct {
	Month    string
	Expenses []Expense
	Total    decimal.Decimal
}

// NewMonthlyDataset snapshots the given expenses and computes the month total.
func NewMonthlyDataset(month string, expenses []Expense) MonthlyDataset {
	snapshot := make([]Expense, len(expenses))
	copy(snapshot, expenses)

	total := decimal.Zero
	for _, e := range snapshot {
		total = total.Add(e.Amount)
	}

	return MonthlyDataset{
		Month:    month,
		Expenses: snapshot,
		Total:    total,
	}
}
