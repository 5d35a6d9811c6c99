package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// ExpenseBuilder assembles expense fixtures with a fluent API.
type ExpenseBuilder struct {
	expenses []model.Expense
	year     int
	month    time.Month
}

// NewExpenseBuilder starts a builder whose days fall in the given month.
func NewExpenseBuilder(year int, month time.Month) *ExpenseBuilder {
	return &ExpenseBuilder{year: year, month: month}
}

// In moves subsequent expenses to another month.
func (b *ExpenseBuilder) In(year int, month time.Month) *ExpenseBuilder {
	b.year, b.month = year, month
	return b
}

// With adds an expense. amount must be a decimal literal.
func (b *ExpenseBuilder) With(amount, description string, day int) *ExpenseBuilder {
	date := time.Date(b.year, b.month, day, 0, 0, 0, 0, time.UTC)
	b.expenses = append(b.expenses, model.NewExpense(decimal.RequireFromString(amount), description, date))
	return b
}

// Build returns the expenses in the order they were added.
func (b *ExpenseBuilder) Build() []model.Expense {
	return append([]model.Expense(nil), b.expenses...)
}

// TwoMonths is a small October/November 2025 fixture: October totals
// $800.00 and November $1000.00 across rent, groceries, coffee and gas.
func TwoMonths() []model.Expense {
	return NewExpenseBuilder(2025, time.October).
		With("800", "rent", 1).
		In(2025, time.November).
		With("500", "rent", 1).
		With("300", "groceries", 4).
		With("100", "coffee", 6).
		With("100", "gas", 9).
		Build()
}
