package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

func expense(amount, description string, day int) model.Expense {
	return model.NewExpense(decimal.RequireFromString(amount), description, time.Date(2025, 11, day, 0, 0, 0, 0, time.UTC))
}

func TestLargestAndSmallest_TiesResolveToFirst(t *testing.T) {
	expenses := []model.Expense{
		expense("20", "coffee", 1),
		expense("50", "gas", 2),
		expense("50", "books", 3),
		expense("20", "snack", 4),
	}

	largest, ok := Largest(expenses)
	require.True(t, ok)
	assert.Equal(t, "gas", largest.Description)

	smallest, ok := Smallest(expenses)
	require.True(t, ok)
	assert.Equal(t, "coffee", smallest.Description)

	again, _ := Largest(expenses)
	assert.Equal(t, largest, again)

	_, ok = Largest(nil)
	assert.False(t, ok)
}

func TestFilterByTerm(t *testing.T) {
	expenses := []model.Expense{
		expense("12.50", "Groceries at Safeway", 1),
		expense("40", "gas", 2),
		expense("7.25", "grocery run", 3),
		expense("30", "groceries", 4),
	}

	got := FilterByTerm(expenses, "GROCERIES")
	require.Len(t, got, 2)
	assert.True(t, Total(got).Equal(decimal.RequireFromString("42.50")))

	assert.Empty(t, FilterByTerm(expenses, "rent"))
	assert.Empty(t, FilterByTerm(expenses, "  "))
}

func TestFilterByCategory(t *testing.T) {
	expenses := []model.Expense{
		expense("12.50", "lunch", 1),
		expense("40", "gas", 2),
		expense("30", "groceries", 4),
	}

	got := FilterByCategory(expenses, "food")
	assert.Len(t, got, 2)
}

func TestBreakdown(t *testing.T) {
	expenses := []model.Expense{
		expense("10", "Coffee", 1),
		expense("100", "rent", 2),
		expense("15", "coffee", 3),
		expense("25", "gas", 4),
	}

	rows := Breakdown(expenses)
	require.Len(t, rows, 3)
	assert.Equal(t, "rent", rows[0].Category)
	assert.Equal(t, "Coffee", rows[1].Category)
	assert.Equal(t, 2, rows[1].Count)
	assert.True(t, rows[1].Total.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, "gas", rows[2].Category)
}

func TestPercentages(t *testing.T) {
	change, ok := PercentChange(decimal.NewFromInt(1000), decimal.NewFromInt(800))
	require.True(t, ok)
	assert.Equal(t, "25.0%", FormatPercent(change))

	_, ok = PercentChange(decimal.NewFromInt(10), decimal.Zero)
	assert.False(t, ok)

	pct, ok := PercentOf(decimal.NewFromInt(50), decimal.NewFromInt(150))
	require.True(t, ok)
	assert.Equal(t, "33.3%", FormatPercent(pct))

	ratio, ok := Ratio(decimal.NewFromInt(100), decimal.NewFromInt(50))
	require.True(t, ok)
	assert.Equal(t, "2.00", ratio.StringFixed(2))
}

func TestAverage(t *testing.T) {
	avg, ok := Average([]model.Expense{expense("100", "rent", 3), expense("50", "gas", 2)})
	require.True(t, ok)
	assert.Equal(t, "$75.00", FormatMoney(avg))

	_, ok = Average(nil)
	assert.False(t, ok)
}

func TestMonthKeys(t *testing.T) {
	assert.Equal(t, "2025-10", PreviousMonthKey("2025-11"))
	assert.Equal(t, "2024-12", PreviousMonthKey("2025-01"))
	assert.Equal(t, "", PreviousMonthKey("garbage"))
	assert.Equal(t, "November 2025", MonthLabel("2025-11"))
	assert.Equal(t, "Nov 03", FormatDate(time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)))
}
