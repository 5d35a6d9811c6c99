package fastpath

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

func day(d int) time.Time {
	return time.Date(2025, time.November, d, 0, 0, 0, 0, time.UTC)
}

func records() []model.Expense {
	return []model.Expense{
		model.NewExpense(decimal.NewFromInt(100), "rent", day(1)),
		model.NewExpense(decimal.NewFromInt(50), "groceries", day(3)),
	}
}

func TestTryAnswer(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		wantShape Shape
		contains  []string
	}{
		{name: "largest", question: "What's my largest expense?", wantShape: ShapeLargest, contains: []string{"$100.00", "rent"}},
		{name: "lowest", question: "what was the cheapest thing I bought", wantShape: ShapeLowest, contains: []string{"$50.00", "groceries"}},
		{name: "total", question: "How much have I spent this month?", wantShape: ShapeTotal, contains: []string{"$150.00", "2 expenses"}},
		{name: "filtered total", question: "How much did I spend on groceries this month?", wantShape: ShapeFiltered, contains: []string{"$50.00", "groceries"}},
		{name: "filtered with no match", question: "how much did I spend on coffee", wantShape: ShapeFiltered, contains: []string{"You haven't spent anything on coffee"}},
		{name: "count", question: "How many expenses do I have?", wantShape: ShapeCount, contains: []string{"2 expenses", "$150.00"}},
		{name: "average", question: "what's my average expense", wantShape: ShapeAverage, contains: []string{"$75.00"}},
		{name: "breakdown", question: "give me a breakdown by category", wantShape: ShapeBreakdown, contains: []string{"rent: $100.00", "groceries: $50.00", "Total: $150.00"}},
		{name: "listing", question: "show my expenses", wantShape: ShapeListing, contains: []string{"Nov 01 rent: $100.00", "Nov 03 groceries: $50.00"}},
	}

	h := NewHandler(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, ok := h.TryAnswer(tt.question, records(), ThisMonth)
			require.True(t, ok)
			assert.Equal(t, tt.wantShape, answer.Shape)
			for _, want := range tt.contains {
				assert.Contains(t, answer.Text, want)
			}
		})
	}
}

func TestTryAnswer_Declines(t *testing.T) {
	declined := []string{
		"How does this month compare to last month?",
		"What percentage of my spending is groceries?",
		"What's the ratio of rent to groceries?",
		"Should I cut back on dining out?",
		"What's my average spending per month?",
		"tell me a joke",
	}

	h := NewHandler(nil)
	for _, q := range declined {
		t.Run(q, func(t *testing.T) {
			_, ok := h.TryAnswer(q, records(), ThisMonth)
			assert.False(t, ok)
		})
	}
}

func TestTryAnswer_FilteredTotalIsExactSubstringSum(t *testing.T) {
	recs := []model.Expense{
		model.NewExpense(decimal.RequireFromString("12.50"), "Groceries at Safeway", day(1)),
		model.NewExpense(decimal.RequireFromString("7.25"), "grocery run", day(2)),
		model.NewExpense(decimal.RequireFromString("30"), "groceries", day(3)),
		model.NewExpense(decimal.RequireFromString("99"), "rent", day(4)),
	}

	answer, ok := NewHandler(nil).TryAnswer("how much on groceries?", recs, ThisMonth)
	require.True(t, ok)
	assert.Contains(t, answer.Text, "$42.50")
	assert.Contains(t, answer.Text, "2 expenses")
}

func TestCompute_EmptyAndAllTime(t *testing.T) {
	answer, ok := Compute("what's my total", nil, ThisMonth)
	require.True(t, ok)
	assert.Equal(t, "You don't have any expenses recorded this month yet.", answer.Text)

	answer, ok = Compute("what's my largest expense ever", records(), AllTime(3))
	require.True(t, ok)
	assert.Contains(t, answer.Text, "$100.00")
	assert.Contains(t, answer.Text, "(all-time across 3 months)")
}

func TestCompute_AllTimeFilteredTotal(t *testing.T) {
	recs := []model.Expense{
		model.NewExpense(decimal.NewFromInt(70), "gas", time.Date(2025, time.October, 9, 0, 0, 0, 0, time.UTC)),
		model.NewExpense(decimal.NewFromInt(100), "rent", day(1)),
		model.NewExpense(decimal.NewFromInt(50), "gas", day(4)),
	}

	questions := []string{
		"How much have I spent on gas ever?",
		"How much have I spent on gas all time?",
		"How much have I spent on gas overall?",
		"How much have I spent on gas lifetime?",
	}
	for _, question := range questions {
		t.Run(question, func(t *testing.T) {
			answer, ok := Compute(question, recs, AllTime(2))
			require.True(t, ok)
			assert.Equal(t, ShapeFiltered, answer.Shape)
			assert.Equal(t, "gas", answer.Term)
			assert.Contains(t, answer.Text, "$120.00")
			assert.NotContains(t, answer.Text, "haven't spent")
		})
	}
}

func TestParseTerm(t *testing.T) {
	tests := map[string]string{
		"How much did I spend on groceries this month?": "groceries",
		"what's my spending on gas?":                    "gas",
		"how much for the coffee":                       "coffee",
		"total spent at whole foods":                    "whole foods",
		"how much on dining out expenses":               "dining out",
		"what's my total for november":                  "",
		"how much did I spend on the 15th":              "",
		"what's my largest expense?":                    "",
		"how much have I spent on gas ever?":            "gas",
		"how much on gas all time":                      "gas",
		"spent on gas lifetime":                         "gas",
		"how much on coffee since i started":            "coffee",
	}
	for question, want := range tests {
		t.Run(question, func(t *testing.T) {
			assert.Equal(t, want, ParseTerm(question))
		})
	}
}
