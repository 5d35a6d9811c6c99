// Package analytics holds the pure spending computations behind every
// deterministic answer. All arithmetic is done in decimal so totals,
// percentages and ratios are exact before they are rounded for display.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

// Total sums the expense amounts.
func Total(expenses []model.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Largest returns the most expensive entry. Ties resolve to the first one.
func Largest(expenses []model.Expense) (model.Expense, bool) {
	if len(expenses) == 0 {
		return model.Expense{}, false
	}
	best := expenses[0]
	for _, e := range expenses[1:] {
		if e.Amount.GreaterThan(best.Amount) {
			best = e
		}
	}
	return best, true
}

// Smallest returns the cheapest entry. Ties resolve to the first one.
func Smallest(expenses []model.Expense) (model.Expense, bool) {
	if len(expenses) == 0 {
		return model.Expense{}, false
	}
	best := expenses[0]
	for _, e := range expenses[1:] {
		if e.Amount.LessThan(best.Amount) {
			best = e
		}
	}
	return best, true
}

// Average returns the mean amount.
func Average(expenses []model.Expense) (decimal.Decimal, bool) {
	if len(expenses) == 0 {
		return decimal.Zero, false
	}
	return Total(expenses).Div(decimal.NewFromInt(int64(len(expenses)))), true
}

// FilterByTerm keeps expenses whose description contains term, ignoring case.
func FilterByTerm(expenses []model.Expense, term string) []model.Expense {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []model.Expense
	for _, e := range expenses {
		if term != "" && strings.Contains(strings.ToLower(e.Description), term) {
			out = append(out, e)
		}
	}
	return out
}

// FilterByCategory keeps expenses matching the term or any of its category
// synonyms.
func FilterByCategory(expenses []model.Expense, term string) []model.Expense {
	terms := lexicon.Expand(term)
	var out []model.Expense
	for _, e := range expenses {
		if lexicon.MatchesAny(e.Description, terms) {
			out = append(out, e)
		}
	}
	return out
}

// Breakdown groups expenses by description, treating each description as its
// category, sorted by total descending. Equal totals keep first-seen order.
func Breakdown(expenses []model.Expense) []CategoryTotal {
	index := make(map[string]int)
	var rows []CategoryTotal
	for _, e := range expenses {
		key := strings.ToLower(strings.TrimSpace(e.Description))
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, CategoryTotal{Category: strings.TrimSpace(e.Description), Total: decimal.Zero})
		}
		rows[i].Total = rows[i].Total.Add(e.Amount)
		rows[i].Count++
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Total.GreaterThan(rows[b].Total)
	})
	return rows
}

// PercentChange returns (current-previous)/previous*100.
func PercentChange(current, previous decimal.Decimal) (decimal.Decimal, bool) {
	if previous.IsZero() {
		return decimal.Zero, false
	}
	return current.Sub(previous).Div(previous).Mul(hundred), true
}

// PercentOf returns part/whole*100.
func PercentOf(part, whole decimal.Decimal) (decimal.Decimal, bool) {
	if whole.IsZero() {
		return decimal.Zero, false
	}
	return part.Div(whole).Mul(hundred), true
}

// Ratio returns a/b.
func Ratio(a, b decimal.Decimal) (decimal.Decimal, bool) {
	if b.IsZero() {
		return decimal.Zero, false
	}
	return a.Div(b), true
}

// FormatMoney renders an amount as dollars with two decimals.
func FormatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(pct decimal.Decimal) string {
	return pct.Abs().StringFixed(1) + "%"
}

// FormatDate renders an expense date as "Nov 03".
func FormatDate(date time.Time) string {
	return date.Format("Jan 02")
}

// ParseMonthKey parses a "2025-11" month key.
func ParseMonthKey(key string) (time.Time, error) {
	return time.Parse(model.MonthKeyLayout, key)
}

// PreviousMonthKey returns the key of the month before key, or "" when key
// does not parse.
func PreviousMonthKey(key string) string {
	t, err := ParseMonthKey(key)
	if err != nil {
		return ""
	}
	return t.AddDate(0, -1, 0).Format(model.MonthKeyLayout)
}

// MonthLabel renders a month key as "November 2025".
func MonthLabel(key string) string {
	t, err := ParseMonthKey(key)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}
