package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is Thursday, November 20 2025.
func fixedNow() time.Time {
	return time.Date(2025, time.November, 20, 15, 4, 5, 0, time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateResolver_Resolve(t *testing.T) {
	tests := []struct {
		text string
		want time.Time
		ok   bool
	}{
		{text: "coffee today", want: date(2025, time.November, 20), ok: true},
		{text: "lunch yesterday", want: date(2025, time.November, 19), ok: true},
		{text: "the day before yesterday", want: date(2025, time.November, 18), ok: true},
		{text: "3 days ago", want: date(2025, time.November, 17), ok: true},
		{text: "two days ago", want: date(2025, time.November, 18), ok: true},
		{text: "last monday", want: date(2025, time.November, 17), ok: true},
		{text: "last thursday", want: date(2025, time.November, 13), ok: true},
		{text: "on the 15th", want: date(2025, time.November, 15), ok: true},
		{text: "groceries on November 15th", want: date(2025, time.November, 15), ok: true},
		{text: "15th of Nov", want: date(2025, time.November, 15), ok: true},
		{text: "Nov 3", want: date(2025, time.November, 3), ok: true},
		{text: "on 2025-10-31", want: date(2025, time.October, 31), ok: true},
		{text: "10/5", want: date(2025, time.October, 5), ok: true},
		{text: "December 25", want: date(2024, time.December, 25), ok: true},
		{text: "February 30", ok: false},
		{text: "nothing here", ok: false},
	}

	r := NewDateResolver(fixedNow)
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := r.Resolve(tt.text)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDateResolver_EarlyInMonth(t *testing.T) {
	// Monday, November 3 2025: most of the month is still ahead.
	earlyNov := func() time.Time { return time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC) }

	tests := []struct {
		text  string
		month string
		want  time.Time
	}{
		{text: "groceries on November 15th", want: date(2025, time.November, 15)},
		{text: "groceries on November 15th", month: "2025-11", want: date(2025, time.November, 15)},
		{text: "the 28th of november", month: "2025-11", want: date(2025, time.November, 28)},
		{text: "on the 28th", month: "2025-11", want: date(2025, time.November, 28)},
		{text: "11/30", month: "2025-11", want: date(2025, time.November, 30)},
		{text: "October 30", month: "2025-11", want: date(2025, time.October, 30)},
		{text: "December 25", month: "2025-11", want: date(2024, time.December, 25)},
		{text: "November 15", month: "not-a-month", want: date(2025, time.November, 15)},
		{text: "November 15, 2023", month: "2025-11", want: date(2023, time.November, 15)},
	}

	r := NewDateResolver(earlyNov)
	for _, tt := range tests {
		t.Run(tt.text+" "+tt.month, func(t *testing.T) {
			got, ok := r.InMonth(tt.month).Resolve(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateResolver_InMonthAnchorsYear(t *testing.T) {
	// The clock has rolled into January but the ledger is still on December.
	r := NewDateResolver(func() time.Time { return time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC) })

	got, ok := r.InMonth("2025-12").Resolve("dinner on December 20th")
	require.True(t, ok)
	assert.Equal(t, date(2025, time.December, 20), got)

	got, ok = r.Resolve("dinner on December 20th")
	require.True(t, ok)
	assert.Equal(t, date(2025, time.December, 20), got)
}

func TestDateResolver_Strip(t *testing.T) {
	r := NewDateResolver(fixedNow)
	assert.Equal(t, "Groceries on", r.Strip("Groceries on November 15th"))
	assert.Equal(t, "lunch", r.Strip("lunch yesterday"))
	assert.Equal(t, "taxi", r.Strip("taxi 2 days ago"))
}
