package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

func TestRenderResult(t *testing.T) {
	result := &model.QueryResult{
		Intent:   model.IntentQuery,
		Response: "You've spent $12.50 this month across 1 expense.",
		Trace:    []string{"Classified as query (question_phrase)", "Answered directly (total)"},
	}

	tests := []struct {
		name      string
		showTrace bool
		result    *model.QueryResult
		contains  []string
		absent    []string
	}{
		{name: "response only", result: result, contains: []string{"$12.50"}, absent: []string{"Thinking", "Answered directly"}},
		{name: "with trace", showTrace: true, result: result, contains: []string{"Thinking", "Classified as query", "Answered directly (total)", "$12.50"}},
		{name: "error intent", result: &model.QueryResult{Intent: model.IntentError, Response: "Something went wrong."}, contains: []string{ErrorIcon, "Something went wrong."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderResult(&buf, tt.result, tt.showTrace))
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, buf.String(), unwanted)
			}
		})
	}
}

func TestRenderExpenses(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, time.November, d, 0, 0, 0, 0, time.UTC) }
	expenses := []model.Expense{
		model.NewExpense(decimal.NewFromInt(500), "rent", day(1)),
		model.NewExpense(decimal.RequireFromString("4.5"), "coffee", day(5)),
	}

	var buf bytes.Buffer
	require.NoError(t, RenderExpenses(&buf, "2025-11", expenses))
	out := buf.String()
	for _, want := range []string{"November 2025", "Nov 01", "$500.00", "rent", "$4.50", "coffee", "Total: $504.50 across 2 expenses"} {
		assert.Contains(t, out, want)
	}

	buf.Reset()
	require.NoError(t, RenderExpenses(&buf, "2025-10", nil))
	assert.Contains(t, buf.String(), "No expenses recorded.")
}

func TestStepSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewStepSpinner(&buf)
	s.Done()
	assert.Empty(t, buf.String())

	s.Step("Classified as query")
	s.Step("Answered directly")
	s.Done()
	assert.Equal(t, 2, s.Steps())
}
