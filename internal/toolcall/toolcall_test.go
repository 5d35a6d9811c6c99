package toolcall

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spice-must-talk/internal/fallback"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantName  string
		wantArgs  map[string]string
		wantFinal string
		wantOK    bool
	}{
		{
			name:     "name only",
			reply:    "FUNCTION_CALL: get_total_spending",
			wantName: "get_total_spending",
			wantArgs: map[string]string{},
			wantOK:   true,
		},
		{
			name:     "arguments on the same line",
			reply:    `FUNCTION_CALL: get_category_total ARGUMENTS: {"category": "Groceries"}`,
			wantName: "get_category_total",
			wantArgs: map[string]string{"category": "Groceries"},
			wantOK:   true,
		},
		{
			name: "arguments on following lines with a trailing comma",
			reply: "FUNCTION_CALL: get_category_percentage\nARGUMENTS:\n{\n  \"category\": \"coffee\",\n}\n" +
				"RESULT: {result}\nFINAL_ANSWER: Coffee is {result} of your spending.",
			wantName:  "get_category_percentage",
			wantArgs:  map[string]string{"category": "coffee"},
			wantFinal: "Coffee is {result} of your spending.",
			wantOK:    true,
		},
		{
			name:     "lowercase markers and empty arguments",
			reply:    "function_call: GET_EXPENSE_COUNT\narguments: {}",
			wantName: "get_expense_count",
			wantArgs: map[string]string{},
			wantOK:   true,
		},
		{
			name:     "numeric argument",
			reply:    `FUNCTION_CALL: get_category_total ARGUMENTS: {"category": 42}`,
			wantName: "get_category_total",
			wantArgs: map[string]string{"category": "42"},
			wantOK:   true,
		},
		{
			name:     "broken arguments leave the map empty",
			reply:    "FUNCTION_CALL: get_category_total\nARGUMENTS: {category: groceries",
			wantName: "get_category_total",
			wantArgs: map[string]string{},
			wantOK:   true,
		},
		{
			name:   "plain prose",
			reply:  "You spent $40.00 on coffee.",
			wantOK: false,
		},
		{
			name:   "marker without a name",
			reply:  "FUNCTION_CALL:\n",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := Parse(tt.reply)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantName, call.Name)
			assert.Equal(t, tt.wantArgs, call.Arguments)
			assert.Equal(t, tt.wantFinal, call.Final)
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		call   Call
		result string
		want   string
	}{
		{
			name:   "placeholder substituted",
			call:   Call{Name: "get_total_spending", Final: "You spent {result} this month."},
			result: "$150.00",
			want:   "You spent $150.00 this month.",
		},
		{
			name:   "lead ending in a linking word",
			call:   Call{Name: "get_total_spending", Final: "Your total spending this month is"},
			result: "$150.00",
			want:   "Your total spending this month is $150.00.",
		},
		{
			name:   "lead joined with a colon",
			call:   Call{Name: "get_category_breakdown", Final: "Here is your breakdown."},
			result: "rent $100.00, coffee $50.00",
			want:   "Here is your breakdown: rent $100.00, coffee $50.00.",
		},
		{
			name:   "lead with model arithmetic replaced by label",
			call:   Call{Name: "get_total_spending", Final: "You spent $999.99 this month."},
			result: "$150.00",
			want:   "Your total spending this month is $150.00.",
		},
		{
			name:   "no final answer uses label",
			call:   Call{Name: "get_expense_count"},
			result: "4",
			want:   "The number of expenses this month is 4.",
		},
		{
			name:   "unknown function returns bare result",
			call:   Call{Name: "get_weather"},
			result: "sunny",
			want:   "sunny",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.call, tt.result))
		})
	}
}

func expense(amount string, desc string, month time.Month, d int) model.Expense {
	return model.NewExpense(decimal.RequireFromString(amount), desc, time.Date(2025, month, d, 0, 0, 0, 0, time.UTC))
}

func fixture() fallback.Data {
	current := model.NewMonthlyDataset("2025-11", []model.Expense{
		expense("100", "rent", time.November, 3),
		expense("30", "coffee", time.November, 5),
		expense("20", "Coffee beans", time.November, 7),
	})
	previous := model.NewMonthlyDataset("2025-10", []model.Expense{
		expense("120", "rent", time.October, 1),
	})
	return fallback.Data{Current: current, Previous: &previous}
}

func TestDispatcher_Dispatch(t *testing.T) {
	tests := []struct {
		name    string
		call    Call
		want    string
		wantErr error
	}{
		{name: "largest", call: Call{Name: "get_largest_expense"}, want: "$100.00 for rent on Nov 03"},
		{name: "smallest", call: Call{Name: "get_smallest_expense"}, want: "$20.00 for Coffee beans on Nov 07"},
		{name: "total", call: Call{Name: "get_total_spending"}, want: "$150.00"},
		{name: "average", call: Call{Name: "get_average_expense"}, want: "$50.00"},
		{name: "count", call: Call{Name: "get_expense_count"}, want: "3"},
		{
			name: "category total",
			call: Call{Name: "get_category_total", Arguments: map[string]string{"category": "Coffee"}},
			want: "$50.00",
		},
		{
			name: "category percentage",
			call: Call{Name: "get_category_percentage", Arguments: map[string]string{"category": "coffee"}},
			want: "33.3%",
		},
		{name: "comparison", call: Call{Name: "get_month_comparison"}, want: "$150.00 vs $120.00 (a 25.0% increase)"},
		{
			name:    "missing category",
			call:    Call{Name: "get_category_total", Arguments: map[string]string{}},
			wantErr: ErrMissingArgument,
		},
		{name: "unknown function", call: Call{Name: "get_weather"}, wantErr: ErrUnknownFunction},
	}

	d := NewDispatcher(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Dispatch(tt.call, fixture())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatcher_EmptyMonth(t *testing.T) {
	d := NewDispatcher(nil)
	_, err := d.Dispatch(Call{Name: "get_largest_expense"}, fallback.Data{Current: model.NewMonthlyDataset("2025-11", nil)})
	require.Error(t, err)
}

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	assert.Contains(t, catalog, "- get_total_spending(): total amount spent this month")
	assert.Contains(t, catalog, "- get_category_total(category):")
	assert.NotContains(t, catalog, "\n\n")
}
