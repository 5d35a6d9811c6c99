package toolcall

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/the-spice-must-talk/internal/analytics"
	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/fallback"
)

// Errors returned by Dispatch.
var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrMissingArgument = errors.New("missing argument")
)

// Function is one computation the model may call.
type Function struct {
	run         func(args map[string]string, data fallback.Data) (string, error)
	Name        string
	Description string
	// Label introduces the result when the model gave no usable sentence.
	Label  string
	Params []string
}

// functions is the catalog in the order it is shown to the model.
var functions = []Function{
	{
		Name:        "get_largest_expense",
		Description: "the single most expensive expense this month",
		Label:       "Your largest expense this month was",
		run: func(_ map[string]string, d fallback.Data) (string, error) {
			e, ok := analytics.Largest(d.Current.Expenses)
			if !ok {
				return "", common.ErrNoExpenses
			}
			return fmt.Sprintf("%s for %s on %s", analytics.FormatMoney(e.Amount), e.Description, analytics.FormatDate(e.Date)), nil
		},
	},
	{
		Name:        "get_smallest_expense",
		Description: "the cheapest expense this month",
		Label:       "Your smallest expense this month was",
		run: func(_ map[string]string, d fallback.Data) (string, error) {
			e, ok := analytics.Smallest(d.Current.Expenses)
			if !ok {
				return "", common.ErrNoExpenses
			}
			return fmt.Sprintf("%s for %s on %s", analytics.FormatMoney(e.Amount), e.Description, analytics.FormatDate(e.Date)), nil
		},
	},
	{
		Name:        "get_total_spending",
		Description: "total amount spent this month",
		Label:       "Your total spending this month is",
		run: func(_ map[string]string, d fallback.Data) (string, error) {
			return analytics.FormatMoney(d.Current.Total), nil
		},
	},
	{
		Name:        "get_average_expense",
		Description: "mean amount per expense this month",
		Label:       "Your average expense this month is",
		run: func(_ map[string]string, d fallback.Data) (string, error) {
			avg, ok := analytics.Average(d.Current.Expenses)
			if !ok {
				return "", common.ErrNoExpenses
			}
			return analytics.FormatMoney(avg), nil
		},
	},
	{
		Name:        "get_expense_count",
		Description: "number of expenses this month",
		Label:       "The number of expenses this month is",
		run: func(_ map[string]string, d fallback.Data) (string, error) {
			return strconv.Itoa(len(d.Current.Expenses)), nil
		},
	},
	{
		Name:        "get_category_breakdown",
		Description: "spending grouped by description, largest first",
		Label:       "Your spending by category this month is",
		run: func(_ map[string]string, d fallback.Data) (string, error) {
			rows := analytics.Breakdown(d.Current.Expenses)
			if len(rows) == 0 {
				return "", common.ErrNoExpenses
			}
			parts := make([]string, len(rows))
			for i, row := range rows {
				parts[i] = fmt.Sprintf("%s %s", row.Category, analytics.FormatMoney(row.Total))
			}
			return strings.Join(parts, ", "), nil
		},
	},
	{
		Name:        "get_category_total",
		Description: "total spent on one category, synonyms included",
		Label:       "Your spending on that category this month is",
		Params:      []string{"category"},
		run: func(args map[string]string, d fallback.Data) (string, error) {
			category, err := requireArg(args, "category")
			if err != nil {
				return "", err
			}
			return analytics.FormatMoney(analytics.Total(analytics.FilterByCategory(d.Current.Expenses, category))), nil
		},
	},
	{
		Name:        "get_category_percentage",
		Description: "share of this month's spending that went to one category",
		Label:       "That category's share of your spending this month is",
		Params:      []string{"category"},
		run: func(args map[string]string, d fallback.Data) (string, error) {
			category, err := requireArg(args, "category")
			if err != nil {
				return "", err
			}
			part := analytics.Total(analytics.FilterByCategory(d.Current.Expenses, category))
			pct, ok := analytics.PercentOf(part, d.Current.Total)
			if !ok {
				return "", common.ErrNoExpenses
			}
			return analytics.FormatPercent(pct), nil
		},
	},
	{
		Name:        "get_month_comparison",
		Description: "this month's total against last month's, with the percent change",
		Label:       "Compared with last month, you spent",
		run: func(_ map[string]string, d fallback.Data) (string, error) {
			if d.Previous == nil || len(d.Previous.Expenses) == 0 {
				return fmt.Sprintf("%s this month with nothing recorded last month", analytics.FormatMoney(d.Current.Total)), nil
			}
			change, ok := analytics.PercentChange(d.Current.Total, d.Previous.Total)
			if !ok {
				return fmt.Sprintf("%s vs %s", analytics.FormatMoney(d.Current.Total), analytics.FormatMoney(d.Previous.Total)), nil
			}
			direction := "increase"
			if change.IsNegative() {
				direction = "decrease"
			}
			return fmt.Sprintf("%s vs %s (a %s %s)", analytics.FormatMoney(d.Current.Total), analytics.FormatMoney(d.Previous.Total), analytics.FormatPercent(change), direction), nil
		},
	},
}

func requireArg(args map[string]string, name string) (string, error) {
	v := strings.TrimSpace(args[name])
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return strings.ToLower(v), nil
}

// Lookup returns the function with the given name.
func Lookup(name string) (Function, bool) {
	for _, fn := range functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return Function{}, false
}

// Catalog renders the function list for a prompt.
func Catalog() string {
	var b strings.Builder
	for _, fn := range functions {
		fmt.Fprintf(&b, "- %s(%s): %s\n", fn.Name, strings.Join(fn.Params, ", "), fn.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Dispatcher runs parsed calls against ledger data.
type Dispatcher struct {
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{logger: common.OrDefault(logger)}
}

// Dispatch runs call and returns its formatted result.
func (d *Dispatcher) Dispatch(call Call, data fallback.Data) (string, error) {
	fn, ok := Lookup(call.Name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, call.Name)
	}
	result, err := fn.run(call.Arguments, data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", call.Name, err)
	}
	d.logger.Debug("tool call dispatched", "function", call.Name, "args", call.Arguments, "result", result)
	return result, nil
}
