package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/Veraticus/the-spice-must-talk/internal/analytics"
	"github.com/Veraticus/the-spice-must-talk/internal/fallback"
	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
	"github.com/Veraticus/the-spice-must-talk/internal/service"
)

// Scope is how much of the ledger a question needs.
type Scope string

// Scopes.
const (
	ScopeSingleMonth Scope = "single_month"
	ScopeComparison  Scope = "comparison"
	ScopeAllTime     Scope = "all_time"
)

// ClassifyScope decides which months a question reads. Cross-month averages
// and all-time phrasing need every month; comparisons need the active and
// previous month; everything else reads only the active month.
func ClassifyScope(question string) Scope {
	kind := fallback.Classify(question)
	switch {
	case kind == fallback.KindMonthlyAvg, lexicon.ContainsAnyPhrase(question, lexicon.AllTimePhrases):
		return ScopeAllTime
	case kind == fallback.KindComparison, lexicon.ContainsAnyPhrase(question, lexicon.MultiMonthPhrases):
		return ScopeComparison
	default:
		return ScopeSingleMonth
	}
}

// loadData reads only the months scope requires.
func loadData(ctx context.Context, ledger service.Ledger, scope Scope) (fallback.Data, error) {
	active := ledger.ActiveMonth()
	current, err := loadMonth(ctx, ledger, active)
	if err != nil {
		return fallback.Data{}, err
	}
	data := fallback.Data{Current: current}

	switch scope {
	case ScopeComparison:
		previous, err := loadMonth(ctx, ledger, analytics.PreviousMonthKey(active))
		if err != nil {
			return fallback.Data{}, err
		}
		data.Previous = &previous
	case ScopeAllTime:
		keys, err := ledger.Months(ctx)
		if err != nil {
			return fallback.Data{}, fmt.Errorf("failed to list months: %w", err)
		}
		if !slices.Contains(keys, active) {
			keys = append(keys, active)
			slices.Sort(keys)
		}
		prevKey := analytics.PreviousMonthKey(active)
		for _, key := range keys {
			month := current
			if key != active {
				if month, err = loadMonth(ctx, ledger, key); err != nil {
					return fallback.Data{}, err
				}
			}
			if key == prevKey {
				prev := month
				data.Previous = &prev
			}
			data.Months = append(data.Months, month)
		}
		data.AllTime = true
	}
	return data, nil
}

func loadMonth(ctx context.Context, ledger service.Ledger, key string) (model.MonthlyDataset, error) {
	expenses, err := ledger.Expenses(ctx, key)
	if err != nil {
		return model.MonthlyDataset{}, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return model.NewMonthlyDataset(key, expenses), nil
}
