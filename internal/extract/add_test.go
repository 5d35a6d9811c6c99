package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/llm"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

type staticSource struct {
	completer llm.Completer
	err       error
}

func (s staticSource) Get(context.Context) (llm.Completer, error) {
	return s.completer, s.err
}

func withModel(replies ...string) staticSource {
	return staticSource{completer: llm.NewMockCompleter(replies...)}
}

var unavailable = staticSource{err: common.ErrModelUnavailable}

type wantExpense struct {
	amount string
	desc   string
	date   time.Time
}

func assertExpenses(t *testing.T, want []wantExpense, got []model.Expense) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.amount, got[i].Amount.StringFixed(2), "amount %d", i)
		assert.Equal(t, w.desc, got[i].Description, "description %d", i)
		assert.Equal(t, w.date, got[i].Date, "date %d", i)
	}
}

func TestExtractor_AddFromModel(t *testing.T) {
	today := date(2025, time.November, 20)
	tests := []struct {
		name      string
		utterance string
		reply     string
		want      []wantExpense
	}{
		{
			name:      "single object",
			utterance: "Add $50 for groceries on November 15th",
			reply:     `{"amount": 50, "description": "groceries", "date": "2025-11-15"}`,
			want:      []wantExpense{{"50.00", "groceries", date(2025, time.November, 15)}},
		},
		{
			name:      "expenses list with repairs",
			utterance: "coffee 3.50 and lunch 12",
			reply:     `Sure! {"expenses": [{"amount": "$3.50", "description": "coffee", "date": null}, {"amount": -12, "description": "lunch today", "date": null},]}`,
			want:      []wantExpense{{"3.50", "coffee", today}, {"12.00", "lunch", today}},
		},
		{
			name:      "repeated decimal point",
			utterance: "taxi 12.50",
			reply:     `{"amount": 12..50, "description": "taxi"}`,
			want:      []wantExpense{{"12.50", "taxi", today}},
		},
		{
			name:      "model date outside active month falls back to today",
			utterance: "Add $20 for books",
			reply:     `{"amount": 20, "description": "books", "date": "2025-09-01"}`,
			want:      []wantExpense{{"20.00", "books", today}},
		},
		{
			name:      "utterance date beats model date",
			utterance: "Add $20 for books yesterday",
			reply:     `{"amount": 20, "description": "books", "date": "2025-11-02"}`,
			want:      []wantExpense{{"20.00", "books", date(2025, time.November, 19)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(withModel(tt.reply), fixedNow, nil)
			got, err := e.Add(context.Background(), tt.utterance, "2025-11", nil)
			require.NoError(t, err)
			assertExpenses(t, tt.want, got)
		})
	}
}

func TestExtractor_AddFallsBackToPatterns(t *testing.T) {
	tests := []struct {
		name      string
		source    ModelSource
		utterance string
		want      wantExpense
	}{
		{name: "code reply rejected", source: withModel("def add():\n    return {\"amount\": 1}"), utterance: "Add $50 for groceries on November 15th", want: wantExpense{"50.00", "groceries", date(2025, time.November, 15)}},
		{name: "zero amount dropped", source: withModel(`{"amount": 0, "description": "x"}`), utterance: "$5 coffee", want: wantExpense{"5.00", "coffee", date(2025, time.November, 20)}},
		{name: "amount for description", source: unavailable, utterance: "spent 12.50 on lunch yesterday", want: wantExpense{"12.50", "lunch", date(2025, time.November, 19)}},
		{name: "bucks at", source: unavailable, utterance: "I spent 20 bucks at the bar", want: wantExpense{"20.00", "bar", date(2025, time.November, 20)}},
		{name: "verb then amount", source: unavailable, utterance: "paid 45 electric bill", want: wantExpense{"45.00", "electric bill", date(2025, time.November, 20)}},
		{name: "description was amount", source: unavailable, utterance: "lunch was $12", want: wantExpense{"12.00", "lunch", date(2025, time.November, 20)}},
		{name: "no model source", source: nil, utterance: "$5 coffee", want: wantExpense{"5.00", "coffee", date(2025, time.November, 20)}},
		{name: "thousands separator", source: unavailable, utterance: "Add $1,200 for rent", want: wantExpense{"1200.00", "rent", date(2025, time.November, 20)}},
		{name: "thousands separator with cents", source: unavailable, utterance: "Spent $1,250.50 on a laptop", want: wantExpense{"1250.50", "laptop", date(2025, time.November, 20)}},
		{name: "leading grouped amount", source: unavailable, utterance: "$1,200 rent", want: wantExpense{"1200.00", "rent", date(2025, time.November, 20)}},
		{name: "description cost grouped amount", source: unavailable, utterance: "couch cost $2,400", want: wantExpense{"2400.00", "couch", date(2025, time.November, 20)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trace := model.NewTrace(nil)
			got, err := NewExtractor(tt.source, fixedNow, nil).Add(context.Background(), tt.utterance, "2025-11", trace)
			require.NoError(t, err)
			assertExpenses(t, []wantExpense{tt.want}, got)
			assert.Contains(t, trace.Steps()[len(trace.Steps())-1], "pattern matching")
		})
	}
}

func TestExtractor_AddEarlyInActiveMonth(t *testing.T) {
	earlyNov := func() time.Time { return time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC) }
	utterance := "Add $50 for groceries on November 15th"
	want := []wantExpense{{"50.00", "groceries", date(2025, time.November, 15)}}

	t.Run("patterns", func(t *testing.T) {
		got, err := NewExtractor(unavailable, earlyNov, nil).Add(context.Background(), utterance, "2025-11", nil)
		require.NoError(t, err)
		assertExpenses(t, want, got)
	})

	t.Run("model", func(t *testing.T) {
		reply := `{"amount": 50, "description": "groceries", "date": "2025-11-15"}`
		got, err := NewExtractor(withModel(reply), earlyNov, nil).Add(context.Background(), utterance, "2025-11", nil)
		require.NoError(t, err)
		assertExpenses(t, want, got)
	})
}

func TestExtractor_AddNothingFound(t *testing.T) {
	_, err := NewExtractor(unavailable, fixedNow, nil).Add(context.Background(), "add coffee", "2025-11", nil)
	require.ErrorIs(t, err, common.ErrInvalidRecord)
	assert.Contains(t, common.UserMessage(err, ""), "Try something like")
}

func TestFirstObject(t *testing.T) {
	got, ok := firstObject(`noise {"a": "}{", "b": {"c": 1}} trailing {`)
	require.True(t, ok)
	assert.Equal(t, `{"a": "}{", "b": {"c": 1}}`, got)

	_, ok = firstObject(`{"open": 1`)
	assert.False(t, ok)
}
