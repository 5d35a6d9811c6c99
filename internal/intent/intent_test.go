package intent

import (
	"context"
	"errors"
	"testing"

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

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		utterance  string
		wantIntent model.Intent
		wantRule   Rule
	}{
		{utterance: "$5 coffee", wantIntent: model.IntentAdd, wantRule: RuleAmountPrefix},
		{utterance: "12.50 lunch with sam", wantIntent: model.IntentAdd, wantRule: RuleAmountPrefix},
		{utterance: "$1,200 rent", wantIntent: model.IntentAdd, wantRule: RuleAmountPrefix},
		{utterance: "1,250.50 laptop", wantIntent: model.IntentAdd, wantRule: RuleAmountPrefix},
		{utterance: "What percent change from last month?", wantIntent: model.IntentQuery, wantRule: RuleQuestionPhrase},
		{utterance: "percent change in groceries", wantIntent: model.IntentQuery, wantRule: RuleQuestionPhrase},
		{utterance: "What's my spending on gas?", wantIntent: model.IntentQuery, wantRule: RuleQuestionPhrase},
		{utterance: "how much did I spend on food", wantIntent: model.IntentQuery, wantRule: RuleQuestionPhrase},
		{utterance: "Add $50 for groceries on November 15th", wantIntent: model.IntentAdd, wantRule: RuleAddKeyword},
		{utterance: "I spent 20 bucks at the bar", wantIntent: model.IntentAdd, wantRule: RuleAddKeyword},
		{utterance: "delete the coffee", wantIntent: model.IntentDelete, wantRule: RuleDeleteKeyword},
		{utterance: "remove all gas expenses", wantIntent: model.IntentDelete, wantRule: RuleDeleteKeyword},
		{utterance: "change my lunch to $12", wantIntent: model.IntentEdit, wantRule: RuleEditKeyword},
		{utterance: "largest expense?", wantIntent: model.IntentQuery, wantRule: RuleQuestionMark},
		{utterance: "which one was biggest", wantIntent: model.IntentQuery, wantRule: RuleQuestionMark},
	}

	// A model that would answer "delete" proves rules win before the model is asked.
	mock := llm.NewMockCompleter()
	mock.RespondWith(func([]llm.Message) (string, error) { return "delete", nil })
	c := NewClassifier(staticSource{completer: mock}, nil)

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.utterance)
			assert.Equal(t, tt.wantIntent, got.Intent)
			assert.Equal(t, tt.wantRule, got.Rule)
		})
	}
	assert.Equal(t, 0, mock.CallCount())
}

func TestClassify_ModelFallback(t *testing.T) {
	tests := []struct {
		name       string
		source     ModelSource
		wantIntent model.Intent
		wantRule   Rule
	}{
		{name: "model label", source: staticSource{completer: llm.NewMockCompleter("Delete.")}, wantIntent: model.IntentDelete, wantRule: RuleModel},
		{name: "label outside set", source: staticSource{completer: llm.NewMockCompleter("banana")}, wantIntent: model.IntentQuery, wantRule: RuleDefault},
		{name: "model error", source: staticSource{completer: llm.NewMockCompleter().Queue(llm.MockReply{Err: errors.New("timeout")})}, wantIntent: model.IntentQuery, wantRule: RuleDefault},
		{name: "model unavailable", source: staticSource{err: common.ErrModelUnavailable}, wantIntent: model.IntentQuery, wantRule: RuleDefault},
		{name: "no model source", source: nil, wantIntent: model.IntentQuery, wantRule: RuleDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClassifier(tt.source, nil).Classify(context.Background(), "hello there")
			assert.Equal(t, tt.wantIntent, got.Intent)
			assert.Equal(t, tt.wantRule, got.Rule)
		})
	}
}

func TestClassify_SingleModelCall(t *testing.T) {
	mock := llm.NewMockCompleter("add")
	got := NewClassifier(staticSource{completer: mock}, nil).Classify(context.Background(), "coffee with jo")
	require.Equal(t, model.IntentAdd, got.Intent)
	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, "coffee with jo", mock.Calls()[0][1].Content)
}
