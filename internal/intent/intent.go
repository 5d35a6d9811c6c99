// Package intent decides whether an utterance adds, deletes, edits or asks
// about expenses. Cheap keyword rules run first in a fixed order; the model
// is asked only when no rule fires.
package intent

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
	"github.com/Veraticus/the-spice-must-talk/internal/llm"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// Rule names the rule that produced a decision.
type Rule string

// Rules in evaluation order.
const (
	RuleAmountPrefix   Rule = "amount_prefix"
	RuleQuestionPhrase Rule = "question_phrase"
	RuleAddKeyword     Rule = "add_keyword"
	RuleDeleteKeyword  Rule = "delete_keyword"
	RuleEditKeyword    Rule = "edit_keyword"
	RuleQuestionMark   Rule = "question_form"
	RuleModel          Rule = "model"
	RuleDefault        Rule = "default_query"
)

// Decision is the classified intent and the rule that decided it.
type Decision struct {
	Intent model.Intent
	Rule   Rule
}

// ModelSource hands out the loaded model.
type ModelSource interface {
	Get(ctx context.Context) (llm.Completer, error)
}

var amountPrefix = regexp.MustCompile(`^\s*\$?(?:` + lexicon.AmountPattern + `|\d+,\d{1,2})(?:\s|$)`)

type rule struct {
	match  func(text string) bool
	name   Rule
	intent model.Intent
}

// rules run top to bottom. Question phrases precede the add keywords so
// "spending on gas?" is never read as an add; an amount-led utterance with
// no question form is an add regardless of keywords.
var rules = []rule{
	{name: RuleAmountPrefix, intent: model.IntentAdd, match: func(text string) bool {
		return amountPrefix.MatchString(text) && !lexicon.IsQuestion(text) && !lexicon.ContainsAnyPhrase(text, lexicon.QuestionPhrases)
	}},
	{name: RuleQuestionPhrase, intent: model.IntentQuery, match: func(text string) bool {
		return lexicon.ContainsAnyPhrase(text, lexicon.QuestionPhrases)
	}},
	{name: RuleAddKeyword, intent: model.IntentAdd, match: func(text string) bool {
		return lexicon.ContainsAnyWord(text, lexicon.AddKeywords)
	}},
	{name: RuleDeleteKeyword, intent: model.IntentDelete, match: func(text string) bool {
		return lexicon.ContainsAnyWord(text, lexicon.DeleteKeywords)
	}},
	{name: RuleEditKeyword, intent: model.IntentEdit, match: func(text string) bool {
		return lexicon.ContainsAnyWord(text, lexicon.EditKeywords)
	}},
	{name: RuleQuestionMark, intent: model.IntentQuery, match: lexicon.IsQuestion},
}

const classifyPrompt = `You sort messages sent to a personal expense tracker.
Reply with exactly one word from this list: add, delete, edit, query.
add: the user records money they spent.
delete: the user removes a recorded expense.
edit: the user changes a recorded expense.
query: the user asks about their spending, or anything else.`

// Classifier assigns an intent to each utterance.
type Classifier struct {
	models ModelSource
	logger *slog.Logger
}

// NewClassifier creates a classifier. models may be nil, in which case
// utterances no rule recognizes are treated as queries.
func NewClassifier(models ModelSource, logger *slog.Logger) *Classifier {
	return &Classifier{models: models, logger: common.OrDefault(logger)}
}

// Classify returns the intent of utterance. It never fails: when the model
// is unavailable or answers outside the label set the intent is query.
func (c *Classifier) Classify(ctx context.Context, utterance string) Decision {
	text := strings.TrimSpace(utterance)
	for _, r := range rules {
		if r.match(text) {
			c.logger.Debug("intent rule matched", "rule", r.name, "intent", r.intent)
			return Decision{Intent: r.intent, Rule: r.name}
		}
	}

	if intent, ok := c.askModel(ctx, text); ok {
		return Decision{Intent: intent, Rule: RuleModel}
	}
	return Decision{Intent: model.IntentQuery, Rule: RuleDefault}
}

func (c *Classifier) askModel(ctx context.Context, text string) (model.Intent, bool) {
	if c.models == nil {
		return "", false
	}
	completer, err := c.models.Get(ctx)
	if err != nil {
		c.logger.Debug("intent model unavailable", "error", err)
		return "", false
	}

	reply, err := completer.Complete(ctx, []llm.Message{llm.System(classifyPrompt), llm.User(text)})
	if err != nil {
		c.logger.Warn("intent classification failed", "error", err)
		return "", false
	}

	intent, ok := parseLabel(reply)
	if !ok {
		c.logger.Debug("intent model answered outside label set", "reply", reply)
	}
	return intent, ok
}

// parseLabel reads the first word of a model reply as an intent label.
func parseLabel(reply string) (model.Intent, bool) {
	tokens := lexicon.Tokens(reply)
	if len(tokens) == 0 {
		return "", false
	}
	return model.ParseIntent(tokens[0])
}
