// Package extract turns add and delete utterances into concrete ledger
// operations. The model is tried first; regular expressions and keyword
// scoring recover when it is missing or answers badly.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
	"github.com/Veraticus/the-spice-must-talk/internal/llm"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// ModelSource hands out the loaded model.
type ModelSource interface {
	Get(ctx context.Context) (llm.Completer, error)
}

// Extractor builds ledger operations from utterances.
type Extractor struct {
	models ModelSource
	dates  *DateResolver
	logger *slog.Logger
}

// NewExtractor creates an extractor. models may be nil; now may be nil.
func NewExtractor(models ModelSource, now func() time.Time, logger *slog.Logger) *Extractor {
	return &Extractor{
		models: models,
		dates:  NewDateResolver(now),
		logger: common.OrDefault(logger),
	}
}

const addPrompt = `You extract expenses from a message sent to an expense tracker.
Respond with JSON only, no prose and no code.
One expense: {"amount": 12.5, "description": "lunch", "date": "YYYY-MM-DD"}
Several expenses: {"expenses": [{"amount": 3, "description": "coffee", "date": null}]}
Use null for the date when the message does not mention one. Today is %s.`

// addExample is the one-shot example pair shown before the real message.
var addExample = []llm.Message{
	llm.User("Add $12.50 for lunch with Sam yesterday"),
	llm.Assistant(`{"amount": 12.50, "description": "lunch with Sam", "date": "%s"}`),
}

// codeTokens mark a reply that drifted into code instead of data.
var codeTokens = []string{"def ", "import ", "print(", "console.log", "function ", "=>", "```python", "```js", "return "}

var (
	repeatedDots   = regexp.MustCompile(`(\d)\.\.+(\d)`)
	dollarInNumber = regexp.MustCompile(`(:\s*"?)\$\s*(\d)`)
	thousandsComma = regexp.MustCompile(`(\d),(\d{3})\b`)
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
)

type candidate struct {
	Amount      any         `json:"amount"`
	Description string      `json:"description"`
	Date        *string     `json:"date"`
	Expenses    []candidate `json:"expenses"`
}

// Add extracts the expenses described by utterance. Dates outside the
// active month from the model are ignored in favor of today; a date phrase
// in the utterance always wins. When nothing can be extracted the error is
// a common.UserError asking the user to rephrase.
func (e *Extractor) Add(ctx context.Context, utterance, activeMonth string, trace *model.Trace) ([]model.Expense, error) {
	if trace == nil {
		trace = model.NewTrace(nil)
	}

	expenses, err := e.addFromModel(ctx, utterance, activeMonth)
	switch {
	case err != nil:
		trace.Add("Model extraction unavailable: %v", err)
	case len(expenses) > 0:
		trace.Add("Model extracted %d expense(s)", len(expenses))
		return expenses, nil
	default:
		trace.Add("Model reply held no usable expense")
	}

	if expense, ok := e.addFromPatterns(utterance, e.dates.InMonth(activeMonth)); ok {
		trace.Add("Recovered expense with pattern matching: %s for %s", expense.Amount.StringFixed(2), expense.Description)
		return []model.Expense{expense}, nil
	}

	trace.Add("No amount and description found")
	return nil, common.NewUserError(
		`I couldn't find an amount and a description in that. Try something like "$12.50 for lunch yesterday".`,
		fmt.Errorf("nothing to add in %q: %w", utterance, common.ErrInvalidRecord),
	)
}

func (e *Extractor) addFromModel(ctx context.Context, utterance, activeMonth string) ([]model.Expense, error) {
	if e.models == nil {
		return nil, common.ErrModelUnavailable
	}
	completer, err := e.models.Get(ctx)
	if err != nil {
		return nil, err
	}

	today := e.dates.Today()
	messages := []llm.Message{
		llm.System(fmt.Sprintf(addPrompt, today.Format(time.DateOnly))),
		addExample[0],
		llm.Assistant(fmt.Sprintf(addExample[1].Content, today.AddDate(0, 0, -1).Format(time.DateOnly))),
		llm.User(utterance),
	}
	reply, err := completer.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("add extraction: %w", err)
	}

	candidates, err := parseCandidates(reply)
	if err != nil {
		e.logger.Debug("discarding add extraction reply", "error", err, "reply", reply)
		return nil, nil
	}

	utteranceDate, hasUtteranceDate := e.dates.InMonth(activeMonth).Resolve(utterance)
	var out []model.Expense
	for _, c := range candidates {
		amount, ok := coerceAmount(c.Amount)
		if !ok || amount.IsZero() {
			continue
		}
		desc := e.cleanDescription(c.Description)
		if desc == "" {
			continue
		}

		date := today
		switch {
		case hasUtteranceDate:
			date = utteranceDate
		case c.Date != nil:
			if parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(*c.Date)); err == nil && parsed.Format(model.MonthKeyLayout) == activeMonth {
				date = parsed
			}
		}

		expense := model.NewExpense(amount.Abs(), desc, date)
		if expense.Validate() == nil {
			out = append(out, expense)
		}
	}
	return out, nil
}

// parseCandidates pulls the first JSON object out of a model reply, repairs
// common numeric damage and accepts either one expense or an expenses list.
func parseCandidates(reply string) ([]candidate, error) {
	for _, token := range codeTokens {
		if strings.Contains(reply, token) {
			return nil, fmt.Errorf("reply contains code token %q", strings.TrimSpace(token))
		}
	}

	fragment, ok := firstObject(reply)
	if !ok {
		return nil, fmt.Errorf("no JSON object in reply")
	}
	fragment = repairJSON(fragment)

	dec := json.NewDecoder(bytes.NewReader([]byte(fragment)))
	dec.UseNumber()
	var root candidate
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse extraction: %w", err)
	}

	if len(root.Expenses) > 0 {
		return root.Expenses, nil
	}
	return []candidate{root}, nil
}

func repairJSON(fragment string) string {
	fragment = repeatedDots.ReplaceAllString(fragment, "$1.$2")
	fragment = dollarInNumber.ReplaceAllString(fragment, "$1$2")
	fragment = thousandsComma.ReplaceAllString(fragment, "$1$2")
	return trailingComma.ReplaceAllString(fragment, "$1")
}

// firstObject returns the first balanced {...} fragment, ignoring braces
// inside strings.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func coerceAmount(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		return parseAmount(v)
	case float64:
		return decimal.NewFromFloat(v), true
	default:
		return decimal.Zero, false
	}
}

func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.NewReplacer("$", "", ",", "", "usd", "", "USD", "").Replace(s))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	return d, err == nil
}

var (
	leadingFiller  = map[string]bool{"add": true, "added": true, "i": true, "spent": true, "paid": true, "log": true, "record": true, "for": true, "on": true, "at": true, "a": true, "an": true, "the": true, "some": true, "bought": true, "buy": true}
	trailingFiller = map[string]bool{"for": true, "on": true, "at": true, "in": true, "from": true, "and": true, "the": true, "of": true}
)

// cleanDescription drops date phrases, filler words at the edges and
// surrounding punctuation.
func (e *Extractor) cleanDescription(desc string) string {
	desc = e.dates.Strip(desc)
	words := strings.Fields(desc)
	var kept []string
	for _, w := range words {
		if lexicon.ContainsAnyPhrase(w, lexicon.DateWords) {
			continue
		}
		kept = append(kept, w)
	}
	for len(kept) > 0 && leadingFiller[strings.ToLower(kept[0])] {
		kept = kept[1:]
	}
	for len(kept) > 0 && trailingFiller[strings.ToLower(strings.Trim(kept[len(kept)-1], ".,!?"))] {
		kept = kept[:len(kept)-1]
	}
	return model.CleanDescription(strings.Trim(strings.Join(kept, " "), " .,!?;:\"'"))
}

const amountExpr = `\$?(` + lexicon.AmountPattern + `)`

var addPatterns = []struct {
	re          *regexp.Regexp
	amount, dsc int
}{
	{re: regexp.MustCompile(`(?i)` + amountExpr + `\s*(?:dollars|bucks)?\s+(?:for|on|at)\s+(.+)`), amount: 1, dsc: 2},
	{re: regexp.MustCompile(`(?i)\b(?:spent|paid|add|added|log|pay)\s+` + amountExpr + `\s*(?:dollars|bucks)?\s+(.+)`), amount: 1, dsc: 2},
	{re: regexp.MustCompile(`(?i)^(.+?)\s+(?:for|cost|costs|was|were)\s+` + amountExpr), amount: 2, dsc: 1},
	{re: regexp.MustCompile(`(?i)` + amountExpr + `\s+(.+)`), amount: 1, dsc: 2},
}

// addFromPatterns recovers a single expense with regular expressions.
func (e *Extractor) addFromPatterns(utterance string, dates *DateResolver) (model.Expense, bool) {
	date, ok := dates.Resolve(utterance)
	if !ok {
		date = dates.Today()
	}
	for _, p := range addPatterns {
		m := p.re.FindStringSubmatch(utterance)
		if m == nil {
			continue
		}
		amount, ok := parseAmount(m[p.amount])
		if !ok || amount.IsZero() {
			continue
		}
		desc := e.cleanDescription(m[p.dsc])
		if desc == "" {
			continue
		}
		return model.NewExpense(amount.Abs(), desc, date), true
	}
	return model.Expense{}, false
}
