package extract

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spice-must-talk/internal/analytics"
	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
	"github.com/Veraticus/the-spice-must-talk/internal/llm"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

const deletePrompt = `You pick which expense a user wants to delete from a numbered list.
Match on the description first, then the date, then the amount.
Reply with the number of the expense only. Reply -1 if nothing matches.`

// deleteFiller words never identify an expense.
var deleteFiller = map[string]bool{
	"my": true, "the": true, "a": true, "an": true, "that": true, "this": true, "one": true,
	"expense": true, "expenses": true, "entry": true, "entries": true, "purchase": true,
	"purchases": true, "item": true, "of": true, "for": true, "on": true, "at": true,
	"from": true, "please": true, "i": true, "just": true, "charge": true, "charges": true,
	"transaction": true, "transactions": true, "record": true, "last": true, "latest": true,
	"most": true, "recent": true, "month": true, "in": true, "to": true, "with": true,
}

var numberToken = regexp.MustCompile(`\$?(` + lexicon.AmountPattern + `)`)

// Delete resolves which records the utterance removes and returns their
// indices in ascending order. "all"/"every" deletes every record matching
// the named category or its synonyms; otherwise exactly one record is
// chosen. Nothing matching yields an error wrapping common.ErrNotFound with
// a user-facing message.
func (e *Extractor) Delete(ctx context.Context, utterance string, records []model.Expense, trace *model.Trace) ([]int, error) {
	if trace == nil {
		trace = model.NewTrace(nil)
	}
	if len(records) == 0 {
		return nil, common.NewUserError("There are no expenses this month to delete.", common.ErrNoExpenses)
	}

	if lexicon.ContainsAnyWord(utterance, lexicon.BatchKeywords) {
		return e.deleteBatch(utterance, records, trace)
	}

	index, ok := e.deleteFromModel(ctx, utterance, records, trace)
	if !ok {
		index, ok = e.fuzzyMatch(utterance, records)
		if ok {
			trace.Add("Matched expense %d by keyword overlap", index)
		}
	}
	if !ok {
		trace.Add("No expense matched")
		return nil, common.NewUserError(
			"I couldn't find that expense. Try naming its description, amount or date, like \"delete the $4.50 coffee\".",
			fmt.Errorf("delete %q: %w", utterance, common.ErrNotFound),
		)
	}
	return []int{index}, nil
}

func (e *Extractor) deleteBatch(utterance string, records []model.Expense, trace *model.Trace) ([]int, error) {
	term := strings.Join(e.keywords(utterance), " ")
	if term == "" {
		trace.Add("Batch delete named no category")
		return nil, common.NewUserError(
			"Tell me which expenses to delete, like \"delete all coffee\".",
			fmt.Errorf("batch delete without a category: %w", common.ErrNotFound),
		)
	}

	terms := lexicon.Expand(term)
	var indices []int
	for i, r := range records {
		if lexicon.MatchesAny(r.Description, terms) {
			indices = append(indices, i)
		}
	}
	trace.Add("Batch delete of %q matched %d expense(s)", term, len(indices))
	if len(indices) == 0 {
		return nil, common.NewUserError(
			fmt.Sprintf("I couldn't find any %s expenses this month to delete.", term),
			fmt.Errorf("batch delete %q: %w", term, common.ErrNotFound),
		)
	}
	return indices, nil
}

func (e *Extractor) deleteFromModel(ctx context.Context, utterance string, records []model.Expense, trace *model.Trace) (int, bool) {
	if e.models == nil {
		return -1, false
	}
	completer, err := e.models.Get(ctx)
	if err != nil {
		trace.Add("Model unavailable for delete matching")
		return -1, false
	}

	reply, err := completer.Complete(ctx, []llm.Message{
		llm.System(deletePrompt),
		llm.User(fmt.Sprintf("Expenses:\n%s\n\nUser: %s", EnumerateRecords(records), utterance)),
	})
	if err != nil {
		e.logger.Warn("delete matching failed", "error", err)
		return -1, false
	}

	index, ok := parseIndex(reply, len(records))
	if !ok {
		trace.Add("Model returned no valid index (%q)", strings.TrimSpace(reply))
		return -1, false
	}
	trace.Add("Model chose expense %d", index)
	return index, true
}

// EnumerateRecords renders records as "0. $5.00 - coffee (2025-11-02)" lines.
func EnumerateRecords(records []model.Expense) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = fmt.Sprintf("%d. %s - %s (%s)", i, analytics.FormatMoney(r.Amount), r.Description, r.Date.Format("2006-01-02"))
	}
	return strings.Join(lines, "\n")
}

var indexToken = regexp.MustCompile(`-?\d+`)

func parseIndex(reply string, n int) (int, bool) {
	m := indexToken.FindString(reply)
	if m == "" {
		return -1, false
	}
	i, err := strconv.Atoi(m)
	if err != nil || i < 0 || i >= n {
		return -1, false
	}
	return i, true
}

// fuzzyMatch scores each record: 3 per description keyword, 2 for an amount
// mentioned in the utterance, 1 for a matching date. The highest positive
// score wins; ties go to the earliest record. With no score at all, "last"
// or "latest" picks the final record.
func (e *Extractor) fuzzyMatch(utterance string, records []model.Expense) (int, bool) {
	words := e.keywords(utterance)
	amounts := mentionedAmounts(e.dates.Strip(utterance))
	date, hasDate := e.dates.Resolve(utterance)

	best, bestScore := -1, 0
	for i, r := range records {
		score := 0
		desc := strings.ToLower(r.Description)
		for _, w := range words {
			if strings.Contains(desc, w) {
				score += 3
			}
		}
		for _, a := range amounts {
			if a.Equal(r.Amount) {
				score += 2
				break
			}
		}
		if hasDate && r.Date.Equal(date) {
			score++
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return best, true
	}

	if lexicon.ContainsAnyPhrase(utterance, []string{"last", "latest", "most recent"}) {
		return len(records) - 1, true
	}
	return -1, false
}

// keywords are the utterance words that could name an expense.
func (e *Extractor) keywords(utterance string) []string {
	var out []string
	for _, tok := range lexicon.Tokens(e.dates.Strip(utterance)) {
		switch {
		case deleteFiller[tok], lexicon.IsDateWord(tok), numberToken.MatchString(tok):
		case slices.Contains(lexicon.DeleteKeywords, tok), slices.Contains(lexicon.BatchKeywords, tok):
		case len(tok) < 2:
		default:
			out = append(out, tok)
		}
	}
	return out
}

func mentionedAmounts(utterance string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range numberToken.FindAllStringSubmatch(utterance, -1) {
		if d, ok := parseAmount(m[1]); ok {
			out = append(out, d)
		}
	}
	return out
}
