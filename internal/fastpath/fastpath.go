// Package fastpath answers common spending questions by direct computation
// over one month (or all months) of expenses, without the model.
package fastpath

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/the-spice-must-talk/internal/analytics"
	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// Shape names the kind of question answered.
type Shape string

// Answer shapes in rule order.
const (
	ShapeLargest   Shape = "largest"
	ShapeLowest    Shape = "lowest"
	ShapeBreakdown Shape = "breakdown"
	ShapeCount     Shape = "count"
	ShapeAverage   Shape = "average"
	ShapeFiltered  Shape = "filtered_total"
	ShapeTotal     Shape = "total"
	ShapeListing   Shape = "listing"
)

const maxListed = 15

// Answer is a computed response.
type Answer struct {
	Shape Shape
	Term  string
	Text  string
}

// Period describes the records handed to the handler, for phrasing.
type Period struct {
	// Label reads naturally after a verb: "this month", "in October 2025".
	Label string
	// Months is the number of months merged into the records when answering
	// over all time; zero for a single month.
	Months int
}

// ThisMonth is the period for the active month.
var ThisMonth = Period{Label: "this month"}

// AllTime returns the period for records merged from n months.
func AllTime(n int) Period {
	return Period{Label: "overall", Months: n}
}

type rule struct {
	match func(question, term string) bool
	shape Shape
}

var (
	largestWords   = []string{"largest", "biggest", "highest", "most expensive", "priciest", "max", "maximum", "top expense"}
	lowestWords    = []string{"smallest", "lowest", "cheapest", "least expensive", "min", "minimum"}
	breakdownWords = []string{"breakdown", "break down", "by category", "per category", "each category", "categories", "where did my money go", "where does my money go"}
	countWords     = []string{"how many", "count", "number of"}
	averageWords   = []string{"average", "mean", "typical"}
	totalWords     = []string{"total", "how much", "sum", "spent", "spend", "spending", "overall"}
	listingWords   = []string{"list", "show", "what did i buy", "transactions", "entries", "expenses", "purchases", "everything"}
)

// rules are tried in order; the first match answers.
var rules = []rule{
	{shape: ShapeLargest, match: func(q, _ string) bool { return lexicon.ContainsAnyPhrase(q, largestWords) }},
	{shape: ShapeLowest, match: func(q, _ string) bool { return lexicon.ContainsAnyPhrase(q, lowestWords) }},
	{shape: ShapeBreakdown, match: func(q, _ string) bool { return lexicon.ContainsAnyPhrase(q, breakdownWords) }},
	{shape: ShapeCount, match: func(q, _ string) bool { return lexicon.ContainsAnyPhrase(q, countWords) }},
	{shape: ShapeAverage, match: func(q, _ string) bool { return lexicon.ContainsAnyPhrase(q, averageWords) }},
	{shape: ShapeFiltered, match: func(q, term string) bool { return term != "" && lexicon.ContainsAnyPhrase(q, totalWords) }},
	{shape: ShapeTotal, match: func(q, _ string) bool { return lexicon.ContainsAnyPhrase(q, totalWords) }},
	{shape: ShapeListing, match: func(q, _ string) bool { return lexicon.ContainsAnyPhrase(q, listingWords) }},
}

// Handler answers simple questions directly.
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a fast-path handler.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: common.OrDefault(logger)}
}

// Declines reports whether the question is outside the fast path: it spans
// months, asks for analysis or advice, or asks for a percentage or ratio.
func Declines(question string) bool {
	return lexicon.ContainsAnyPhrase(question, lexicon.MultiMonthPhrases) ||
		lexicon.ContainsAnyPhrase(question, lexicon.AnalyticalPhrases) ||
		lexicon.ContainsAnyPhrase(question, lexicon.PercentagePhrases) ||
		lexicon.ContainsAnyPhrase(question, lexicon.RatioPhrases)
}

// TryAnswer answers the question when it is in scope and recognized.
func (h *Handler) TryAnswer(question string, records []model.Expense, period Period) (Answer, bool) {
	if Declines(question) {
		h.logger.Debug("fast path declined", "question", question)
		return Answer{}, false
	}
	answer, ok := Compute(question, records, period)
	if ok {
		h.logger.Debug("fast path answered", "shape", answer.Shape, "term", answer.Term)
	}
	return answer, ok
}

// Detect returns the shape and filter term of a question without the fast
// path's exclusions.
func Detect(question string) (Shape, string, bool) {
	term := ParseTerm(question)
	for _, r := range rules {
		if r.match(question, term) {
			return r.shape, term, true
		}
	}
	return "", term, false
}

// Compute answers a recognized question over records. It applies no scope
// exclusions, so the fallback computer can reuse every shape.
func Compute(question string, records []model.Expense, period Period) (Answer, bool) {
	shape, term, ok := Detect(question)
	if !ok {
		return Answer{}, false
	}

	answer := Answer{Shape: shape, Term: term}
	if len(records) == 0 {
		answer.Text = fmt.Sprintf("You don't have any expenses recorded %s yet.", period.Label)
		return answer, true
	}

	scoped := records
	if term != "" && shape != ShapeLargest && shape != ShapeLowest && shape != ShapeBreakdown {
		scoped = analytics.FilterByTerm(records, term)
		if len(scoped) == 0 {
			answer.Text = fmt.Sprintf("You haven't spent anything on %s %s.", term, period.Label)
			return answer, true
		}
	}

	switch shape {
	case ShapeLargest:
		e, _ := analytics.Largest(records)
		answer.Text = fmt.Sprintf("Your largest expense %s was %s for %s on %s.", period.Label, analytics.FormatMoney(e.Amount), e.Description, analytics.FormatDate(e.Date))
	case ShapeLowest:
		e, _ := analytics.Smallest(records)
		answer.Text = fmt.Sprintf("Your smallest expense %s was %s for %s on %s.", period.Label, analytics.FormatMoney(e.Amount), e.Description, analytics.FormatDate(e.Date))
	case ShapeBreakdown:
		answer.Text = breakdownText(records, period)
	case ShapeCount:
		answer.Text = countText(scoped, term, period)
	case ShapeAverage:
		avg, _ := analytics.Average(scoped)
		subject := "Your average expense"
		if term != "" {
			subject = fmt.Sprintf("Your average %s expense", term)
		}
		answer.Text = fmt.Sprintf("%s %s is %s across %s.", subject, period.Label, analytics.FormatMoney(avg), plural(len(scoped), "expense"))
	case ShapeFiltered:
		answer.Text = fmt.Sprintf("You've spent %s on %s %s across %s.", analytics.FormatMoney(analytics.Total(scoped)), term, period.Label, plural(len(scoped), "expense"))
	case ShapeTotal:
		answer.Text = fmt.Sprintf("You've spent %s %s across %s.", analytics.FormatMoney(analytics.Total(records)), period.Label, plural(len(records), "expense"))
	case ShapeListing:
		answer.Text = listingText(scoped, period)
	}

	if period.Months > 1 {
		answer.Text = fmt.Sprintf("%s (all-time across %d months)", answer.Text, period.Months)
	}
	return answer, true
}

func breakdownText(records []model.Expense, period Period) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's your spending %s by category:", period.Label)
	for _, row := range analytics.Breakdown(records) {
		fmt.Fprintf(&b, "\n- %s: %s (%s)", row.Category, analytics.FormatMoney(row.Total), plural(row.Count, "expense"))
	}
	fmt.Fprintf(&b, "\nTotal: %s", analytics.FormatMoney(analytics.Total(records)))
	return b.String()
}

func countText(records []model.Expense, term string, period Period) string {
	if term != "" {
		return fmt.Sprintf("You have %s for %s %s, totaling %s.", plural(len(records), "expense"), term, period.Label, analytics.FormatMoney(analytics.Total(records)))
	}
	return fmt.Sprintf("You have %s recorded %s, totaling %s.", plural(len(records), "expense"), period.Label, analytics.FormatMoney(analytics.Total(records)))
}

func listingText(records []model.Expense, period Period) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your expenses %s:", period.Label)
	for i, e := range records {
		if i == maxListed {
			fmt.Fprintf(&b, "\n...and %d more", len(records)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n- %s %s: %s", analytics.FormatDate(e.Date), e.Description, analytics.FormatMoney(e.Amount))
	}
	fmt.Fprintf(&b, "\nTotal: %s", analytics.FormatMoney(analytics.Total(records)))
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

var (
	termPattern = regexp.MustCompile(`\b(?:on|for|at)\s+(?:the\s+|my\s+|a\s+|an\s+)?([a-z][a-z0-9 '&-]*)`)
	termStops   = map[string]bool{
		"this": true, "last": true, "in": true, "during": true, "so": true, "since": true,
		"over": true, "per": true, "month": true, "year": true, "week": true, "today": true,
		"yesterday": true, "overall": true, "total": true, "altogether": true, "until": true,
		"before": true, "after": true, "compared": true, "vs": true, "versus": true, "and": true,
		"the": true, "a": true, "an": true, "my": true, "to": true, "than": true,
	}
	termTrailing = map[string]bool{"expenses": true, "expense": true, "purchases": true, "purchase": true, "stuff": true, "things": true, "items": true}
	termRejects  = map[string]bool{
		"average": true, "total": true, "everything": true, "all": true, "me": true, "it": true,
		"things": true, "stuff": true, "expenses": true, "expense": true, "spending": true, "money": true,
		"category": true, "categories": true, "each": true, "what": true, "which": true,
	}
)

func init() {
	for _, phrase := range lexicon.AllTimePhrases {
		for _, w := range strings.Fields(phrase) {
			termStops[w] = true
		}
	}
}

// ParseTerm extracts the filter term from "on X", "for X" or "at X", minus
// articles, trailing nouns like "expenses" and time phrases, including the
// all-time ones like "ever". Month names and
// other date words are not terms.
func ParseTerm(question string) string {
	lower := strings.ToLower(question)
	for _, m := range termPattern.FindAllStringSubmatch(lower, -1) {
		var words []string
		for _, w := range strings.Fields(m[1]) {
			w = strings.Trim(w, "'-")
			if termStops[w] || lexicon.IsDateWord(w) {
				break
			}
			words = append(words, w)
		}
		for len(words) > 0 && termTrailing[words[len(words)-1]] {
			words = words[:len(words)-1]
		}
		term := strings.Join(words, " ")
		if term == "" || termRejects[term] {
			continue
		}
		return term
	}
	return ""
}
