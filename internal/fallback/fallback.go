// Package fallback computes a correct answer for any spending question the
// pipeline can recognize, using only arithmetic over the ledger. It backs up
// the model when the model is missing, and is the reference the validation
// gate checks model numbers against.
package fallback

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spice-must-talk/internal/analytics"
	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/fastpath"
	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// Kind names the shape of a fallback answer.
type Kind string

// Answer kinds.
const (
	KindComparison Kind = "month_comparison"
	KindMonthlyAvg Kind = "cross_month_average"
	KindPercentage Kind = "category_percentage"
	KindRatio      Kind = "ratio"
	KindBasic      Kind = "basic"
	KindSummary    Kind = "summary"
)

// Units of an Expectation.
const (
	UnitPercent = "%"
	UnitRatio   = ":"
)

// Data is everything the computer may need for one question.
type Data struct {
	Previous *model.MonthlyDataset
	Current  model.MonthlyDataset
	// Months holds every loaded month, oldest first. It is only filled for
	// all-time and cross-month questions.
	Months  []model.MonthlyDataset
	AllTime bool
}

// Answer is a computed response.
type Answer struct {
	Kind       Kind
	Text       string
	Recognized bool
}

// Expectation is the independently computed number a model answer must
// match.
type Expectation struct {
	Kind  Kind
	Unit  string
	Value decimal.Decimal
}

// Computer answers questions deterministically.
type Computer struct {
	logger *slog.Logger
}

// NewComputer creates a fallback computer.
func NewComputer(logger *slog.Logger) *Computer {
	return &Computer{logger: common.OrDefault(logger)}
}

// Answer computes the response for question. It always returns text; when
// the shape is not recognized the text is a monthly summary and Recognized
// is false.
func (c *Computer) Answer(question string, data Data) Answer {
	kind := Classify(question)
	c.logger.Debug("fallback computing", "kind", kind, "month", data.Current.Month)

	switch kind {
	case KindPercentage:
		if text, ok := percentageText(question, data); ok {
			return Answer{Kind: kind, Text: text, Recognized: true}
		}
	case KindRatio:
		if text, ok := ratioText(question, data); ok {
			return Answer{Kind: kind, Text: text, Recognized: true}
		}
	case KindComparison:
		return Answer{Kind: kind, Text: comparisonText(question, data), Recognized: true}
	case KindMonthlyAvg:
		return Answer{Kind: kind, Text: monthlyAverageText(data), Recognized: true}
	}

	records, period := scope(data)
	if basic, ok := fastpath.Compute(question, records, period); ok {
		return Answer{Kind: KindBasic, Text: basic.Text, Recognized: true}
	}

	return Answer{Kind: KindSummary, Text: Summary(data.Current), Recognized: false}
}

// Expect returns the value a correct answer to question must contain, for
// the question shapes whose answers are a single percentage or ratio.
func (c *Computer) Expect(question string, data Data) (Expectation, bool) {
	switch Classify(question) {
	case KindPercentage:
		term := percentageTerm(question)
		if term == "" {
			return Expectation{}, false
		}
		month, _ := singleMonth(question, data)
		part := analytics.Total(analytics.FilterByCategory(month.Expenses, term))
		pct, ok := analytics.PercentOf(part, month.Total)
		return Expectation{Kind: KindPercentage, Unit: UnitPercent, Value: pct}, ok
	case KindRatio:
		a, b := ratioTerms(question)
		if a == "" {
			return Expectation{}, false
		}
		month, _ := singleMonth(question, data)
		ratio, ok := analytics.Ratio(
			analytics.Total(analytics.FilterByCategory(month.Expenses, a)),
			analytics.Total(analytics.FilterByCategory(month.Expenses, b)),
		)
		return Expectation{Kind: KindRatio, Unit: UnitRatio, Value: ratio}, ok
	case KindComparison:
		if data.Previous == nil || !lexicon.ContainsAnyPhrase(question, lexicon.PercentagePhrases) {
			return Expectation{}, false
		}
		cur, prev := comparisonTotals(question, data)
		change, ok := analytics.PercentChange(cur, prev)
		return Expectation{Kind: KindComparison, Unit: UnitPercent, Value: change.Abs()}, ok
	}
	return Expectation{}, false
}

// Classify picks the answer kind. Ratio and percentage need their terms to
// parse; otherwise the question falls through to the multi-month and basic
// shapes.
func Classify(question string) Kind {
	switch {
	case lexicon.ContainsAnyPhrase(question, lexicon.RatioPhrases) && ratioTermsOK(question):
		return KindRatio
	case lexicon.ContainsAnyPhrase(question, lexicon.PercentagePhrases) && percentageTerm(question) != "":
		return KindPercentage
	case isMonthlyAverage(question):
		return KindMonthlyAvg
	case isComparison(question):
		return KindComparison
	}
	if _, _, ok := fastpath.Detect(question); ok {
		return KindBasic
	}
	return KindSummary
}

var (
	comparisonWords = []string{"last month", "previous month", "prior month", "month over month", "month-over-month", "compare", "compared", "comparison", "vs last", "versus last", "change from"}
	monthlyAvgWords = []string{"per month", "monthly average", "average month", "each month", "every month", "a month", "across months"}
)

var previousMonthWords = []string{"last month", "previous month", "prior month"}

// singleMonth picks the month a percentage or ratio question is about: the
// previous month when the question names it, otherwise the current one. The
// label reads "this month" or "in October 2025".
func singleMonth(question string, data Data) (model.MonthlyDataset, string) {
	if !lexicon.ContainsAnyPhrase(question, previousMonthWords) {
		return data.Current, "this month"
	}
	if data.Previous != nil {
		return *data.Previous, "in " + analytics.MonthLabel(data.Previous.Month)
	}
	key := analytics.PreviousMonthKey(data.Current.Month)
	return model.NewMonthlyDataset(key, nil), "in " + analytics.MonthLabel(key)
}

func isComparison(question string) bool {
	return lexicon.ContainsAnyPhrase(question, comparisonWords)
}

func isMonthlyAverage(question string) bool {
	return lexicon.ContainsAnyPhrase(question, monthlyAvgWords) &&
		(lexicon.ContainsWord(question, "average") || lexicon.ContainsAnyPhrase(question, []string{"typically", "usually", "normally"}))
}

func scope(data Data) ([]model.Expense, fastpath.Period) {
	if data.AllTime && len(data.Months) > 0 {
		var all []model.Expense
		for _, m := range data.Months {
			all = append(all, m.Expenses...)
		}
		return all, fastpath.AllTime(len(data.Months))
	}
	return data.Current.Expenses, fastpath.ThisMonth
}

// comparisonTotals returns the current and previous totals, narrowed to the
// question's category when it names one.
func comparisonTotals(question string, data Data) (decimal.Decimal, decimal.Decimal) {
	cur, prev := data.Current.Total, decimal.Zero
	if data.Previous != nil {
		prev = data.Previous.Total
	}
	if term := fastpath.ParseTerm(question); term != "" {
		cur = analytics.Total(analytics.FilterByCategory(data.Current.Expenses, term))
		if data.Previous != nil {
			prev = analytics.Total(analytics.FilterByCategory(data.Previous.Expenses, term))
		}
	}
	return cur, prev
}

func comparisonText(question string, data Data) string {
	curLabel := analytics.MonthLabel(data.Current.Month)
	if data.Previous == nil || len(data.Previous.Expenses) == 0 {
		prevLabel := analytics.MonthLabel(analytics.PreviousMonthKey(data.Current.Month))
		return fmt.Sprintf("You spent %s in %s. There are no expenses recorded for %s to compare against.",
			analytics.FormatMoney(data.Current.Total), curLabel, prevLabel)
	}

	cur, prev := comparisonTotals(question, data)
	subject := "You spent"
	if term := fastpath.ParseTerm(question); term != "" {
		subject = fmt.Sprintf("Your %s spending was", term)
	}
	prevLabel := analytics.MonthLabel(data.Previous.Month)

	change, ok := analytics.PercentChange(cur, prev)
	switch {
	case !ok:
		return fmt.Sprintf("%s %s in %s and nothing in %s.", subject, analytics.FormatMoney(cur), curLabel, prevLabel)
	case change.IsZero():
		return fmt.Sprintf("%s %s in %s, the same as in %s.", subject, analytics.FormatMoney(cur), curLabel, prevLabel)
	}

	direction := "increase"
	if change.IsNegative() {
		direction = "decrease"
	}
	return fmt.Sprintf("%s %s in %s compared to %s in %s, a %s %s.",
		subject, analytics.FormatMoney(cur), curLabel, analytics.FormatMoney(prev), prevLabel,
		analytics.FormatPercent(change), direction)
}

func monthlyAverageText(data Data) string {
	months := data.Months
	if len(months) == 0 {
		months = []model.MonthlyDataset{data.Current}
	}
	total := decimal.Zero
	for _, m := range months {
		total = total.Add(m.Total)
	}
	avg := total.Div(decimal.NewFromInt(int64(len(months))))
	if len(months) == 1 {
		return fmt.Sprintf("You only have one month of data (%s): %s.", analytics.MonthLabel(months[0].Month), analytics.FormatMoney(avg))
	}
	return fmt.Sprintf("Your average monthly spending is %s across %d months (%s total).",
		analytics.FormatMoney(avg), len(months), analytics.FormatMoney(total))
}

func percentageText(question string, data Data) (string, bool) {
	term := percentageTerm(question)
	month, label := singleMonth(question, data)
	part := analytics.Total(analytics.FilterByCategory(month.Expenses, term))
	pct, ok := analytics.PercentOf(part, month.Total)
	if !ok {
		return fmt.Sprintf("You don't have any expenses recorded %s yet.", label), true
	}
	return fmt.Sprintf("Your %s expenses account for %s of your spending %s (%s of %s).",
		term, analytics.FormatPercent(pct), label, analytics.FormatMoney(part), analytics.FormatMoney(month.Total)), true
}

func ratioText(question string, data Data) (string, bool) {
	a, b := ratioTerms(question)
	month, label := singleMonth(question, data)
	totalA := analytics.Total(analytics.FilterByCategory(month.Expenses, a))
	totalB := analytics.Total(analytics.FilterByCategory(month.Expenses, b))
	ratio, ok := analytics.Ratio(totalA, totalB)
	if !ok {
		return fmt.Sprintf("You haven't spent anything on %s %s, so there is no ratio to compute (%s on %s).",
			b, label, analytics.FormatMoney(totalA), a), true
	}
	return fmt.Sprintf("Your %s to %s spending ratio %s is %s:1 (%s vs %s).",
		a, b, label, ratio.StringFixed(2), analytics.FormatMoney(totalA), analytics.FormatMoney(totalB)), true
}

// Summary describes a month in one paragraph.
func Summary(month model.MonthlyDataset) string {
	label := analytics.MonthLabel(month.Month)
	if len(month.Expenses) == 0 {
		return fmt.Sprintf("You don't have any expenses recorded for %s yet.", label)
	}
	largest, _ := analytics.Largest(month.Expenses)
	noun := "expenses"
	if len(month.Expenses) == 1 {
		noun = "expense"
	}
	return fmt.Sprintf("In %s you've spent %s across %d %s. Your largest was %s for %s.",
		label, analytics.FormatMoney(month.Total), len(month.Expenses), noun,
		analytics.FormatMoney(largest.Amount), largest.Description)
}

var (
	percentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:on|for|(?:is|are|was|were)(?:\s+(?:on|for))?|goes to|go to|went to|towards?)\s+(?:the\s+|my\s+)?([a-z][a-z '&-]*)`),
		regexp.MustCompile(`\bof\s+(?:the\s+|my\s+)?([a-z][a-z '&-]*)`),
		regexp.MustCompile(`^(?:what\s+)?(?:percent(?:age)?|share|portion)\s+(?:of\s+)?([a-z][a-z '&-]*)`),
	}
	ratioPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:ratio\s+(?:of|between)\s+)(?:my\s+)?([a-z][a-z'&-]*)\s+(?:to|and|vs\.?|versus)\s+(?:my\s+)?([a-z][a-z'&-]*)`),
		regexp.MustCompile(`\b([a-z][a-z'&-]*)\s+(?:to|vs\.?|versus)\s+(?:my\s+)?([a-z][a-z'&-]*)\s+ratio\b`),
		regexp.MustCompile(`\b(?:on\s+|is\s+)?(?:my\s+)?([a-z][a-z'&-]*)\s+(?:spending\s+)?(?:than|compared to)\s+(?:on\s+)?(?:my\s+)?([a-z][a-z'&-]*)`),
	}
	genericTerms = map[string]bool{
		"spending": true, "expenses": true, "expense": true, "money": true, "total": true,
		"budget": true, "spend": true, "spent": true, "it": true, "that": true, "this": true,
		"all": true, "everything": true, "income": true, "more": true, "less": true, "much": true,
		"times": true, "the": true, "my": true, "what": true,
	}
	termEnd = map[string]bool{
		"this": true, "last": true, "in": true, "of": true, "out": true, "compared": true,
		"vs": true, "versus": true, "so": true, "during": true, "month": true, "expenses": true,
		"expense": true, "spending": true, "purchases": true, "account": true, "make": true,
		"take": true, "represent": true, "is": true, "are": true, "was": true, "were": true,
		"my": true, "the": true, "a": true, "did": true, "do": true, "does": true,
	}
)

// percentageTerm finds the category a percentage question is about.
func percentageTerm(question string) string {
	lower := strings.ToLower(question)
	for _, pattern := range percentPatterns {
		for _, m := range pattern.FindAllStringSubmatch(lower, -1) {
			if term := cleanTerm(m[1]); term != "" {
				return term
			}
		}
	}
	return ""
}

func ratioTermsOK(question string) bool {
	a, _ := ratioTerms(question)
	return a != ""
}

// ratioTerms finds the two categories a ratio question compares.
func ratioTerms(question string) (string, string) {
	lower := strings.ToLower(question)
	for _, pattern := range ratioPatterns {
		m := pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		a, b := cleanTerm(m[1]), cleanTerm(m[2])
		if a != "" && b != "" && a != b {
			return a, b
		}
	}
	return "", ""
}

func cleanTerm(raw string) string {
	var words []string
	for _, w := range strings.Fields(raw) {
		w = strings.Trim(w, "'-")
		if termEnd[w] || lexicon.IsDateWord(w) {
			break
		}
		words = append(words, w)
	}
	term := strings.Join(words, " ")
	if genericTerms[term] {
		return ""
	}
	return term
}
