package pipeline

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spice-must-talk/internal/fallback"
	"github.com/Veraticus/the-spice-must-talk/internal/fastpath"
	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
)

// Rejection reasons.
const (
	ReasonEmpty     = "empty"
	ReasonLeakage   = "leakage"
	ReasonEvidence  = "missing_evidence"
	ReasonMismatch  = "shape_mismatch"
	ReasonAccuracy  = "accuracy"
	ReasonToolError = "tool_error"
)

// Tolerance is the relative difference allowed between a model's number and
// the computed one.
var Tolerance = decimal.RequireFromString("0.05")

// Verdict is the outcome of validating one model answer.
type Verdict struct {
	Reason string
	Detail string
	OK     bool
}

func pass() Verdict { return Verdict{OK: true} }

func reject(reason, detail string) Verdict {
	return Verdict{Reason: reason, Detail: detail}
}

var (
	leakageMarkers = []string{
		"```", "def ", "import ", "print(", "console.log",
		"<|", "|>", "[inst]", "[/inst]", "<s>", "</s>", "<<sys>>",
		"as an ai", "as a language model", "you are a helpful", "you are an assistant",
		"you are an expense", "i cannot access", "the user", "function_call", "final_answer", "{result}",
	}
	rolePrefix = regexp.MustCompile(`(?im)^\s*(?:system|user|assistant|human)\s*:`)

	mismatchPhrases = []string{"largest expense", "biggest expense", "smallest expense", "most expensive", "cheapest"}

	percentNumber = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	ratioNumber   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*:\s*\d`)
	digit         = regexp.MustCompile(`\d`)
)

// Validate runs the leakage, relevance and accuracy checks on a model answer.
// expect is the computed value for percentage and ratio questions.
func Validate(question, answer string, expect fallback.Expectation, hasExpect bool) Verdict {
	if strings.TrimSpace(answer) == "" {
		return reject(ReasonEmpty, "")
	}
	if v := checkLeakage(answer); !v.OK {
		return v
	}
	if v := checkRelevance(question, answer); !v.OK {
		return v
	}
	if hasExpect {
		return checkAccuracy(answer, expect)
	}
	return pass()
}

// checkLeakage rejects answers where the model broke character: code,
// instructions echoed back or chat-template tokens.
func checkLeakage(answer string) Verdict {
	lower := strings.ToLower(answer)
	for _, marker := range leakageMarkers {
		if strings.Contains(lower, marker) {
			return reject(ReasonLeakage, strings.TrimSpace(marker))
		}
	}
	if rolePrefix.MatchString(answer) {
		return reject(ReasonLeakage, "role prefix")
	}
	return pass()
}

// checkRelevance requires the evidence a correct answer must carry and
// rejects answers shaped for a different question.
func checkRelevance(question, answer string) Verdict {
	kind := fallback.Classify(question)
	shape, _, _ := fastpath.Detect(question)

	switch {
	case kind == fallback.KindRatio:
		if !strings.Contains(answer, ":") {
			return reject(ReasonEvidence, "ratio separator")
		}
	case kind == fallback.KindPercentage, lexicon.ContainsAnyPhrase(question, lexicon.PercentagePhrases):
		if !strings.Contains(answer, "%") {
			return reject(ReasonEvidence, "percent sign")
		}
	case shape == fastpath.ShapeCount:
		if !digit.MatchString(answer) {
			return reject(ReasonEvidence, "count")
		}
	case needsMoney(question, shape):
		if !strings.Contains(answer, "$") {
			return reject(ReasonEvidence, "currency figure")
		}
	}

	if kind == fallback.KindRatio || kind == fallback.KindPercentage {
		if lexicon.ContainsAnyPhrase(answer, mismatchPhrases) {
			return reject(ReasonMismatch, "answered a different question")
		}
	}
	return pass()
}

func needsMoney(question string, shape fastpath.Shape) bool {
	if lexicon.ContainsAnyPhrase(question, []string{"how much", "spent", "spend", "spending", "cost"}) {
		return true
	}
	switch shape {
	case fastpath.ShapeLargest, fastpath.ShapeLowest, fastpath.ShapeTotal,
		fastpath.ShapeFiltered, fastpath.ShapeAverage, fastpath.ShapeBreakdown:
		return true
	}
	return false
}

// checkAccuracy accepts the answer when any number carrying the expected
// unit is within Tolerance of the computed value.
func checkAccuracy(answer string, expect fallback.Expectation) Verdict {
	pattern := percentNumber
	if expect.Unit == fallback.UnitRatio {
		pattern = ratioNumber
	}

	matches := pattern.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return reject(ReasonAccuracy, "no number with unit "+expect.Unit)
	}
	for _, m := range matches {
		got, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		if withinTolerance(got, expect.Value) {
			return pass()
		}
	}
	return reject(ReasonAccuracy, "expected "+expect.Value.Abs().StringFixed(2)+expect.Unit)
}

func withinTolerance(got, want decimal.Decimal) bool {
	want = want.Abs()
	diff := got.Abs().Sub(want).Abs()
	if want.IsZero() {
		return diff.IsZero()
	}
	return diff.LessThanOrEqual(want.Mul(Tolerance))
}

// cleanAnswer strips wrapping quotes and whitespace from a model answer.
func cleanAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	for len(answer) >= 2 {
		trimmed := strings.TrimSpace(strings.Trim(answer, "\"'“”‘’"))
		if trimmed == answer {
			break
		}
		answer = trimmed
	}
	return answer
}
