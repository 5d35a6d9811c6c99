// Package pipeline answers spending questions. A question is scoped to the
// months it needs, then tried against an ordered list of strategies: the
// fast path, the language model and finally the deterministic computer.
// Model answers are only trusted after the validation gate checks their
// shape, their numbers and that the model stayed in character.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/fallback"
	"github.com/Veraticus/the-spice-must-talk/internal/fastpath"
	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
	"github.com/Veraticus/the-spice-must-talk/internal/llm"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
	"github.com/Veraticus/the-spice-must-talk/internal/service"
	"github.com/Veraticus/the-spice-must-talk/internal/toolcall"
)

// Strategy names.
const (
	StrategyGreeting = "greeting"
	StrategyFastPath = "fast_path"
	StrategyModel    = "model"
	StrategyFallback = "fallback"
)

// GreetingResponse introduces what the assistant can do.
const GreetingResponse = `Hi! I can record expenses ("Add $12.50 for lunch yesterday"), delete them ("Delete the coffee expense") and answer questions like "What's my largest expense?", "How much did I spend on groceries?" or "How does this month compare to last month?".`

const (
	unavailableResponse  = "The language model isn't available, so I can only answer questions about totals, averages, categories, percentages, ratios and month comparisons."
	unrecognizedResponse = "I couldn't work out an exact answer to that."
	loadFailedResponse   = "I couldn't read your expenses just now. Please try again."
)

// Models hands out the loaded model and describes it.
type Models interface {
	Get(ctx context.Context) (llm.Completer, error)
	Info() (llm.Info, bool)
}

// Request carries one question through the strategies.
type Request struct {
	Trace    *model.Trace
	Question string
	Scope    Scope
	// Rejected is the last model answer the validation gate refused.
	Rejected         string
	Data             fallback.Data
	ModelUnavailable bool
}

// Strategy is one way of answering a question. Attempt reports false to
// hand the question to the next strategy.
type Strategy struct {
	CanHandle func(req *Request) bool
	Attempt   func(ctx context.Context, req *Request) (string, bool)
	Name      string
}

// Resolution is the answer and the strategy that produced it.
type Resolution struct {
	Text     string
	Strategy string
}

// Pipeline resolves questions against the ledger.
type Pipeline struct {
	ledger     service.Ledger
	models     Models
	fast       *fastpath.Handler
	computer   *fallback.Computer
	dispatcher *toolcall.Dispatcher
	logger     *slog.Logger
	strategies []Strategy
}

// New creates a pipeline. models may be nil, in which case questions the
// fast path cannot answer go straight to the deterministic computer.
func New(ledger service.Ledger, models Models, logger *slog.Logger) *Pipeline {
	logger = common.OrDefault(logger)
	p := &Pipeline{
		ledger:     ledger,
		models:     models,
		fast:       fastpath.NewHandler(logger),
		computer:   fallback.NewComputer(logger),
		dispatcher: toolcall.NewDispatcher(logger),
		logger:     logger,
	}
	// Order is priority: cheapest and most certain first, and the fallback
	// always answers.
	p.strategies = []Strategy{
		{Name: StrategyFastPath, CanHandle: p.canFastPath, Attempt: p.attemptFastPath},
		{Name: StrategyModel, CanHandle: p.canModel, Attempt: p.attemptModel},
		{Name: StrategyFallback, CanHandle: func(*Request) bool { return true }, Attempt: p.attemptFallback},
	}
	return p
}

// StrategyNames lists the strategies in the order they are tried.
func (p *Pipeline) StrategyNames() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name
	}
	return names
}

// Resolve answers question. It always returns text.
func (p *Pipeline) Resolve(ctx context.Context, question string, trace *model.Trace) Resolution {
	if trace == nil {
		trace = model.NewTrace(nil)
	}
	start := time.Now()

	if IsGreeting(question) {
		trace.Add("Recognized a greeting")
		p.observe(StrategyGreeting, start)
		return Resolution{Text: GreetingResponse, Strategy: StrategyGreeting}
	}

	scope := ClassifyScope(question)
	trace.Add("Scoped question to %s", scopeLabel(scope))
	data, err := loadData(ctx, p.ledger, scope)
	if err != nil {
		common.LogError(p.logger, err, "failed to load ledger data", common.Fields{"scope": scope})
		trace.Add("Could not load expenses")
		return Resolution{Text: loadFailedResponse, Strategy: StrategyFallback}
	}

	req := &Request{
		Question:         question,
		Scope:            scope,
		Data:             data,
		Trace:            trace,
		ModelUnavailable: p.models == nil,
	}
	for _, s := range p.strategies {
		if !s.CanHandle(req) {
			p.logger.Debug("strategy skipped", "strategy", s.Name)
			continue
		}
		if text, ok := s.Attempt(ctx, req); ok {
			p.observe(s.Name, start)
			return Resolution{Text: text, Strategy: s.Name}
		}
	}

	// The fallback strategy always answers; this keeps the contract if the
	// list is ever changed.
	return Resolution{Text: fallback.Summary(data.Current), Strategy: StrategyFallback}
}

func (p *Pipeline) observe(strategy string, start time.Time) {
	resolvedTotal.WithLabelValues(strategy).Inc()
	resolveLatency.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
}

func scopeLabel(scope Scope) string {
	switch scope {
	case ScopeAllTime:
		return "all months"
	case ScopeComparison:
		return "this month and last month"
	default:
		return "this month"
	}
}

// IsGreeting reports whether the utterance is small talk rather than a
// question about spending.
func IsGreeting(question string) bool {
	if len(lexicon.Tokens(question)) > 6 || !lexicon.ContainsAnyPhrase(question, lexicon.GreetingPhrases) {
		return false
	}
	return fallback.Classify(question) == fallback.KindSummary
}

func (p *Pipeline) canFastPath(req *Request) bool {
	return req.Scope != ScopeComparison && !fastpath.Declines(req.Question)
}

func (p *Pipeline) attemptFastPath(_ context.Context, req *Request) (string, bool) {
	records, period := req.Data.Current.Expenses, fastpath.ThisMonth
	if req.Scope == ScopeAllTime {
		records = nil
		for _, m := range req.Data.Months {
			records = append(records, m.Expenses...)
		}
		period = fastpath.AllTime(len(req.Data.Months))
	}

	answer, ok := p.fast.TryAnswer(req.Question, records, period)
	if !ok {
		req.Trace.Add("No quick answer for this question")
		return "", false
	}
	req.Trace.Add("Answered directly (%s)", answer.Shape)
	return answer.Text, true
}

func (p *Pipeline) canModel(req *Request) bool {
	return p.models != nil && !req.ModelUnavailable
}

func (p *Pipeline) attemptModel(ctx context.Context, req *Request) (string, bool) {
	completer, err := p.models.Get(ctx)
	if err != nil {
		req.ModelUnavailable = true
		req.Trace.Add("Language model unavailable, computing the answer directly")
		return "", false
	}

	info, _ := p.models.Info()
	small := info.Small()
	if small {
		req.Trace.Add("Asking the language model (compact prompt)")
	} else {
		req.Trace.Add("Asking the language model")
	}

	reply, err := completer.Complete(ctx, buildPrompt(req.Question, req.Data, small))
	if err != nil {
		p.logger.Warn("model answer failed", "error", err)
		rejectedTotal.WithLabelValues(ReasonEmpty).Inc()
		req.Trace.Add("The model gave no answer")
		return "", false
	}

	answer := reply
	if call, ok := toolcall.Parse(reply); ok {
		req.Trace.Add("Model asked for %s", call.Name)
		result, err := p.dispatcher.Dispatch(call, req.Data)
		if err != nil {
			toolCallsTotal.WithLabelValues(call.Name, "error").Inc()
			rejectedTotal.WithLabelValues(ReasonToolError).Inc()
			p.logger.Warn("model function call failed", "function", call.Name, "error", err)
			req.Rejected = reply
			req.Trace.Add("Function call failed: %v", err)
			return "", false
		}
		toolCallsTotal.WithLabelValues(call.Name, "ok").Inc()
		answer = toolcall.Render(call, result)
	}
	answer = cleanAnswer(answer)

	expect, hasExpect := p.computer.Expect(req.Question, req.Data)
	verdict := Validate(req.Question, answer, expect, hasExpect)
	if !verdict.OK {
		rejectedTotal.WithLabelValues(verdict.Reason).Inc()
		if verdict.Reason == ReasonAccuracy {
			substitutionsTotal.Inc()
			p.logger.Warn("model number disagreed with computed value, substituting",
				"question", req.Question, "answer", answer, "detail", verdict.Detail)
		} else {
			p.logger.Warn("model answer rejected", "reason", verdict.Reason, "detail", verdict.Detail, "answer", answer)
		}
		req.Rejected = answer
		req.Trace.Add("Rejected model answer (%s): %q", verdict.Reason, truncate(answer, 160))
		return "", false
	}

	req.Trace.Add("Model answer passed validation")
	return answer, true
}

func (p *Pipeline) attemptFallback(_ context.Context, req *Request) (string, bool) {
	answer := p.computer.Answer(req.Question, req.Data)
	if answer.Recognized {
		req.Trace.Add("Computed the answer directly (%s)", answer.Kind)
		return answer.Text, true
	}

	req.Trace.Add("Question not recognized, summarizing the month")
	if req.ModelUnavailable {
		return unavailableResponse + " " + answer.Text, true
	}
	return unrecognizedResponse + " " + answer.Text, true
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
