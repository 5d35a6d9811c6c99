// Package engine is the single entry point for utterances. It classifies
// intent, hands the utterance to the extractor or the query pipeline, and
// always produces a QueryResult with a response the user can read.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/the-spice-must-talk/internal/analytics"
	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/extract"
	"github.com/Veraticus/the-spice-must-talk/internal/intent"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
	"github.com/Veraticus/the-spice-must-talk/internal/pipeline"
	"github.com/Veraticus/the-spice-must-talk/internal/service"
)

const (
	emptyInputResponse = "Type an expense to record or a question about your spending."
	editResponse       = "I can't edit expenses yet. Delete the expense and add it again with the right details."
	failureResponse    = "Something went wrong while handling that. Please try again."
	addFailedResponse  = "I couldn't record that expense. Please try again."
	deleteFailed       = "I couldn't delete that expense. Please try again."
)

// Config holds the engine's collaborators. Only Ledger is required.
type Config struct {
	Ledger    service.Ledger
	Exchanges service.ExchangeLogger
	Models    pipeline.Models
	Now       func() time.Time
	Logger    *slog.Logger
	SessionID string
}

// Engine processes utterances against one ledger.
type Engine struct {
	ledger     service.Ledger
	exchanges  service.ExchangeLogger
	classifier *intent.Classifier
	extractor  *extract.Extractor
	pipeline   *pipeline.Pipeline
	now        func() time.Time
	logger     *slog.Logger
	sessionID  string
}

// NewSession returns a fresh session identifier for the exchange log.
func NewSession() string {
	return uuid.NewString()
}

// New creates an engine. A missing session id is generated.
func New(cfg Config) *Engine {
	logger := common.OrDefault(cfg.Logger)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = NewSession()
	}

	return &Engine{
		ledger:     cfg.Ledger,
		exchanges:  cfg.Exchanges,
		classifier: intent.NewClassifier(cfg.Models, logger),
		extractor:  extract.NewExtractor(cfg.Models, now, logger),
		pipeline:   pipeline.New(cfg.Ledger, cfg.Models, logger),
		now:        now,
		logger:     logger,
		sessionID:  sessionID,
	}
}

// SessionID returns the id exchanges are logged under.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Process handles one utterance. It never returns nil and never panics;
// the ledger is only read; callers apply mutations with Apply.
func (e *Engine) Process(ctx context.Context, input string, onStep model.StepFunc) (result *model.QueryResult) {
	trace := model.NewTrace(onStep)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("recovered from panic while processing utterance", "panic", r, "input", input)
			trace.Add("Processing failed")
			result = &model.QueryResult{Intent: model.IntentError, Response: failureResponse}
		}
		result.Trace = trace.Steps()
		e.logExchange(ctx, input, result)
	}()

	text := strings.TrimSpace(input)
	if text == "" {
		return &model.QueryResult{Intent: model.IntentUnknown, Response: emptyInputResponse}
	}

	decision := e.classifier.Classify(ctx, text)
	trace.Add("Classified as %s (%s)", decision.Intent, decision.Rule)

	switch decision.Intent {
	case model.IntentAdd:
		return e.add(ctx, text, trace)
	case model.IntentDelete:
		return e.delete(ctx, text, trace)
	case model.IntentEdit:
		return &model.QueryResult{Intent: model.IntentEdit, Response: editResponse}
	case model.IntentQuery:
		resolution := e.pipeline.Resolve(ctx, text, trace)
		return &model.QueryResult{Intent: model.IntentQuery, Response: resolution.Text}
	default:
		return &model.QueryResult{Intent: model.IntentUnknown, Response: pipeline.GreetingResponse}
	}
}

func (e *Engine) add(ctx context.Context, text string, trace *model.Trace) *model.QueryResult {
	expenses, err := e.extractor.Add(ctx, text, e.ledger.ActiveMonth(), trace)
	if err != nil {
		return e.failed(model.IntentAdd, err, addFailedResponse)
	}
	return &model.QueryResult{
		Intent:        model.IntentAdd,
		Response:      describeAdded(expenses),
		ExpensesToAdd: expenses,
	}
}

func (e *Engine) delete(ctx context.Context, text string, trace *model.Trace) *model.QueryResult {
	month := e.ledger.ActiveMonth()
	records, err := e.ledger.Expenses(ctx, month)
	if err != nil {
		common.LogError(e.logger, err, "failed to load expenses for delete", common.Fields{"month": month})
		trace.Add("Could not load expenses")
		return &model.QueryResult{Intent: model.IntentError, Response: deleteFailed}
	}

	indices, err := e.extractor.Delete(ctx, text, records, trace)
	if err != nil {
		return e.failed(model.IntentDelete, err, deleteFailed)
	}

	deleted := make([]model.Expense, 0, len(indices))
	for _, i := range indices {
		deleted = append(deleted, records[i])
	}
	return &model.QueryResult{
		Intent:         model.IntentDelete,
		Response:       describeDeleted(deleted),
		DeletedIndices: indices,
	}
}

// failed turns an extraction error into a response. User errors keep their
// intent and message; anything else is reported as an error.
func (e *Engine) failed(kind model.Intent, err error, fallback string) *model.QueryResult {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		e.logger.Debug("utterance not actionable", "intent", kind, "error", err)
		return &model.QueryResult{Intent: kind, Response: userErr.UserMessage}
	}
	common.LogError(e.logger, err, "operation failed", common.Fields{"intent": string(kind)})
	return &model.QueryResult{Intent: model.IntentError, Response: common.UserMessage(err, fallback)}
}

func (e *Engine) logExchange(ctx context.Context, input string, result *model.QueryResult) {
	if e.exchanges == nil {
		return
	}
	exchange := model.NewConversationExchange(e.now(), input, result)
	if err := e.exchanges.LogExchange(ctx, e.sessionID, exchange); err != nil {
		common.LogError(e.logger, err, "failed to log exchange", common.Fields{"session": e.sessionID})
	}
}

// Apply performs the result's mutations on the ledger: additions first,
// then deletions from the highest index down, then a single persist.
func (e *Engine) Apply(ctx context.Context, result *model.QueryResult) error {
	if result == nil || !result.Mutates() {
		return nil
	}

	if len(result.ExpensesToAdd) > 0 {
		if err := e.ledger.Append(ctx, result.ExpensesToAdd...); err != nil {
			return fmt.Errorf("failed to add expenses: %w", err)
		}
	}

	if len(result.DeletedIndices) > 0 {
		month := e.ledger.ActiveMonth()
		indices := slices.Clone(result.DeletedIndices)
		slices.Sort(indices)
		indices = slices.Compact(indices)
		for i := len(indices) - 1; i >= 0; i-- {
			if err := e.ledger.Delete(ctx, month, indices[i]); err != nil {
				return fmt.Errorf("failed to delete expense %d: %w", indices[i], err)
			}
		}
	}

	if err := e.ledger.Persist(ctx); err != nil {
		return fmt.Errorf("failed to persist ledger: %w", err)
	}
	return nil
}

func describeAdded(expenses []model.Expense) string {
	if len(expenses) == 1 {
		x := expenses[0]
		return fmt.Sprintf("Added %s for %s on %s.", analytics.FormatMoney(x.Amount), x.Description, analytics.FormatDate(x.Date))
	}
	return fmt.Sprintf("Added %d expenses totaling %s: %s.", len(expenses), analytics.FormatMoney(analytics.Total(expenses)), listExpenses(expenses))
}

func describeDeleted(expenses []model.Expense) string {
	if len(expenses) == 1 {
		x := expenses[0]
		return fmt.Sprintf("Deleted %s for %s on %s.", analytics.FormatMoney(x.Amount), x.Description, analytics.FormatDate(x.Date))
	}
	return fmt.Sprintf("Deleted %d expenses totaling %s: %s.", len(expenses), analytics.FormatMoney(analytics.Total(expenses)), listExpenses(expenses))
}

func listExpenses(expenses []model.Expense) string {
	parts := make([]string, len(expenses))
	for i, x := range expenses {
		parts[i] = fmt.Sprintf("%s for %s (%s)", analytics.FormatMoney(x.Amount), x.Description, analytics.FormatDate(x.Date))
	}
	return strings.Join(parts, ", ")
}
