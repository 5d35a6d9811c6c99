package model

// Intent is the resolved purpose of an utterance.
type Intent string

// Intent constants.
const (
	IntentAdd     Intent = "add"
	IntentDelete  Intent = "delete"
	IntentEdit    Intent = "edit"
	IntentQuery   Intent = "query"
	IntentError   Intent = "error"
	IntentUnknown Intent = "unknown"
)

// ParseIntent maps a free-form label to a known intent.
func ParseIntent(label string) (Intent, bool) {
	switch Intent(label) {
	case IntentAdd, IntentDelete, IntentEdit, IntentQuery:
		return Intent(label), true
	default:
		return IntentUnknown, false
	}
}

// QueryResult is the outcome of processing one utterance.
type QueryResult struct {
	Intent             Intent
	Response           string
	ExpensesToAdd      []Expense
	DeletedIndices     []int
	Trace              []string
	ConfirmationNeeded bool
}

// DeletedIndex returns the first deleted index, or -1 when nothing was deleted.
func (r *QueryResult) DeletedIndex() int {
	if len(r.DeletedIndices) == 0 {
		return -1
	}
	return r.DeletedIndices[0]
}

// Mutates reports whether applying the result changes the ledger.
func (r *QueryResult) Mutates() bool {
	return len(r.ExpensesToAdd) > 0 || len(r.DeletedIndices) > 0
}
