package model

import "time"

// ConversationExchange records one utterance and how it was resolved.
type ConversationExchange struct {
	At       time.Time
	Input    string
	Intent   Intent
	Response string
	Trace    []string
	Added    int
	Deleted  int
}

// NewConversationExchange builds the log record for a finished query.
func NewConversationExchange(at time.Time, input string, result *QueryResult) ConversationExchange {
	trace := make([]string, len(result.Trace))
	copy(trace, result.Trace)

	return ConversationExchange{
		At:       at,
		Input:    input,
		Intent:   result.Intent,
		Response: result.Response,
		Trace:    trace,
		Added:    len(result.ExpensesToAdd),
		Deleted:  len(result.DeletedIndices),
	}
}
