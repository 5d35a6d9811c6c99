// Package service defines the contracts between the query engine and the
// application that owns the ledger.
package service

import (
	"context"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// Ledger is the expense store the engine reads snapshots from and sends
// discrete mutations to.
type Ledger interface {
	// ActiveMonth returns the month key ("2025-11") new expenses land in.
	ActiveMonth() string
	// Months lists every month holding expenses, oldest first.
	Months(ctx context.Context) ([]string, error)
	// Expenses returns a month's expenses in insertion order.
	Expenses(ctx context.Context, month string) ([]model.Expense, error)
	Append(ctx context.Context, expenses ...model.Expense) error
	// Delete removes the expense at index within the month's ordering.
	Delete(ctx context.Context, month string, index int) error
	// Persist flushes pending writes.
	Persist(ctx context.Context) error
}

// ExchangeLogger receives one record per processed utterance.
type ExchangeLogger interface {
	LogExchange(ctx context.Context, sessionID string, exchange model.ConversationExchange) error
}

// ModelPreference is the configuration store's preferred-model identifier.
type ModelPreference interface {
	Preferred() string
	SetPreferred(id string)
}
