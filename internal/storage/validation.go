// Package storage provides the data persistence layer for spice-talk: the
// expense ledger and the conversation exchange log.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrEmptySlice      = errors.New("slice cannot be empty")
	ErrInvalidMonth    = errors.New("invalid month key")
	ErrIndexOutOfRange = errors.New("expense index out of range")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMonth ensures a month key looks like "2025-11".
func validateMonth(month string) error {
	if _, err := time.Parse(model.MonthKeyLayout, month); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return nil
}

// validateExpenses validates a batch of expenses before it is written.
func validateExpenses(expenses []model.Expense) error {
	if len(expenses) == 0 {
		return fmt.Errorf("%w: expenses", ErrEmptySlice)
	}
	for i, e := range expenses {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("expense at index %d: %w", i, err)
		}
	}
	return nil
}
