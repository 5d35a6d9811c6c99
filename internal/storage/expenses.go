package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// ActiveMonth returns the current calendar month key.
func (s *SQLiteStorage) ActiveMonth() string {
	return s.now().Format(model.MonthKeyLayout)
}

// Months lists every month holding expenses, oldest first.
func (s *SQLiteStorage) Months(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT month FROM expenses ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("failed to query months: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var months []string
	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, fmt.Errorf("failed to scan month: %w", err)
		}
		months = append(months, month)
	}
	return months, rows.Err()
}

// Expenses returns a month's expenses in insertion order. A month with no
// expenses yields an empty slice.
func (s *SQLiteStorage) Expenses(ctx context.Context, month string) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, description, amount
		FROM expenses
		WHERE month = ?
		ORDER BY id`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	expenses := []model.Expense{}
	for rows.Next() {
		var date, description, amount string
		if err := rows.Scan(&date, &description, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e, err := scanExpense(date, description, amount)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func scanExpense(date, description, amount string) (model.Expense, error) {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return model.Expense{}, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Expense{}, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	return model.NewExpense(a, description, d), nil
}

// Append stores expenses in the month of their date.
func (s *SQLiteStorage) Append(ctx context.Context, expenses ...model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpenses(expenses); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO expenses (month, date, description, amount) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range expenses {
		if _, err = stmt.ExecContext(ctx, e.MonthKey(), e.Date.Format(time.DateOnly), e.Description, e.Amount.StringFixed(2)); err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expenses: %w", err)
	}
	return nil
}

// Delete removes the expense at index within the month's insertion order.
func (s *SQLiteStorage) Delete(ctx context.Context, month string, index int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMonth(month); err != nil {
		return err
	}
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM expenses
		WHERE month = ?
		ORDER BY id
		LIMIT 1 OFFSET ?`, month, index).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d in %s", ErrIndexOutOfRange, index, month)
	}
	if err != nil {
		return fmt.Errorf("failed to find expense: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// Persist flushes the write-ahead log into the database file.
func (s *SQLiteStorage) Persist(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.Checkpoint(ctx)
}
