package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// LogExchange appends one exchange to the session's log.
func (s *SQLiteStorage) LogExchange(ctx context.Context, sessionID string, exchange model.ConversationExchange) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	trace := exchange.Trace
	if trace == nil {
		trace = []string{}
	}
	traceJSON, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exchanges (session_id, at, input, intent, response, trace, added, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, exchange.At.UTC(), exchange.Input, string(exchange.Intent), exchange.Response,
		string(traceJSON), exchange.Added, exchange.Deleted,
	)
	if err != nil {
		return fmt.Errorf("failed to log exchange: %w", err)
	}
	return nil
}

// Exchanges returns a session's exchanges in the order they were logged.
func (s *SQLiteStorage) Exchanges(ctx context.Context, sessionID string) ([]model.ConversationExchange, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT at, input, intent, response, trace, added, deleted
		FROM exchanges
		WHERE session_id = ?
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var exchanges []model.ConversationExchange
	for rows.Next() {
		var (
			ex        model.ConversationExchange
			intent    string
			traceJSON string
		)
		if err := rows.Scan(&ex.At, &ex.Input, &intent, &ex.Response, &traceJSON, &ex.Added, &ex.Deleted); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		if err := json.Unmarshal([]byte(traceJSON), &ex.Trace); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
		}
		ex.Intent = model.Intent(intent)
		exchanges = append(exchanges, ex)
	}
	return exchanges, rows.Err()
}
