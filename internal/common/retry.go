package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// ErrGaveUp is returned once every attempt of a Backoff has failed.
var ErrGaveUp = errors.New("gave up retrying")

// Backoff polls an operation with exponentially growing pauses. Zero fields
// take the defaults: 3 attempts starting at 100ms, doubling up to 30s.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Factor   float64
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as a failure another attempt cannot fix, so Retry
// returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

func (b Backoff) withDefaults() Backoff {
	if b.Attempts <= 0 {
		b.Attempts = 3
	}
	if b.Initial <= 0 {
		b.Initial = 100 * time.Millisecond
	}
	if b.Max <= 0 {
		b.Max = 30 * time.Second
	}
	if b.Factor < 1 {
		b.Factor = 2
	}
	return b
}

// Pause is the wait after the given failed attempt, counted from 1.
func (b Backoff) Pause(attempt int) time.Duration {
	b = b.withDefaults()
	d := float64(b.Initial) * math.Pow(b.Factor, float64(attempt-1))
	if d > float64(b.Max) {
		return b.Max
	}
	return time.Duration(d)
}

// Retry calls op until it succeeds. It stops early on a Permanent error or
// when ctx ends; after the last attempt the error wraps ErrGaveUp and the
// final failure.
func (b Backoff) Retry(ctx context.Context, logger *slog.Logger, op func(ctx context.Context, attempt int) error) error {
	b = b.withDefaults()
	logger = OrDefault(logger)

	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		switch {
		case err == nil:
			return nil
		case IsPermanent(err):
			return err
		case attempt >= b.Attempts:
			return fmt.Errorf("%w after %d attempts: %w", ErrGaveUp, attempt, err)
		}

		pause := b.Pause(attempt)
		logger.Debug("attempt failed, retrying", "attempt", attempt, "of", b.Attempts, "pause", pause, "error", err)

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
