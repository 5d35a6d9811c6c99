package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads chat lines and gives up when the context ends.
type LineReader struct {
	reader      *bufio.Reader
	out         io.Writer
	readingLock sync.Mutex
}

// NewLineReader creates a reader over in that writes prompts to out.
// out may be nil.
func NewLineReader(in io.Reader, out io.Writer) *LineReader {
	if in == nil {
		panic("reader cannot be nil")
	}
	if out == nil {
		out = io.Discard
	}
	return &LineReader{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// ReadString reads a string until delim, respecting context cancellation.
// A read abandoned by cancellation keeps running in its goroutine and its
// result is discarded.
func (r *LineReader) ReadString(ctx context.Context, delim byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrInputCancelled
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString(delim)
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return res.value, res.err
	}
}

// ReadLine reads one trimmed line. A final line without a newline is
// returned before io.EOF.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	line, err := r.ReadString(ctx, '\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Prompt writes prompt and reads the reply line.
func (r *LineReader) Prompt(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(r.out, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	return r.ReadLine(ctx)
}
