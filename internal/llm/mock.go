package llm

import (
	"context"
	"sync"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
)

// MockReply is one scripted model reply.
type MockReply struct {
	Err  error
	Text string
}

// MockCompleter is a scripted Completer for tests and offline runs. Queued
// replies are returned in order; once the queue is empty the responder, if
// set, answers; otherwise the reply is empty.
type MockCompleter struct {
	respond func(messages []Message) (string, error)
	queue   []MockReply
	calls   [][]Message
	mu      sync.Mutex
}

// NewMockCompleter creates a mock that returns replies in order.
func NewMockCompleter(replies ...string) *MockCompleter {
	m := &MockCompleter{}
	for _, r := range replies {
		m.queue = append(m.queue, MockReply{Text: r})
	}
	return m
}

// Queue appends scripted replies.
func (m *MockCompleter) Queue(replies ...MockReply) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, replies...)
	return m
}

// RespondWith sets the function used once the queue is drained.
func (m *MockCompleter) RespondWith(fn func(messages []Message) (string, error)) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respond = fn
	return m
}

// Complete records the call and returns the next scripted reply.
func (m *MockCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]Message(nil), messages...))

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next.Text, next.Err
	}
	if m.respond != nil {
		return m.respond(messages)
	}
	return "", common.ErrEmptyResponse
}

// Calls returns a copy of every recorded prompt.
func (m *MockCompleter) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]Message(nil), m.calls...)
}

// CallCount returns how many completions were requested.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, file ModelFile) (Completer, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, file ModelFile) (Completer, error) {
	return f(ctx, file)
}

// StaticLocator resolves every identifier to the same file.
type StaticLocator struct {
	Err  error
	File ModelFile
}

// Locate returns the configured file or error.
func (s StaticLocator) Locate(string) (ModelFile, error) {
	return s.File, s.Err
}
