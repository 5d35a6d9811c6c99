package llm

import (
	"context"
	"time"
)

// Role identifies the author of a chat message.
type Role string

// Chat roles understood by the inference server.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System builds a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant message, used for one-shot examples.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Completer defines the interface for a loaded model.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Options tune generation.
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultOptions favors reproducible, short answers.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.1,
		MaxTokens:   256,
		Timeout:     60 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Temperature <= 0 {
		o.Temperature = d.Temperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = d.MaxTokens
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	return o
}
