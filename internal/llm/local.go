package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
)

// localClient implements Completer against an OpenAI-compatible chat
// completions endpoint served on the local machine (llama-server, Ollama,
// LM Studio).
type localClient struct {
	httpClient *http.Client
	endpoint   string
	model      string
	opts       Options
}

// newLocalClient creates a client bound to one model on one server.
func newLocalClient(endpoint, model string, opts Options) *localClient {
	opts = opts.withDefaults()
	return &localClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		opts:     opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// chatResponse represents the chat completions response structure.
type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Created int64 `json:"created"`
}

// Complete sends the messages and returns the first choice's content.
func (c *localClient) Complete(ctx context.Context, messages []Message) (string, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference server error (status %d): %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned: %w", common.ErrEmptyResponse)
	}

	content := strings.TrimSpace(cleanMarkdownWrapper(response.Choices[0].Message.Content))
	if content == "" {
		return "", common.ErrEmptyResponse
	}
	return content, nil
}

// cleanMarkdownWrapper removes a code fence that wraps the entire reply.
// Fences inside a longer reply are left for the caller to judge.
func cleanMarkdownWrapper(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return content
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	if newline := strings.IndexByte(inner, '\n'); newline >= 0 {
		lang := strings.TrimSpace(inner[:newline])
		if lang == "json" || lang == "" {
			inner = inner[newline+1:]
		} else {
			return content
		}
	}
	if strings.Contains(inner, "```") {
		return content
	}
	return strings.TrimSpace(inner)
}
