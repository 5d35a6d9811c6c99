package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
)

// healthPaths are tried in order; Ollama and LM Studio lack /health.
var healthPaths = []string{"/health", "/v1/models"}

// HTTPLoader binds a located model to a local inference server after
// checking the server is up.
type HTTPLoader struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
	opts       Options
	backoff    common.Backoff
}

// NewHTTPLoader creates a loader for the server at endpoint.
func NewHTTPLoader(endpoint string, opts Options, logger *slog.Logger) *HTTPLoader {
	return &HTTPLoader{
		endpoint:   strings.TrimRight(endpoint, "/"),
		opts:       opts.withDefaults(),
		logger:     common.OrDefault(logger),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		backoff: common.Backoff{
			Attempts: 3,
			Initial:  250 * time.Millisecond,
			Max:      2 * time.Second,
		},
	}
}

// Load health-checks the server, retrying while it warms up, and returns a
// client that names file in every request.
func (l *HTTPLoader) Load(ctx context.Context, file ModelFile) (Completer, error) {
	if l.endpoint == "" {
		return nil, fmt.Errorf("inference endpoint: %w", common.ErrMissingConfig)
	}

	err := l.backoff.Retry(ctx, l.logger, func(ctx context.Context, _ int) error {
		return l.healthCheck(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("inference server at %s is not ready: %w", l.endpoint, err)
	}

	l.logger.Debug("inference server ready", "endpoint", l.endpoint, "model", file.Name)
	return newLocalClient(l.endpoint, file.Name, l.opts), nil
}

func (l *HTTPLoader) healthCheck(ctx context.Context) error {
	var lastErr error
	for _, path := range healthPaths {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint+path, nil)
		if err != nil {
			return common.Permanent(err)
		}

		resp, err := l.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode == http.StatusServiceUnavailable:
			// Server is up but the model is still loading.
			return fmt.Errorf("model still loading (status %d)", resp.StatusCode)
		default:
			lastErr = fmt.Errorf("health check %s returned status %d", path, resp.StatusCode)
		}
	}
	return common.Permanent(lastErr)
}
