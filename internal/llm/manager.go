package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
)

// ModelLocator resolves a model identifier to a file.
type ModelLocator interface {
	Locate(id string) (ModelFile, error)
}

// Loader turns a located model file into a usable Completer.
type Loader interface {
	Load(ctx context.Context, file ModelFile) (Completer, error)
}

// Info describes the loaded model.
type Info struct {
	Name             string
	Path             string
	SizeBytes        int64
	smallThresholdMB int64
}

// Small reports whether the model is below the compact-prompt threshold.
// Unknown sizes count as small.
func (i Info) Small() bool {
	if i.SizeBytes <= 0 {
		return true
	}
	return i.smallThresholdMB > 0 && i.SizeBytes < i.smallThresholdMB*megabyte
}

// ManagerConfig configures model selection.
type ManagerConfig struct {
	Preferred        string
	SmallThresholdMB int64
}

// Manager loads the preferred model lazily, at most once, and caches either
// the handle or the failure until Invalidate.
type Manager struct {
	locator ModelLocator
	loader  Loader
	logger  *slog.Logger
	handle  Completer
	err     error
	info    Info
	cfg     ManagerConfig
	mu      sync.Mutex
	loaded  bool
}

// NewManager creates a manager. Nothing is loaded until the first Get.
func NewManager(cfg ManagerConfig, locator ModelLocator, loader Loader, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:     cfg,
		locator: locator,
		loader:  loader,
		logger:  common.OrDefault(logger),
	}
}

// Get returns the model handle, loading it on first use. Every failure wraps
// common.ErrModelUnavailable and is returned again on later calls without a
// new load attempt.
func (m *Manager) Get(ctx context.Context) (Completer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return m.handle, m.err
	}
	m.loaded = true
	m.handle, m.info, m.err = m.load(ctx)
	if m.err != nil {
		m.logger.Warn("language model unavailable, answers will be computed deterministically", "preferred", m.cfg.Preferred, "error", m.err)
	} else {
		m.logger.Info("language model loaded", "name", m.info.Name, "path", m.info.Path, "small", m.info.Small())
	}
	return m.handle, m.err
}

func (m *Manager) load(ctx context.Context) (Completer, Info, error) {
	if strings.TrimSpace(m.cfg.Preferred) == "" {
		return nil, Info{}, fmt.Errorf("%w: no preferred model configured", common.ErrModelUnavailable)
	}
	if m.locator == nil || m.loader == nil {
		return nil, Info{}, fmt.Errorf("%w: no model loader configured", common.ErrModelUnavailable)
	}

	file, err := m.locator.Locate(m.cfg.Preferred)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %w", common.ErrModelUnavailable, err)
	}

	handle, err := m.loader.Load(ctx, file)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: failed to load %s: %w", common.ErrModelUnavailable, file.Name, err)
	}

	return handle, Info{
		Name:             file.Name,
		Path:             file.Path,
		SizeBytes:        file.Size,
		smallThresholdMB: m.cfg.SmallThresholdMB,
	}, nil
}

// Info returns the loaded model's description. It does not trigger a load.
func (m *Manager) Info() (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded || m.err != nil {
		return Info{}, false
	}
	return m.info, true
}

// Preferred returns the configured model identifier.
func (m *Manager) Preferred() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Preferred
}

// SetPreferred changes the preferred model and forgets the current handle.
func (m *Manager) SetPreferred(id string) {
	m.mu.Lock()
	m.cfg.Preferred = strings.TrimSpace(id)
	m.mu.Unlock()
	m.Invalidate()
}

// Invalidate forgets the cached handle or failure so the next Get reloads.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = false
	m.handle = nil
	m.err = nil
	m.info = Info{}
}
