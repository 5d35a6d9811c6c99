package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-spice-must-talk/internal/config"
	"github.com/Veraticus/the-spice-must-talk/internal/engine"
	"github.com/Veraticus/the-spice-must-talk/internal/llm"
	"github.com/Veraticus/the-spice-must-talk/internal/service"
	"github.com/Veraticus/the-spice-must-talk/internal/storage"
)

var _ service.ModelPreference = (*llm.Manager)(nil)

// app wires the configured collaborators for one command run.
type app struct {
	settings *config.Settings
	ledger   service.Ledger
	store    *storage.SQLiteStorage
	locator  *llm.Locator
	manager  *llm.Manager
	engine   *engine.Engine
	logger   *slog.Logger
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func newModels(settings *config.Settings, logger *slog.Logger) (*llm.Locator, *llm.Manager) {
	locator := llm.NewLocator(settings.LocatorConfig(), logger)
	loader := llm.NewHTTPLoader(settings.LLM.Endpoint, settings.LLMOptions(), logger)
	return locator, llm.NewManager(settings.ManagerConfig(), locator, loader, logger)
}

// openLedger returns the SQLite ledger, migrated to the latest schema, or a
// memory ledger when --memory is set.
func openLedger(ctx context.Context, cmd *cobra.Command, settings *config.Settings, logger *slog.Logger) (service.Ledger, *storage.SQLiteStorage, error) {
	if memory, _ := cmd.Flags().GetBool("memory"); memory {
		logger.Info("Using an in-memory ledger; nothing will be saved")
		return storage.NewMemoryLedger(nil), nil, nil
	}

	store, err := storage.NewSQLiteStorage(settings.Ledger.Path, storage.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return store, store, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	logger := slog.Default()
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	ledger, store, err := openLedger(cmd.Context(), cmd, settings, logger)
	if err != nil {
		return nil, err
	}
	locator, manager := newModels(settings, logger)

	cfg := engine.Config{
		Ledger: ledger,
		Models: manager,
		Logger: logger,
	}
	if store != nil {
		cfg.Exchanges = store
	}

	a := &app{
		settings: settings,
		ledger:   ledger,
		store:    store,
		locator:  locator,
		manager:  manager,
		engine:   engine.New(cfg),
		logger:   logger,
	}
	logger.Debug("session started", "session", a.engine.SessionID(), "ledger", settings.Ledger.Path)
	return a, nil
}

func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close ledger", "error", err)
	}
}
