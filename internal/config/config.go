package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-spice-must-talk/internal/common"
	"github.com/Veraticus/the-spice-must-talk/internal/llm"
)

// Settings is the full application configuration.
type Settings struct {
	Logging LoggingSettings `mapstructure:"logging"`
	LLM     LLMSettings     `mapstructure:"llm"`
	Ledger  LedgerSettings  `mapstructure:"ledger"`
	Metrics MetricsSettings `mapstructure:"metrics"`
	Model   ModelSettings   `mapstructure:"model"`
}

// ModelSettings select and locate the local model file.
type ModelSettings struct {
	Preferred        string   `mapstructure:"preferred"`
	CacheDir         string   `mapstructure:"cache_dir"`
	Dirs             []string `mapstructure:"dirs"`
	MinSizeMB        int64    `mapstructure:"min_size_mb" validate:"gte=0"`
	MaxSizeMB        int64    `mapstructure:"max_size_mb" validate:"gtfield=MinSizeMB"`
	SmallThresholdMB int64    `mapstructure:"small_threshold_mb" validate:"gte=0"`
}

// LLMSettings configure the local inference server.
type LLMSettings struct {
	Endpoint    string        `mapstructure:"endpoint" validate:"required,url"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gt=0,lte=8192"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// LedgerSettings locate the expense database.
type LedgerSettings struct {
	Path string `mapstructure:"path" validate:"required"`
}

// MetricsSettings configure the optional Prometheus listener.
type MetricsSettings struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// LoggingSettings configure slog.
type LoggingSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	opts := llm.DefaultOptions()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("model.preferred", "")
	v.SetDefault("model.dirs", []string{"~/.local/share/spice-talk/models"})
	v.SetDefault("model.cache_dir", "~/.cache/lm-studio/models")
	v.SetDefault("model.min_size_mb", 300)
	v.SetDefault("model.max_size_mb", 8000)
	v.SetDefault("model.small_threshold_mb", 2500)
	v.SetDefault("llm.endpoint", "http://127.0.0.1:8080")
	v.SetDefault("llm.temperature", opts.Temperature)
	v.SetDefault("llm.max_tokens", opts.MaxTokens)
	v.SetDefault("llm.timeout", opts.Timeout)
	v.SetDefault("ledger.path", "~/.local/share/spice-talk/ledger.db")
	v.SetDefault("metrics.addr", "")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads settings from v, expands paths and validates the result.
// Validation failures wrap common.ErrInvalidConfig.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	s.Ledger.Path = ExpandPath(s.Ledger.Path)
	s.Model.CacheDir = ExpandPath(s.Model.CacheDir)
	s.Model.Preferred = strings.TrimSpace(s.Model.Preferred)
	s.Model.Dirs = ExpandPaths(s.Model.Dirs)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every field constraint.
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
}

// LocatorConfig returns the model file locator settings.
func (s *Settings) LocatorConfig() llm.LocatorConfig {
	return llm.LocatorConfig{
		Dirs:      s.Model.Dirs,
		CacheDir:  s.Model.CacheDir,
		MinSizeMB: s.Model.MinSizeMB,
		MaxSizeMB: s.Model.MaxSizeMB,
	}
}

// ManagerConfig returns the model manager settings.
func (s *Settings) ManagerConfig() llm.ManagerConfig {
	return llm.ManagerConfig{
		Preferred:        s.Model.Preferred,
		SmallThresholdMB: s.Model.SmallThresholdMB,
	}
}

// LLMOptions returns the sampling options for the local server.
func (s *Settings) LLMOptions() llm.Options {
	return llm.Options{
		Temperature: s.LLM.Temperature,
		MaxTokens:   s.LLM.MaxTokens,
		Timeout:     s.LLM.Timeout,
	}
}
