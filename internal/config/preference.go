package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const preferredKey = "model.preferred"

// Preference stores the preferred model identifier in the config file.
type Preference struct {
	v *viper.Viper
}

// NewPreference wraps v.
func NewPreference(v *viper.Viper) *Preference {
	return &Preference{v: v}
}

// Preferred returns the configured model identifier.
func (p *Preference) Preferred() string {
	return strings.TrimSpace(p.v.GetString(preferredKey))
}

// SetPreferred updates the identifier in memory. Save writes it out.
func (p *Preference) SetPreferred(id string) {
	p.v.Set(preferredKey, strings.TrimSpace(id))
}

// Save writes the configuration back to its file, creating defaultPath when
// no file was loaded.
func (p *Preference) Save(defaultPath string) (string, error) {
	path := p.v.ConfigFileUsed()
	if path == "" {
		path = ExpandPath(defaultPath)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := p.v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
