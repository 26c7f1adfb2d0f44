// Package config loads arbor's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jward/arbor/internal/projector"
	"github.com/jward/arbor/internal/syntax"
)

// Config models .arbor/config.yaml.
type Config struct {
	// DefaultMode is the traversal mode new sessions start in.
	DefaultMode string `yaml:"default_mode"`
	// Languages maps file extensions to language names, overriding detection.
	Languages map[string]string `yaml:"languages,omitempty"`
	// SemanticFilter is a Risor script deciding hidden kinds. Empty selects
	// the embedded default.
	SemanticFilter string `yaml:"semantic_filter,omitempty"`
	// Journal is a SQLite database path for the refresh journal. Empty
	// disables journaling.
	Journal string `yaml:"journal,omitempty"`

	// dir is the directory the config was loaded from; relative paths resolve
	// against it.
	dir string
}

// Dir resolves the directory holding arbor settings for a workspace.
func Dir(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".arbor")
}

// File returns the config file path for a workspace.
func File(workspace string) string {
	return filepath.Join(Dir(workspace), "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{DefaultMode: string(projector.Structural)}
}

// Load reads the config at path. A missing file yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.dir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = string(projector.Structural)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the mode name and language overrides.
func (c *Config) Validate() error {
	if _, err := projector.ParseMode(c.DefaultMode); err != nil {
		return fmt.Errorf("default_mode: %w", err)
	}
	for ext, lang := range c.Languages {
		if _, ok := syntax.GrammarForLanguage(lang); !ok {
			return fmt.Errorf("languages: %s: unsupported language %q", ext, lang)
		}
	}
	return nil
}

// Mode returns the parsed default traversal mode.
func (c *Config) Mode() projector.Mode {
	m, err := projector.ParseMode(c.DefaultMode)
	if err != nil {
		return projector.Structural
	}
	return m
}

// FilterPath returns the semantic filter script path, resolved against the
// config directory, or "" for the embedded default.
func (c *Config) FilterPath() string {
	return c.resolve(c.SemanticFilter)
}

// JournalPath returns the journal database path, resolved against the config
// directory, or "" when journaling is disabled.
func (c *Config) JournalPath() string {
	return c.resolve(c.Journal)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Save writes the config as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config: missing config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
