// Package config holds the compiler-wide settings that are tuned per
// deployment rather than per call: filename matching rules, source
// annotation, and log verbosity.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/strand/script"
)

// Config is the YAML-backed settings block.
type Config struct {
	// CaseInsensitiveNames folds case when matching import specifiers
	// against known filenames.
	CaseInsensitiveNames bool `yaml:"case_insensitive_names"`
	// DefaultExtension is appended to extensionless import specifiers
	// before matching. Must start with a dot when set.
	DefaultExtension string `yaml:"default_extension"`
	// SourceAnnotations controls the trailing source attribution comment on
	// rewritten units.
	SourceAnnotations bool `yaml:"source_annotations"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the settings used when no file is provided.
func Default() Config {
	return Config{
		DefaultExtension:  ".go",
		SourceAnnotations: true,
		LogLevel:          "info",
	}
}

// Load reads a YAML settings file, layering it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if c.DefaultExtension != "" && !strings.HasPrefix(c.DefaultExtension, ".") {
		return fmt.Errorf("default_extension must start with a dot, got %q", c.DefaultExtension)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
}

// Policy returns the name-equality policy the settings describe.
func (c Config) Policy() script.NamePolicy {
	return script.DefaultPolicy{
		CaseInsensitive:  c.CaseInsensitiveNames,
		DefaultExtension: c.DefaultExtension,
	}
}

// Logger builds a logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "strand",
		Level:  level,
	})
}
