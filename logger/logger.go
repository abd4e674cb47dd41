// Package logger builds the zerolog loggers used across golojan-auth.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config contains logging configuration
type Config struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	NoColor   bool   `mapstructure:"no_color"`
	Timestamp bool   `mapstructure:"timestamp"`
	Output    io.Writer
}

// ApplyDefaults applies default values to logging configuration
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == nil {
		c.Output = os.Stderr
	}
}

// Validate validates logging configuration
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log level %q: %w", c.Level, err)
	}
	switch strings.ToLower(c.Format) {
	case FormatJSON, FormatConsole:
		return nil
	default:
		return fmt.Errorf("log format must be one of [%s %s] (got: %s)", FormatJSON, FormatConsole, c.Format)
	}
}

// New creates a zerolog.Logger from the configuration
func New(cfg Config) (zerolog.Logger, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), err
	}

	level, _ := zerolog.ParseLevel(cfg.Level)

	var out io.Writer = cfg.Output
	if strings.ToLower(cfg.Format) == FormatConsole {
		out = zerolog.ConsoleWriter{Out: cfg.Output, NoColor: cfg.NoColor}
	}

	zl := zerolog.New(out).Level(level)
	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	return zl.With().Str("service", "golojan-auth").Logger(), nil
}

// Component returns a child logger tagged with a component name
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
