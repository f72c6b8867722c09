// Package config loads scriptfeed settings from a TOML file, with
// environment variable overrides on top.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".scriptfeed.toml"

// Error policies for a failing unit.
const (
	OnErrorAbort    = "abort"
	OnErrorContinue = "continue"
)

// Config represents the main configuration
type Config struct {
	MaxLineLength int            `toml:"max_line_length"` // Longest admissible line, terminator included
	MaxBlockBytes int            `toml:"max_block_bytes"` // Cap on an accumulated block (0 = unbounded)
	OnError       string         `toml:"on_error"`        // "abort" or "continue"
	UnitTimeout   Duration       `toml:"unit_timeout"`    // Per-unit execution limit (0 = none)
	OutputFile    string         `toml:"output_file"`     // Side output written by emit()
	LogLevel      string         `toml:"log_level"`       // debug, info, warn, error
	Comments      CommentsConfig `toml:"comments"`
	REPL          REPLConfig     `toml:"repl"`
	Watch         WatchConfig    `toml:"watch"`
}

// CommentsConfig holds the block comment markers.
type CommentsConfig struct {
	Start string `toml:"start"`
	End   string `toml:"end"`
}

// REPLConfig holds interactive session settings.
type REPLConfig struct {
	Prompt             string `toml:"prompt"`
	ContinuationPrompt string `toml:"continuation_prompt"`
}

// WatchConfig holds settings for re-running a script on change.
type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

// Duration is a time.Duration read from a TOML string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxLineLength: 2048,
		MaxBlockBytes: 16 << 20,
		OnError:       OnErrorAbort,
		LogLevel:      "warn",
		Comments: CommentsConfig{
			Start: "/**",
			End:   "*/",
		},
		REPL: REPLConfig{
			Prompt:             "js> ",
			ContinuationPrompt: "... ",
		},
		Watch: WatchConfig{
			Debounce: Duration{200 * time.Millisecond},
		},
	}
}

// Load reads path over the defaults. A missing file is not an error. An
// empty path means DefaultFile.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides applies SCRIPTFEED_* variables (Env > TOML > Default).
// A value that does not parse is an error.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SCRIPTFEED_MAX_LINE_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCRIPTFEED_MAX_LINE_LENGTH: %w", err)
		}
		cfg.MaxLineLength = n
	}
	if v := os.Getenv("SCRIPTFEED_MAX_BLOCK_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCRIPTFEED_MAX_BLOCK_BYTES: %w", err)
		}
		cfg.MaxBlockBytes = n
	}
	if v := os.Getenv("SCRIPTFEED_ON_ERROR"); v != "" {
		cfg.OnError = v
	}
	if v := os.Getenv("SCRIPTFEED_OUTPUT_FILE"); v != "" {
		cfg.OutputFile = v
	}
	if v := os.Getenv("SCRIPTFEED_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SCRIPTFEED_UNIT_TIMEOUT"); v != "" {
		if err := cfg.UnitTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("SCRIPTFEED_UNIT_TIMEOUT: %w", err)
		}
	}
	return nil
}

// Validate checks the configuration for values the loader cannot use.
func (c *Config) Validate() error {
	if c.MaxLineLength < 2 {
		return fmt.Errorf("max_line_length must be at least 2, got %d", c.MaxLineLength)
	}
	if c.MaxBlockBytes < 0 {
		return fmt.Errorf("max_block_bytes must not be negative, got %d", c.MaxBlockBytes)
	}
	switch c.OnError {
	case OnErrorAbort, OnErrorContinue:
	default:
		return fmt.Errorf("on_error must be %q or %q, got %q", OnErrorAbort, OnErrorContinue, c.OnError)
	}
	if c.UnitTimeout.Duration < 0 {
		return fmt.Errorf("unit_timeout must not be negative")
	}
	if c.Comments.Start == "" || c.Comments.End == "" {
		return fmt.Errorf("comment markers must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
