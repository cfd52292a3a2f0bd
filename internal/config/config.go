package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration time.Duration

// UnmarshalText parses strings such as "500ms".
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds every bridge setting.
type Config struct {
	Logging  LoggingConfig  `toml:"logging"`
	Focus    FocusConfig    `toml:"focus"`
	Geometry GeometryConfig `toml:"geometry"`
	Foreign  ForeignConfig  `toml:"foreign"`
	Terminal TerminalConfig `toml:"terminal"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// FocusConfig configures the keyboard synchronizer.
type FocusConfig struct {
	PollInterval   Duration `toml:"poll_interval"`
	InitialDelay   Duration `toml:"initial_delay"`
	CommandTimeout Duration `toml:"command_timeout"`
}

// GeometryConfig configures inset publishing.
type GeometryConfig struct {
	// TopBuffer is added to the top inset. 0 disables it.
	TopBuffer int `toml:"top_buffer"`
	// Legacy selects the visible-frame source even when typed insets exist.
	Legacy bool `toml:"legacy"`
	// RecheckDelay and RecheckInterval drive a periodic re-read of the
	// geometry source. An interval of 0 disables it.
	RecheckDelay    Duration `toml:"recheck_delay"`
	RecheckInterval Duration `toml:"recheck_interval"`
}

// ForeignConfig configures the embedded Lua runtime.
type ForeignConfig struct {
	ModulePath    string   `toml:"module_path"`
	CallTimeout   Duration `toml:"call_timeout"`
	CallStackSize int      `toml:"call_stack_size"`
}

// TerminalConfig configures the terminal host.
type TerminalConfig struct {
	Title          string  `toml:"title"`
	IndicatorColor string  `toml:"indicator_color"`
	Density        float64 `toml:"density"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Focus: FocusConfig{
			PollInterval:   Duration(500 * time.Millisecond),
			InitialDelay:   Duration(1000 * time.Millisecond),
			CommandTimeout: Duration(2 * time.Second),
		},
		Geometry: GeometryConfig{
			RecheckDelay:    Duration(500 * time.Millisecond),
			RecheckInterval: Duration(1000 * time.Millisecond),
		},
		Foreign: ForeignConfig{
			CallTimeout:   Duration(5 * time.Second),
			CallStackSize: 256,
		},
		Terminal: TerminalConfig{
			Title:          "keybridge",
			IndicatorColor: "#2e8b57",
			Density:        1,
		},
	}
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(validLevels[strings.ToLower(c.Logging.Level)], "logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	check(c.Focus.PollInterval > 0, "focus.poll_interval must be positive")
	check(c.Focus.InitialDelay >= 0, "focus.initial_delay must not be negative")
	check(c.Focus.CommandTimeout >= 0, "focus.command_timeout must not be negative")
	check(c.Geometry.TopBuffer >= 0, "geometry.top_buffer must not be negative")
	check(c.Geometry.RecheckDelay >= 0, "geometry.recheck_delay must not be negative")
	check(c.Geometry.RecheckInterval >= 0, "geometry.recheck_interval must not be negative")
	check(c.Foreign.CallTimeout >= 0, "foreign.call_timeout must not be negative")
	check(c.Foreign.CallStackSize > 0, "foreign.call_stack_size must be positive")
	check(c.Terminal.Density > 0, "terminal.density must be positive")
	if _, err := colorful.Hex(c.Terminal.IndicatorColor); err != nil {
		errs = append(errs, fmt.Errorf("terminal.indicator_color %q: %w", c.Terminal.IndicatorColor, err))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(errs...))
}

// Clone returns a copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
