package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KEYBRIDGE_"

// LookupFunc reads one environment variable.
type LookupFunc func(name string) (string, bool)

// Load reads path on top of the defaults, applies environment overrides and
// validates. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with a custom environment.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := Parse(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}
	if err := ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg. Keys not present in data keep their
// current values; unknown keys are an error.
func Parse(source string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var decErr *toml.DecodeError
		if errors.As(err, &decErr) {
			pe.Line, pe.Column = decErr.Position()
		}
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			pe.Message = "unknown keys: " + strings.TrimSpace(strictErr.String())
		}
		return pe
	}
	return nil
}

// envBinding applies one variable to a config.
type envBinding struct {
	name  string
	apply func(cfg *Config, value string) error
}

var envBindings = []envBinding{
	{"LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"POLL_INTERVAL", durationEnv(func(c *Config) *Duration { return &c.Focus.PollInterval })},
	{"INITIAL_DELAY", durationEnv(func(c *Config) *Duration { return &c.Focus.InitialDelay })},
	{"COMMAND_TIMEOUT", durationEnv(func(c *Config) *Duration { return &c.Focus.CommandTimeout })},
	{"TOP_BUFFER", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Geometry.TopBuffer = n
		return nil
	}},
	{"LEGACY_GEOMETRY", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Geometry.Legacy = b
		return nil
	}},
	{"MODULE_PATH", func(c *Config, v string) error { c.Foreign.ModulePath = v; return nil }},
	{"CALL_TIMEOUT", durationEnv(func(c *Config) *Duration { return &c.Foreign.CallTimeout })},
}

func durationEnv(field func(*Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = Duration(d)
		return nil
	}
}

// ApplyEnv applies KEYBRIDGE_* overrides found through lookup. Empty values
// are applied as given.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	var errs []error
	for _, b := range envBindings {
		name := EnvPrefix + b.name
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := b.apply(cfg, strings.TrimSpace(v)); err != nil {
			errs = append(errs, &EnvError{Name: name, Value: v, Err: err})
		}
	}
	return errors.Join(errs...)
}
