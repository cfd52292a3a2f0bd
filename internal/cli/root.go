// Package cli implements the keybridge command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/keybridge/internal/config"
	"github.com/dshills/keybridge/internal/logging"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
}

// NewRootCommand creates the keybridge command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keybridge",
		Short: "Bridge a host window to an immediate-mode UI runtime",
		Long: `keybridge normalizes host key events, keeps the virtual keyboard in
step with the UI runtime, publishes safe-area insets and instantiates
objects in an embedded Lua runtime.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a TOML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "append logs to this file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewInstantiateCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVersionCommand(info))

	return cmd
}

// loadConfig loads the config file and applies the --log-level override.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openLogger builds the root logger. Without --log-file it writes to
// fallback; a nil fallback discards.
func openLogger(opts *RootOptions, cfg *config.Config, fallback io.Writer) (*logging.Logger, func(), error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	if opts.LogFile == "" {
		if fallback == nil {
			return logging.Discard(), func() {}, nil
		}
		return logging.New(logging.Config{Level: level, Output: fallback, Prefix: "keybridge"}), func() {}, nil
	}

	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := logging.New(logging.Config{Level: level, Output: f, Prefix: "keybridge"})
	return logger, func() { _ = f.Close() }, nil
}
