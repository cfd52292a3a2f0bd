package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/keybridge/internal/foreign"
)

// InstantiateOptions holds flags for the instantiate command.
type InstantiateOptions struct {
	*RootOptions
	ModulePath string
	Call       string
}

// NewInstantiateCommand creates the instantiate command.
func NewInstantiateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InstantiateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "instantiate <module.Symbol> [args...]",
		Short: "Instantiate an object in the Lua runtime and print it",
		Long: `Instantiate an object in the Lua runtime and print it as JSON.

Arguments that parse as integers or floats are passed as numbers, true
and false as booleans, anything else as a string. The module is loaded from --module-path (or
foreign.module_path) as <module with dots as slashes>.lua.

Example:
  keybridge instantiate widgets.Button OK 120 --module-path ./lua`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return instantiate(cmd, opts, args[0], args[1:])
		},
	}

	cmd.Flags().StringVar(&opts.ModulePath, "module-path", "", "directory holding Lua modules")
	cmd.Flags().StringVar(&opts.Call, "call", "", "method to call on the new object before printing")

	return cmd
}

func instantiate(cmd *cobra.Command, opts *InstantiateOptions, name string, rawArgs []string) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger, closeLog, err := openLogger(opts.RootOptions, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	modulePath := cfg.Foreign.ModulePath
	if opts.ModulePath != "" {
		modulePath = opts.ModulePath
	}

	rt, err := foreign.New(
		foreign.WithModulePath(modulePath),
		foreign.WithCallTimeout(cfg.Foreign.CallTimeout.Std()),
		foreign.WithCallStackSize(cfg.Foreign.CallStackSize),
		foreign.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer rt.Close()

	args := make([]any, len(rawArgs))
	for i, a := range rawArgs {
		args[i] = parseArg(a)
	}

	h, err := rt.Instantiate(cmd.Context(), name, args...)
	if err != nil {
		return err
	}

	var out any
	if opts.Call != "" {
		out, err = h.Call(cmd.Context(), opts.Call)
	} else {
		out, err = h.Value()
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", h, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// parseArg converts a command-line literal to the narrowest matching type.
func parseArg(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
