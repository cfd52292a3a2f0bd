package cli

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command, which prints the effective
// settings after file and environment overrides.
func NewConfigCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			enc := toml.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(cfg)
		},
	}
}
