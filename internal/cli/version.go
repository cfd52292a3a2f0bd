package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "keybridge %s\n", info.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", info.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", info.Date)
		},
	}
}
