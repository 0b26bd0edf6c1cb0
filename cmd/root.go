// Package cmd wires the adopters CLI together.
package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "adopters",
		Short: "Adopters registry discovery pipeline",
		Long: `Discovers repositories that adopted a project, verifies community
submissions filed as issues, and maintains the adopters registry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add update flags to root command so `adopters` and
	// `adopters update` work identically
	addUpdateFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdUpdate(opts))
	rootCmd.AddCommand(NewCmdReport())
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())
	rootCmd.AddCommand(NewCmdRateLimit())

	return rootCmd
}
