package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command and registers the flags shared by every
// subcommand.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gosession",
		Short: "Mock session manager",
		Long: `gosession runs a mock authentication session persisted to memory,
Redis or SQLite. No credential is ever checked; every login succeeds after a
simulated delay.`,
		SilenceUsage: true,
	}

	registerFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLogoutCmd())

	return cmd
}
