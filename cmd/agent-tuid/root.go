package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agent-tuid",
		Short: "Agent-facing terminal automation daemon",
		Long:  "agent-tuid spawns and drives PTY-backed terminal sessions behind a local JSON-RPC socket, for coding agents to script interactive terminal programs.",
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newVersionCmd(),
		newSocketPathCmd(),
	)

	return rootCmd
}
