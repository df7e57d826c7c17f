package main

import (
	"github.com/spf13/cobra"

	"github.com/pproenca/agent-tui/internal/daemon"
	"github.com/pproenca/agent-tui/internal/daemonconfig"
)

func newServeCmd() *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agent-tuid daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := daemonconfig.Resolve()
			if socketPath != "" {
				cfg.SocketPath = socketPath
			}
			return daemon.Run(cfg)
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "Unix socket path (overrides AGENT_TUI_SOCKET)")

	return cmd
}

// newSocketPathCmd prints the socket path the daemon would use, for
// scripts that need to find a running instance. Hidden: it is plumbing
// for the CLI front-end, not part of the user-facing surface.
func newSocketPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "socket-path",
		Short:  "Print the resolved daemon socket path",
		Hidden: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(daemonconfig.Resolve().SocketPath)
		},
	}
}
