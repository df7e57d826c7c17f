// Package daemon wires the socket, lock file, session repository, and
// dispatcher together into the running agent-tuid process: create the
// socket directory, acquire the single-instance guard, start the
// acceptor, wait for shutdown, clean up.
package daemon

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	"github.com/pproenca/agent-tui/internal/daemonconfig"
	"github.com/pproenca/agent-tui/internal/daemonlock"
	"github.com/pproenca/agent-tui/internal/dispatcher"
	"github.com/pproenca/agent-tui/internal/metrics"
	"github.com/pproenca/agent-tui/internal/sessionrepo"
	"github.com/pproenca/agent-tui/internal/usecase"
)

// Run starts the daemon and blocks until it shuts down cleanly (via the
// `shutdown` RPC) or the listener fails. It returns the error that ended
// the run, if any.
func Run(cfg daemonconfig.Config) error {
	logger := log.New(os.Stderr, "agent-tuid: ", log.LstdFlags)

	if err := os.MkdirAll(filepath.Dir(cfg.SocketPath), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	lock, err := daemonlock.Acquire(cfg.SocketPath + ".lock")
	if err != nil {
		return err
	}
	defer lock.Release()

	removeStaleSocket(cfg.SocketPath)
	ln, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on socket %s: %w", cfg.SocketPath, err)
	}
	defer os.Remove(cfg.SocketPath)

	m := metrics.New()
	repo := sessionrepo.New(cfg.MaxSessions, cfg.LockTimeout, m)
	deps := &usecase.Deps{
		Repo:       repo,
		Metrics:    m,
		Shutdown:   usecase.NewShutdownFlag(),
		MaxSession: cfg.MaxSessions,
	}

	logger.Printf("listening on %s (max_sessions=%d)", cfg.SocketPath, cfg.MaxSessions)

	d := dispatcher.New(ln, deps, cfg.IdleTimeout, logger)
	d.Run()

	logger.Printf("shutting down: killing %d active sessions", repo.SessionCount())
	for id, killErr := range repo.KillAll() {
		if killErr != nil {
			logger.Printf("kill %s on shutdown: %v", id, killErr)
		}
	}
	return nil
}

// removeStaleSocket clears a leftover socket file from a previous
// crashed run. The lock file is what decides liveness, so any socket
// file found once the lock is held is known-stale.
func removeStaleSocket(path string) {
	if _, err := os.Stat(path); err == nil {
		os.Remove(path)
	}
}
