// Package daemonconfig resolves the daemon's configuration from
// AGENT_TUI_* environment variables. The daemon has no on-disk config
// file; everything it needs fits in a handful of variables with sane
// defaults.
package daemonconfig

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	envSocket      = "AGENT_TUI_SOCKET"
	envMaxSessions = "AGENT_TUI_MAX_SESSIONS"
	envIdleTimeout = "AGENT_TUI_IDLE_TIMEOUT_MS"
	envLockTimeout = "AGENT_TUI_LOCK_TIMEOUT_MS"
	envLog         = "AGENT_TUI_LOG"

	defaultMaxSessions = 32
	defaultIdleMs      = 600_000
	defaultLockMs      = 5_000
)

// Config is the resolved set of daemon-wide settings.
type Config struct {
	SocketPath  string
	MaxSessions int
	IdleTimeout time.Duration
	LockTimeout time.Duration
	LogFilter   string
}

// Resolve reads every AGENT_TUI_* variable, falling back to the built-in
// defaults when unset or unparsable.
func Resolve() Config {
	return Config{
		SocketPath:  resolveSocketPath(),
		MaxSessions: envInt(envMaxSessions, defaultMaxSessions),
		IdleTimeout: time.Duration(envInt(envIdleTimeout, defaultIdleMs)) * time.Millisecond,
		LockTimeout: time.Duration(envInt(envLockTimeout, defaultLockMs)) * time.Millisecond,
		LogFilter:   os.Getenv(envLog),
	}
}

// resolveSocketPath honors AGENT_TUI_SOCKET, falling back to the user's
// runtime directory and finally to a dotfile directory under HOME.
func resolveSocketPath() string {
	if p := os.Getenv(envSocket); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "agent-tuid.sock")
	}
	return filepath.Join(os.Getenv("HOME"), ".agent-tui", "agent-tuid.sock")
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
