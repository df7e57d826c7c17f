// Package usecase holds one function per RPC operation, each a pure
// function of a Deps bundle and a typed request DTO. None of these hold
// their own state; all mutable state lives in Deps.Repo.
package usecase

import (
	"sync/atomic"
	"time"

	"github.com/pproenca/agent-tui/internal/metrics"
	"github.com/pproenca/agent-tui/internal/sessionrepo"
)

// Deps is the collaborator bundle every use case is handed, threaded
// through explicitly in place of ambient globals.
type Deps struct {
	Repo       *sessionrepo.Repository
	Metrics    *metrics.Metrics
	Shutdown   *ShutdownFlag
	MaxSession int
}

// ShutdownFlag is the process-wide shutdown signal, watched by the
// acceptor and by workers between requests.
type ShutdownFlag struct {
	flag atomic.Bool
	ch   chan struct{}
}

// NewShutdownFlag creates an unset flag.
func NewShutdownFlag() *ShutdownFlag {
	return &ShutdownFlag{ch: make(chan struct{})}
}

// Set raises the flag. Safe to call more than once.
func (f *ShutdownFlag) Set() {
	if f.flag.CompareAndSwap(false, true) {
		close(f.ch)
	}
}

// IsSet reports whether shutdown has been requested.
func (f *ShutdownFlag) IsSet() bool { return f.flag.Load() }

// Done returns a channel closed once Set has been called, for the
// acceptor's poll loop.
func (f *ShutdownFlag) Done() <-chan struct{} { return f.ch }

// clampTimeoutMs converts a client-supplied millisecond timeout into a
// time.Duration, treating non-positive values as zero (non-blocking).
func clampTimeoutMs(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
