// Package metrics holds the daemon-wide counters the health and metrics
// RPCs report: session lock poison recoveries, active connection count,
// worker pool size, and request totals. Everything is atomic add/read;
// nothing here takes a lock.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics is the process-wide counter block. The zero value is ready to
// use; StartTime is set once by New.
type Metrics struct {
	StartTime time.Time

	poisonRecoveries  atomic.Uint64
	activeConnections atomic.Int64
	requestsTotal     atomic.Uint64
	requestsFailed    atomic.Uint64
	workersAlive      atomic.Int64
}

// New creates a Metrics block stamped with the current time as the
// daemon's start time.
func New() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// Uptime reports how long the daemon has been running.
func (m *Metrics) Uptime() time.Duration { return time.Since(m.StartTime) }

// IncPoisonRecovery records one session lock poison recovery.
func (m *Metrics) IncPoisonRecovery() { m.poisonRecoveries.Add(1) }

// PoisonRecoveries returns the total poison recoveries observed so far.
func (m *Metrics) PoisonRecoveries() uint64 { return m.poisonRecoveries.Load() }

// ConnectionOpened marks the start of a connection's lifetime.
func (m *Metrics) ConnectionOpened() { m.activeConnections.Add(1) }

// ConnectionClosed marks the end of a connection's lifetime.
func (m *Metrics) ConnectionClosed() { m.activeConnections.Add(-1) }

// ActiveConnections returns the number of connections currently being
// served by a worker.
func (m *Metrics) ActiveConnections() int64 { return m.activeConnections.Load() }

// RequestHandled records one dispatched request and whether it resulted
// in an RPC error response.
func (m *Metrics) RequestHandled(failed bool) {
	m.requestsTotal.Add(1)
	if failed {
		m.requestsFailed.Add(1)
	}
}

// RequestsTotal returns the total number of requests dispatched.
func (m *Metrics) RequestsTotal() uint64 { return m.requestsTotal.Load() }

// RequestsFailed returns the number of requests that produced an error
// response.
func (m *Metrics) RequestsFailed() uint64 { return m.requestsFailed.Load() }

// WorkerStarted records a worker entering the pool.
func (m *Metrics) WorkerStarted() { m.workersAlive.Add(1) }

// WorkerExited records a worker exiting, whether cleanly at shutdown or
// after containing a panic; the pool does not refill until the next
// daemon restart.
func (m *Metrics) WorkerExited() { m.workersAlive.Add(-1) }

// WorkersAlive returns the current worker pool size, used by the health
// check to report reduced capacity after a contained panic.
func (m *Metrics) WorkersAlive() int64 { return m.workersAlive.Load() }
