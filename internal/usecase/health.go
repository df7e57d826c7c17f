package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/rpcerr"
)

// PingResult is the `ping` RPC's result.
type PingResult struct {
	Pong bool `json:"pong"`
}

// Ping is the trivial liveness check.
func Ping(_ *Deps, _ json.RawMessage) (any, *rpcerr.Error) {
	return PingResult{Pong: true}, nil
}

// HealthResult is the `health` RPC's result.
type HealthResult struct {
	Status            string `json:"status"`
	UptimeMs          int64  `json:"uptime_ms"`
	SessionCount      int    `json:"session_count"`
	ActiveConnections int64  `json:"active_connections"`
	WorkersAlive      int64  `json:"workers_alive"`
}

// Health reports process state, uptime, session count, and active
// connections.
func Health(deps *Deps, _ json.RawMessage) (any, *rpcerr.Error) {
	status := "ok"
	if deps.Shutdown.IsSet() {
		status = "shutting_down"
	}
	return HealthResult{
		Status:            status,
		UptimeMs:          deps.Metrics.Uptime().Milliseconds(),
		SessionCount:      deps.Repo.SessionCount(),
		ActiveConnections: deps.Metrics.ActiveConnections(),
		WorkersAlive:      deps.Metrics.WorkersAlive(),
	}, nil
}

// MetricsResult is the `metrics` RPC's result: the daemon-wide counter
// block, including lock poison recoveries and request totals.
type MetricsResult struct {
	UptimeMs          int64  `json:"uptime_ms"`
	SessionCount      int    `json:"session_count"`
	ActiveConnections int64  `json:"active_connections"`
	WorkersAlive      int64  `json:"workers_alive"`
	PoisonRecoveries  uint64 `json:"poison_recoveries"`
	RequestsTotal     uint64 `json:"requests_total"`
	RequestsFailed    uint64 `json:"requests_failed"`
}

// Metrics reports the daemon's atomic counters.
func Metrics(deps *Deps, _ json.RawMessage) (any, *rpcerr.Error) {
	return MetricsResult{
		UptimeMs:          deps.Metrics.Uptime().Milliseconds(),
		SessionCount:      deps.Repo.SessionCount(),
		ActiveConnections: deps.Metrics.ActiveConnections(),
		WorkersAlive:      deps.Metrics.WorkersAlive(),
		PoisonRecoveries:  deps.Metrics.PoisonRecoveries(),
		RequestsTotal:     deps.Metrics.RequestsTotal(),
		RequestsFailed:    deps.Metrics.RequestsFailed(),
	}, nil
}

// ShutdownResult is the `shutdown` RPC's result.
type ShutdownResult struct {
	Acknowledged bool `json:"acknowledged"`
}

// Shutdown sets the daemon-wide shutdown flag; the dispatcher's acceptor
// and workers observe it and drain.
func Shutdown(deps *Deps, _ json.RawMessage) (any, *rpcerr.Error) {
	deps.Shutdown.Set()
	return ShutdownResult{Acknowledged: true}, nil
}
