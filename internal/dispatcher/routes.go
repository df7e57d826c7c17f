// Package dispatcher is the RPC server's acceptor/worker-pool half: a
// single acceptor feeds a bounded queue, a fixed pool of workers drains
// it, and each worker runs a read-dispatch-write loop routing requests
// to use cases by method name.
package dispatcher

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/usecase"
)

// Handler is one use case's signature, per internal/usecase.
type Handler func(deps *usecase.Deps, raw json.RawMessage) (any, *rpcerr.Error)

// routes is the static method-name to handler table: a plain map, no
// virtual dispatch, built once at startup.
var routes = map[string]Handler{
	"ping":                   usecase.Ping,
	"health":                 usecase.Health,
	"metrics":                usecase.Metrics,
	"shutdown":               usecase.Shutdown,
	"spawn":                  usecase.Spawn,
	"kill":                   usecase.Kill,
	"restart":                usecase.Restart,
	"sessions":               usecase.Sessions,
	"resize":                 usecase.Resize,
	"attach":                 usecase.Attach,
	"cleanup":                usecase.Cleanup,
	"assert":                 usecase.Assert,
	"snapshot":               usecase.Snapshot,
	"accessibility_snapshot": usecase.AccessibilitySnapshot,
	"keystroke":              usecase.Keystroke,
	"keydown":                usecase.Keydown,
	"keyup":                  usecase.Keyup,
	"type":                   usecase.Type,
	"wait":                   usecase.Wait,
	"pty_read":               usecase.PtyRead,
	"pty_write":              usecase.PtyWrite,
	"record_start":           usecase.RecordStart,
	"record_stop":            usecase.RecordStop,
	"record_status":          usecase.RecordStatus,
	"trace":                  usecase.Trace,
	"console":                usecase.Console,
	"errors":                 usecase.Errors,
}

// lookup returns the handler for method, or nil if unknown.
func lookup(method string) (Handler, bool) {
	h, ok := routes[method]
	return h, ok
}
