package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/sessionrepo"
)

// SpawnParams is the `spawn` RPC's params.
type SpawnParams struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	ID      string            `json:"id,omitempty"`
	Cols    int               `json:"cols,omitempty"`
	Rows    int               `json:"rows,omitempty"`
}

// SpawnResult is the `spawn` RPC's result.
type SpawnResult struct {
	SessionID string `json:"session_id"`
	PID       int    `json:"pid"`
}

// Spawn starts a new PTY-backed session. Size is clamped to the legal
// range before the session is created.
func Spawn(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p SpawnParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	if p.Command == "" {
		return nil, rpcerrInvalidParams("command is required")
	}
	cols, rows := p.Cols, p.Rows
	if cols == 0 && rows == 0 {
		cols, rows = domain.DefaultCols, domain.DefaultRows
	}
	size := domain.ClampSize(cols, rows)

	id, pid, err := deps.Repo.Spawn(sessionrepo.SpawnOptions{
		Command:     p.Command,
		Args:        p.Args,
		Cwd:         p.Cwd,
		Env:         p.Env,
		RequestedID: p.ID,
		Cols:        size.Cols,
		Rows:        size.Rows,
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return SpawnResult{SessionID: string(id), PID: pid}, nil
}
