package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/sessionrepo"
)

// RestartParams is the `restart` RPC's params.
type RestartParams struct {
	ID string `json:"id"`
}

// RestartResult is the `restart` RPC's result.
type RestartResult struct {
	OldSessionID string `json:"old_session_id"`
	NewSessionID string `json:"new_session_id"`
	Command      string `json:"command"`
	PID          int    `json:"pid"`
}

// Restart kills the named session, then spawns a replacement with its
// recorded command, args, and size.
func Restart(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p RestartParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	if p.ID == "" {
		return nil, rpcerrInvalidParams("id is required")
	}

	info, err := deps.Repo.Resolve(domain.SessionID(p.ID))
	if err != nil {
		return nil, asRPCError(err)
	}

	if err := deps.Repo.Kill(domain.SessionID(p.ID)); err != nil {
		return nil, asRPCError(err)
	}

	newID, pid, err := deps.Repo.Spawn(sessionrepo.SpawnOptions{
		Command: info.Command,
		Args:    info.Args,
		Cols:    info.Size.Cols,
		Rows:    info.Size.Rows,
	})
	if err != nil {
		return nil, asRPCError(err)
	}

	return RestartResult{
		OldSessionID: p.ID,
		NewSessionID: string(newID),
		Command:      info.Command,
		PID:          pid,
	}, nil
}
