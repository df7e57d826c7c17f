package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
)

// KillParams is the `kill` RPC's params.
type KillParams struct {
	ID string `json:"id"`
}

// KillResult is the `kill` RPC's result.
type KillResult struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// Kill stops and removes a session.
func Kill(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p KillParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	if p.ID == "" {
		return nil, rpcerrInvalidParams("id is required")
	}
	if err := deps.Repo.Kill(domain.SessionID(p.ID)); err != nil {
		return nil, asRPCError(err)
	}
	return KillResult{Success: true, SessionID: p.ID}, nil
}
