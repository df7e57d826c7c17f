package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
)

// AttachParams is the `attach` RPC's params.
type AttachParams struct {
	ID string `json:"session_id"`
}

// AttachResult is the `attach` RPC's result.
type AttachResult struct {
	SessionID string `json:"session_id"`
	Success   bool   `json:"success"`
}

// Attach validates that the named session exists, marks it attached, and
// makes it the active session, so subsequent id-less RPCs from the
// attaching agent address it implicitly. This is the daemon-side
// bookkeeping RPC only; the interactive raw-mode byte tunnel lives in
// the attach client, so there is no streaming behavior here.
func Attach(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p AttachParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	if p.ID == "" {
		return nil, rpcerrInvalidParams("session_id is required")
	}

	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		s.Attach()
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	if err := deps.Repo.SetActive(domain.SessionID(p.ID)); err != nil {
		return nil, asRPCError(err)
	}
	return AttachResult{SessionID: p.ID, Success: true}, nil
}
