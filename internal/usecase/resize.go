package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
)

// ResizeParams is the `resize` RPC's params.
type ResizeParams struct {
	ID   string `json:"id,omitempty"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

// ResizeResult is the `resize` RPC's result.
type ResizeResult struct {
	SessionID string          `json:"session_id"`
	Size      TerminalSizeDTO `json:"size"`
}

// Resize clamps the requested size and drives Session.Resize followed by
// Session.Update.
func Resize(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p ResizeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	size := domain.ClampSize(p.Cols, p.Rows)

	var result ResizeResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		if rerr := s.Resize(size); rerr != nil {
			return rerr
		}
		if rerr := s.Update(); rerr != nil {
			return rerr
		}
		result = ResizeResult{SessionID: string(s.ID), Size: TerminalSizeDTO{Cols: size.Cols, Rows: size.Rows}}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}
