package dispatcher

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
	"github.com/pproenca/agent-tui/internal/usecase"
)

// idParams is the shape every session-scoped use case's params share: an
// optional "id" field naming the target session.
type idParams struct {
	ID string `json:"id,omitempty"`
}

// recordSessionError feeds rerr into the originating session's error
// ring (surfaced by the `errors` RPC), best-effort: a session that
// cannot be resolved or locked just means the error was global rather
// than session-scoped, which is not itself an error.
func recordSessionError(deps *usecase.Deps, raw json.RawMessage, rerr *rpcerr.Error) {
	if len(raw) == 0 {
		return
	}
	var p idParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	_ = deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		s.RecordError(rerr)
		return nil
	})
}
