package usecase

import (
	"encoding/json"
	"strings"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
)

// AssertParams is the `assert` RPC's params: condition is either
// "text:{s}" (checked against the active session, after an update) or
// "session:{id}" (checked against the repository).
type AssertParams struct {
	Condition string `json:"condition"`
}

// AssertResult is the `assert` RPC's result.
type AssertResult struct {
	Passed    bool   `json:"passed"`
	Condition string `json:"condition"`
}

// Assert evaluates condition once, with no polling.
func Assert(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p AssertParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}

	switch {
	case strings.HasPrefix(p.Condition, "text:"):
		text := strings.TrimPrefix(p.Condition, "text:")
		var passed bool
		err := deps.Repo.WithSession("", func(s *session.Session) error {
			if rerr := s.Update(); rerr != nil {
				return rerr
			}
			passed = strings.Contains(s.ScreenText(), text)
			return nil
		})
		if err != nil {
			return nil, asRPCError(err)
		}
		return AssertResult{Passed: passed, Condition: p.Condition}, nil

	case strings.HasPrefix(p.Condition, "session:"):
		id := strings.TrimPrefix(p.Condition, "session:")
		_, err := deps.Repo.Resolve(domain.SessionID(id))
		return AssertResult{Passed: err == nil, Condition: p.Condition}, nil

	default:
		return nil, rpcerrInvalidParams("unknown assert condition: " + p.Condition)
	}
}
