package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
)

// KeystrokeParams is the shared shape of keystroke/keydown/keyup params.
type KeystrokeParams struct {
	ID  string `json:"id,omitempty"`
	Key string `json:"key"`
}

// TypeParams is the `type` RPC's params.
type TypeParams struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// KeystrokeResult is the result shared by keystroke/keydown/keyup/type.
type KeystrokeResult struct {
	SessionID string `json:"session_id"`
}

func withKey(deps *Deps, raw json.RawMessage, fn func(*session.Session, string) error) (any, *rpcerr.Error) {
	var p KeystrokeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	if p.Key == "" {
		return nil, rpcerrInvalidParams("key is required")
	}
	var result KeystrokeResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		if rerr := fn(s, p.Key); rerr != nil {
			return rerr
		}
		result = KeystrokeResult{SessionID: string(s.ID)}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}

// Keystroke resolves a key name and writes it to the session's PTY.
func Keystroke(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	return withKey(deps, raw, (*session.Session).Keystroke)
}

// Keydown resolves a key name and writes it to the session's PTY.
func Keydown(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	return withKey(deps, raw, (*session.Session).KeyDown)
}

// Keyup validates a key name; the PTY byte stream has no held-key state
// to release, so it writes nothing.
func Keyup(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	return withKey(deps, raw, (*session.Session).KeyUp)
}

// Type writes raw UTF-8 text to the session's PTY in one call.
func Type(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p TypeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	var result KeystrokeResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		if rerr := s.TypeText(p.Text); rerr != nil {
			return rerr
		}
		result = KeystrokeResult{SessionID: string(s.ID)}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}
