package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
)

const defaultRingEntries = 50

// RingParams is shared by trace, console, and errors: an optional limit
// on how many of the most recent ring entries to return (oldest first).
type RingParams struct {
	ID    string `json:"id,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// TraceEntryDTO mirrors session.TraceEntry over the wire.
type TraceEntryDTO struct {
	Seq    uint64 `json:"seq"`
	AtMs   int64  `json:"at_ms"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// TraceResult is the `trace` RPC's result.
type TraceResult struct {
	SessionID string          `json:"session_id"`
	Entries   []TraceEntryDTO `json:"entries"`
}

// Trace returns the session's keystroke/spawn/resize/wait/kill trace
// ring, most recent entries last.
func Trace(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p RingParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultRingEntries
	}

	var result TraceResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		entries := s.Trace(limit)
		dtos := make([]TraceEntryDTO, len(entries))
		for i, e := range entries {
			dtos[i] = TraceEntryDTO{Seq: e.Seq, AtMs: e.At.UnixMilli(), Kind: string(e.Kind), Detail: e.Detail}
		}
		result = TraceResult{SessionID: string(s.ID), Entries: dtos}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}

// ConsoleResult is the `console` RPC's result: the raw screen text dump,
// bypassing the VOM entirely, for callers that just want to eyeball
// terminal output without the element-detection pipeline.
type ConsoleResult struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Console returns the session's current text_dump without running it
// through the Visual Object Model.
func Console(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p RingParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
	}

	var result ConsoleResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		if rerr := s.Update(); rerr != nil {
			return rerr
		}
		result = ConsoleResult{SessionID: string(s.ID), Text: s.ScreenText()}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}

// ErrorEntryDTO mirrors session.ErrorEntry over the wire.
type ErrorEntryDTO struct {
	Seq     uint64 `json:"seq"`
	AtMs    int64  `json:"at_ms"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorsResult is the `errors` RPC's result.
type ErrorsResult struct {
	SessionID string          `json:"session_id"`
	Entries   []ErrorEntryDTO `json:"entries"`
}

// Errors returns the session's bounded error ring.
func Errors(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p RingParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultRingEntries
	}

	var result ErrorsResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		entries := s.Errors(limit)
		dtos := make([]ErrorEntryDTO, len(entries))
		for i, e := range entries {
			dtos[i] = ErrorEntryDTO{Seq: e.Seq, AtMs: e.At.UnixMilli(), Code: e.Code, Message: e.Message}
		}
		result = ErrorsResult{SessionID: string(s.ID), Entries: dtos}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}
