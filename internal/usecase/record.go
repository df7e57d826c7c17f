package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
)

// RecordParams is shared by record_start, record_stop, and record_status.
type RecordParams struct {
	ID string `json:"id,omitempty"`
}

// RecordStatusResult is the result shape common to all three recording
// RPCs.
type RecordStatusResult struct {
	SessionID   string `json:"session_id"`
	Recording   bool   `json:"recording"`
	FrameCount  int    `json:"frame_count"`
	StartedAtMs int64  `json:"started_at_ms,omitempty"`
}

// RecordStart begins capturing a frame on every screen change, discarding
// any previously captured frames.
func RecordStart(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	return withRecordingSession(deps, raw, func(s *session.Session) {
		s.StartRecording()
	})
}

// RecordStop ends the session's active recording, if any.
func RecordStop(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	return withRecordingSession(deps, raw, func(s *session.Session) {
		s.StopRecording()
	})
}

// RecordStatus reports whether a recording is active and how many frames
// it has captured so far.
func RecordStatus(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	return withRecordingSession(deps, raw, func(*session.Session) {})
}

func withRecordingSession(deps *Deps, raw json.RawMessage, mutate func(*session.Session)) (any, *rpcerr.Error) {
	var p RecordParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
	}

	var result RecordStatusResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		mutate(s)
		recording, frameCount, startedAt := s.RecordingStatus()
		result = RecordStatusResult{
			SessionID:  string(s.ID),
			Recording:  recording,
			FrameCount: frameCount,
		}
		if recording {
			result.StartedAtMs = startedAt.UnixMilli()
		}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}
