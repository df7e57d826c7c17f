package usecase

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
)

// PtyReadParams is the `pty_read` RPC's params.
type PtyReadParams struct {
	ID        string `json:"id,omitempty"`
	MaxBytes  int    `json:"max_bytes,omitempty"`
	TimeoutMs int64  `json:"timeout_ms,omitempty"`
}

// PtyReadResult is the `pty_read` RPC's result: base64-encoded bytes read
// directly from the PTY, bypassing the emulator, for the interactive
// attach mode.
type PtyReadResult struct {
	SessionID string `json:"session_id"`
	DataB64   string `json:"data_b64"`
	EOF       bool   `json:"eof,omitempty"`
}

const defaultPtyReadMax = 8192

// PtyRead drains up to MaxBytes directly from the session's PTY.
func PtyRead(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p PtyReadParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
	}
	maxBytes := p.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultPtyReadMax
	}

	var result PtyReadResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		buf := make([]byte, maxBytes)
		n, rerr := s.PtyTryRead(buf, clampTimeoutMs(p.TimeoutMs))
		if rerr != nil {
			return rerr
		}
		result = PtyReadResult{
			SessionID: string(s.ID),
			DataB64:   base64.StdEncoding.EncodeToString(buf[:n]),
			EOF:       n == 0 && !s.IsRunning(),
		}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}

// PtyWriteParams is the `pty_write` RPC's params.
type PtyWriteParams struct {
	ID      string `json:"id,omitempty"`
	DataB64 string `json:"data_b64"`
}

// PtyWriteResult is the `pty_write` RPC's result.
type PtyWriteResult struct {
	SessionID    string `json:"session_id"`
	BytesWritten int    `json:"bytes_written"`
}

// PtyWrite forwards raw base64-decoded bytes to the session's PTY.
func PtyWrite(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p PtyWriteParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	data, decErr := base64.StdEncoding.DecodeString(p.DataB64)
	if decErr != nil {
		return nil, rpcerrInvalidParams("data_b64 is not valid base64: " + decErr.Error())
	}

	var result PtyWriteResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		if rerr := s.PtyWrite(data); rerr != nil {
			return rerr
		}
		result = PtyWriteResult{SessionID: string(s.ID), BytesWritten: len(data)}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}
