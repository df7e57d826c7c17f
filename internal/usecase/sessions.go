package usecase

import (
	"encoding/json"
	"time"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
)

// SessionInfoDTO is the wire projection of domain.SessionInfo.
type SessionInfoDTO struct {
	ID        string          `json:"id"`
	Command   string          `json:"command"`
	PID       int             `json:"pid"`
	Running   bool            `json:"running"`
	CreatedAt string          `json:"created_at"`
	Size      TerminalSizeDTO `json:"size"`
}

// TerminalSizeDTO is the wire projection of domain.TerminalSize.
type TerminalSizeDTO struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

func toSessionInfoDTO(info domain.SessionInfo) SessionInfoDTO {
	return SessionInfoDTO{
		ID:        string(info.ID),
		Command:   info.Command,
		PID:       info.PID,
		Running:   info.Running,
		CreatedAt: info.CreatedAt.UTC().Format(time.RFC3339),
		Size:      TerminalSizeDTO{Cols: info.Size.Cols, Rows: info.Size.Rows},
	}
}

// SessionsResult is the `sessions` RPC's result.
type SessionsResult struct {
	Sessions []SessionInfoDTO `json:"sessions"`
	Active   *string          `json:"active"`
}

// Sessions lists every registered session and the active session id.
func Sessions(deps *Deps, _ json.RawMessage) (any, *rpcerr.Error) {
	infos := deps.Repo.List()
	dtos := make([]SessionInfoDTO, 0, len(infos))
	for _, info := range infos {
		dtos = append(dtos, toSessionInfoDTO(info))
	}
	var active *string
	if id, ok := deps.Repo.ActiveSessionID(); ok {
		s := string(id)
		active = &s
	}
	return SessionsResult{Sessions: dtos, Active: active}, nil
}
