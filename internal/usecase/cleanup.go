package usecase

import (
	"encoding/json"

	"github.com/pproenca/agent-tui/internal/rpcerr"
)

// CleanupParams is the `cleanup` RPC's params.
type CleanupParams struct {
	All bool `json:"all,omitempty"`
}

// CleanupFailure is one session Cleanup could not remove.
type CleanupFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// CleanupResult is the `cleanup` RPC's result.
type CleanupResult struct {
	Cleaned  []string         `json:"cleaned"`
	Failures []CleanupFailure `json:"failures"`
}

// Cleanup kills every session whose PTY child has already stopped
// running (or every session, when All is set).
func Cleanup(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p CleanupParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, invalidParams(err)
		}
	}

	infos := deps.Repo.List()
	cleaned := make([]string, 0)
	failures := make([]CleanupFailure, 0)
	for _, info := range infos {
		if !p.All && info.Running {
			continue
		}
		if err := deps.Repo.Kill(info.ID); err != nil {
			failures = append(failures, CleanupFailure{ID: string(info.ID), Reason: err.Error()})
			continue
		}
		cleaned = append(cleaned, string(info.ID))
	}
	return CleanupResult{Cleaned: cleaned, Failures: failures}, nil
}
