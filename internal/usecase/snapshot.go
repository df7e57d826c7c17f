package usecase

import (
	"encoding/json"
	"strings"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
	"github.com/pproenca/agent-tui/internal/vom"
)

// RegionDTO crops a snapshot to a sub-rectangle of the screen, in cell
// coordinates. Left unspecified (nil) in params, the full screen is
// returned.
type RegionDTO struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SnapshotParams is the `snapshot` RPC's params.
type SnapshotParams struct {
	ID            string     `json:"id,omitempty"`
	Region        *RegionDTO `json:"region,omitempty"`
	StripAnsi     bool       `json:"strip_ansi,omitempty"`
	IncludeCursor bool       `json:"include_cursor,omitempty"`
}

// CursorDTO is the wire projection of domain.CursorPosition.
type CursorDTO struct {
	Row     int  `json:"row"`
	Col     int  `json:"col"`
	Visible bool `json:"visible"`
}

// SnapshotResult is the `snapshot` RPC's result.
type SnapshotResult struct {
	SessionID string     `json:"session_id"`
	Screen    string     `json:"screen"`
	Cursor    *CursorDTO `json:"cursor,omitempty"`
	Rendered  string     `json:"rendered,omitempty"`
}

// Snapshot runs Session.Update and returns the current screen text (and
// optionally cursor and ANSI-rendered text).
func Snapshot(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p SnapshotParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}

	var result SnapshotResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		if rerr := s.Update(); rerr != nil {
			return rerr
		}
		text := s.ScreenText()
		if p.Region != nil {
			text = cropRegion(text, *p.Region)
		}
		if !p.StripAnsi {
			// Rendered output is cropped at the cell level, never by
			// slicing the styled string, so escape sequences stay intact.
			if p.Region != nil {
				result.Rendered = s.ScreenRenderRegion(p.Region.Col, p.Region.Row, p.Region.Width, p.Region.Height)
			} else {
				result.Rendered = s.ScreenRender()
			}
		}
		result.SessionID = string(s.ID)
		result.Screen = text
		if p.IncludeCursor {
			cursor := s.Cursor()
			result.Cursor = &CursorDTO{Row: cursor.Row, Col: cursor.Col, Visible: cursor.Visible}
		}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}

func cropRegion(text string, region RegionDTO) string {
	lines := strings.Split(text, "\n")
	end := region.Row + region.Height
	if end > len(lines) || region.Height <= 0 {
		end = len(lines)
	}
	if region.Row < 0 || region.Row > len(lines) {
		return ""
	}
	cropped := lines[region.Row:end]
	if region.Width > 0 {
		for i, line := range cropped {
			runes := []rune(line)
			colEnd := region.Col + region.Width
			if colEnd > len(runes) {
				colEnd = len(runes)
			}
			if region.Col > len(runes) {
				cropped[i] = ""
				continue
			}
			cropped[i] = string(runes[region.Col:colEnd])
		}
	}
	return strings.Join(cropped, "\n")
}

// AccessibilitySnapshotParams is the `accessibility_snapshot` RPC's
// params.
type AccessibilitySnapshotParams struct {
	ID              string `json:"id,omitempty"`
	InteractiveOnly bool   `json:"interactive_only,omitempty"`
}

// AccessibilitySnapshotResult is the `accessibility_snapshot` RPC's
// result.
type AccessibilitySnapshotResult struct {
	SessionID string            `json:"session_id"`
	Tree      string            `json:"tree"`
	Stats     vom.SnapshotStats `json:"stats"`
}

// AccessibilitySnapshot runs Session.Update followed by the VOM pipeline
// and returns the formatted element tree.
func AccessibilitySnapshot(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p AccessibilitySnapshotParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}

	var result AccessibilitySnapshotResult
	err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
		if rerr := s.Update(); rerr != nil {
			return rerr
		}
		components := s.AnalyzeScreen()
		snap := vom.FormatSnapshot(components, vom.SnapshotOptions{InteractiveOnly: p.InteractiveOnly})
		result = AccessibilitySnapshotResult{SessionID: string(s.ID), Tree: snap.Tree, Stats: snap.Stats}
		return nil
	})
	if err != nil {
		return nil, asRPCError(err)
	}
	return result, nil
}
