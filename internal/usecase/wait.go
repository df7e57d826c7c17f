package usecase

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
)

// waitInitialInterval, waitBackoffFactor, and waitMaxInterval are the
// wait loop's polling schedule.
const (
	waitInitialInterval = 10 * time.Millisecond
	waitBackoffFactor   = 2
	waitMaxInterval     = 200 * time.Millisecond
)

// WaitParams is the `wait` RPC's params.
type WaitParams struct {
	ID         string `json:"id,omitempty"`
	Condition  string `json:"condition"`
	Text       string `json:"text,omitempty"`
	ElementRef string `json:"element_ref,omitempty"`
	Value      string `json:"value,omitempty"`
	TimeoutMs  int64  `json:"timeout_ms"`
}

// WaitResult is the `wait` RPC's result.
type WaitResult struct {
	Found     bool  `json:"found"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// parseCondition maps the RPC's flat params onto a domain.WaitCondition.
// `condition` names the kind directly (text, text_gone, element, focused,
// not_visible, value, stable); the legacy "text:{s}"/"session:{id}" forms
// used by Assert are handled separately in assert.go.
func parseCondition(p WaitParams) (domain.WaitCondition, *rpcerr.Error) {
	switch domain.WaitConditionKind(p.Condition) {
	case domain.WaitText:
		return domain.WaitCondition{Kind: domain.WaitText, Text: p.Text}, nil
	case domain.WaitTextGone:
		return domain.WaitCondition{Kind: domain.WaitTextGone, Text: p.Text}, nil
	case domain.WaitElement:
		return domain.WaitCondition{Kind: domain.WaitElement, ElementRef: p.ElementRef}, nil
	case domain.WaitFocused:
		return domain.WaitCondition{Kind: domain.WaitFocused, ElementRef: p.ElementRef}, nil
	case domain.WaitNotVisible:
		return domain.WaitCondition{Kind: domain.WaitNotVisible, ElementRef: p.ElementRef}, nil
	case domain.WaitValue:
		return domain.WaitCondition{Kind: domain.WaitValue, ElementRef: p.ElementRef, ExpectedValue: p.Value}, nil
	case domain.WaitStable:
		return domain.WaitCondition{Kind: domain.WaitStable}, nil
	default:
		if p.Text != "" {
			return domain.WaitCondition{Kind: domain.WaitText, Text: p.Text}, nil
		}
		return domain.WaitCondition{}, rpcerrInvalidParams("unknown wait condition: " + p.Condition)
	}
}

// Wait polls condition with exponential back-off: initial sleep 10ms,
// factor 2, cap 200ms, re-checking after each Session.Update. It never
// overruns timeout_ms by more than one iteration. The session lock is
// acquired per iteration and released while sleeping, so concurrent RPCs
// on the same session are not starved for the whole wait, and the
// daemon's shutdown flag is observed between iterations. A timeout is
// reported as found=false, not as an error.
func Wait(deps *Deps, raw json.RawMessage) (any, *rpcerr.Error) {
	var p WaitParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	cond, cerr := parseCondition(p)
	if cerr != nil {
		return nil, cerr
	}
	timeout := clampTimeoutMs(p.TimeoutMs)

	start := time.Now()
	interval := waitInitialInterval
	traced := false
	for {
		var found bool
		err := deps.Repo.WithSession(domain.SessionID(p.ID), func(s *session.Session) error {
			if !traced {
				traced = true
				s.RecordWaitTrace(string(cond.Kind))
			}
			if rerr := s.Update(); rerr != nil {
				return rerr
			}
			found = evaluateCondition(s, cond)
			return nil
		})
		if err != nil {
			return nil, asRPCError(err)
		}
		if found {
			return WaitResult{Found: true, ElapsedMs: time.Since(start).Milliseconds()}, nil
		}

		elapsed := time.Since(start)
		if elapsed >= timeout || deps.Shutdown.IsSet() {
			return WaitResult{Found: false, ElapsedMs: elapsed.Milliseconds()}, nil
		}
		sleep := interval
		if remaining := timeout - elapsed; sleep > remaining {
			sleep = remaining
		}
		time.Sleep(sleep)
		interval *= waitBackoffFactor
		if interval > waitMaxInterval {
			interval = waitMaxInterval
		}
	}
}

// evaluateCondition tests one WaitCondition against the session's current
// (already updated) state.
func evaluateCondition(s *session.Session, cond domain.WaitCondition) bool {
	switch cond.Kind {
	case domain.WaitText:
		return strings.Contains(s.ScreenText(), cond.Text)
	case domain.WaitTextGone:
		return !strings.Contains(s.ScreenText(), cond.Text)
	case domain.WaitElement:
		_, ok := resolveElementRef(s.DetectElements(), cond.ElementRef)
		return ok
	case domain.WaitFocused:
		el, ok := resolveElementRef(s.DetectElements(), cond.ElementRef)
		return ok && el.Focused
	case domain.WaitNotVisible:
		_, ok := resolveElementRef(s.DetectElements(), cond.ElementRef)
		return !ok
	case domain.WaitValue:
		// An element that has disappeared mid-wait is treated as
		// not-yet-satisfied.
		el, ok := resolveElementRef(s.DetectElements(), cond.ElementRef)
		return ok && el.Value == cond.ExpectedValue
	case domain.WaitStable:
		s.PushScreenHash(s.ScreenHash())
		return s.IsScreenStable()
	default:
		return false
	}
}
