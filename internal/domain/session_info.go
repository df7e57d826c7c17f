package domain

import "time"

// SessionInfo is the read-only projection of a Session returned by the
// sessions/spawn/restart use cases.
type SessionInfo struct {
	ID        SessionID
	Command   string
	Args      []string
	PID       int
	Running   bool
	CreatedAt time.Time
	Size      TerminalSize
}
