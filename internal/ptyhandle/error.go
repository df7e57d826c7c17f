package ptyhandle

import "fmt"

// Op identifies which PTY operation failed.
type Op string

const (
	OpOpen   Op = "open"
	OpSpawn  Op = "spawn"
	OpRead   Op = "read"
	OpWrite  Op = "write"
	OpResize Op = "resize"
)

// SpawnKind further classifies an OpSpawn failure.
type SpawnKind string

const (
	SpawnNotFound         SpawnKind = "not_found"
	SpawnPermissionDenied SpawnKind = "permission_denied"
	SpawnOther            SpawnKind = "other"
)

// Error reports a failure of one PTY operation, with spawn failures
// further classified so callers can map them to command-not-found and
// permission-denied responses.
type Error struct {
	Op        Op
	SpawnKind SpawnKind // only meaningful when Op == OpSpawn
	Reason    string
	Err       error
}

func (e *Error) Error() string {
	if e.Op == OpSpawn && e.SpawnKind != "" {
		return fmt.Sprintf("pty spawn error (%s): %s", e.SpawnKind, e.Reason)
	}
	return fmt.Sprintf("pty %s error: %s", e.Op, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op Op, reason string, err error) *Error {
	return &Error{Op: op, Reason: reason, Err: err}
}
