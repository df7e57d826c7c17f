// Package sessionrepo is the process-wide registry of PTY-backed
// sessions: a map behind a sync.RWMutex, an active-session pointer, a
// capacity bound, and one exclusive lock per session. Strict ordering
// rule: the outer map lock is never held while a session's own lock is
// acquired.
package sessionrepo

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/metrics"
	"github.com/pproenca/agent-tui/internal/ptyhandle"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/session"
)

type entry struct {
	sess *session.Session
	lock *lock
}

// Repository owns every live session in the daemon.
type Repository struct {
	mu          sync.RWMutex
	sessions    map[domain.SessionID]*entry
	order       []domain.SessionID
	active      domain.SessionID
	hasActive   bool
	maxSessions int
	metrics     *metrics.Metrics
	lockTimeout time.Duration
}

// New creates an empty repository. lockTimeout is the default per-request
// session-lock timeout (AGENT_TUI_LOCK_TIMEOUT_MS).
func New(maxSessions int, lockTimeout time.Duration, m *metrics.Metrics) *Repository {
	return &Repository{
		sessions:    make(map[domain.SessionID]*entry),
		maxSessions: maxSessions,
		metrics:     m,
		lockTimeout: lockTimeout,
	}
}

// SpawnOptions is the input to Spawn.
type SpawnOptions struct {
	Command     string
	Args        []string
	Cwd         string
	Env         map[string]string
	RequestedID string
	Cols        int
	Rows        int
}

// Spawn constructs a new session and inserts it into the repository. The
// first spawned session becomes active. Capacity and id-collision are
// checked before the (possibly slow) PTY spawn is attempted.
func (r *Repository) Spawn(opts SpawnOptions) (domain.SessionID, int, error) {
	size := domain.ClampSize(opts.Cols, opts.Rows)

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.reserveID(opts.RequestedID)
	if err != nil {
		return "", 0, err
	}
	if len(r.sessions) >= r.maxSessions {
		return "", 0, rpcerr.SessionLimitReached(r.maxSessions)
	}

	pty, err := ptyhandle.Spawn(ptyhandle.SpawnOptions{
		Command: opts.Command,
		Args:    opts.Args,
		Cwd:     opts.Cwd,
		Env:     opts.Env,
		Cols:    size.Cols,
		Rows:    size.Rows,
	})
	if err != nil {
		return "", 0, translateSpawnError(opts.Command, err)
	}

	sess := session.New(id, opts.Command, opts.Args, pty, size)
	r.sessions[id] = &entry{sess: sess, lock: newLock()}
	r.order = append(r.order, id)
	if !r.hasActive {
		r.active = id
		r.hasActive = true
	}
	return id, pty.PID(), nil
}

func (r *Repository) reserveID(requested string) (domain.SessionID, error) {
	if requested == "" {
		return domain.SessionID(uuid.New().String()), nil
	}
	id, err := domain.NewSessionID(requested)
	if err != nil {
		return "", rpcerr.InvalidSessionID(requested)
	}
	if _, exists := r.sessions[id]; exists {
		return "", rpcerr.SessionIDInUse(requested)
	}
	return id, nil
}

func translateSpawnError(command string, err error) *rpcerr.Error {
	if pe, ok := err.(*ptyhandle.Error); ok && pe.Op == ptyhandle.OpSpawn {
		switch pe.SpawnKind {
		case ptyhandle.SpawnNotFound:
			return rpcerr.CommandNotFound(command)
		case ptyhandle.SpawnPermissionDenied:
			return rpcerr.PermissionDenied(command)
		}
	}
	return rpcerr.PtyError("spawn", err.Error(), false)
}

// resolveLocked returns the entry for id, or the active entry when id is
// empty. Callers must hold at least a read lock on r.mu; it never takes a
// session lock itself.
func (r *Repository) resolveLocked(id domain.SessionID) (domain.SessionID, *entry, error) {
	if id == "" {
		if !r.hasActive {
			return "", nil, rpcerr.NoActiveSession()
		}
		id = r.active
	}
	e, ok := r.sessions[id]
	if !ok {
		return "", nil, rpcerr.SessionNotFound(string(id))
	}
	return id, e, nil
}

// WithSession resolves id (or the active session when id is empty),
// acquires its exclusive lock with the repository's default timeout, and
// runs fn while holding it. A panic inside fn poisons the session's lock;
// the next WithSession call on the same session observes that and
// increments the poison_recoveries metric before proceeding.
func (r *Repository) WithSession(id domain.SessionID, fn func(*session.Session) error) error {
	return r.withSessionTimeout(id, r.lockTimeout, fn)
}

func (r *Repository) withSessionTimeout(id domain.SessionID, timeout time.Duration, fn func(*session.Session) error) error {
	r.mu.RLock()
	resolvedID, e, err := r.resolveLocked(id)
	r.mu.RUnlock()
	if err != nil {
		return err
	}

	g, ok := e.lock.tryAcquire(timeout)
	if !ok {
		return rpcerr.LockTimeout(string(resolvedID))
	}
	if g.recovered {
		r.metrics.IncPoisonRecovery()
	}
	defer g.release()
	return fn(e.sess)
}

// Resolve returns a read-only SessionInfo projection without taking the
// session lock, for use cases that only need PID/size/running rather than
// live terminal state.
func (r *Repository) Resolve(id domain.SessionID) (domain.SessionInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, e, err := r.resolveLocked(id)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	return infoOf(e.sess), nil
}

// SetActive makes id the active session. The id must already exist.
func (r *Repository) SetActive(id domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return rpcerr.SessionNotFound(string(id))
	}
	r.active = id
	r.hasActive = true
	return nil
}

// ActiveSessionID returns the active session id, if any.
func (r *Repository) ActiveSessionID() (domain.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, r.hasActive
}

// List returns a snapshot of every session's info, in insertion order.
func (r *Repository) List() []domain.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SessionInfo, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.sessions[id]; ok {
			out = append(out, infoOf(e.sess))
		}
	}
	return out
}

// SessionCount returns the number of sessions currently registered.
func (r *Repository) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Kill stops id's PTY child and removes it from the repository. If id was
// active, the active pointer is cleared.
func (r *Repository) Kill(id domain.SessionID) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return rpcerr.SessionNotFound(string(id))
	}
	delete(r.sessions, id)
	r.order = removeID(r.order, id)
	if r.hasActive && r.active == id {
		r.hasActive = false
		r.active = ""
	}
	r.mu.Unlock()

	// Acquire the session's own lock before killing it so an in-flight
	// operation on the same session finishes first, per the repository's
	// locking discipline (outer lock never held with an inner one).
	g := e.lock.acquireBlocking()
	defer g.release()
	return e.sess.Kill()
}

// KillAll kills every session currently registered, used by daemon
// shutdown. Errors are collected but do not stop the sweep.
func (r *Repository) KillAll() map[domain.SessionID]error {
	r.mu.RLock()
	ids := make([]domain.SessionID, len(r.order))
	copy(ids, r.order)
	r.mu.RUnlock()

	failures := make(map[domain.SessionID]error)
	for _, id := range ids {
		if err := r.Kill(id); err != nil {
			failures[id] = err
		}
	}
	return failures
}

func removeID(order []domain.SessionID, id domain.SessionID) []domain.SessionID {
	out := order[:0]
	for _, existing := range order {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func infoOf(s *session.Session) domain.SessionInfo {
	return domain.SessionInfo{
		ID:        s.ID,
		Command:   s.Command,
		Args:      s.Args,
		PID:       s.PID(),
		Running:   s.IsRunning(),
		CreatedAt: s.CreatedAt,
		Size:      s.Size(),
	}
}
