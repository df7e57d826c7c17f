// Package ptyhandle owns a child process connected to the master side of
// a pseudo-terminal. A dedicated reader goroutine pulls child output into
// a bounded event channel, so callers get non-blocking reads while the
// channel (and behind it the kernel's PTY buffer) provides back-pressure
// instead of dropped data.
package ptyhandle

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// eventChanCapacity is the back-pressure boundary: if TryRead stalls
// longer than this many buffered reads, the PTY's kernel buffer starts
// pushing back on the child instead of us dropping data.
const eventChanCapacity = 256

// readChunkSize is the size of each read the reader thread issues against
// the master fd.
const readChunkSize = 8 * 1024

type eventKind int

const (
	eventData eventKind = iota
	eventEOF
	eventError
)

type event struct {
	kind eventKind
	data []byte
	err  error
}

// Handle owns one child process and its PTY master fd.
type Handle struct {
	cmd *exec.Cmd
	ptm *os.File

	events chan event

	mu       sync.Mutex
	deque    []byte
	eofSeen  bool
	lastErr  error
	reported bool // true once a latched Eof/Error has been handed back once
}

// SpawnOptions configures Spawn.
type SpawnOptions struct {
	Command string
	Args    []string
	Cwd     string
	Env     map[string]string
	Cols    int
	Rows    int
}

// Spawn starts command under a new PTY of the given size. The child's
// environment is the process environment plus Env overrides, with TERM
// forced to xterm-256color.
func Spawn(opts SpawnOptions) (*Handle, error) {
	cmd := exec.Command(opts.Command, opts.Args...)
	if opts.Cwd != "" {
		cmd.Dir = opts.Cwd
	}
	cmd.Env = buildEnv(opts.Env)

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(opts.Rows),
		Cols: uint16(opts.Cols),
	})
	if err != nil {
		return nil, classifySpawnError(opts.Command, err)
	}

	h := &Handle{
		cmd:    cmd,
		ptm:    ptm,
		events: make(chan event, eventChanCapacity),
	}
	go h.readLoop()
	return h, nil
}

func buildEnv(extra map[string]string) []string {
	base := os.Environ()
	env := make([]string, 0, len(base)+len(extra)+1)
	for _, e := range base {
		key := e
		if idx := strings.IndexByte(e, '='); idx >= 0 {
			key = e[:idx]
		}
		if _, override := extra[key]; override {
			continue
		}
		if key == "TERM" {
			continue
		}
		env = append(env, e)
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	env = append(env, "TERM=xterm-256color")
	return env
}

func classifySpawnError(command string, err error) *Error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if os.IsNotExist(pathErr.Err) {
			e := newError(OpSpawn, err.Error(), err)
			e.SpawnKind = SpawnNotFound
			return e
		}
		if os.IsPermission(pathErr.Err) {
			e := newError(OpSpawn, err.Error(), err)
			e.SpawnKind = SpawnPermissionDenied
			return e
		}
	}
	if execErr, ok := err.(*exec.Error); ok {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			e := newError(OpSpawn, err.Error(), err)
			e.SpawnKind = SpawnNotFound
			return e
		}
	}
	e := newError(OpSpawn, err.Error(), err)
	e.SpawnKind = SpawnOther
	return e
}

// readLoop is the dedicated reader thread: it blocks on the master fd and
// posts events to a bounded channel, never touching any session lock.
func (h *Handle) readLoop() {
	buf := make([]byte, readChunkSize)
	for {
		n, err := h.ptm.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			h.events <- event{kind: eventData, data: chunk}
		}
		if err != nil {
			if err == io.EOF {
				h.events <- event{kind: eventEOF}
			} else {
				h.events <- event{kind: eventError, err: newError(OpRead, err.Error(), err)}
			}
			return
		}
	}
}

// TryRead drains as many buffered events as possible into the internal
// deque, then copies out what fits into buf. It never blocks longer than
// timeout. Once Eof or Error has been observed and the deque is empty,
// further calls return 0, nil (Eof) or the latched error exactly once.
func (h *Handle) TryRead(buf []byte, timeout time.Duration) (int, error) {
	h.drain(timeout)

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.deque) > 0 {
		n := copy(buf, h.deque)
		h.deque = h.deque[n:]
		return n, nil
	}
	if h.eofSeen || h.lastErr != nil {
		if !h.reported {
			h.reported = true
			return 0, h.lastErr
		}
		return 0, nil
	}
	return 0, nil
}

// drain non-destructively pulls everything currently posted on the event
// channel into the internal byte deque, waiting up to timeout for the
// first event if the deque and channel are both empty.
func (h *Handle) drain(timeout time.Duration) {
	h.mu.Lock()
	hasBuffered := len(h.deque) > 0 || h.eofSeen || h.lastErr != nil
	h.mu.Unlock()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	if !hasBuffered {
		select {
		case ev, ok := <-h.events:
			if ok {
				h.applyEvent(ev)
			}
		case <-deadline.C:
			return
		}
	}

	for {
		select {
		case ev, ok := <-h.events:
			if !ok {
				return
			}
			h.applyEvent(ev)
		default:
			return
		}
	}
}

func (h *Handle) applyEvent(ev event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch ev.kind {
	case eventData:
		h.deque = append(h.deque, ev.data...)
	case eventEOF:
		h.eofSeen = true
	case eventError:
		h.lastErr = ev.err
	}
}

// Write writes all of p to the PTY master or fails. A zero-byte short
// write from the kernel is treated as a non-retryable error.
func (h *Handle) Write(p []byte) error {
	written := 0
	for written < len(p) {
		n, err := h.ptm.Write(p[written:])
		if n == 0 && err == nil {
			return newError(OpWrite, "zero-byte short write", nil)
		}
		written += n
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return newError(OpWrite, err.Error(), err)
		}
	}
	return nil
}

// Resize updates the PTY window size.
func (h *Handle) Resize(cols, rows int) error {
	if err := pty.Setsize(h.ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		return newError(OpResize, err.Error(), err)
	}
	return nil
}

// Kill signals the child. It is idempotent when the child is already gone.
func (h *Handle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return newError(OpWrite, err.Error(), err)
	}
	return nil
}

// Wait blocks until the child exits and releases its resources. Callers
// should run it in its own goroutine if they need to observe exit
// asynchronously.
func (h *Handle) Wait() error {
	err := h.cmd.Wait()
	h.ptm.Close()
	return err
}

// PID returns the child's process id.
func (h *Handle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// IsRunning reports whether the child process has not yet been reaped.
func (h *Handle) IsRunning() bool {
	if h.cmd.Process == nil {
		return false
	}
	return h.cmd.ProcessState == nil
}

// Close releases the PTY master fd without waiting for the child.
func (h *Handle) Close() error {
	return h.ptm.Close()
}
