// Package session composes a PTY handle and a terminal emulator into one
// aggregate, together with the recording buffer and the trace/error
// rings the trace/console/errors RPC methods read back out. Kill
// signals the child, then reaps it and closes the PTY master fd, which
// ends the reader goroutine; the emulator goes with the Session.
package session

import (
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/keymap"
	"github.com/pproenca/agent-tui/internal/ptyhandle"
	"github.com/pproenca/agent-tui/internal/rpcerr"
	"github.com/pproenca/agent-tui/internal/termemu"
	"github.com/pproenca/agent-tui/internal/vom"
)

// updateBudget bounds how many bytes a single update() call drains from
// the PTY before returning, so one busy session cannot starve others
// sharing the repository.
const updateBudget = 64 * 1024

// traceRingSize and errorRingSize bound the trace and error rings.
const (
	traceRingSize = 1024
	errorRingSize = 256
)

// TraceKind enumerates the recorded event kinds for the `trace` RPC
// method.
type TraceKind string

const (
	TraceSpawn     TraceKind = "spawn"
	TraceResize    TraceKind = "resize"
	TraceKeystroke TraceKind = "keystroke"
	TraceWait      TraceKind = "wait"
	TraceKill      TraceKind = "kill"
)

// TraceEntry is one entry of the trace ring.
type TraceEntry struct {
	Seq    uint64
	At     time.Time
	Kind   TraceKind
	Detail string
}

// ErrorEntry is one entry of the error ring, recorded whenever a use case
// returns a non-nil *rpcerr.Error for this session.
type ErrorEntry struct {
	Seq     uint64
	At      time.Time
	Code    int
	Message string
}

// RecordingFrame is one frame of a recording: the screen text at the time
// it last changed.
type RecordingFrame struct {
	TimestampMs int64
	Screen      string
}

// Session couples one PTY handle to one emulator, plus the
// recording/trace/error bookkeeping use cases read back out. A Session
// is not safe for concurrent use on its own; exclusive access is
// enforced by the per-session lock the repository holds around every
// operation (internal/sessionrepo).
type Session struct {
	ID        domain.SessionID
	Command   string
	Args      []string
	CreatedAt time.Time

	pty  *ptyhandle.Handle
	term *termemu.Emulator

	lastScreenHash [3]uint64
	hashCount      int

	recording      bool
	recordingStart time.Time
	frames         []RecordingFrame
	lastFrameText  string

	attached bool

	traceSeq uint64
	trace    []TraceEntry
	errSeq   uint64
	errs     []ErrorEntry
}

// New wires a freshly spawned PTY handle and a fresh emulator into a
// Session. The caller has already resolved command/args/size.
func New(id domain.SessionID, command string, args []string, pty *ptyhandle.Handle, size domain.TerminalSize) *Session {
	s := &Session{
		ID:        id,
		Command:   command,
		Args:      args,
		CreatedAt: time.Now(),
		pty:       pty,
		term:      termemu.New(size),
	}
	s.recordTrace(TraceSpawn, command+" "+sizeDetail(size))
	return s
}

// Update drains up to updateBudget bytes currently buffered from the PTY
// and feeds them to the emulator, appending a recording frame if active
// and the screen changed. Callers must hold the session lock.
func (s *Session) Update() error {
	buf := make([]byte, 4096)
	total := 0
	for total < updateBudget {
		n, err := s.pty.TryRead(buf, 0)
		if n > 0 {
			s.term.Feed(buf[:n])
			total += n
		}
		if err != nil {
			if n == 0 {
				return rpcerr.PtyError("read", err.Error(), true)
			}
		}
		if n == 0 {
			break
		}
	}
	s.captureRecordingFrame()
	return nil
}

func (s *Session) captureRecordingFrame() {
	if !s.recording {
		return
	}
	text := s.term.TextDump()
	if text == s.lastFrameText {
		return
	}
	s.lastFrameText = text
	s.frames = append(s.frames, RecordingFrame{
		TimestampMs: time.Since(s.recordingStart).Milliseconds(),
		Screen:      text,
	})
}

// ScreenText returns the current screen contents as plain text.
func (s *Session) ScreenText() string { return s.term.TextDump() }

// ScreenRender returns the current screen as ANSI-styled text, for
// callers that want to display it rather than analyze it.
func (s *Session) ScreenRender() string { return s.term.RenderANSI() }

// ScreenRenderRegion is ScreenRender cropped to a sub-rectangle of the
// grid, in cell coordinates.
func (s *Session) ScreenRenderRegion(x, y, w, h int) string {
	return s.term.RenderANSIRegion(x, y, w, h)
}

// ScreenHash returns a stable hash of the current screen text, used by
// the Wait use case's Stable condition.
func (s *Session) ScreenHash() uint64 {
	return fnv64(s.term.TextDump())
}

// PushScreenHash records the latest screen hash into the 3-wide sliding
// window the Stable wait condition inspects.
func (s *Session) PushScreenHash(h uint64) {
	s.lastScreenHash[0] = s.lastScreenHash[1]
	s.lastScreenHash[1] = s.lastScreenHash[2]
	s.lastScreenHash[2] = h
	if s.hashCount < 3 {
		s.hashCount++
	}
}

// IsScreenStable reports whether the last three pushed hashes are equal.
func (s *Session) IsScreenStable() bool {
	return s.hashCount == 3 && s.lastScreenHash[0] == s.lastScreenHash[1] && s.lastScreenHash[1] == s.lastScreenHash[2]
}

// Cursor returns the current cursor position.
func (s *Session) Cursor() domain.CursorPosition { return s.term.Cursor() }

// Size returns the current terminal size.
func (s *Session) Size() domain.TerminalSize { return s.term.Size() }

// PtyWrite forwards raw bytes to the child.
func (s *Session) PtyWrite(data []byte) error {
	if err := s.pty.Write(data); err != nil {
		return rpcerr.PtyError("write", err.Error(), true)
	}
	return nil
}

// PtyTryRead drains up to len(buf) bytes directly from the PTY without
// going through the emulator, for the attach byte-tunnel.
func (s *Session) PtyTryRead(buf []byte, timeout time.Duration) (int, error) {
	n, err := s.pty.TryRead(buf, timeout)
	if err != nil && n == 0 {
		return 0, rpcerr.PtyError("read", err.Error(), true)
	}
	return n, nil
}

// Keystroke resolves a key name and writes its bytes to the PTY.
func (s *Session) Keystroke(key string) error {
	b, err := keymap.KeyToBytes(key)
	if err != nil {
		return err
	}
	s.recordTrace(TraceKeystroke, key)
	return s.PtyWrite(b)
}

// TypeText writes raw UTF-8 text to the PTY, one write.
func (s *Session) TypeText(text string) error {
	s.recordTrace(TraceKeystroke, "type:"+truncateForTrace(text))
	return s.PtyWrite([]byte(text))
}

// KeyDown resolves a key name and writes its bytes to the PTY, the same
// as Keystroke. A PTY has no notion of a held key, so press-and-release
// is modeled as two independent RPCs rather than one stateful gesture:
// KeyDown emits the bytes, KeyUp is the paired no-op.
func (s *Session) KeyDown(key string) error {
	b, err := keymap.KeyToBytes(key)
	if err != nil {
		return err
	}
	s.recordTrace(TraceKeystroke, "down:"+key)
	return s.PtyWrite(b)
}

// KeyUp validates the key name but writes nothing, since the PTY byte
// stream has no held-key state to release.
func (s *Session) KeyUp(key string) error {
	if _, err := keymap.KeyToBytes(key); err != nil {
		return err
	}
	s.recordTrace(TraceKeystroke, "up:"+key)
	return nil
}

// Resize updates both the PTY and the emulator to the given size.
func (s *Session) Resize(size domain.TerminalSize) error {
	if err := s.pty.Resize(size.Cols, size.Rows); err != nil {
		return rpcerr.PtyError("resize", err.Error(), false)
	}
	s.term.Resize(size)
	s.recordTrace(TraceResize, sizeDetail(size))
	return nil
}

// IsRunning reports whether the child process is still alive.
func (s *Session) IsRunning() bool { return s.pty.IsRunning() }

// PID returns the child's process id.
func (s *Session) PID() int { return s.pty.PID() }

// Kill terminates the child process.
func (s *Session) Kill() error {
	s.recordTrace(TraceKill, "")
	if err := s.pty.Kill(); err != nil {
		return rpcerr.PtyError("kill", err.Error(), false)
	}
	// Reap the child and release the PTY master fd; the wait error only
	// reports how the child died.
	_ = s.pty.Wait()
	return nil
}

// AnalyzeScreen runs the VOM pipeline over the current screen and cursor.
func (s *Session) AnalyzeScreen() []domain.Component {
	grid := vom.RowGrid{Rows_: toVomRows(s.term.Grid())}
	opts := vom.DefaultClassifyOptions(s.term.Size().Cols)
	return vom.Classify(vom.Segment(grid), s.term.Cursor(), opts)
}

func toVomRows(rows []termemu.Row) [][]domain.ScreenCell {
	out := make([][]domain.ScreenCell, len(rows))
	for i, r := range rows {
		out[i] = r.Cells
	}
	return out
}

// DetectElements derives addressable elements from the component list,
// assigning 1-based @e{N} refs in detection order.
func (s *Session) DetectElements() []domain.Element {
	components := s.AnalyzeScreen()
	cursor := s.term.Cursor()
	out := make([]domain.Element, 0, len(components))
	for i, c := range components {
		label := strings.TrimSpace(c.TextContent)
		el := domain.Element{
			ElementRef:  elementRef(i + 1),
			ElementType: c.Role,
			Label:       label,
			Position:    c.Bounds,
			Selected:    c.Selected,
			Focused:     cursorWithin(cursor, c.Bounds),
		}
		if c.Role == domain.RoleInput {
			el.Value = label
		}
		if c.Role == domain.RoleCheckbox {
			checked := c.Selected
			el.Checked = &checked
		}
		out = append(out, el)
	}
	return out
}

// cursorWithin reports whether the cursor sits inside rect, used to
// derive Element.Focused from the emulator's cursor position since the
// VOM pipeline itself has no notion of UI focus.
func cursorWithin(cursor domain.CursorPosition, rect domain.Rect) bool {
	return cursor.Row == rect.Y && cursor.Col >= rect.X && cursor.Col < rect.X+rect.W
}

func elementRef(n int) string {
	return "@e{" + strconv.Itoa(n) + "}"
}

// Attach marks the session as claimed by an agent connection. It carries
// no byte-tunnel semantics of its own; it only records intent so
// `sessions`/`snapshot` callers can tell an agent has already claimed this
// session.
func (s *Session) Attach() {
	s.attached = true
}

// Attached reports whether Attach has been called on this session.
func (s *Session) Attached() bool { return s.attached }

// StartRecording begins a new recording, discarding any previous frames.
func (s *Session) StartRecording() {
	s.recording = true
	s.recordingStart = time.Now()
	s.frames = nil
	s.lastFrameText = ""
}

// StopRecording ends the current recording, if any.
func (s *Session) StopRecording() {
	s.recording = false
}

// RecordingStatus reports the current recording state.
func (s *Session) RecordingStatus() (recording bool, frameCount int, startedAt time.Time) {
	return s.recording, len(s.frames), s.recordingStart
}

// RecordWaitTrace notes a wait operation in the trace ring; the wait use
// case calls it once per wait, not per polling iteration.
func (s *Session) RecordWaitTrace(detail string) {
	s.recordTrace(TraceWait, detail)
}

// Trace returns up to n most recent trace ring entries, oldest first.
func (s *Session) Trace(n int) []TraceEntry {
	return lastN(s.trace, n)
}

// Errors returns up to n most recent error ring entries, oldest first.
func (s *Session) Errors(n int) []ErrorEntry {
	return lastN(s.errs, n)
}

// RecordError appends an entry to the error ring; called by the use case
// layer whenever an operation on this session fails with a domain error.
func (s *Session) RecordError(err *rpcerr.Error) {
	s.errSeq++
	s.errs = appendBounded(s.errs, ErrorEntry{Seq: s.errSeq, At: time.Now(), Code: err.Code, Message: err.Message}, errorRingSize)
}

func (s *Session) recordTrace(kind TraceKind, detail string) {
	s.traceSeq++
	s.trace = appendBounded(s.trace, TraceEntry{Seq: s.traceSeq, At: time.Now(), Kind: kind, Detail: detail}, traceRingSize)
}

func appendBounded[T any](ring []T, entry T, cap int) []T {
	ring = append(ring, entry)
	if len(ring) > cap {
		ring = ring[len(ring)-cap:]
	}
	return ring
}

func lastN[T any](ring []T, n int) []T {
	if n <= 0 || n > len(ring) {
		n = len(ring)
	}
	out := make([]T, n)
	copy(out, ring[len(ring)-n:])
	return out
}

func truncateForTrace(s string) string {
	const max = 64
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func sizeDetail(size domain.TerminalSize) string {
	return strconv.Itoa(size.Cols) + "x" + strconv.Itoa(size.Rows)
}

func fnv64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
