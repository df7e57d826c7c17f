package usecase

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pproenca/agent-tui/internal/metrics"
	"github.com/pproenca/agent-tui/internal/sessionrepo"
)

func newTestDeps(t *testing.T, maxSessions int) *Deps {
	t.Helper()
	m := metrics.New()
	return &Deps{
		Repo:       sessionrepo.New(maxSessions, 2*time.Second, m),
		Metrics:    m,
		Shutdown:   NewShutdownFlag(),
		MaxSession: maxSessions,
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return b
}

func spawnCatSession(t *testing.T, deps *Deps) string {
	t.Helper()
	res, rerr := Spawn(deps, mustJSON(t, SpawnParams{Command: "/bin/cat", Cols: 80, Rows: 24}))
	if rerr != nil {
		t.Fatalf("Spawn: %v", rerr)
	}
	return res.(SpawnResult).SessionID
}

func TestSpawnAndKill(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)

	killRes, rerr := Kill(deps, mustJSON(t, KillParams{ID: id}))
	if rerr != nil {
		t.Fatalf("Kill: %v", rerr)
	}
	if !killRes.(KillResult).Success {
		t.Fatal("Kill() Success = false, want true")
	}
}

func TestSpawnRequiresCommand(t *testing.T) {
	deps := newTestDeps(t, 8)
	_, rerr := Spawn(deps, mustJSON(t, SpawnParams{}))
	if rerr == nil {
		t.Fatal("expected invalid_params error for missing command")
	}
}

func TestPingAlwaysSucceeds(t *testing.T) {
	res, rerr := Ping(nil, nil)
	if rerr != nil {
		t.Fatalf("Ping: %v", rerr)
	}
	if !res.(PingResult).Pong {
		t.Fatal("Pong = false, want true")
	}
}

func TestHealthReflectsShutdownState(t *testing.T) {
	deps := newTestDeps(t, 8)
	res, rerr := Health(deps, nil)
	if rerr != nil {
		t.Fatalf("Health: %v", rerr)
	}
	if res.(HealthResult).Status != "ok" {
		t.Fatalf("Status = %q, want ok", res.(HealthResult).Status)
	}

	deps.Shutdown.Set()
	res, rerr = Health(deps, nil)
	if rerr != nil {
		t.Fatalf("Health: %v", rerr)
	}
	if res.(HealthResult).Status != "shutting_down" {
		t.Fatalf("Status = %q, want shutting_down", res.(HealthResult).Status)
	}
}

func TestTypeAndSnapshotRoundTrip(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	if _, rerr := Type(deps, mustJSON(t, TypeParams{ID: id, Text: "ping-from-usecase-test"})); rerr != nil {
		t.Fatalf("Type: %v", rerr)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		res, rerr := Snapshot(deps, mustJSON(t, SnapshotParams{ID: id}))
		if rerr != nil {
			t.Fatalf("Snapshot: %v", rerr)
		}
		if strings.Contains(res.(SnapshotResult).Screen, "ping-from-usecase-test") {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for echoed text, got %q", res.(SnapshotResult).Screen)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWaitTimesOutWhenTextNeverAppears(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	res, rerr := Wait(deps, mustJSON(t, WaitParams{ID: id, Condition: "text", Text: "never-appears-xyz", TimeoutMs: 150}))
	if rerr != nil {
		t.Fatalf("Wait: %v", rerr)
	}
	wr := res.(WaitResult)
	if wr.Found {
		t.Fatal("Found = true for text that never appears, want false")
	}
	if wr.ElapsedMs < 150 || wr.ElapsedMs >= 400 {
		t.Fatalf("ElapsedMs = %d, want in [150, 400)", wr.ElapsedMs)
	}
}

func TestWaitFindsTextAlreadyOnScreen(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	if _, rerr := Type(deps, mustJSON(t, TypeParams{ID: id, Text: "READY"})); rerr != nil {
		t.Fatalf("Type: %v", rerr)
	}

	res, rerr := Wait(deps, mustJSON(t, WaitParams{ID: id, Condition: "text", Text: "READY", TimeoutMs: 1000}))
	if rerr != nil {
		t.Fatalf("Wait: %v", rerr)
	}
	wr := res.(WaitResult)
	if !wr.Found {
		t.Fatal("Found = false for text the child echoes back, want true")
	}
	if wr.ElapsedMs >= 1000 {
		t.Fatalf("ElapsedMs = %d, want well under the 1000ms timeout", wr.ElapsedMs)
	}
}

func TestWaitStableSucceedsOnQuietScreen(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	res, rerr := Wait(deps, mustJSON(t, WaitParams{ID: id, Condition: "stable", TimeoutMs: 2000}))
	if rerr != nil {
		t.Fatalf("Wait: %v", rerr)
	}
	if !res.(WaitResult).Found {
		t.Fatal("Found = false for a quiet cat session, want stable within 2s")
	}
}

func TestWaitRejectsUnknownCondition(t *testing.T) {
	deps := newTestDeps(t, 8)
	_, rerr := Wait(deps, mustJSON(t, WaitParams{Condition: "bogus-condition"}))
	if rerr == nil {
		t.Fatal("expected invalid_params error for an unknown condition kind")
	}
}

func TestAccessibilitySnapshotDeterministic(t *testing.T) {
	deps := newTestDeps(t, 8)
	res, rerr := Spawn(deps, mustJSON(t, SpawnParams{Command: "/bin/cat", Cols: 40, Rows: 5}))
	if rerr != nil {
		t.Fatalf("Spawn: %v", rerr)
	}
	id := res.(SpawnResult).SessionID
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	if _, rerr := Type(deps, mustJSON(t, TypeParams{ID: id, Text: "[ OK ]  [X] opt"})); rerr != nil {
		t.Fatalf("Type: %v", rerr)
	}
	// Let the echo settle so the two snapshots observe the same frame.
	if _, rerr := Wait(deps, mustJSON(t, WaitParams{ID: id, Condition: "stable", TimeoutMs: 2000})); rerr != nil {
		t.Fatalf("Wait: %v", rerr)
	}

	first, rerr := AccessibilitySnapshot(deps, mustJSON(t, AccessibilitySnapshotParams{ID: id, InteractiveOnly: true}))
	if rerr != nil {
		t.Fatalf("AccessibilitySnapshot: %v", rerr)
	}
	second, rerr := AccessibilitySnapshot(deps, mustJSON(t, AccessibilitySnapshotParams{ID: id, InteractiveOnly: true}))
	if rerr != nil {
		t.Fatalf("AccessibilitySnapshot: %v", rerr)
	}

	a := first.(AccessibilitySnapshotResult)
	b := second.(AccessibilitySnapshotResult)
	if a.Tree != b.Tree {
		t.Fatalf("trees differ with no intervening writes:\n%q\nvs\n%q", a.Tree, b.Tree)
	}
	if a.Stats != b.Stats {
		t.Fatalf("stats differ: %+v vs %+v", a.Stats, b.Stats)
	}
}

func TestSnapshotTwiceWithoutActivityIsStable(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	if _, rerr := Wait(deps, mustJSON(t, WaitParams{ID: id, Condition: "stable", TimeoutMs: 2000})); rerr != nil {
		t.Fatalf("Wait: %v", rerr)
	}

	first, rerr := Snapshot(deps, mustJSON(t, SnapshotParams{ID: id}))
	if rerr != nil {
		t.Fatalf("Snapshot: %v", rerr)
	}
	second, rerr := Snapshot(deps, mustJSON(t, SnapshotParams{ID: id}))
	if rerr != nil {
		t.Fatalf("Snapshot: %v", rerr)
	}
	if first.(SnapshotResult).Screen != second.(SnapshotResult).Screen {
		t.Fatal("screen differs between two snapshots with no PTY activity")
	}
}

func TestSnapshotRegionCropsScreen(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	if _, rerr := Type(deps, mustJSON(t, TypeParams{ID: id, Text: "abcdef"})); rerr != nil {
		t.Fatalf("Type: %v", rerr)
	}
	if _, rerr := Wait(deps, mustJSON(t, WaitParams{ID: id, Condition: "text", Text: "abcdef", TimeoutMs: 2000})); rerr != nil {
		t.Fatalf("Wait: %v", rerr)
	}

	res, rerr := Snapshot(deps, mustJSON(t, SnapshotParams{
		ID:     id,
		Region: &RegionDTO{Row: 0, Col: 2, Width: 3, Height: 1},
	}))
	if rerr != nil {
		t.Fatalf("Snapshot: %v", rerr)
	}
	if got := res.(SnapshotResult).Screen; got != "cde" {
		t.Fatalf("cropped screen = %q, want cde", got)
	}
}

func TestResizeClampsAndReportsSize(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	res, rerr := Resize(deps, mustJSON(t, ResizeParams{ID: id, Cols: 5000, Rows: 1}))
	if rerr != nil {
		t.Fatalf("Resize: %v", rerr)
	}
	size := res.(ResizeResult).Size
	if size.Cols != 500 || size.Rows != 2 {
		t.Fatalf("size = %+v, want clamped to {500 2}", size)
	}
}

func TestRestartReplacesSessionWithSameCommand(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)

	res, rerr := Restart(deps, mustJSON(t, RestartParams{ID: id}))
	if rerr != nil {
		t.Fatalf("Restart: %v", rerr)
	}
	rr := res.(RestartResult)
	defer Kill(deps, mustJSON(t, KillParams{ID: rr.NewSessionID}))

	if rr.OldSessionID != id {
		t.Fatalf("OldSessionID = %q, want %q", rr.OldSessionID, id)
	}
	if rr.NewSessionID == id {
		t.Fatal("NewSessionID equals the killed session's id")
	}
	if rr.Command != "/bin/cat" {
		t.Fatalf("Command = %q, want /bin/cat", rr.Command)
	}

	if _, rerr := Snapshot(deps, mustJSON(t, SnapshotParams{ID: id})); rerr == nil {
		t.Fatal("old session still resolvable after restart")
	}
}

func TestRecordStartStopStatus(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	res, rerr := RecordStart(deps, mustJSON(t, RecordParams{ID: id}))
	if rerr != nil {
		t.Fatalf("RecordStart: %v", rerr)
	}
	if !res.(RecordStatusResult).Recording {
		t.Fatal("Recording = false after RecordStart, want true")
	}

	res, rerr = RecordStop(deps, mustJSON(t, RecordParams{ID: id}))
	if rerr != nil {
		t.Fatalf("RecordStop: %v", rerr)
	}
	if res.(RecordStatusResult).Recording {
		t.Fatal("Recording = true after RecordStop, want false")
	}
}

func TestPtyWriteAndRead(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	_, rerr := PtyWrite(deps, mustJSON(t, PtyWriteParams{ID: id, DataB64: "cGluZw=="})) // "ping"
	if rerr != nil {
		t.Fatalf("PtyWrite: %v", rerr)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		res, rerr := PtyRead(deps, mustJSON(t, PtyReadParams{ID: id, TimeoutMs: 50}))
		if rerr != nil {
			t.Fatalf("PtyRead: %v", rerr)
		}
		if res.(PtyReadResult).DataB64 != "" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for pty_read to return data")
		}
	}
}

func TestPtyWriteRejectsInvalidBase64(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	_, rerr := PtyWrite(deps, mustJSON(t, PtyWriteParams{ID: id, DataB64: "not-valid-base64!!"}))
	if rerr == nil {
		t.Fatal("expected invalid_params error for malformed base64")
	}
}

func TestConsoleReturnsRawText(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	if _, rerr := Type(deps, mustJSON(t, TypeParams{ID: id, Text: "console-check"})); rerr != nil {
		t.Fatalf("Type: %v", rerr)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		res, rerr := Console(deps, mustJSON(t, RingParams{ID: id}))
		if rerr != nil {
			t.Fatalf("Console: %v", rerr)
		}
		if strings.Contains(res.(ConsoleResult).Text, "console-check") {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for console text")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestTraceRecordsKeystrokes(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	if _, rerr := Keystroke(deps, mustJSON(t, KeystrokeParams{ID: id, Key: "Enter"})); rerr != nil {
		t.Fatalf("Keystroke: %v", rerr)
	}

	res, rerr := Trace(deps, mustJSON(t, RingParams{ID: id}))
	if rerr != nil {
		t.Fatalf("Trace: %v", rerr)
	}
	entries := res.(TraceResult).Entries
	if len(entries) == 0 {
		t.Fatal("Trace returned no entries after a keystroke")
	}
	if entries[len(entries)-1].Kind != "keystroke" {
		t.Fatalf("last entry kind = %q, want keystroke", entries[len(entries)-1].Kind)
	}
}

func TestAttachMarksSessionAttached(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	res, rerr := Attach(deps, mustJSON(t, AttachParams{ID: id}))
	if rerr != nil {
		t.Fatalf("Attach: %v", rerr)
	}
	if !res.(AttachResult).Success {
		t.Fatal("Success = false, want true")
	}
	if res.(AttachResult).SessionID != id {
		t.Fatalf("SessionID = %q, want %q", res.(AttachResult).SessionID, id)
	}
}

func TestAttachUnknownSessionFails(t *testing.T) {
	deps := newTestDeps(t, 8)
	_, rerr := Attach(deps, mustJSON(t, AttachParams{ID: "does-not-exist"}))
	if rerr == nil {
		t.Fatal("expected SessionNotFound error, got nil")
	}
}

func TestAssertSessionCondition(t *testing.T) {
	deps := newTestDeps(t, 8)
	id := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: id}))

	res, rerr := Assert(deps, mustJSON(t, AssertParams{Condition: "session:" + id}))
	if rerr != nil {
		t.Fatalf("Assert: %v", rerr)
	}
	if !res.(AssertResult).Passed {
		t.Fatal("Passed = false for an existing session, want true")
	}

	res, rerr = Assert(deps, mustJSON(t, AssertParams{Condition: "session:does-not-exist"}))
	if rerr != nil {
		t.Fatalf("Assert: %v", rerr)
	}
	if res.(AssertResult).Passed {
		t.Fatal("Passed = true for a nonexistent session, want false")
	}
}

func TestCleanupKillsOnlyStoppedSessionsByDefault(t *testing.T) {
	deps := newTestDeps(t, 8)
	running := spawnCatSession(t, deps)
	defer Kill(deps, mustJSON(t, KillParams{ID: running}))

	res, rerr := Cleanup(deps, mustJSON(t, CleanupParams{}))
	if rerr != nil {
		t.Fatalf("Cleanup: %v", rerr)
	}
	cleaned := res.(CleanupResult).Cleaned
	for _, id := range cleaned {
		if id == running {
			t.Fatal("Cleanup killed a still-running session without All=true")
		}
	}
}
