package sessionrepo

import (
	"strings"
	"testing"
	"time"

	"github.com/pproenca/agent-tui/internal/domain"
	"github.com/pproenca/agent-tui/internal/metrics"
	"github.com/pproenca/agent-tui/internal/session"
)

func newTestRepo(t *testing.T, maxSessions int) *Repository {
	t.Helper()
	return New(maxSessions, 2*time.Second, metrics.New())
}

func TestSpawnFirstSessionBecomesActive(t *testing.T) {
	r := newTestRepo(t, 8)
	id, pid, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if pid == 0 {
		t.Fatal("pid = 0, want nonzero")
	}
	active, ok := r.ActiveSessionID()
	if !ok || active != id {
		t.Fatalf("ActiveSessionID() = (%v, %v), want (%v, true)", active, ok, id)
	}
	r.Kill(id)
}

func TestSpawnRejectsDuplicateRequestedID(t *testing.T) {
	r := newTestRepo(t, 8)
	id, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, RequestedID: "fixed-id", Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer r.Kill(id)

	_, _, err = r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, RequestedID: "fixed-id", Cols: 80, Rows: 24})
	if err == nil {
		t.Fatal("expected SessionIdInUse error, got nil")
	}
}

func TestSpawnEnforcesCapacity(t *testing.T) {
	r := newTestRepo(t, 1)
	id, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer r.Kill(id)

	_, _, err = r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, Cols: 80, Rows: 24})
	if err == nil {
		t.Fatal("expected SessionLimitReached error, got nil")
	}
}

func TestWithSessionResolvesActiveWhenIDEmpty(t *testing.T) {
	r := newTestRepo(t, 8)
	id, _, err := r.Spawn(SpawnOptions{Command: "/bin/echo", Args: []string{"hi-repo-test"}, Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer r.Kill(id)

	deadline := time.Now().Add(2 * time.Second)
	for {
		var text string
		err := r.WithSession("", func(s *session.Session) error {
			if uerr := s.Update(); uerr != nil {
				return uerr
			}
			text = s.ScreenText()
			return nil
		})
		if err != nil {
			t.Fatalf("WithSession: %v", err)
		}
		if strings.Contains(text, "hi-repo-test") {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for output, got %q", text)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWithSessionUnknownIDFails(t *testing.T) {
	r := newTestRepo(t, 8)
	err := r.WithSession(domain.SessionID("does-not-exist"), func(*session.Session) error { return nil })
	if err == nil {
		t.Fatal("expected SessionNotFound error, got nil")
	}
}

func TestKillRemovesSessionAndClearsActive(t *testing.T) {
	r := newTestRepo(t, 8)
	id, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := r.Kill(id); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if _, ok := r.ActiveSessionID(); ok {
		t.Fatal("ActiveSessionID() still reports a session after Kill")
	}
	if r.SessionCount() != 0 {
		t.Fatalf("SessionCount() = %d, want 0", r.SessionCount())
	}
}

func TestSpawnThenKillRestoresPriorState(t *testing.T) {
	r := newTestRepo(t, 8)
	first, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer r.Kill(first)

	activeBefore, _ := r.ActiveSessionID()
	countBefore := r.SessionCount()

	second, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, RequestedID: "round-trip", Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := r.Kill(second); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	if activeAfter, _ := r.ActiveSessionID(); activeAfter != activeBefore {
		t.Fatalf("active = %v after round trip, want %v unchanged", activeAfter, activeBefore)
	}
	if r.SessionCount() != countBefore {
		t.Fatalf("SessionCount() = %d, want %d", r.SessionCount(), countBefore)
	}

	// The id is freed for reuse.
	reused, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, RequestedID: "round-trip", Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn with freed id: %v", err)
	}
	r.Kill(reused)
}

func TestSpawnRejectsWhitespaceOnlyRequestedID(t *testing.T) {
	r := newTestRepo(t, 8)
	_, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, RequestedID: "   ", Cols: 80, Rows: 24})
	if err == nil {
		t.Fatal("expected invalid-id error for a whitespace-only requested id")
	}
}

func TestSetActiveRequiresExistingSession(t *testing.T) {
	r := newTestRepo(t, 8)
	if err := r.SetActive(domain.SessionID("nope")); err == nil {
		t.Fatal("SetActive succeeded for an unknown id, want SessionNotFound")
	}

	id, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer r.Kill(id)

	other, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, Cols: 80, Rows: 24})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer r.Kill(other)

	if err := r.SetActive(other); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if active, _ := r.ActiveSessionID(); active != other {
		t.Fatalf("active = %v, want %v", active, other)
	}
}

func TestKillAllSweepsEverySession(t *testing.T) {
	r := newTestRepo(t, 8)
	for i := 0; i < 3; i++ {
		if _, _, err := r.Spawn(SpawnOptions{Command: "/bin/sleep", Args: []string{"5"}, Cols: 80, Rows: 24}); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}
	failures := r.KillAll()
	if len(failures) != 0 {
		t.Fatalf("KillAll() failures = %v, want none", failures)
	}
	if r.SessionCount() != 0 {
		t.Fatalf("SessionCount() = %d, want 0", r.SessionCount())
	}
}
