package sessionrepo

import (
	"testing"
	"time"
)

func TestTryAcquireZeroTimeoutFailsWhenHeld(t *testing.T) {
	l := newLock()
	g, ok := l.tryAcquire(0)
	if !ok {
		t.Fatal("first tryAcquire(0) failed, want success on an unheld lock")
	}
	if _, ok := l.tryAcquire(0); ok {
		t.Fatal("second tryAcquire(0) succeeded, want failure while held")
	}
	g.release()
	if _, ok := l.tryAcquire(0); !ok {
		t.Fatal("tryAcquire(0) after release failed, want success")
	}
}

func TestTryAcquireTimesOutThenSucceedsAfterRelease(t *testing.T) {
	l := newLock()
	g, _ := l.tryAcquire(0)

	start := time.Now()
	if _, ok := l.tryAcquire(30 * time.Millisecond); ok {
		t.Fatal("tryAcquire succeeded while lock held, want timeout")
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("tryAcquire returned after %v, want to honor ~30ms timeout", elapsed)
	}

	g.release()
	if _, ok := l.tryAcquire(time.Second); !ok {
		t.Fatal("tryAcquire after release failed, want success")
	}
}

func TestPoisonRecoveryIsObservedOnce(t *testing.T) {
	l := newLock()
	func() {
		g, ok := l.tryAcquire(time.Second)
		if !ok {
			t.Fatal("tryAcquire failed")
		}
		defer func() {
			recover()
		}()
		defer g.release()
		panic("simulated handler panic")
	}()

	g2, ok := l.tryAcquire(time.Second)
	if !ok {
		t.Fatal("tryAcquire after poisoning failed, want the token to still be returned")
	}
	if !g2.recovered {
		t.Fatal("recovered = false, want true on the first acquisition after a panic")
	}
	g2.release()

	g3, ok := l.tryAcquire(time.Second)
	if !ok {
		t.Fatal("tryAcquire failed")
	}
	if g3.recovered {
		t.Fatal("recovered = true, want false once poisoning has already been observed")
	}
	g3.release()
}
