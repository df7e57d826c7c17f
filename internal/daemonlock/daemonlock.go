// Package daemonlock guards the daemon's socket with an exclusive
// advisory lock file, so only one daemon instance serves a given socket
// path at a time. A stale lock whose recorded owner PID is dead is
// cleared on startup.
package daemonlock

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// acquireTimeout bounds how long we wait for the advisory lock.
const acquireTimeout = 2 * time.Second

// Lock is an acquired advisory lock on a sibling ".lock" file next to the
// daemon's socket.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the exclusive advisory lock at path, clearing a stale
// lock first if its recorded owner PID is no longer alive. It writes the
// current process's PID into the lock file once acquired, so the next
// daemon can perform the same staleness check.
func Acquire(path string) (*Lock, error) {
	clearStaleLock(path)

	fl := flock.New(path)
	deadline := time.Now().Add(acquireTimeout)
	for {
		ok, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire daemon lock %s: %w", path, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("acquire daemon lock %s: another daemon instance is already running", path)
		}
		time.Sleep(50 * time.Millisecond)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("write daemon lock pid: %w", err)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Release unlocks and removes the lock file. It is safe to call once, at
// clean shutdown only.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return err
	}
	return os.Remove(l.path)
}

// clearStaleLock removes path if it names a PID that is no longer alive.
// A malformed or unreadable lock file is left alone; the subsequent
// flock.TryLock call is the real arbiter of ownership.
func clearStaleLock(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return
	}
	if pidAlive(pid) {
		return
	}
	os.Remove(path)
}

// pidAlive reports whether pid names a live process, using the signal-0
// liveness probe (no actual signal delivered).
func pidAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err != unix.ESRCH
}
