package ratelimit

import (
	"testing"
	"time"
)

func TestBurstWithinWindow(t *testing.T) {
	l := New(DefaultWindow, DefaultLimit)
	base := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)

	// Five rapid messages pass, the sixth gets the single warning.
	for i := 0; i < 5; i++ {
		if v := l.Allow(42, base.Add(time.Duration(i)*500*time.Millisecond)); v != OK {
			t.Fatalf("message %d: got %v, want OK", i+1, v)
		}
	}
	if v := l.Allow(42, base.Add(3*time.Second)); v != Warn {
		t.Fatalf("6th message: got %v, want Warn", v)
	}
	// Continued flooding is dropped without further warnings.
	if v := l.Allow(42, base.Add(3500*time.Millisecond)); v != Drop {
		t.Fatalf("7th message: got %v, want Drop", v)
	}
}

func TestResetAfterWindow(t *testing.T) {
	l := New(DefaultWindow, DefaultLimit)
	base := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		l.Allow(42, base.Add(time.Duration(i)*200*time.Millisecond))
	}

	// Beyond the window the counter resets to 1 and the message is accepted.
	later := base.Add(10 * time.Second)
	if v := l.Allow(42, later); v != OK {
		t.Fatalf("after window: got %v, want OK", v)
	}
	l.mu.Lock()
	count := l.users[42].count
	l.mu.Unlock()
	if count != 1 {
		t.Fatalf("counter after reset: got %d, want 1", count)
	}
}

func TestRejectedMessageStillCounts(t *testing.T) {
	l := New(DefaultWindow, 2)
	base := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)

	l.Allow(7, base)
	l.Allow(7, base.Add(time.Second))
	if v := l.Allow(7, base.Add(2*time.Second)); v != Warn {
		t.Fatalf("3rd message: got %v, want Warn", v)
	}
	// The rejected message updated lastSeen, so a message 3s after it is
	// still inside the window and still over the limit.
	if v := l.Allow(7, base.Add(5*time.Second)); v != Drop {
		t.Fatalf("message within window of rejected one: got %v, want Drop", v)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	l := New(DefaultWindow, 1)
	base := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)

	l.Allow(1, base)
	if v := l.Allow(2, base); v != OK {
		t.Fatalf("second user: got %v, want OK", v)
	}
}

func TestSweep(t *testing.T) {
	l := New(DefaultWindow, DefaultLimit)
	base := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)

	l.Allow(1, base)
	l.Allow(2, base.Add(30*time.Minute))
	l.Sweep(base.Add(31*time.Minute), 10*time.Minute)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.users[1]; ok {
		t.Error("stale user not evicted")
	}
	if _, ok := l.users[2]; !ok {
		t.Error("recent user evicted")
	}
}
