// Package ratelimit guards against message floods with a per-user sliding
// window. Counters are shared across the process and locked independently of
// any per-user session lock.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultWindow = 4 * time.Second
	DefaultLimit  = 5
)

// Verdict is the outcome of an Allow call.
type Verdict int

const (
	// OK: the message may be processed.
	OK Verdict = iota
	// Warn: the message is dropped and the user should get one warning.
	Warn
	// Drop: the message is dropped silently.
	Drop
)

type entry struct {
	lastSeen time.Time
	count    int
}

// Limiter tracks per-user message counts inside a sliding window.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	users  map[int64]*entry
}

func New(window time.Duration, limit int) *Limiter {
	return &Limiter{
		window: window,
		limit:  limit,
		users:  make(map[int64]*entry),
	}
}

// Allow records the message and reports whether it may be processed. The
// bookkeeping update happens before the limit check, so a rejected message
// still counts toward future windows.
func (l *Limiter) Allow(userID int64, now time.Time) Verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.users[userID]
	if !ok {
		l.users[userID] = &entry{lastSeen: now, count: 1}
		return OK
	}

	if now.Sub(e.lastSeen) <= l.window {
		e.count++
	} else {
		e.count = 1
	}
	e.lastSeen = now

	switch {
	case e.count <= l.limit:
		return OK
	case e.count == l.limit+1:
		return Warn
	default:
		return Drop
	}
}

// Sweep evicts users idle longer than olderThan, bounding memory. Eviction
// is not needed for correctness: a stale entry resets on the next message
// anyway.
func (l *Limiter) Sweep(now time.Time, olderThan time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, e := range l.users {
		if now.Sub(e.lastSeen) > olderThan {
			delete(l.users, id)
		}
	}
}
