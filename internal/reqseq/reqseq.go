// Package reqseq keeps the newest request sequence per client so superseded
// responses can be dropped instead of overwriting newer state.
package reqseq

import (
	"sync"
	"time"
)

// DefaultTTL is how long an idle key is remembered.
const DefaultTTL = 10 * time.Minute

type entry struct {
	seq  int64
	seen time.Time
}

// Guard tracks the latest sequence number per key. It is safe for concurrent use.
type Guard struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	sweeps  int
}

// NewGuard constructs a Guard that forgets keys idle for longer than ttl.
func NewGuard(ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Begin records seq for key. It returns false when a newer sequence is already
// recorded, meaning the request is stale before any work is done. A zero or
// negative seq is unsequenced and always admitted without being recorded.
func (g *Guard) Begin(key string, seq int64) bool {
	if seq <= 0 {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweepLocked(now)

	cur, ok := g.entries[key]
	if ok && now.Sub(cur.seen) <= g.ttl && cur.seq > seq {
		return false
	}
	g.entries[key] = entry{seq: seq, seen: now}
	return true
}

// Current reports whether seq is still the newest sequence for key.
func (g *Guard) Current(key string, seq int64) bool {
	if seq <= 0 {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	cur, ok := g.entries[key]
	if !ok {
		return true
	}
	return cur.seq <= seq
}

// Len returns the number of tracked keys.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// sweepLocked drops expired keys every 64 calls.
func (g *Guard) sweepLocked(now time.Time) {
	g.sweeps++
	if g.sweeps < 64 {
		return
	}
	g.sweeps = 0
	for k, e := range g.entries {
		if now.Sub(e.seen) > g.ttl {
			delete(g.entries, k)
		}
	}
}
