package feed

import (
	"sync"
	"time"
)

// dedupWindow suppresses duplicate raw events (same source, same native
// signature) within a sliding time window. Safe for concurrent use.
type dedupWindow struct {
	mu   sync.Mutex
	seen map[string]time.Time // source|signature -> first seen
	ttl  time.Duration
}

func newDedupWindow(ttl time.Duration) *dedupWindow {
	return &dedupWindow{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// isDuplicate records the key and reports whether it was already seen within
// the TTL window.
func (d *dedupWindow) isDuplicate(source, signature string) bool {
	key := source + "|" + signature

	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if first, ok := d.seen[key]; ok && now.Sub(first) < d.ttl {
		return true
	}
	d.seen[key] = now
	return false
}

// cleanup evicts expired entries. Called periodically by the adapter to keep
// memory bounded.
func (d *dedupWindow) cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for key, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, key)
		}
	}
}

// size returns the current number of tracked keys.
func (d *dedupWindow) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
