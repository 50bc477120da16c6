// Package extract detects opportunity candidates in the normalized event
// stream.
package extract

import (
	"sync"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
)

// window is a bounded rolling view of recent swap events. Writers append and
// prune; readers take copies, so detector logic never races with ingestion.
type window struct {
	mu      sync.RWMutex
	maxAge  time.Duration
	maxSize int
	events  []domain.NormalizedEvent
}

func newWindow(maxAge time.Duration, maxSize int) *window {
	return &window{maxAge: maxAge, maxSize: maxSize}
}

// add appends an event and evicts anything past the age or size bound.
func (w *window) add(ev domain.NormalizedEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.events = append(w.events, ev)
	w.pruneLocked(time.Now().UnixMilli())
}

// prune evicts expired events without adding.
func (w *window) prune(nowMs int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(nowMs)
}

func (w *window) pruneLocked(nowMs int64) {
	cutoff := nowMs - w.maxAge.Milliseconds()
	start := 0
	for start < len(w.events) && w.events[start].ObservedAt < cutoff {
		start++
	}
	if over := len(w.events) - start - w.maxSize; over > 0 {
		start += over
	}
	if start > 0 {
		w.events = append([]domain.NormalizedEvent(nil), w.events[start:]...)
	}
}

// snapshot returns a copy of the current window contents in arrival order.
func (w *window) snapshot() []domain.NormalizedEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]domain.NormalizedEvent, len(w.events))
	copy(out, w.events)
	return out
}

// size returns the current event count.
func (w *window) size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.events)
}
