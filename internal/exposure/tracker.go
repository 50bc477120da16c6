// Package exposure maintains a versioned snapshot of in-flight risk.
package exposure

import (
	"sync"

	"github.com/skadziol/sando-seer/internal/domain"
)

// Tracker counts in-flight attempts per venue and account and accumulates
// realized profit from terminal outcomes. Snapshots are copies; readers
// never see partial updates.
type Tracker struct {
	mu             sync.Mutex
	version        uint64
	byVenue        map[string]int
	byAccount      map[string]int
	openAttempts   int
	realizedProfit float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byVenue:   make(map[string]int),
		byAccount: make(map[string]int),
	}
}

// AttemptOpened registers a newly admitted attempt.
func (t *Tracker) AttemptOpened(att *domain.ExecutionAttempt) {
	cand := att.Scored.Candidate

	t.mu.Lock()
	defer t.mu.Unlock()
	t.version++
	t.openAttempts++
	t.byVenue[cand.Venue]++
	for _, a := range cand.Accounts {
		t.byAccount[a]++
	}
}

// AttemptClosed releases an attempt's exposure and books its realized
// profit.
func (t *Tracker) AttemptClosed(o *domain.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.version++
	t.openAttempts--
	t.decrement(t.byVenue, o.Venue)
	for _, a := range o.Accounts {
		t.decrement(t.byAccount, a)
	}
	t.realizedProfit += o.RealizedProfit
}

func (t *Tracker) decrement(m map[string]int, key string) {
	if m[key] <= 1 {
		delete(m, key)
		return
	}
	m[key]--
}

// Snapshot returns a point-in-time copy.
func (t *Tracker) Snapshot() domain.ExposureSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	byVenue := make(map[string]int, len(t.byVenue))
	for k, v := range t.byVenue {
		byVenue[k] = v
	}
	byAccount := make(map[string]int, len(t.byAccount))
	for k, v := range t.byAccount {
		byAccount[k] = v
	}
	return domain.ExposureSnapshot{
		Version:        t.version,
		ByVenue:        byVenue,
		ByAccount:      byAccount,
		OpenAttempts:   t.openAttempts,
		RealizedProfit: t.realizedProfit,
	}
}
