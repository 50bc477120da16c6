// Package memory provides in-memory implementations of the outcome stores.
package memory

import (
	"context"
	"sync"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/outcome"
)

// Log is an in-memory implementation of outcome.Log.
type Log struct {
	mu        sync.RWMutex
	ordered   []*domain.Outcome // append order
	byAttempt map[string]struct{}
}

// NewLog creates a new in-memory outcome log.
func NewLog() *Log {
	return &Log{byAttempt: make(map[string]struct{})}
}

// Compile-time interface check.
var _ outcome.Log = (*Log)(nil)

// Record appends one outcome. Returns ErrDuplicateKey if an outcome for the
// attempt already exists.
func (l *Log) Record(_ context.Context, o *domain.Outcome) error {
	if o == nil || o.AttemptID == "" || o.OpportunityKey == "" {
		return outcome.ErrInvalidInput
	}
	if !o.State.Terminal() {
		return outcome.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byAttempt[o.AttemptID]; exists {
		return outcome.ErrDuplicateKey
	}

	cp := *o
	l.ordered = append(l.ordered, &cp)
	l.byAttempt[o.AttemptID] = struct{}{}
	return nil
}

// RecentByKind returns up to limit outcomes of the given kind, newest first.
func (l *Log) RecentByKind(_ context.Context, kind domain.CandidateKind, limit int) ([]domain.Outcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []domain.Outcome
	for i := len(l.ordered) - 1; i >= 0 && len(result) < limit; i-- {
		if l.ordered[i].Kind == kind {
			result = append(result, *l.ordered[i])
		}
	}
	return result, nil
}

// ByOpportunityKey returns all outcomes for an opportunity, oldest first.
func (l *Log) ByOpportunityKey(_ context.Context, key string) ([]domain.Outcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []domain.Outcome
	for _, o := range l.ordered {
		if o.OpportunityKey == key {
			result = append(result, *o)
		}
	}
	return result, nil
}

// Len returns the number of recorded outcomes.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ordered)
}
