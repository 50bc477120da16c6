package memory

import (
	"context"
	"sync"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/outcome"
)

// Journal is an in-memory implementation of outcome.Journal.
type Journal struct {
	mu   sync.RWMutex
	data map[string]*domain.ExecutionAttempt // keyed by attempt_id
}

// NewJournal creates a new in-memory attempt journal.
func NewJournal() *Journal {
	return &Journal{data: make(map[string]*domain.ExecutionAttempt)}
}

// Compile-time interface check.
var _ outcome.Journal = (*Journal)(nil)

// SaveAttempt stores the current state of an attempt. Upsert by attempt id.
func (j *Journal) SaveAttempt(_ context.Context, att *domain.ExecutionAttempt) error {
	if att == nil || att.AttemptID == "" {
		return outcome.ErrInvalidInput
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	cp := *att
	j.data[att.AttemptID] = &cp
	return nil
}

// OpenAttempts returns every journaled attempt still non-terminal.
func (j *Journal) OpenAttempts(_ context.Context) ([]domain.ExecutionAttempt, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []domain.ExecutionAttempt
	for _, att := range j.data {
		if !att.State.Terminal() {
			out = append(out, *att)
		}
	}
	return out, nil
}
