// Package outcome persists execution results: the append-only outcome log
// that feeds scoring, and the attempt journal used for crash recovery.
package outcome

import (
	"context"
	"errors"

	"github.com/skadziol/sando-seer/internal/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record with a
	// key that already exists. The outcome log is append-only; corrections
	// are new records, never updates.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// Log is the append-only outcome log.
type Log interface {
	// Record appends one outcome. Returns ErrDuplicateKey if an outcome for
	// the attempt already exists.
	Record(ctx context.Context, o *domain.Outcome) error

	// RecentByKind returns up to limit outcomes of the given kind, newest
	// first.
	RecentByKind(ctx context.Context, kind domain.CandidateKind, limit int) ([]domain.Outcome, error)

	// ByOpportunityKey returns all outcomes recorded for an opportunity,
	// oldest first.
	ByOpportunityKey(ctx context.Context, key string) ([]domain.Outcome, error)
}

// Journal persists attempt state across restarts. Saves are upserts keyed by
// attempt id; the journal is a recovery aid, not a source of truth for
// terminal results.
type Journal interface {
	// SaveAttempt stores the current state of an attempt.
	SaveAttempt(ctx context.Context, att *domain.ExecutionAttempt) error

	// OpenAttempts returns every journaled attempt still in a non-terminal
	// state.
	OpenAttempts(ctx context.Context) ([]domain.ExecutionAttempt, error)
}
