// Package replay streams recorded outcomes through an engine in
// deterministic order, independent of which backend recorded them.
package replay

import (
	"context"
	"errors"

	"github.com/skadziol/sando-seer/internal/domain"
)

// ErrInvalidOrdering is returned when outcomes are not in deterministic order.
var ErrInvalidOrdering = errors.New("outcomes are not in deterministic order")

// Engine processes outcomes in order. Outcomes are guaranteed to be ordered
// by (recorded_at ASC, attempt_id ASC).
type Engine interface {
	OnOutcome(ctx context.Context, o *domain.Outcome) error
}

// OutcomeSource is the slice of the outcome log the runner reads.
type OutcomeSource interface {
	RecentByKind(ctx context.Context, kind domain.CandidateKind, limit int) ([]domain.Outcome, error)
	ByOpportunityKey(ctx context.Context, key string) ([]domain.Outcome, error)
}
