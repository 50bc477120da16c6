package replay

import (
	"context"

	"github.com/skadziol/sando-seer/internal/domain"
)

// allKinds enumerates the candidate kinds whose outcomes RunAll merges.
var allKinds = []domain.CandidateKind{
	domain.KindSandwich,
	domain.KindArbitrage,
	domain.KindSnipe,
}

// Runner loads outcomes from the log and replays them in deterministic order.
type Runner struct {
	source OutcomeSource
}

// NewRunner creates a replay runner over an outcome source.
func NewRunner(source OutcomeSource) *Runner {
	return &Runner{source: source}
}

// RunAll merges the most recent outcomes of every kind, sorts them by
// (recorded_at, attempt_id) and replays them through the engine. limit bounds
// the per-kind load; zero or negative means no bound the source honors.
func (r *Runner) RunAll(ctx context.Context, limit int, engine Engine) error {
	var merged []domain.Outcome
	for _, kind := range allKinds {
		outcomes, err := r.source.RecentByKind(ctx, kind, limit)
		if err != nil {
			return err
		}
		merged = append(merged, outcomes...)
	}

	SortOutcomes(merged)
	return r.replay(ctx, merged, engine)
}

// RunKey replays every recorded outcome of one opportunity key.
func (r *Runner) RunKey(ctx context.Context, key string, engine Engine) error {
	outcomes, err := r.source.ByOpportunityKey(ctx, key)
	if err != nil {
		return err
	}

	// The log returns key history oldest-first already; verify rather than
	// re-sort so ordering bugs in a backend surface here.
	if err := VerifyOrder(outcomes); err != nil {
		return err
	}
	return r.replay(ctx, outcomes, engine)
}

func (r *Runner) replay(ctx context.Context, outcomes []domain.Outcome, engine Engine) error {
	for i := range outcomes {
		if err := engine.OnOutcome(ctx, &outcomes[i]); err != nil {
			return err
		}
	}
	return nil
}
