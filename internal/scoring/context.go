// Package scoring estimates profit and confidence for opportunity
// candidates.
package scoring

import (
	"context"

	"github.com/skadziol/sando-seer/internal/domain"
)

// OutcomeReader provides recent execution history for the feedback loop.
type OutcomeReader interface {
	RecentByKind(ctx context.Context, kind domain.CandidateKind, limit int) ([]domain.Outcome, error)
}

// ExposureReader provides the current exposure snapshot.
type ExposureReader interface {
	Snapshot() domain.ExposureSnapshot
}

// FeeSchedule is the cost side of the profit estimate, in lamports.
type FeeSchedule struct {
	BaseFee     float64 // per-transaction signature fee
	PriorityFee float64 // compute-unit price budget for priority legs
}

// Context is everything the scorers see besides the candidate itself.
type Context struct {
	RecentOutcomes []domain.Outcome
	Exposure       domain.ExposureSnapshot
	Fees           FeeSchedule
}

// SuccessRate returns the confirmed fraction of the recent outcomes, or the
// neutral 0.5 when there is no history yet.
func (c *Context) SuccessRate() float64 {
	if len(c.RecentOutcomes) == 0 {
		return 0.5
	}
	confirmed := 0
	for _, o := range c.RecentOutcomes {
		if o.State == domain.AttemptConfirmed {
			confirmed++
		}
	}
	return float64(confirmed) / float64(len(c.RecentOutcomes))
}

// ContextBuilder assembles scoring contexts from the outcome log and the
// exposure tracker.
type ContextBuilder struct {
	outcomes OutcomeReader
	exposure ExposureReader
	fees     FeeSchedule
	history  int
}

// NewContextBuilder creates a builder. historyLimit bounds how many recent
// outcomes feed back into each score.
func NewContextBuilder(outcomes OutcomeReader, exposure ExposureReader, fees FeeSchedule, historyLimit int) *ContextBuilder {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ContextBuilder{outcomes: outcomes, exposure: exposure, fees: fees, history: historyLimit}
}

// Build assembles the context for one candidate. A failing outcome read
// degrades to empty history rather than blocking scoring.
func (b *ContextBuilder) Build(ctx context.Context, cand *domain.OpportunityCandidate) Context {
	out := Context{Fees: b.fees}
	if b.exposure != nil {
		out.Exposure = b.exposure.Snapshot()
	}
	if b.outcomes != nil {
		recent, err := b.outcomes.RecentByKind(ctx, cand.Kind, b.history)
		if err == nil {
			out.RecentOutcomes = recent
		}
	}
	return out
}
