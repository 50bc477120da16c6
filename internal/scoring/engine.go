package scoring

import (
	"context"
	"log"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/observability"
)

// Engine is the scoring entry point for the pipeline. It builds the context,
// runs the configured scorer, and enforces the unavailability contract: a
// failed score is ErrScoringUnavailable, never a default value.
type Engine struct {
	primary  Scorer
	fallback Scorer // nil when remote scoring is mandatory
	builder  *ContextBuilder
	logger   *log.Logger
	metrics  *observability.Metrics
}

// EngineOptions configures the scoring engine.
type EngineOptions struct {
	// ForecastURL enables the remote forecaster when non-empty.
	ForecastURL string

	// ForecastTimeout bounds each forecaster call.
	ForecastTimeout time.Duration

	// RequireForecast disables the heuristic fallback: when the forecaster
	// fails, the candidate is dropped.
	RequireForecast bool
}

// NewEngine creates a scoring engine.
func NewEngine(opts EngineOptions, builder *ContextBuilder, logger *log.Logger, metrics *observability.Metrics) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{builder: builder, logger: logger, metrics: metrics}
	if opts.ForecastURL != "" {
		e.primary = NewRemoteScorer(opts.ForecastURL, opts.ForecastTimeout)
		if !opts.RequireForecast {
			e.fallback = NewHeuristicScorer()
		}
	} else {
		e.primary = NewHeuristicScorer()
	}
	return e
}

// Score scores one candidate. Returns ErrScoringUnavailable when no scorer
// could produce a result; callers drop the candidate.
func (e *Engine) Score(ctx context.Context, cand *domain.OpportunityCandidate) (*domain.ScoredOpportunity, error) {
	start := time.Now()
	sc := e.builder.Build(ctx, cand)

	scored, err := e.primary.Score(ctx, cand, sc)
	if err != nil && e.fallback != nil {
		e.logger.Printf("[scoring] forecaster failed for %s, falling back: %v", shortKey(cand.Key), err)
		scored, err = e.fallback.Score(ctx, cand, sc)
	}
	if e.metrics != nil {
		e.metrics.ScoringLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if e.metrics != nil {
			e.metrics.ScoringUnavailable.Inc()
		}
		return nil, domain.ErrScoringUnavailable
	}
	return scored, nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
