package backtest

import (
	"context"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/replay"
)

// Runner executes policy backtests over the outcome log.
type Runner struct {
	replayRunner *replay.Runner
}

// NewRunner creates a backtest runner.
func NewRunner(replayRunner *replay.Runner) *Runner {
	return &Runner{replayRunner: replayRunner}
}

// Run replays up to limit outcomes per kind under the candidate policy.
func (r *Runner) Run(ctx context.Context, policy domain.RiskPolicy, limit int) (*Results, error) {
	engine := NewEngine(policy)
	if err := r.replayRunner.RunAll(ctx, limit, engine); err != nil {
		return nil, err
	}
	return engine.Results(), nil
}

// RunKey replays the recorded history of one opportunity key under the
// candidate policy.
func (r *Runner) RunKey(ctx context.Context, policy domain.RiskPolicy, key string) (*Results, error) {
	engine := NewEngine(policy)
	if err := r.replayRunner.RunKey(ctx, key, engine); err != nil {
		return nil, err
	}
	return engine.Results(), nil
}
