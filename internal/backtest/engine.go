// Package backtest replays the outcome log through the risk gate under an
// alternative policy to estimate what that policy would have earned.
package backtest

import (
	"context"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/replay"
	"github.com/skadziol/sando-seer/internal/risk"
	"github.com/skadziol/sando-seer/internal/stats"
)

// Results holds the output of one policy backtest.
type Results struct {
	Policy domain.RiskPolicy

	OutcomeCount int
	Attempted    int
	Skipped      int
	SkipReasons  map[domain.RejectReason]int

	// Profits aggregates realized profit of attempted outcomes, in
	// chronological order.
	Profits stats.Distribution
}

// Engine gates each recorded outcome with the candidate policy and tallies
// the hypothetical result. Implements replay.Engine.
//
// Outcomes carry no confidence or risk class, so only the profit, fee buffer
// and kill-switch dimensions of the policy are replayable; confidence is
// pinned to 1 and risk to LOW. Exposure caps never bind because replay is
// sequential.
type Engine struct {
	gate    *risk.Gate
	policy  domain.RiskPolicy
	results *Results
	profits []float64
}

// NewEngine creates a backtest engine for one candidate policy.
func NewEngine(policy domain.RiskPolicy) *Engine {
	return &Engine{
		gate:   risk.NewGate(),
		policy: policy,
		results: &Results{
			Policy:      policy,
			SkipReasons: make(map[domain.RejectReason]int),
		},
	}
}

// OnOutcome gates one recorded outcome. Implements replay.Engine.
func (e *Engine) OnOutcome(_ context.Context, o *domain.Outcome) error {
	e.results.OutcomeCount++

	scored := &domain.ScoredOpportunity{
		Candidate: &domain.OpportunityCandidate{
			Key:      o.OpportunityKey,
			Kind:     o.Kind,
			Venue:    o.Venue,
			Accounts: o.Accounts,
		},
		ExpectedProfit: o.ExpectedProfit,
		Confidence:     1,
		Risk:           domain.RiskLow,
	}

	decision := e.gate.Evaluate(scored, domain.ExposureSnapshot{}, e.policy)
	if !decision.Accept {
		e.results.Skipped++
		e.results.SkipReasons[decision.Reason]++
		return nil
	}

	e.results.Attempted++
	e.profits = append(e.profits, o.RealizedProfit)
	return nil
}

// Results finalizes and returns the tallies.
func (e *Engine) Results() *Results {
	e.results.Profits = stats.Compute(e.profits)
	return e.results
}

var _ replay.Engine = (*Engine)(nil)
