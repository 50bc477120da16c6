package scoring

import (
	"context"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
)

const lamportsPerSOL = 1_000_000_000

// Scorer estimates profit and confidence for a candidate.
type Scorer interface {
	Score(ctx context.Context, cand *domain.OpportunityCandidate, sc Context) (*domain.ScoredOpportunity, error)
}

// HeuristicScorer scores locally from leg economics and recent history.
// Always available; deterministic for a fixed context.
type HeuristicScorer struct{}

// NewHeuristicScorer creates the local scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score estimates profit as the base-asset round-trip margin of the legs,
// net of fees, and derives confidence from pattern priors shifted by the
// recent success rate of the same kind.
func (s *HeuristicScorer) Score(_ context.Context, cand *domain.OpportunityCandidate, sc Context) (*domain.ScoredOpportunity, error) {
	profit := s.expectedProfit(cand, sc)
	raw := s.rawConfidence(cand, sc, profit)

	return &domain.ScoredOpportunity{
		Candidate:      cand,
		ExpectedProfit: profit,
		Confidence:     BandConfidence(raw),
		Risk:           riskClassFor(cand.Kind, raw),
		ScoredAt:       time.Now().UnixMilli(),
	}, nil
}

// expectedProfit computes the signed SOL margin of executing all legs.
func (s *HeuristicScorer) expectedProfit(cand *domain.OpportunityCandidate, sc Context) float64 {
	var spentLamports, recoveredLamports float64
	for _, leg := range cand.Legs {
		fee := sc.Fees.BaseFee
		if leg.Priority {
			fee += sc.Fees.PriorityFee
		}
		spentLamports += fee
	}

	switch cand.Kind {
	case domain.KindSandwich:
		// Front buys, back unwinds. The margin is what the victim's price
		// impact moves in our favor; MinOut on the back leg is the floor.
		if len(cand.Legs) == 2 {
			front, back := cand.Legs[0], cand.Legs[1]
			spentLamports += front.AmountIn
			recoveredLamports += back.MinOut * (1 + estimatedImpact(front.AmountIn, back.MinOut))
		}
	case domain.KindArbitrage:
		if len(cand.Legs) == 2 {
			spentLamports += cand.Legs[0].AmountIn
			recoveredLamports += cand.Legs[1].MinOut * (1 + divergenceMargin(cand.Legs))
		}
	case domain.KindSnipe:
		// No unwind leg; assume a conservative 2x target on the entry.
		if len(cand.Legs) == 1 {
			spentLamports += cand.Legs[0].AmountIn
			recoveredLamports += cand.Legs[0].AmountIn * 2
		}
	}

	return (recoveredLamports - spentLamports) / lamportsPerSOL
}

// rawConfidence blends a per-kind prior with the recent success rate and a
// profit sanity check. Result is in [0, 1] before banding.
func (s *HeuristicScorer) rawConfidence(cand *domain.OpportunityCandidate, sc Context, profit float64) float64 {
	prior := map[domain.CandidateKind]float64{
		domain.KindSandwich:  0.75,
		domain.KindArbitrage: 0.85,
		domain.KindSnipe:     0.55,
	}[cand.Kind]

	// History shifts the prior halfway toward the observed rate.
	raw := prior + (sc.SuccessRate()-0.5)*0.5

	if profit <= 0 {
		raw *= 0.5
	}
	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	return raw
}

// BandConfidence quantizes a raw score into the reported confidence bands.
func BandConfidence(raw float64) float64 {
	switch {
	case raw > 0.9:
		return 0.95
	case raw > 0.8:
		return 0.85
	case raw > 0.7:
		return 0.75
	default:
		return 0.5
	}
}

// riskClassFor buckets a candidate by pattern and score.
func riskClassFor(kind domain.CandidateKind, raw float64) domain.RiskClass {
	switch kind {
	case domain.KindSnipe:
		return domain.RiskHigh
	case domain.KindSandwich:
		if raw > 0.8 {
			return domain.RiskMedium
		}
		return domain.RiskHigh
	case domain.KindArbitrage:
		if raw > 0.7 {
			return domain.RiskLow
		}
		return domain.RiskMedium
	}
	return domain.RiskHigh
}

// estimatedImpact is the extra margin the victim's own swap adds to the back
// leg, relative to the round-trip size.
func estimatedImpact(frontIn, backFloor float64) float64 {
	if frontIn <= 0 || backFloor <= 0 {
		return 0
	}
	// Small fixed fraction; real impact depends on pool depth which the
	// feed does not carry.
	return 0.02
}

// divergenceMargin recovers the price gap baked into arbitrage legs: the
// sell leg's input is the expected buy output, while the buy leg's MinOut is
// the divergence-buffered floor, so their ratio carries the gap.
func divergenceMargin(legs []domain.Leg) float64 {
	if len(legs) != 2 || legs[0].MinOut <= 0 || legs[1].AmountIn <= 0 {
		return 0
	}
	gap := legs[1].AmountIn/legs[0].MinOut - 1
	if gap < 0 {
		return 0
	}
	return gap
}
