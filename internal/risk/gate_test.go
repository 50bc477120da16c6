package risk

import (
	"testing"

	"github.com/skadziol/sando-seer/internal/domain"
)

func basePolicy() domain.RiskPolicy {
	return domain.RiskPolicy{
		MinConfidence:      0.7,
		MinProfit:          0.001,
		FeeBuffer:          0.0005,
		MaxVenueExposure:   3,
		MaxAccountExposure: 1,
		MaxRisk:            domain.RiskMedium,
	}
}

func baseScored() *domain.ScoredOpportunity {
	return &domain.ScoredOpportunity{
		Candidate: &domain.OpportunityCandidate{
			Key:      "key1",
			Kind:     domain.KindSandwich,
			Venue:    "raydium",
			Accounts: []string{"pool1", "vaultA"},
		},
		ExpectedProfit: 0.01,
		Confidence:     0.85,
		Risk:           domain.RiskMedium,
	}
}

func TestGateAccepts(t *testing.T) {
	d := NewGate().Evaluate(baseScored(), domain.ExposureSnapshot{}, basePolicy())
	if !d.Accept {
		t.Fatalf("rejected with %s, want accept", d.Reason)
	}
}

func TestGateKillSwitchDominates(t *testing.T) {
	policy := basePolicy()
	policy.KillSwitch = true

	// Even a candidate that fails every other check reports the kill switch.
	scored := baseScored()
	scored.Confidence = 0

	d := NewGate().Evaluate(scored, domain.ExposureSnapshot{}, policy)
	if d.Accept || d.Reason != domain.RejectKillSwitch {
		t.Fatalf("decision = %+v, want KILL_SWITCH_ACTIVE rejection", d)
	}
}

func TestGateLowConfidence(t *testing.T) {
	scored := baseScored()
	scored.Confidence = 0.5

	d := NewGate().Evaluate(scored, domain.ExposureSnapshot{}, basePolicy())
	if d.Accept || d.Reason != domain.RejectLowConfidence {
		t.Fatalf("decision = %+v, want LOW_CONFIDENCE rejection", d)
	}
}

func TestGateRiskClassTooHigh(t *testing.T) {
	scored := baseScored()
	scored.Risk = domain.RiskHigh

	d := NewGate().Evaluate(scored, domain.ExposureSnapshot{}, basePolicy())
	if d.Accept || d.Reason != domain.RejectLowConfidence {
		t.Fatalf("decision = %+v, want rejection for HIGH risk class", d)
	}
}

func TestGateLowProfitNetOfFeeBuffer(t *testing.T) {
	scored := baseScored()
	// Gross profit clears MinProfit but the fee buffer eats it.
	scored.ExpectedProfit = 0.0012

	d := NewGate().Evaluate(scored, domain.ExposureSnapshot{}, basePolicy())
	if d.Accept || d.Reason != domain.RejectLowProfit {
		t.Fatalf("decision = %+v, want LOW_PROFIT rejection", d)
	}
}

func TestGateVenueExposureCap(t *testing.T) {
	exposure := domain.ExposureSnapshot{
		ByVenue: map[string]int{"raydium": 3},
	}

	d := NewGate().Evaluate(baseScored(), exposure, basePolicy())
	if d.Accept || d.Reason != domain.RejectExposureCap {
		t.Fatalf("decision = %+v, want EXPOSURE_CAP_EXCEEDED rejection", d)
	}
}

func TestGateAccountExposureCap(t *testing.T) {
	exposure := domain.ExposureSnapshot{
		ByAccount: map[string]int{"vaultA": 1},
	}

	d := NewGate().Evaluate(baseScored(), exposure, basePolicy())
	if d.Accept || d.Reason != domain.RejectExposureCap {
		t.Fatalf("decision = %+v, want EXPOSURE_CAP_EXCEEDED rejection", d)
	}
}

func TestGateExposureBelowCapAccepted(t *testing.T) {
	exposure := domain.ExposureSnapshot{
		ByVenue:   map[string]int{"raydium": 2},
		ByAccount: map[string]int{"otherAccount": 5},
	}

	d := NewGate().Evaluate(baseScored(), exposure, basePolicy())
	if !d.Accept {
		t.Fatalf("rejected with %s, want accept", d.Reason)
	}
}

func TestGateIsDeterministic(t *testing.T) {
	g := NewGate()
	scored := baseScored()
	exposure := domain.ExposureSnapshot{ByVenue: map[string]int{"raydium": 1}}
	policy := basePolicy()

	first := g.Evaluate(scored, exposure, policy)
	for i := 0; i < 10; i++ {
		if got := g.Evaluate(scored, exposure, policy); got != first {
			t.Fatalf("evaluation %d = %+v, first = %+v", i, got, first)
		}
	}
}
