// Package risk gates scored opportunities against the static risk policy
// and the current exposure snapshot.
package risk

import (
	"github.com/skadziol/sando-seer/internal/domain"
)

// Decision is the gate's verdict on one scored opportunity.
type Decision struct {
	Accept bool
	Reason domain.RejectReason // set when Accept is false
}

// Gate applies a RiskPolicy. Pure: the same inputs always yield the same
// decision, and nothing is read from ambient state.
type Gate struct{}

// NewGate creates a risk gate.
func NewGate() *Gate {
	return &Gate{}
}

// Evaluate checks one scored opportunity against the policy and exposure.
// The kill switch dominates every other check. A candidate whose risk class
// exceeds the policy's tolerance is rejected as under-confident: the score
// did not establish enough certainty for its class.
func (g *Gate) Evaluate(scored *domain.ScoredOpportunity, exposure domain.ExposureSnapshot, policy domain.RiskPolicy) Decision {
	if policy.KillSwitch {
		return Decision{Reason: domain.RejectKillSwitch}
	}

	if scored.Confidence < policy.MinConfidence {
		return Decision{Reason: domain.RejectLowConfidence}
	}
	if !policy.AllowsRisk(scored.Risk) {
		return Decision{Reason: domain.RejectLowConfidence}
	}

	if scored.ExpectedProfit-policy.FeeBuffer < policy.MinProfit {
		return Decision{Reason: domain.RejectLowProfit}
	}

	cand := scored.Candidate
	if policy.MaxVenueExposure > 0 && exposure.VenueExposure(cand.Venue) >= policy.MaxVenueExposure {
		return Decision{Reason: domain.RejectExposureCap}
	}
	if policy.MaxAccountExposure > 0 && exposure.MaxAccountExposureOf(cand.Accounts) >= policy.MaxAccountExposure {
		return Decision{Reason: domain.RejectExposureCap}
	}

	return Decision{Accept: true}
}
