package domain

// RejectReason is the machine-readable cause attached to every risk gate
// rejection, for observability and backtesting.
type RejectReason string

const (
	RejectLowConfidence RejectReason = "LOW_CONFIDENCE"
	RejectLowProfit     RejectReason = "LOW_PROFIT"
	RejectExposureCap   RejectReason = "EXPOSURE_CAP_EXCEEDED"
	RejectKillSwitch    RejectReason = "KILL_SWITCH_ACTIVE"
)

// RiskPolicy is the static, enumerable risk gate configuration.
type RiskPolicy struct {
	MinConfidence      float64   // reject below this confidence
	MinProfit          float64   // reject below this expected profit, net of FeeBuffer
	FeeBuffer          float64   // estimated fee/slippage buffer subtracted from profit
	MaxVenueExposure   int       // max concurrent in-flight attempts per venue
	MaxAccountExposure int       // max concurrent in-flight attempts touching one account
	MaxRisk            RiskClass // reject candidates riskier than this class
	KillSwitch         bool      // reject everything while set
}

// AllowsRisk reports whether the policy tolerates the given risk class.
func (p RiskPolicy) AllowsRisk(r RiskClass) bool {
	rank := map[RiskClass]int{RiskLow: 1, RiskMedium: 2, RiskHigh: 3}
	max := rank[p.MaxRisk]
	if max == 0 {
		max = rank[RiskMedium]
	}
	return rank[r] <= max
}

// ExposureSnapshot is a versioned, point-in-time view of in-flight exposure.
// It is passed into the risk gate by value; it is never read from ambient
// global state. Version increases on every update.
type ExposureSnapshot struct {
	Version        uint64
	ByVenue        map[string]int // venue -> in-flight attempt count
	ByAccount      map[string]int // account key -> in-flight attempt count
	OpenAttempts   int
	RealizedProfit float64 // cumulative realized profit, base-asset units
}

// VenueExposure returns the in-flight count for a venue.
func (s ExposureSnapshot) VenueExposure(venue string) int {
	if s.ByVenue == nil {
		return 0
	}
	return s.ByVenue[venue]
}

// MaxAccountExposureOf returns the highest in-flight count across the given
// account keys.
func (s ExposureSnapshot) MaxAccountExposureOf(accounts []string) int {
	if s.ByAccount == nil {
		return 0
	}
	max := 0
	for _, a := range accounts {
		if n := s.ByAccount[a]; n > max {
			max = n
		}
	}
	return max
}
