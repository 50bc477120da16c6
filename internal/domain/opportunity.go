package domain

// CandidateKind is the closed set of opportunity patterns the extractor
// detects. Handling must be exhaustive at the extractor and executor
// boundaries.
type CandidateKind string

const (
	KindSandwich  CandidateKind = "SANDWICH"
	KindArbitrage CandidateKind = "ARBITRAGE"
	KindSnipe     CandidateKind = "SNIPE"
)

// LegSide distinguishes the planned transactions within a candidate.
type LegSide string

const (
	LegFront LegSide = "FRONT" // placed ahead of the victim transaction
	LegBack  LegSide = "BACK"  // placed after the victim transaction
	LegSwap  LegSide = "SWAP"  // standalone swap (arbitrage, snipe)
)

// Leg is one planned counter-transaction of an opportunity.
type Leg struct {
	Side      LegSide
	Venue     string
	TokenIn   string  // input mint
	TokenOut  string  // output mint
	AmountIn  float64 // UI amount
	MinOut    float64 // minimum acceptable output, slippage-buffered
	Priority  bool    // attach a compute-unit price at submission
}

// OpportunityCandidate is a detected, not yet scored, opportunity.
// Key is the dedup identity: two candidates with the same key refer to the
// same real-world opportunity regardless of which event triggered discovery.
type OpportunityCandidate struct {
	Key          string        // deterministic hash, see idhash.OpportunityKey
	Kind         CandidateKind // SANDWICH | ARBITRAGE | SNIPE
	TriggerEvent uint64        // NormalizedEvent.ID that triggered discovery
	Venue        string
	Accounts     []string // ordered account keys the opportunity touches
	Legs         []Leg    // ordered planned transactions
	DetectedAt   int64    // Unix ms
	Deadline     int64    // Unix ms; stale once now > Deadline
}

// Expired reports whether the candidate's execution window has elapsed.
func (c *OpportunityCandidate) Expired(nowMs int64) bool {
	return nowMs > c.Deadline
}

// RiskClass buckets a scored opportunity for policy decisions.
type RiskClass string

const (
	RiskLow    RiskClass = "LOW"
	RiskMedium RiskClass = "MEDIUM"
	RiskHigh   RiskClass = "HIGH"
)

// ScoredOpportunity is a candidate plus the scoring engine's estimate.
type ScoredOpportunity struct {
	Candidate      *OpportunityCandidate
	ExpectedProfit float64   // signed, base-asset units (SOL)
	Confidence     float64   // [0, 1]
	Risk           RiskClass // LOW | MEDIUM | HIGH
	ScoredAt       int64     // Unix ms
}
