package domain

// AttemptState is the execution attempt lifecycle.
// Legal transitions:
//
//	PENDING   -> SUBMITTED | ABORTED
//	SUBMITTED -> CONFIRMED | REVERTED | EXPIRED | ABORTED
//
// CONFIRMED, REVERTED, EXPIRED and ABORTED are terminal.
type AttemptState string

const (
	AttemptPending   AttemptState = "PENDING"
	AttemptSubmitted AttemptState = "SUBMITTED"
	AttemptConfirmed AttemptState = "CONFIRMED"
	AttemptReverted  AttemptState = "REVERTED"
	AttemptExpired   AttemptState = "EXPIRED"
	AttemptAborted   AttemptState = "ABORTED"
)

// Terminal reports whether no further transition is possible from s.
func (s AttemptState) Terminal() bool {
	switch s {
	case AttemptConfirmed, AttemptReverted, AttemptExpired, AttemptAborted:
		return true
	}
	return false
}

// CanTransition reports whether s -> next is a legal transition.
func (s AttemptState) CanTransition(next AttemptState) bool {
	switch s {
	case AttemptPending:
		return next == AttemptSubmitted || next == AttemptAborted
	case AttemptSubmitted:
		return next == AttemptConfirmed || next == AttemptReverted ||
			next == AttemptExpired || next == AttemptAborted
	}
	return false
}

// ExecutionAttempt tracks one exclusive execution of an opportunity.
// At most one non-terminal attempt exists per OpportunityKey at any time;
// the coordinator is the sole writer of State.
type ExecutionAttempt struct {
	AttemptID      string // uuid
	OpportunityKey string
	Scored         *ScoredOpportunity
	State          AttemptState
	SubmittedTxs   []string // ordered transaction signatures
	CreatedAt      int64    // Unix ms
	TerminalAt     int64    // Unix ms, zero while non-terminal
	AbortReason    string   // populated when State == ABORTED
}

// Outcome is the immutable terminal record derived from an attempt.
// Corrections are new records, never edits.
type Outcome struct {
	OpportunityKey string
	AttemptID      string
	Kind           CandidateKind
	Venue          string
	Accounts       []string
	State          AttemptState // terminal state only
	ExpectedProfit float64
	RealizedProfit float64 // zero unless CONFIRMED
	SubmittedTxs   []string
	RecordedAt     int64 // Unix ms
}
