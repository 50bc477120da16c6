package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for the pipeline. Transport errors are transient and retried
// at the feed/executor boundary; signing errors are fatal to the attempt and
// never retried; scoring unavailability is fatal to the candidate only.
var (
	// ErrScoringUnavailable means the forecasting capability timed out or
	// failed. Callers drop the candidate; unavailability is never treated
	// as a zero/low-risk score.
	ErrScoringUnavailable = errors.New("scoring unavailable")

	// ErrDuplicate is returned by the coordinator when a non-terminal
	// attempt already exists for the opportunity key. Expected, not an error
	// condition.
	ErrDuplicate = errors.New("duplicate opportunity")

	// ErrFeedDown means the feed adapter exhausted its reconnect attempts.
	// Fatal to the process; requires operator intervention.
	ErrFeedDown = errors.New("feed down")

	// ErrKillSwitch is returned on admission while the kill switch is set.
	ErrKillSwitch = errors.New("kill switch active")
)

// TransportError wraps a transient transport failure (rate limiting, network
// error). Safe to retry with backoff.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SigningError is fatal to the attempt: the executor fails closed and aborts
// without submission.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// SubmissionInvalidError marks a submission rejected as invalid (e.g.
// simulation failure). Never retried.
type SubmissionInvalidError struct {
	Reason string
}

func (e *SubmissionInvalidError) Error() string {
	return fmt.Sprintf("submission invalid: %s", e.Reason)
}

// IsTransient reports whether err is safe to retry with backoff.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
