// Package coordinator enforces exclusive execution: at most one non-terminal
// attempt per opportunity key, with the coordinator as the sole writer of
// attempt state.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/observability"
)

// OutcomeSink receives exactly one outcome per terminal attempt.
type OutcomeSink interface {
	Record(ctx context.Context, o *domain.Outcome) error
}

// Journal persists attempt state for crash recovery.
type Journal interface {
	SaveAttempt(ctx context.Context, att *domain.ExecutionAttempt) error
	OpenAttempts(ctx context.Context) ([]domain.ExecutionAttempt, error)
}

// ExposureUpdater is notified when attempts open and close.
type ExposureUpdater interface {
	AttemptOpened(att *domain.ExecutionAttempt)
	AttemptClosed(o *domain.Outcome)
}

// StatusChecker resolves submitted transaction states during restart
// reconciliation.
type StatusChecker interface {
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]domain.AttemptState, error)
}

// Coordinator owns the attempt table. All mutations go through it; the
// executor reports progress back via MarkSubmitted and Complete.
type Coordinator struct {
	sink     OutcomeSink
	journal  Journal
	exposure ExposureUpdater
	logger   *log.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	killSwitch bool
	byKey      map[string]*domain.ExecutionAttempt // non-terminal only
	byID       map[string]*domain.ExecutionAttempt
}

// New creates a coordinator. journal and exposure may be nil.
func New(sink OutcomeSink, journal Journal, exposure ExposureUpdater, logger *log.Logger, metrics *observability.Metrics) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		sink:     sink,
		journal:  journal,
		exposure: exposure,
		logger:   logger,
		metrics:  metrics,
		byKey:    make(map[string]*domain.ExecutionAttempt),
		byID:     make(map[string]*domain.ExecutionAttempt),
	}
}

// SetKillSwitch toggles admission. In-flight attempts are not touched; the
// switch only stops new ones.
func (c *Coordinator) SetKillSwitch(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.killSwitch != on {
		c.logger.Printf("[coordinator] kill switch %v", on)
	}
	c.killSwitch = on
}

// KillSwitch reports the current admission state.
func (c *Coordinator) KillSwitch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.killSwitch
}

// Admit creates a PENDING attempt for the scored opportunity. The kill
// switch is checked before the duplicate check, under the same lock as the
// insert, so a concurrent admission for the same key cannot interleave.
// Returns ErrKillSwitch or ErrDuplicate on rejection.
func (c *Coordinator) Admit(ctx context.Context, scored *domain.ScoredOpportunity) (*domain.ExecutionAttempt, error) {
	key := scored.Candidate.Key

	c.mu.Lock()
	if c.killSwitch {
		c.mu.Unlock()
		return nil, domain.ErrKillSwitch
	}
	if _, exists := c.byKey[key]; exists {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.AdmissionDuplicates.Inc()
		}
		return nil, domain.ErrDuplicate
	}

	att := &domain.ExecutionAttempt{
		AttemptID:      uuid.NewString(),
		OpportunityKey: key,
		Scored:         scored,
		State:          domain.AttemptPending,
		CreatedAt:      time.Now().UnixMilli(),
	}
	c.byKey[key] = att
	c.byID[att.AttemptID] = att
	c.mu.Unlock()

	if c.exposure != nil {
		c.exposure.AttemptOpened(att)
	}
	if c.metrics != nil {
		c.metrics.AttemptsAdmitted.Inc()
		c.metrics.InflightAttempts.Inc()
	}
	c.persist(ctx, att)

	c.logger.Printf("[coordinator] admitted %s attempt %s key %s",
		scored.Candidate.Kind, att.AttemptID, shortKey(key))
	return att, nil
}

// MarkSubmitted transitions PENDING -> SUBMITTED and records the submitted
// signatures.
func (c *Coordinator) MarkSubmitted(ctx context.Context, attemptID string, signatures []string) error {
	c.mu.Lock()
	att, ok := c.byID[attemptID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown attempt %s", attemptID)
	}
	if !att.State.CanTransition(domain.AttemptSubmitted) {
		state := att.State
		c.mu.Unlock()
		return fmt.Errorf("illegal transition %s -> SUBMITTED for attempt %s", state, attemptID)
	}
	att.State = domain.AttemptSubmitted
	att.SubmittedTxs = append([]string(nil), signatures...)
	c.mu.Unlock()

	c.persist(ctx, att)
	return nil
}

// Complete transitions an attempt to a terminal state, releases its key, and
// emits its single outcome. realizedProfit applies only to CONFIRMED.
func (c *Coordinator) Complete(ctx context.Context, attemptID string, state domain.AttemptState, realizedProfit float64, abortReason string) error {
	if !state.Terminal() {
		return fmt.Errorf("%s is not a terminal state", state)
	}

	c.mu.Lock()
	att, ok := c.byID[attemptID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown attempt %s", attemptID)
	}
	if !att.State.CanTransition(state) {
		prev := att.State
		c.mu.Unlock()
		return fmt.Errorf("illegal transition %s -> %s for attempt %s", prev, state, attemptID)
	}
	att.State = state
	att.TerminalAt = time.Now().UnixMilli()
	att.AbortReason = abortReason
	delete(c.byKey, att.OpportunityKey)
	delete(c.byID, att.AttemptID)
	c.mu.Unlock()

	c.finalize(ctx, att, realizedProfit)
	return nil
}

// finalize emits the outcome and updates exposure. Called exactly once per
// attempt, after it left the table.
func (c *Coordinator) finalize(ctx context.Context, att *domain.ExecutionAttempt, realizedProfit float64) {
	cand := att.Scored.Candidate
	if att.State != domain.AttemptConfirmed {
		realizedProfit = 0
	}
	outcome := &domain.Outcome{
		OpportunityKey: att.OpportunityKey,
		AttemptID:      att.AttemptID,
		Kind:           cand.Kind,
		Venue:          cand.Venue,
		Accounts:       cand.Accounts,
		State:          att.State,
		ExpectedProfit: att.Scored.ExpectedProfit,
		RealizedProfit: realizedProfit,
		SubmittedTxs:   att.SubmittedTxs,
		RecordedAt:     att.TerminalAt,
	}

	if c.sink != nil {
		if err := c.sink.Record(ctx, outcome); err != nil {
			c.logger.Printf("[coordinator] record outcome for attempt %s: %v", att.AttemptID, err)
		}
	}
	if c.exposure != nil {
		c.exposure.AttemptClosed(outcome)
	}
	if c.metrics != nil {
		c.metrics.InflightAttempts.Dec()
		c.metrics.AttemptsTerminal.WithLabelValues(string(att.State)).Inc()
		c.metrics.ExecutionLatency.Observe(float64(att.TerminalAt-att.CreatedAt) / 1000)
	}
	c.persist(ctx, att)

	c.logger.Printf("[coordinator] attempt %s terminal %s key %s",
		att.AttemptID, att.State, shortKey(att.OpportunityKey))
}

// persist journals the attempt best-effort; journaling failures never block
// the pipeline.
func (c *Coordinator) persist(ctx context.Context, att *domain.ExecutionAttempt) {
	if c.journal == nil {
		return
	}
	if err := c.journal.SaveAttempt(ctx, att); err != nil {
		c.logger.Printf("[coordinator] journal attempt %s: %v", att.AttemptID, err)
	}
}

// Inflight returns the number of non-terminal attempts.
func (c *Coordinator) Inflight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

// Reconcile resolves attempts left non-terminal by a previous process.
// Submitted attempts are settled from on-chain signature statuses; attempts
// that never submitted are aborted. Each resolved attempt produces its
// outcome as usual.
func (c *Coordinator) Reconcile(ctx context.Context, statuses StatusChecker) error {
	if c.journal == nil {
		return nil
	}
	open, err := c.journal.OpenAttempts(ctx)
	if err != nil {
		return fmt.Errorf("load open attempts: %w", err)
	}

	now := time.Now().UnixMilli()
	for i := range open {
		att := open[i]
		if att.Scored == nil || att.Scored.Candidate == nil {
			c.logger.Printf("[coordinator] skipping journaled attempt %s without candidate", att.AttemptID)
			continue
		}
		state := domain.AttemptAborted
		reason := "process restart"

		if att.State == domain.AttemptSubmitted && len(att.SubmittedTxs) > 0 {
			state, reason = c.settleSubmitted(ctx, &att, statuses, now)
		}

		att.State = state
		att.TerminalAt = now
		att.AbortReason = reason
		c.finalize(ctx, &att, 0)
	}
	if len(open) > 0 {
		c.logger.Printf("[coordinator] reconciled %d stale attempts", len(open))
	}
	return nil
}

// settleSubmitted resolves one submitted attempt from transport statuses.
// Unresolvable attempts past their deadline expire; anything else aborts.
func (c *Coordinator) settleSubmitted(ctx context.Context, att *domain.ExecutionAttempt, statuses StatusChecker, now int64) (domain.AttemptState, string) {
	if statuses != nil {
		resolved, err := statuses.GetSignatureStatuses(ctx, att.SubmittedTxs)
		if err == nil {
			confirmed, reverted := 0, 0
			for _, s := range resolved {
				switch s {
				case domain.AttemptConfirmed:
					confirmed++
				case domain.AttemptReverted:
					reverted++
				}
			}
			if reverted > 0 {
				return domain.AttemptReverted, ""
			}
			if confirmed == len(att.SubmittedTxs) {
				return domain.AttemptConfirmed, ""
			}
		} else {
			c.logger.Printf("[coordinator] status check for attempt %s: %v", att.AttemptID, err)
		}
	}
	if att.Scored != nil && att.Scored.Candidate.Expired(now) {
		return domain.AttemptExpired, ""
	}
	return domain.AttemptAborted, "unresolved after restart"
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
