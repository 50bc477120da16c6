package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
)

type recordingSink struct {
	mu       sync.Mutex
	outcomes []domain.Outcome
}

func (s *recordingSink) Record(_ context.Context, o *domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, *o)
	return nil
}

func (s *recordingSink) all() []domain.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Outcome(nil), s.outcomes...)
}

type memoryJournal struct {
	mu       sync.Mutex
	attempts map[string]domain.ExecutionAttempt
}

func newMemoryJournal() *memoryJournal {
	return &memoryJournal{attempts: make(map[string]domain.ExecutionAttempt)}
}

func (j *memoryJournal) SaveAttempt(_ context.Context, att *domain.ExecutionAttempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts[att.AttemptID] = *att
	return nil
}

func (j *memoryJournal) OpenAttempts(_ context.Context) ([]domain.ExecutionAttempt, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []domain.ExecutionAttempt
	for _, att := range j.attempts {
		if !att.State.Terminal() {
			out = append(out, att)
		}
	}
	return out, nil
}

type fixedStatuses struct {
	states []domain.AttemptState
	err    error
}

func (f *fixedStatuses) GetSignatureStatuses(_ context.Context, sigs []string) ([]domain.AttemptState, error) {
	return f.states, f.err
}

func scoredFor(key string) *domain.ScoredOpportunity {
	now := time.Now().UnixMilli()
	return &domain.ScoredOpportunity{
		Candidate: &domain.OpportunityCandidate{
			Key:        key,
			Kind:       domain.KindSandwich,
			Venue:      "raydium",
			Accounts:   []string{"pool1"},
			DetectedAt: now,
			Deadline:   now + 60_000,
		},
		ExpectedProfit: 0.01,
		Confidence:     0.85,
		Risk:           domain.RiskMedium,
	}
}

func TestAdmitThenComplete(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink, nil, nil, nil, nil)
	ctx := context.Background()

	att, err := c.Admit(ctx, scoredFor("k1"))
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if att.State != domain.AttemptPending {
		t.Fatalf("State = %s, want PENDING", att.State)
	}

	if err := c.MarkSubmitted(ctx, att.AttemptID, []string{"sig1", "sig2"}); err != nil {
		t.Fatalf("MarkSubmitted: %v", err)
	}
	if err := c.Complete(ctx, att.AttemptID, domain.AttemptConfirmed, 0.015, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	outcomes := sink.all()
	if len(outcomes) != 1 {
		t.Fatalf("outcomes = %d, want exactly 1", len(outcomes))
	}
	o := outcomes[0]
	if o.State != domain.AttemptConfirmed || o.RealizedProfit != 0.015 {
		t.Errorf("outcome = %+v", o)
	}
	if len(o.SubmittedTxs) != 2 {
		t.Errorf("SubmittedTxs = %v, want 2 signatures", o.SubmittedTxs)
	}
	if c.Inflight() != 0 {
		t.Errorf("Inflight = %d, want 0", c.Inflight())
	}
}

func TestAdmitRejectsDuplicateKey(t *testing.T) {
	c := New(&recordingSink{}, nil, nil, nil, nil)
	ctx := context.Background()

	if _, err := c.Admit(ctx, scoredFor("k1")); err != nil {
		t.Fatalf("first Admit: %v", err)
	}
	if _, err := c.Admit(ctx, scoredFor("k1")); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("second Admit err = %v, want ErrDuplicate", err)
	}
	// A different key is unaffected.
	if _, err := c.Admit(ctx, scoredFor("k2")); err != nil {
		t.Fatalf("Admit other key: %v", err)
	}
}

func TestAdmitAfterTerminalAllowed(t *testing.T) {
	c := New(&recordingSink{}, nil, nil, nil, nil)
	ctx := context.Background()

	att, _ := c.Admit(ctx, scoredFor("k1"))
	if err := c.Complete(ctx, att.AttemptID, domain.AttemptAborted, 0, "test"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := c.Admit(ctx, scoredFor("k1")); err != nil {
		t.Fatalf("re-Admit after terminal: %v", err)
	}
}

func TestConcurrentAdmissionsSameKey(t *testing.T) {
	c := New(&recordingSink{}, nil, nil, nil, nil)
	ctx := context.Background()

	const goroutines = 32
	var wg sync.WaitGroup
	var admitted, duplicates int64
	var mu sync.Mutex

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Admit(ctx, scoredFor("contested"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
			} else if errors.Is(err, domain.ErrDuplicate) {
				duplicates++
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Fatalf("admitted = %d, want exactly 1", admitted)
	}
	if duplicates != goroutines-1 {
		t.Fatalf("duplicates = %d, want %d", duplicates, goroutines-1)
	}
}

func TestKillSwitchBlocksAdmission(t *testing.T) {
	c := New(&recordingSink{}, nil, nil, nil, nil)
	ctx := context.Background()

	c.SetKillSwitch(true)
	if _, err := c.Admit(ctx, scoredFor("k1")); !errors.Is(err, domain.ErrKillSwitch) {
		t.Fatalf("err = %v, want ErrKillSwitch", err)
	}

	c.SetKillSwitch(false)
	if _, err := c.Admit(ctx, scoredFor("k1")); err != nil {
		t.Fatalf("Admit after clearing kill switch: %v", err)
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink, nil, nil, nil, nil)
	ctx := context.Background()

	att, _ := c.Admit(ctx, scoredFor("k1"))

	// PENDING cannot confirm directly.
	if err := c.Complete(ctx, att.AttemptID, domain.AttemptConfirmed, 0, ""); err == nil {
		t.Fatal("PENDING -> CONFIRMED accepted")
	}
	// Non-terminal target is rejected outright.
	if err := c.Complete(ctx, att.AttemptID, domain.AttemptSubmitted, 0, ""); err == nil {
		t.Fatal("Complete accepted a non-terminal state")
	}

	if err := c.Complete(ctx, att.AttemptID, domain.AttemptAborted, 0, "test"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// Terminal attempts take no further transitions.
	if err := c.Complete(ctx, att.AttemptID, domain.AttemptExpired, 0, ""); err == nil {
		t.Fatal("transition out of terminal state accepted")
	}
	if got := len(sink.all()); got != 1 {
		t.Fatalf("outcomes = %d, want exactly 1", got)
	}
}

func TestRealizedProfitZeroUnlessConfirmed(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink, nil, nil, nil, nil)
	ctx := context.Background()

	att, _ := c.Admit(ctx, scoredFor("k1"))
	c.MarkSubmitted(ctx, att.AttemptID, []string{"sig1"})
	if err := c.Complete(ctx, att.AttemptID, domain.AttemptReverted, 0.5, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if got := sink.all()[0].RealizedProfit; got != 0 {
		t.Fatalf("RealizedProfit on REVERTED = %f, want 0", got)
	}
}

func TestReconcileSettlesJournaledAttempts(t *testing.T) {
	journal := newMemoryJournal()
	sink := &recordingSink{}

	// First process: submit and crash.
	c1 := New(sink, journal, nil, nil, nil)
	ctx := context.Background()
	att, _ := c1.Admit(ctx, scoredFor("k1"))
	c1.MarkSubmitted(ctx, att.AttemptID, []string{"sig1"})
	pending, _ := c1.Admit(ctx, scoredFor("k2"))
	_ = pending

	// Second process reconciles: sig1 confirmed on chain.
	c2 := New(sink, journal, nil, nil, nil)
	err := c2.Reconcile(ctx, &fixedStatuses{states: []domain.AttemptState{domain.AttemptConfirmed}})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	outcomes := sink.all()
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	byKey := map[string]domain.Outcome{}
	for _, o := range outcomes {
		byKey[o.OpportunityKey] = o
	}
	if byKey["k1"].State != domain.AttemptConfirmed {
		t.Errorf("k1 state = %s, want CONFIRMED", byKey["k1"].State)
	}
	if byKey["k2"].State != domain.AttemptAborted {
		t.Errorf("k2 state = %s, want ABORTED", byKey["k2"].State)
	}
}
