package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mr-tron/base58"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/observability"
	"github.com/skadziol/sando-seer/internal/solana"
	"github.com/skadziol/sando-seer/internal/wallet"
)

// AttemptDriver is the coordinator surface the executor reports through.
// The executor never mutates attempt state directly.
type AttemptDriver interface {
	MarkSubmitted(ctx context.Context, attemptID string, signatures []string) error
	Complete(ctx context.Context, attemptID string, state domain.AttemptState, realizedProfit float64, abortReason string) error
}

// Config holds executor tuning knobs.
type Config struct {
	// MaxSubmitRetries bounds retries of one leg on transient failures.
	MaxSubmitRetries int

	// RetryBackoff is the base delay, doubled per retry.
	RetryBackoff time.Duration

	// PollInterval is the confirmation polling period.
	PollInterval time.Duration

	// ComputeUnitPrice is the priority fee attached to priority legs, in
	// micro-lamports per compute unit.
	ComputeUnitPrice uint64

	// DryRun stops after simulation: nothing is broadcast, and the attempt
	// settles as confirmed at its expected profit so the feedback loop
	// still learns from it.
	DryRun bool
}

func (c *Config) applyDefaults() {
	if c.MaxSubmitRetries <= 0 {
		c.MaxSubmitRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.ComputeUnitPrice == 0 {
		c.ComputeUnitPrice = 50_000
	}
}

// Executor drives one admitted attempt to a terminal state: build, sign,
// simulate, submit, confirm. Every path ends in exactly one Complete call.
type Executor struct {
	cfg     Config
	rpc     solana.RPCClient
	signer  wallet.Signer
	driver  AttemptDriver
	logger  *log.Logger
	metrics *observability.Metrics
}

// New creates an executor.
func New(cfg Config, rpc solana.RPCClient, signer wallet.Signer, driver AttemptDriver, logger *log.Logger, metrics *observability.Metrics) *Executor {
	cfg.applyDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{cfg: cfg, rpc: rpc, signer: signer, driver: driver, logger: logger, metrics: metrics}
}

// Execute runs the attempt to completion. It always resolves the attempt
// through the driver, including on context cancellation.
func (e *Executor) Execute(ctx context.Context, att *domain.ExecutionAttempt) {
	cand := att.Scored.Candidate
	deadline := time.UnixMilli(cand.Deadline)

	if cand.Expired(time.Now().UnixMilli()) {
		e.abort(ctx, att, "stale before execution")
		return
	}

	signed, localSigs, err := e.prepare(ctx, att)
	if err != nil {
		var se *domain.SigningError
		if errors.As(err, &se) {
			e.logger.Printf("[executor] attempt %s signing failed, aborting unsubmitted: %v", att.AttemptID, err)
		}
		e.abort(ctx, att, err.Error())
		return
	}

	if err := e.simulate(ctx, signed); err != nil {
		e.abort(ctx, att, err.Error())
		return
	}

	if e.cfg.DryRun {
		e.logger.Printf("[executor] dry run: attempt %s simulated clean, not broadcasting", att.AttemptID)
		if err := e.driver.MarkSubmitted(ctx, att.AttemptID, localSigs); err != nil {
			e.logger.Printf("[executor] attempt %s: %v", att.AttemptID, err)
			return
		}
		e.complete(ctx, att, domain.AttemptConfirmed, att.Scored.ExpectedProfit, "")
		return
	}

	sigs, err := e.submit(ctx, att, signed, deadline)
	if err != nil {
		if len(sigs) > 0 {
			// Part of the bundle is on the wire; settle it as its own fate.
			if markErr := e.driver.MarkSubmitted(ctx, att.AttemptID, sigs); markErr != nil {
				e.logger.Printf("[executor] attempt %s: %v", att.AttemptID, markErr)
				return
			}
			e.complete(ctx, att, domain.AttemptAborted, 0, fmt.Sprintf("partial submission: %v", err))
			return
		}
		e.abort(ctx, att, err.Error())
		return
	}

	if err := e.driver.MarkSubmitted(ctx, att.AttemptID, sigs); err != nil {
		e.logger.Printf("[executor] attempt %s: %v", att.AttemptID, err)
		return
	}
	e.confirm(ctx, att, sigs, deadline)
}

// prepare builds and signs every leg. A signing failure is fatal to the
// attempt with nothing submitted.
func (e *Executor) prepare(ctx context.Context, att *domain.ExecutionAttempt) (signed [][]byte, localSigs []string, err error) {
	blockhash, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("latest blockhash: %w", err)
	}

	cand := att.Scored.Candidate
	for i := range cand.Legs {
		msg, err := buildLegMessage(&cand.Legs[i], e.signer.PublicKey(), blockhash)
		if err != nil {
			return nil, nil, fmt.Errorf("build leg %d: %w", i, err)
		}
		tx, err := e.signer.Sign(ctx, msg)
		if err != nil {
			return nil, nil, &domain.SigningError{Err: err}
		}
		signed = append(signed, tx)
		localSigs = append(localSigs, base58.Encode(tx[:64]))
	}
	return signed, localSigs, nil
}

// simulate runs every signed leg against current state. Simulation failures
// are invalid submissions and never retried.
func (e *Executor) simulate(ctx context.Context, signed [][]byte) error {
	for i, tx := range signed {
		result, err := e.rpc.SimulateTransaction(ctx, tx)
		if err != nil {
			return fmt.Errorf("simulate leg %d: %w", i, err)
		}
		if result.Failed() {
			return &domain.SubmissionInvalidError{
				Reason: fmt.Sprintf("leg %d simulation: %v", i, result.Err),
			}
		}
	}
	return nil
}

// submit broadcasts the legs in order. Transient failures retry with backoff
// up to the configured bound; invalid submissions stop immediately. Returns
// the signatures accepted so far alongside any error.
func (e *Executor) submit(ctx context.Context, att *domain.ExecutionAttempt, signed [][]byte, deadline time.Time) ([]string, error) {
	cand := att.Scored.Candidate
	var sigs []string

	for i, tx := range signed {
		opts := &solana.SubmitOpts{SkipPreflight: true}
		if cand.Legs[i].Priority {
			opts.ComputeUnitPrice = e.cfg.ComputeUnitPrice
		}

		var sig string
		var err error
		for attempt := 0; ; attempt++ {
			sig, err = e.rpc.SendTransaction(ctx, tx, opts)
			if err == nil {
				break
			}
			if !domain.IsTransient(err) || attempt >= e.cfg.MaxSubmitRetries {
				return sigs, fmt.Errorf("send leg %d: %w", i, err)
			}
			if e.metrics != nil {
				e.metrics.SubmissionRetries.Inc()
			}
			delay := e.cfg.RetryBackoff << attempt
			if time.Now().Add(delay).After(deadline) {
				return sigs, fmt.Errorf("send leg %d: deadline before next retry: %w", i, err)
			}
			e.logger.Printf("[executor] attempt %s leg %d retry %d after %v: %v",
				att.AttemptID, i, attempt+1, delay, err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return sigs, ctx.Err()
			}
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// confirm polls signature statuses until all legs confirm, any leg reverts,
// or the deadline passes.
func (e *Executor) confirm(ctx context.Context, att *domain.ExecutionAttempt, sigs []string, deadline time.Time) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.complete(ctx, att, domain.AttemptAborted, 0, "shutdown during confirmation")
			return
		case <-ticker.C:
			if time.Now().After(deadline) {
				e.complete(ctx, att, domain.AttemptExpired, 0, "")
				return
			}

			statuses, err := e.rpc.GetSignatureStatuses(ctx, sigs)
			if err != nil {
				e.logger.Printf("[executor] attempt %s status poll: %v", att.AttemptID, err)
				continue
			}

			confirmed := 0
			for _, s := range statuses {
				switch s.Status {
				case solana.TxReverted:
					e.complete(ctx, att, domain.AttemptReverted, 0, "")
					return
				case solana.TxConfirmed:
					confirmed++
				}
			}
			if confirmed == len(sigs) {
				e.complete(ctx, att, domain.AttemptConfirmed, att.Scored.ExpectedProfit, "")
				return
			}
		}
	}
}

func (e *Executor) abort(ctx context.Context, att *domain.ExecutionAttempt, reason string) {
	e.complete(ctx, att, domain.AttemptAborted, 0, reason)
}

func (e *Executor) complete(ctx context.Context, att *domain.ExecutionAttempt, state domain.AttemptState, realized float64, reason string) {
	// Outcomes must land even when completion races shutdown.
	ctx = context.WithoutCancel(ctx)
	if err := e.driver.Complete(ctx, att.AttemptID, state, realized, reason); err != nil {
		e.logger.Printf("[executor] attempt %s complete %s: %v", att.AttemptID, state, err)
	}
}
