// Package pipeline wires the stages together: feed, extraction, scoring,
// risk gating, coordination and execution.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skadziol/sando-seer/internal/coordinator"
	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/extract"
	"github.com/skadziol/sando-seer/internal/feed"
	"github.com/skadziol/sando-seer/internal/notify"
	"github.com/skadziol/sando-seer/internal/observability"
	"github.com/skadziol/sando-seer/internal/risk"
	"github.com/skadziol/sando-seer/internal/scoring"
)

// Executor runs one admitted attempt to a terminal state.
type Executor interface {
	Execute(ctx context.Context, att *domain.ExecutionAttempt)
}

// ExposureReader provides the snapshot passed into the risk gate.
type ExposureReader interface {
	Snapshot() domain.ExposureSnapshot
}

// Options for creating a Pipeline.
type Options struct {
	Feed        *feed.Adapter
	Extractor   *extract.Extractor
	Scorer      *scoring.Engine
	Gate        *risk.Gate
	Coordinator *coordinator.Coordinator
	Executor    Executor
	Exposure    ExposureReader
	Policy      domain.RiskPolicy
	Notifier    notify.Notifier
	Logger      *log.Logger
	Metrics     *observability.Metrics

	// Workers sizes the candidate worker pool.
	Workers int

	// HeartbeatTimeout declares the feed stalled when no event or heartbeat
	// arrives within it.
	HeartbeatTimeout time.Duration
}

// Pipeline is the run loop. Candidates flow through a bounded channel to a
// worker pool; each worker scores, gates, admits and executes.
type Pipeline struct {
	opts       Options
	candidates chan domain.OpportunityCandidate
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = 30 * time.Second
	}
	return &Pipeline{
		opts:       opts,
		candidates: make(chan domain.OpportunityCandidate, 256),
	}
}

// Run starts the feed and the workers and blocks until the context is
// cancelled or the feed conclusively fails. A feed failure returns
// ErrFeedDown wrapped with the transport cause.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := p.opts.Feed.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return p.ingest(ctx)
	})

	for i := 0; i < p.opts.Workers; i++ {
		g.Go(func() error {
			p.work(ctx)
			return nil
		})
	}

	return g.Wait()
}

// ingest drains the feed, runs extraction inline (it is cheap and must see
// events in order), and watches liveness.
func (p *Pipeline) ingest(ctx context.Context) error {
	stall := time.NewTimer(p.opts.HeartbeatTimeout)
	defer stall.Stop()

	resetStall := func() {
		if !stall.Stop() {
			select {
			case <-stall.C:
			default:
			}
		}
		stall.Reset(p.opts.HeartbeatTimeout)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-p.opts.Feed.Down():
			p.alert(ctx, notify.FormatFeedDown(err))
			return errors.Join(domain.ErrFeedDown, err)

		case <-p.opts.Feed.Heartbeat():
			resetStall()

		case <-stall.C:
			p.opts.Logger.Printf("[pipeline] no feed activity for %v", p.opts.HeartbeatTimeout)
			stall.Reset(p.opts.HeartbeatTimeout)

		case ev, ok := <-p.opts.Feed.Events():
			if !ok {
				return nil
			}
			resetStall()
			for _, cand := range p.opts.Extractor.Process(ev) {
				select {
				case p.candidates <- cand:
				default:
					// Full queue: newer opportunities matter more than a
					// backlog of stale ones.
					select {
					case <-p.candidates:
					default:
					}
					select {
					case p.candidates <- cand:
					default:
					}
				}
			}
		}
	}
}

// work scores, gates, admits and executes candidates.
func (p *Pipeline) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cand := <-p.candidates:
			p.handle(ctx, &cand)
		}
	}
}

func (p *Pipeline) handle(ctx context.Context, cand *domain.OpportunityCandidate) {
	if cand.Expired(time.Now().UnixMilli()) {
		if p.opts.Metrics != nil {
			p.opts.Metrics.CandidatesStale.Inc()
		}
		return
	}

	scored, err := p.opts.Scorer.Score(ctx, cand)
	if err != nil {
		if !errors.Is(err, domain.ErrScoringUnavailable) {
			p.opts.Logger.Printf("[pipeline] score %s: %v", cand.Kind, err)
		}
		return
	}

	policy := p.opts.Policy
	policy.KillSwitch = policy.KillSwitch || p.opts.Coordinator.KillSwitch()
	decision := p.opts.Gate.Evaluate(scored, p.opts.Exposure.Snapshot(), policy)
	if !decision.Accept {
		if p.opts.Metrics != nil {
			p.opts.Metrics.GateRejected.WithLabelValues(string(decision.Reason)).Inc()
		}
		return
	}
	if p.opts.Metrics != nil {
		p.opts.Metrics.GateAccepted.Inc()
	}

	att, err := p.opts.Coordinator.Admit(ctx, scored)
	if err != nil {
		// Duplicates and the kill switch are expected flow control.
		if !errors.Is(err, domain.ErrDuplicate) && !errors.Is(err, domain.ErrKillSwitch) {
			p.opts.Logger.Printf("[pipeline] admit %s: %v", cand.Kind, err)
		}
		return
	}

	p.alert(ctx, notify.FormatAdmission(att))
	p.opts.Executor.Execute(ctx, att)
}

func (p *Pipeline) alert(ctx context.Context, message string) {
	if p.opts.Notifier != nil {
		p.opts.Notifier.Notify(ctx, message)
	}
}
