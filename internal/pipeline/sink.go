package pipeline

import (
	"context"
	"log"
	"sync"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/notify"
	"github.com/skadziol/sando-seer/internal/observability"
	"github.com/skadziol/sando-seer/internal/outcome"
)

// Archiver receives a secondary copy of each outcome for analytics.
type Archiver interface {
	Append(ctx context.Context, outcomes []domain.Outcome) error
}

// OutcomeFanout is the coordinator's sink: it writes the primary log, then
// best-effort copies to the archive, the notifier and the metrics. Only a
// primary log failure propagates.
type OutcomeFanout struct {
	log      outcome.Log
	archive  Archiver
	notifier notify.Notifier
	logger   *log.Logger
	metrics  *observability.Metrics

	mu       sync.Mutex
	realized float64
}

// NewOutcomeFanout creates the fanout sink. archive and notifier may be nil.
func NewOutcomeFanout(primary outcome.Log, archive Archiver, notifier notify.Notifier, logger *log.Logger, metrics *observability.Metrics) *OutcomeFanout {
	if logger == nil {
		logger = log.Default()
	}
	return &OutcomeFanout{log: primary, archive: archive, notifier: notifier, logger: logger, metrics: metrics}
}

// Record appends the outcome to the primary log and fans out.
func (s *OutcomeFanout) Record(ctx context.Context, o *domain.Outcome) error {
	if err := s.log.Record(ctx, o); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.OutcomesRecorded.Inc()
		s.mu.Lock()
		s.realized += o.RealizedProfit
		s.metrics.RealizedProfit.Set(s.realized)
		s.mu.Unlock()
	}
	if s.archive != nil {
		if err := s.archive.Append(ctx, []domain.Outcome{*o}); err != nil {
			s.logger.Printf("[pipeline] archive outcome %s: %v", o.AttemptID, err)
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, notify.FormatOutcome(o))
	}
	return nil
}
