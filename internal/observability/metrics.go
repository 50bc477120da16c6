// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Feed metrics
	RawEventsReceived    *prometheus.CounterVec
	RawEventsDeduped     *prometheus.CounterVec
	EventsNormalized     prometheus.Counter
	EventsDropped        prometheus.Counter
	BackfillEventsMerged prometheus.Counter
	ReorderBufferSize    prometheus.Gauge
	HighestSlotSeen      prometheus.Gauge
	HeartbeatsEmitted    prometheus.Counter

	// Extraction metrics
	CandidatesDetected *prometheus.CounterVec
	CandidatesStale    prometheus.Counter
	WindowSize         prometheus.Gauge

	// Scoring metrics
	ScoringLatency     prometheus.Histogram
	ScoringUnavailable prometheus.Counter

	// Risk gate metrics
	GateAccepted prometheus.Counter
	GateRejected *prometheus.CounterVec

	// Coordinator metrics
	AttemptsAdmitted    prometheus.Counter
	AdmissionDuplicates prometheus.Counter
	InflightAttempts    prometheus.Gauge

	// Executor metrics
	AttemptsTerminal  *prometheus.CounterVec
	SubmissionRetries prometheus.Counter
	ExecutionLatency  prometheus.Histogram

	// Outcome metrics
	OutcomesRecorded prometheus.Counter
	RealizedProfit   prometheus.Gauge
}

// NewMetrics creates a Metrics instance with all metrics registered
// on the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sando_seer"
	}

	return &Metrics{
		RawEventsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "raw_events_received_total",
			Help:      "Total raw events received per source",
		}, []string{"source"}),
		RawEventsDeduped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "raw_events_deduped_total",
			Help:      "Raw events suppressed by the dedup window per source",
		}, []string{"source"}),
		EventsNormalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_normalized_total",
			Help:      "Normalized events emitted to the pipeline",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_dropped_total",
			Help:      "Unprocessed events dropped on queue overflow",
		}),
		BackfillEventsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "backfill_events_merged_total",
			Help:      "Events merged from post-reconnect backfill",
		}),
		ReorderBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reorder_buffer_size",
			Help:      "Slots currently held in the reorder buffer",
		}),
		HighestSlotSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "highest_slot_seen",
			Help:      "Highest slot observed across sources",
		}),
		HeartbeatsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "heartbeats_emitted_total",
			Help:      "Liveness heartbeats emitted by the feed adapter",
		}),
		CandidatesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "candidates_detected_total",
			Help:      "Opportunity candidates detected by kind",
		}, []string{"kind"}),
		CandidatesStale: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "candidates_stale_total",
			Help:      "Candidates dropped because their window had elapsed",
		}),
		WindowSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "extract",
			Name:      "rolling_window_size",
			Help:      "Events currently held in the rolling window",
		}),
		ScoringLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "latency_seconds",
			Help:      "Scoring call latency",
			Buckets:   prometheus.DefBuckets,
		}),
		ScoringUnavailable: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "unavailable_total",
			Help:      "Candidates dropped because scoring was unavailable",
		}),
		GateAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "accepted_total",
			Help:      "Scored opportunities accepted by the risk gate",
		}),
		GateRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "rejected_total",
			Help:      "Risk gate rejections by reason",
		}, []string{"reason"}),
		AttemptsAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "attempts_admitted_total",
			Help:      "Execution attempts admitted",
		}),
		AdmissionDuplicates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "admission_duplicates_total",
			Help:      "Admissions rejected because an attempt was in flight",
		}),
		InflightAttempts: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "inflight_attempts",
			Help:      "Non-terminal execution attempts",
		}),
		AttemptsTerminal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "attempts_terminal_total",
			Help:      "Execution attempts reaching a terminal state, by state",
		}, []string{"state"}),
		SubmissionRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "submission_retries_total",
			Help:      "Transient submission failures retried",
		}),
		ExecutionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "latency_seconds",
			Help:      "Admission-to-terminal latency",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		OutcomesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outcome",
			Name:      "recorded_total",
			Help:      "Outcome records appended to the log",
		}),
		RealizedProfit: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outcome",
			Name:      "realized_profit_sol",
			Help:      "Cumulative realized profit in SOL",
		}),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
