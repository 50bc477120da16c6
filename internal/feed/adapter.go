package feed

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/observability"
)

// AdapterConfig holds feed adapter tuning knobs.
type AdapterConfig struct {
	// QueueSize bounds the output queue. When full, the oldest unprocessed
	// event is dropped to admit the newest.
	QueueSize int

	// SlotLag is how many slots behind the highest observed slot an event
	// may arrive and still be reordered. Events are held until the highest
	// slot advances past their slot plus the lag.
	SlotLag int64

	// FlushInterval is the reorder buffer sweep period.
	FlushInterval time.Duration

	// HeartbeatInterval is the liveness tick period.
	HeartbeatInterval time.Duration

	// DedupTTL is the duplicate suppression window.
	DedupTTL time.Duration

	// BackfillLimit caps how many events one reconnect backfill may fetch.
	BackfillLimit int
}

func (c *AdapterConfig) applyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.SlotLag <= 0 {
		c.SlotLag = 2
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 200 * time.Millisecond
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 5 * time.Second
	}
	if c.DedupTTL <= 0 {
		c.DedupTTL = 2 * time.Minute
	}
	if c.BackfillLimit <= 0 {
		c.BackfillLimit = 100
	}
}

// Adapter multiplexes sources into one ordered stream of normalized events.
//
// Events are deduplicated per (source, signature), parsed, buffered per slot,
// and emitted in (slot, signature) order once the slot falls outside the lag
// window. IDs are assigned at emission, so they are strictly increasing in
// emission order for the lifetime of the process.
type Adapter struct {
	cfg     AdapterConfig
	sources []Source
	parser  *Parser
	dedup   *dedupWindow
	logger  *log.Logger
	metrics *observability.Metrics

	nextID  atomic.Uint64
	dropped atomic.Uint64
	isDown  atomic.Bool

	out       chan domain.NormalizedEvent
	heartbeat chan struct{}
	down      chan error

	mu          sync.Mutex
	buffer      map[int64][]domain.NormalizedEvent
	highestSlot int64
}

// NewAdapter creates a feed adapter over the given sources.
func NewAdapter(cfg AdapterConfig, sources []Source, logger *log.Logger, metrics *observability.Metrics) *Adapter {
	cfg.applyDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{
		cfg:       cfg,
		sources:   sources,
		parser:    NewParser(),
		dedup:     newDedupWindow(cfg.DedupTTL),
		logger:    logger,
		metrics:   metrics,
		out:       make(chan domain.NormalizedEvent, cfg.QueueSize),
		heartbeat: make(chan struct{}, 1),
		down:      make(chan error, 1),
	}
}

// Events returns the ordered normalized event stream.
func (a *Adapter) Events() <-chan domain.NormalizedEvent {
	return a.out
}

// Heartbeat returns the liveness channel. A tick means the adapter is alive
// even when no events flow.
func (a *Adapter) Heartbeat() <-chan struct{} {
	return a.heartbeat
}

// Down delivers at most one error when the feed is conclusively down.
func (a *Adapter) Down() <-chan error {
	return a.down
}

// Dropped returns the number of events dropped on queue overflow.
func (a *Adapter) Dropped() uint64 {
	return a.dropped.Load()
}

// Run subscribes all sources and pumps events until the context is
// cancelled. The output channel closes on return.
func (a *Adapter) Run(ctx context.Context) error {
	a.buffer = make(map[int64][]domain.NormalizedEvent)

	var wg sync.WaitGroup
	for _, src := range a.sources {
		ch, err := src.Subscribe(ctx)
		if err != nil {
			a.NotifyDown(err)
			return err
		}
		wg.Add(1)
		go func(name string, ch <-chan domain.RawEvent) {
			defer wg.Done()
			a.consume(ctx, name, ch)
		}(src.Name(), ch)
	}

	flushTicker := time.NewTicker(a.cfg.FlushInterval)
	heartbeatTicker := time.NewTicker(a.cfg.HeartbeatInterval)
	cleanupTicker := time.NewTicker(a.cfg.DedupTTL)
	defer flushTicker.Stop()
	defer heartbeatTicker.Stop()
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			a.flush(true)
			close(a.out)
			return ctx.Err()
		case <-flushTicker.C:
			a.flush(false)
		case <-heartbeatTicker.C:
			if a.isDown.Load() {
				continue
			}
			select {
			case a.heartbeat <- struct{}{}:
				if a.metrics != nil {
					a.metrics.HeartbeatsEmitted.Inc()
				}
			default:
			}
		case <-cleanupTicker.C:
			a.dedup.cleanup()
		}
	}
}

// NotifyDown marks the feed as down and surfaces the error once. Wired to
// the transport's permanent-failure callback.
func (a *Adapter) NotifyDown(err error) {
	if !a.isDown.CompareAndSwap(false, true) {
		return
	}
	a.logger.Printf("[feed] feed down: %v", err)
	select {
	case a.down <- err:
	default:
	}
}

// NotifyReconnect runs a backfill on every source and merges the results,
// filtered through the dedup window so replayed live events are not emitted
// twice. Wired to the transport's reconnect callback.
func (a *Adapter) NotifyReconnect(ctx context.Context) {
	a.isDown.Store(false)
	for _, src := range a.sources {
		b, ok := src.(interface{ LastSeenSignature() string })
		if !ok {
			continue
		}
		since := b.LastSeenSignature()
		if since == "" {
			continue
		}
		events, err := src.Backfill(ctx, since, a.cfg.BackfillLimit)
		if err != nil {
			a.logger.Printf("[feed] backfill for %s failed: %v", src.Name(), err)
			continue
		}
		merged := 0
		for i := range events {
			if a.ingest(&events[i]) {
				merged++
			}
		}
		if merged > 0 {
			a.logger.Printf("[feed] merged %d backfill events from %s", merged, src.Name())
			if a.metrics != nil {
				a.metrics.BackfillEventsMerged.Add(float64(merged))
			}
		}
	}
}

func (a *Adapter) consume(ctx context.Context, name string, ch <-chan domain.RawEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			if a.metrics != nil {
				a.metrics.RawEventsReceived.WithLabelValues(name).Inc()
			}
			a.ingest(&raw)
		}
	}
}

// ingest normalizes one raw event into the reorder buffer. Returns false for
// duplicates.
func (a *Adapter) ingest(raw *domain.RawEvent) bool {
	if a.dedup.isDuplicate(raw.Source, raw.Signature) {
		if a.metrics != nil {
			a.metrics.RawEventsDeduped.WithLabelValues(raw.Source).Inc()
		}
		return false
	}

	event := domain.NormalizedEvent{
		ObservedAt: time.Now().UnixMilli(),
		Slot:       raw.Slot,
		Signature:  raw.Signature,
		Source:     raw.Source,
	}
	a.parser.Parse(raw, &event)

	a.mu.Lock()
	a.buffer[event.Slot] = append(a.buffer[event.Slot], event)
	if event.Slot > a.highestSlot {
		a.highestSlot = event.Slot
		if a.metrics != nil {
			a.metrics.HighestSlotSeen.Set(float64(a.highestSlot))
		}
	}
	a.mu.Unlock()
	return true
}

// flush emits buffered slots that have fallen outside the lag window, sorted
// by (slot, signature). With all set, every buffered slot is emitted.
func (a *Adapter) flush(all bool) {
	a.mu.Lock()
	var ready []domain.NormalizedEvent
	for slot, events := range a.buffer {
		if all || slot <= a.highestSlot-a.cfg.SlotLag {
			ready = append(ready, events...)
			delete(a.buffer, slot)
		}
	}
	if a.metrics != nil {
		a.metrics.ReorderBufferSize.Set(float64(len(a.buffer)))
	}
	a.mu.Unlock()

	if len(ready) == 0 {
		return
	}

	sort.Slice(ready, func(i, j int) bool {
		if ready[i].Slot != ready[j].Slot {
			return ready[i].Slot < ready[j].Slot
		}
		return ready[i].Signature < ready[j].Signature
	})

	for i := range ready {
		ready[i].ID = a.nextID.Add(1)
		a.emit(ready[i])
	}
}

// emit enqueues one event, dropping the oldest queued event on overflow so
// the pipeline always sees the freshest flow.
func (a *Adapter) emit(event domain.NormalizedEvent) {
	for {
		select {
		case a.out <- event:
			if a.metrics != nil {
				a.metrics.EventsNormalized.Inc()
			}
			return
		default:
		}
		select {
		case <-a.out:
			a.dropped.Add(1)
			if a.metrics != nil {
				a.metrics.EventsDropped.Inc()
			}
		default:
		}
	}
}
