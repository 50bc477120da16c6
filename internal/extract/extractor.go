package extract

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/feed"
	"github.com/skadziol/sando-seer/internal/idhash"
	"github.com/skadziol/sando-seer/internal/observability"
)

// Config holds detector thresholds. Amounts are raw token units as parsed
// from venue logs.
type Config struct {
	// WindowTTL bounds how long events stay visible to the detectors.
	WindowTTL time.Duration

	// WindowMaxSize bounds the window event count.
	WindowMaxSize int

	// CandidateTTL is the execution window granted to each candidate.
	CandidateTTL time.Duration

	// SandwichMinAmountIn is the minimum victim swap input to consider
	// sandwiching.
	SandwichMinAmountIn float64

	// SandwichMinSlippage is the minimum victim slippage tolerance.
	SandwichMinSlippage float64

	// SandwichLegFraction sizes our front leg relative to the victim input.
	SandwichLegFraction float64

	// ArbMinDivergence is the minimum relative price gap between venues.
	ArbMinDivergence float64

	// SnipeMinAmountIn is the minimum first-trade input to consider a new
	// token worth sniping.
	SnipeMinAmountIn float64
}

func (c *Config) applyDefaults() {
	if c.WindowTTL <= 0 {
		c.WindowTTL = 30 * time.Second
	}
	if c.WindowMaxSize <= 0 {
		c.WindowMaxSize = 4096
	}
	if c.CandidateTTL <= 0 {
		c.CandidateTTL = 10 * time.Second
	}
	if c.SandwichMinAmountIn <= 0 {
		c.SandwichMinAmountIn = 1_000_000_000 // 1 SOL in lamports
	}
	if c.SandwichMinSlippage <= 0 {
		c.SandwichMinSlippage = 0.005
	}
	if c.SandwichLegFraction <= 0 {
		c.SandwichLegFraction = 0.25
	}
	if c.ArbMinDivergence <= 0 {
		c.ArbMinDivergence = 0.01
	}
	if c.SnipeMinAmountIn <= 0 {
		c.SnipeMinAmountIn = 100_000_000 // 0.1 SOL
	}
}

// Extractor applies the detection rules to each incoming event against a
// rolling window of recent flow. Detection is deterministic: the same event
// over the same window yields the same candidates.
type Extractor struct {
	cfg     Config
	win     *window
	logger  *log.Logger
	metrics *observability.Metrics

	mu        sync.Mutex
	seenMints map[string]int64 // mint -> first seen, Unix ms
}

// New creates an extractor.
func New(cfg Config, logger *log.Logger, metrics *observability.Metrics) *Extractor {
	cfg.applyDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{
		cfg:       cfg,
		win:       newWindow(cfg.WindowTTL, cfg.WindowMaxSize),
		logger:    logger,
		metrics:   metrics,
		seenMints: make(map[string]int64),
	}
}

// Process inspects one event and returns any candidates it triggers.
// Non-swap events only age the window.
func (x *Extractor) Process(ev domain.NormalizedEvent) []domain.OpportunityCandidate {
	now := time.Now().UnixMilli()

	if !ev.IsSwap() {
		x.win.prune(now)
		return nil
	}

	// Snipe detection needs the pre-event window, so it runs before the
	// event joins it.
	newMint := x.recordMint(ev.TokenOut, now)
	past := x.win.snapshot()
	x.win.add(ev)
	if x.metrics != nil {
		x.metrics.WindowSize.Set(float64(x.win.size()))
	}

	var out []domain.OpportunityCandidate
	if c := x.detectSandwich(ev, now); c != nil {
		out = append(out, *c)
	}
	if c := x.detectArbitrage(ev, past, now); c != nil {
		out = append(out, *c)
	}
	if newMint {
		if c := x.detectSnipe(ev, now); c != nil {
			out = append(out, *c)
		}
	}

	if x.metrics != nil {
		for _, c := range out {
			x.metrics.CandidatesDetected.WithLabelValues(string(c.Kind)).Inc()
		}
	}
	return out
}

// recordMint registers the output mint and reports whether this is its first
// sighting.
func (x *Extractor) recordMint(mint string, now int64) bool {
	if mint == "" {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.seenMints[mint]; ok {
		return false
	}
	x.seenMints[mint] = now
	return true
}

// detectSandwich flags large swaps with loose slippage settings. The front
// leg mirrors a fraction of the victim input; the back leg unwinds it.
func (x *Extractor) detectSandwich(ev domain.NormalizedEvent, now int64) *domain.OpportunityCandidate {
	if ev.TokenIn == "" || ev.TokenOut == "" {
		return nil
	}
	if ev.AmountIn < x.cfg.SandwichMinAmountIn {
		return nil
	}
	if ev.Slippage < x.cfg.SandwichMinSlippage {
		return nil
	}

	legIn := ev.AmountIn * x.cfg.SandwichLegFraction
	var legOut float64
	if ev.AmountIn > 0 && ev.AmountOut > 0 {
		legOut = legIn * (ev.AmountOut / ev.AmountIn)
	}

	return &domain.OpportunityCandidate{
		Key:          idhash.OpportunityKey(domain.KindSandwich, ev.Venue, ev.Accounts, ev.TokenIn, ev.TokenOut),
		Kind:         domain.KindSandwich,
		TriggerEvent: ev.ID,
		Venue:        ev.Venue,
		Accounts:     ev.Accounts,
		Legs: []domain.Leg{
			{
				Side:     domain.LegFront,
				Venue:    ev.Venue,
				TokenIn:  ev.TokenIn,
				TokenOut: ev.TokenOut,
				AmountIn: legIn,
				MinOut:   legOut * (1 - ev.Slippage),
				Priority: true,
			},
			{
				Side:     domain.LegBack,
				Venue:    ev.Venue,
				TokenIn:  ev.TokenOut,
				TokenOut: ev.TokenIn,
				AmountIn: legOut,
				MinOut:   legIn,
				Priority: true,
			},
		},
		DetectedAt: now,
		Deadline:   now + x.cfg.CandidateTTL.Milliseconds(),
	}
}

// detectArbitrage looks back through the window for the same pair priced
// differently on another venue.
func (x *Extractor) detectArbitrage(ev domain.NormalizedEvent, past []domain.NormalizedEvent, now int64) *domain.OpportunityCandidate {
	if ev.TokenIn == "" || ev.TokenOut == "" || ev.AmountIn <= 0 || ev.AmountOut <= 0 {
		return nil
	}
	price := ev.AmountOut / ev.AmountIn

	// Newest matching quote wins.
	for i := len(past) - 1; i >= 0; i-- {
		prev := past[i]
		if prev.Venue == ev.Venue {
			continue
		}
		if !samePair(&prev, &ev) || prev.AmountIn <= 0 || prev.AmountOut <= 0 {
			continue
		}

		prevPrice := prev.AmountOut / prev.AmountIn
		if prev.TokenIn != ev.TokenIn {
			// Opposite direction; invert to compare.
			prevPrice = prev.AmountIn / prev.AmountOut
		}

		divergence := math.Abs(price-prevPrice) / math.Min(price, prevPrice)
		if divergence < x.cfg.ArbMinDivergence {
			continue
		}

		// Buy where output per input is higher, unwind on the other venue.
		buyVenue, sellVenue := ev.Venue, prev.Venue
		if prevPrice > price {
			buyVenue, sellVenue = prev.Venue, ev.Venue
		}

		accounts := append(append([]string(nil), ev.Accounts...), prev.Accounts...)
		venue := buyVenue + "+" + sellVenue
		amountIn := math.Min(ev.AmountIn, prev.AmountIn)
		expectedOut := amountIn * math.Max(price, prevPrice)

		return &domain.OpportunityCandidate{
			Key:          idhash.OpportunityKey(domain.KindArbitrage, venue, accounts, ev.TokenIn, ev.TokenOut),
			Kind:         domain.KindArbitrage,
			TriggerEvent: ev.ID,
			Venue:        venue,
			Accounts:     accounts,
			Legs: []domain.Leg{
				{
					Side:     domain.LegSwap,
					Venue:    buyVenue,
					TokenIn:  ev.TokenIn,
					TokenOut: ev.TokenOut,
					AmountIn: amountIn,
					MinOut:   expectedOut * (1 - x.cfg.ArbMinDivergence/2),
				},
				{
					Side:     domain.LegSwap,
					Venue:    sellVenue,
					TokenIn:  ev.TokenOut,
					TokenOut: ev.TokenIn,
					AmountIn: expectedOut,
					MinOut:   amountIn,
				},
			},
			DetectedAt: now,
			Deadline:   now + x.cfg.CandidateTTL.Milliseconds(),
		}
	}
	return nil
}

// detectSnipe flags the first meaningful trade of a previously unseen mint.
func (x *Extractor) detectSnipe(ev domain.NormalizedEvent, now int64) *domain.OpportunityCandidate {
	if ev.TokenOut == "" || ev.TokenOut == feed.WSOL {
		return nil
	}
	if ev.AmountIn < x.cfg.SnipeMinAmountIn {
		return nil
	}

	return &domain.OpportunityCandidate{
		Key:          idhash.OpportunityKey(domain.KindSnipe, ev.Venue, ev.Accounts, feed.WSOL, ev.TokenOut),
		Kind:         domain.KindSnipe,
		TriggerEvent: ev.ID,
		Venue:        ev.Venue,
		Accounts:     ev.Accounts,
		Legs: []domain.Leg{
			{
				Side:     domain.LegSwap,
				Venue:    ev.Venue,
				TokenIn:  feed.WSOL,
				TokenOut: ev.TokenOut,
				AmountIn: x.cfg.SnipeMinAmountIn,
				MinOut:   0, // no established price for a fresh mint
			},
		},
		DetectedAt: now,
		Deadline:   now + x.cfg.CandidateTTL.Milliseconds(),
	}
}

func samePair(a, b *domain.NormalizedEvent) bool {
	if a.TokenIn == b.TokenIn && a.TokenOut == b.TokenOut {
		return true
	}
	return a.TokenIn == b.TokenOut && a.TokenOut == b.TokenIn
}
