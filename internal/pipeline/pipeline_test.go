package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"github.com/skadziol/sando-seer/internal/coordinator"
	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/executor"
	"github.com/skadziol/sando-seer/internal/exposure"
	"github.com/skadziol/sando-seer/internal/extract"
	"github.com/skadziol/sando-seer/internal/feed"
	"github.com/skadziol/sando-seer/internal/outcome/memory"
	"github.com/skadziol/sando-seer/internal/risk"
	"github.com/skadziol/sando-seer/internal/scoring"
	"github.com/skadziol/sando-seer/internal/solana"
	"github.com/skadziol/sando-seer/internal/solana/stub"
)

type fakeSigner struct{}

func (fakeSigner) Sign(_ context.Context, message []byte) ([]byte, error) {
	sig := make([]byte, 64)
	return append(sig, message...), nil
}

func (fakeSigner) PublicKey() string {
	return "11111111111111111111111111111111"
}

type fakeFeedSource struct {
	events []domain.RawEvent
}

func (f *fakeFeedSource) Name() string { return "ws-test" }

func (f *fakeFeedSource) Subscribe(ctx context.Context) (<-chan domain.RawEvent, error) {
	out := make(chan domain.RawEvent, len(f.events))
	for _, ev := range f.events {
		out <- ev
	}
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

func (f *fakeFeedSource) Backfill(context.Context, string, int) ([]domain.RawEvent, error) {
	return nil, nil
}

// rayLogEvent builds a raw Raydium swap with mints and amounts encoded the
// way the venue logs them.
func rayLogEvent(t *testing.T, sig string, slot int64, amountIn, amountOut uint64) domain.RawEvent {
	t.Helper()

	inBytes, err := base58.Decode(executor.MintSOL)
	if err != nil {
		t.Fatal(err)
	}
	outBytes, err := base58.Decode(executor.MintBONK)
	if err != nil {
		t.Fatal(err)
	}

	data := make([]byte, 113)
	data[0] = 0x09
	copy(data[33:65], inBytes)
	copy(data[65:97], outBytes)
	binary.LittleEndian.PutUint64(data[97:105], amountIn)
	binary.LittleEndian.PutUint64(data[105:113], amountOut)

	return domain.RawEvent{
		Source:    "ws-test",
		Signature: sig,
		Slot:      slot,
		Payload: feed.EncodePayload(
			[]string{"Program log: ray_log: " + base64.StdEncoding.EncodeToString(data)},
			[]string{"pool1", "vaultA", "vaultB"},
		),
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	src := &fakeFeedSource{
		events: []domain.RawEvent{
			rayLogEvent(t, "victim", 100, 2_000_000_000, 300_000_000),
			rayLogEvent(t, "later", 110, 1_000, 100), // advances the high-water mark
		},
	}
	adapter := feed.NewAdapter(feed.AdapterConfig{
		SlotLag:       2,
		FlushInterval: 10 * time.Millisecond,
	}, []feed.Source{src}, nil, nil)

	extractor := extract.New(extract.Config{
		SandwichMinAmountIn: 1_000_000_000,
		SandwichMinSlippage: 0.005,
		SandwichLegFraction: 0.25,
		CandidateTTL:        10 * time.Second,
	}, nil, nil)

	outcomeLog := memory.NewLog()
	tracker := exposure.NewTracker()
	builder := scoring.NewContextBuilder(outcomeLog, tracker,
		scoring.FeeSchedule{BaseFee: 5_000, PriorityFee: 100_000}, 50)
	engine := scoring.NewEngine(scoring.EngineOptions{}, builder, nil, nil)

	sink := NewOutcomeFanout(outcomeLog, nil, nil, nil, nil)
	coord := coordinator.New(sink, memory.NewJournal(), tracker, nil, nil)

	rpc := stub.NewRPCClient()
	rpc.SetStatus("StubSig0001", solana.TxConfirmed)
	rpc.SetStatus("StubSig0002", solana.TxConfirmed)
	exec := executor.New(executor.Config{
		RetryBackoff: time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	}, rpc, fakeSigner{}, coord, nil, nil)

	p := New(Options{
		Feed:        adapter,
		Extractor:   extractor,
		Scorer:      engine,
		Gate:        risk.NewGate(),
		Coordinator: coord,
		Executor:    exec,
		Exposure:    tracker,
		Policy: domain.RiskPolicy{
			MinConfidence: 0.7,
			MinProfit:     0.001,
			FeeBuffer:     0.0005,
			MaxRisk:       domain.RiskHigh,
		},
		Workers: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for outcomeLog.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("no outcome recorded within deadline")
		case err := <-done:
			t.Fatalf("pipeline exited early: %v", err)
		case <-time.After(20 * time.Millisecond):
		}
	}

	recent, err := outcomeLog.RecentByKind(context.Background(), domain.KindSandwich, 10)
	if err != nil {
		t.Fatalf("RecentByKind: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("sandwich outcomes = %d, want 1", len(recent))
	}
	o := recent[0]
	if o.State != domain.AttemptConfirmed {
		t.Fatalf("outcome state = %s, want CONFIRMED", o.State)
	}
	if len(o.SubmittedTxs) != 2 {
		t.Errorf("SubmittedTxs = %v, want both sandwich legs", o.SubmittedTxs)
	}
	if o.RealizedProfit <= 0 {
		t.Errorf("RealizedProfit = %f, want positive", o.RealizedProfit)
	}

	// The key is released after the terminal state.
	if coord.Inflight() != 0 {
		t.Errorf("Inflight = %d, want 0", coord.Inflight())
	}
	if tracker.Snapshot().OpenAttempts != 0 {
		t.Errorf("OpenAttempts = %d, want 0", tracker.Snapshot().OpenAttempts)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop on cancel")
	}
}

func TestPipelineKillSwitchStopsAdmission(t *testing.T) {
	src := &fakeFeedSource{
		events: []domain.RawEvent{
			rayLogEvent(t, "victim", 100, 2_000_000_000, 300_000_000),
			rayLogEvent(t, "later", 110, 1_000, 100),
		},
	}
	adapter := feed.NewAdapter(feed.AdapterConfig{
		SlotLag:       2,
		FlushInterval: 10 * time.Millisecond,
	}, []feed.Source{src}, nil, nil)

	extractor := extract.New(extract.Config{
		SandwichMinAmountIn: 1_000_000_000,
		CandidateTTL:        10 * time.Second,
	}, nil, nil)

	outcomeLog := memory.NewLog()
	tracker := exposure.NewTracker()
	builder := scoring.NewContextBuilder(outcomeLog, tracker, scoring.FeeSchedule{BaseFee: 5_000}, 50)
	engine := scoring.NewEngine(scoring.EngineOptions{}, builder, nil, nil)

	coord := coordinator.New(NewOutcomeFanout(outcomeLog, nil, nil, nil, nil), nil, tracker, nil, nil)
	coord.SetKillSwitch(true)

	rpc := stub.NewRPCClient()
	exec := executor.New(executor.Config{PollInterval: 5 * time.Millisecond}, rpc, fakeSigner{}, coord, nil, nil)

	p := New(Options{
		Feed:        adapter,
		Extractor:   extractor,
		Scorer:      engine,
		Gate:        risk.NewGate(),
		Coordinator: coord,
		Executor:    exec,
		Exposure:    tracker,
		Policy:      domain.RiskPolicy{MaxRisk: domain.RiskHigh},
		Workers:     2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(300 * time.Millisecond)
	cancel()
	<-done

	if n := outcomeLog.Len(); n != 0 {
		t.Fatalf("outcomes = %d, want 0 under kill switch", n)
	}
	if rpc.SendCount() != 0 {
		t.Fatalf("SendCount = %d, want 0 under kill switch", rpc.SendCount())
	}
}
