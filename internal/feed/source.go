package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/solana"
)

// Source produces raw events from one upstream subscription.
type Source interface {
	// Name identifies the subscription (used in dedup keys and logs).
	Name() string

	// Subscribe returns a channel of raw events. The channel closes when the
	// context is cancelled or the source fails permanently.
	Subscribe(ctx context.Context) (<-chan domain.RawEvent, error)

	// Backfill returns the smallest available backlog of events since the
	// given signature, newest first as delivered by the RPC. Called by the
	// adapter after a reconnect.
	Backfill(ctx context.Context, sinceSignature string, limit int) ([]domain.RawEvent, error)
}

const (
	txFetchRetries    = 3
	txFetchRetryDelay = 500 * time.Millisecond
)

// WSSource streams log notifications for one DEX program over the shared
// WebSocket client, resolving account keys via RPC.
type WSSource struct {
	ws      *solana.WSClientImpl
	rpc     solana.RPCClient
	program string
	logger  *log.Logger

	mu          sync.Mutex
	lastSeenSig string
}

// NewWSSource creates a source for a single program subscription.
func NewWSSource(ws *solana.WSClientImpl, rpc solana.RPCClient, program string, logger *log.Logger) *WSSource {
	if logger == nil {
		logger = log.Default()
	}
	return &WSSource{ws: ws, rpc: rpc, program: program, logger: logger}
}

// Name returns the subscription identifier.
func (s *WSSource) Name() string {
	return "ws-" + VenueName(s.program)
}

// Subscribe starts the log subscription and converts notifications to raw
// events.
func (s *WSSource) Subscribe(ctx context.Context) (<-chan domain.RawEvent, error) {
	logsCh, err := s.ws.SubscribeLogs(ctx, solana.LogsFilter{
		Mentions: []string{s.program},
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[feed] subscribed to program %s", VenueName(s.program))

	out := make(chan domain.RawEvent, 256)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case notif, ok := <-logsCh:
				if !ok {
					return
				}
				// Failed transactions carry no extractable value.
				if notif.Err != nil {
					continue
				}
				raw := s.toRawEvent(ctx, notif.Signature, notif.Slot, notif.Logs)
				s.mu.Lock()
				s.lastSeenSig = notif.Signature
				s.mu.Unlock()
				select {
				case out <- raw:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// LastSeenSignature returns the most recent signature observed live, used as
// the backfill low-water mark.
func (s *WSSource) LastSeenSignature() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeenSig
}

// Backfill fetches signatures for the program since the given one and
// resolves each into a raw event.
func (s *WSSource) Backfill(ctx context.Context, sinceSignature string, limit int) ([]domain.RawEvent, error) {
	sigs, err := s.rpc.GetSignaturesForAddress(ctx, s.program, &solana.SignaturesOpts{
		Until: sinceSignature,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	var out []domain.RawEvent
	for _, info := range sigs {
		if info.Err != nil {
			continue
		}
		out = append(out, s.toRawEvent(ctx, info.Signature, info.Slot, nil))
	}
	return out, nil
}

// toRawEvent resolves transaction details with bounded retry and packs the
// payload. Missing details degrade to a payload without account keys.
func (s *WSSource) toRawEvent(ctx context.Context, signature string, slot int64, logs []string) domain.RawEvent {
	var accountKeys []string

	var tx *solana.Transaction
	var err error
	for attempt := 0; attempt < txFetchRetries; attempt++ {
		tx, err = s.rpc.GetTransaction(ctx, signature)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		delay := txFetchRetryDelay * time.Duration(1<<attempt)
		s.logger.Printf("[feed] retry %d/%d for getTransaction %s after %v: %v",
			attempt+1, txFetchRetries, signature, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}
	if tx != nil {
		if tx.Message != nil {
			accountKeys = tx.Message.AccountKeys
		}
		if len(logs) == 0 && tx.Meta != nil {
			logs = tx.Meta.LogMessages
		}
		if slot == 0 {
			slot = tx.Slot
		}
	}

	return domain.RawEvent{
		Source:     s.Name(),
		Signature:  signature,
		Slot:       slot,
		ReceivedAt: time.Now().UnixMilli(),
		Payload:    EncodePayload(logs, accountKeys),
	}
}
