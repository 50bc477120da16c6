package domain

// EventKind classifies a normalized transaction event.
type EventKind string

const (
	EventKindSwap     EventKind = "SWAP"
	EventKindTransfer EventKind = "TRANSFER"
	EventKindOther    EventKind = "OTHER"
)

// RawEvent is an upstream-native record as delivered by a subscription.
// Immutable once received; owned by the feed adapter until normalized.
type RawEvent struct {
	Source     string // subscription identifier (e.g. "ws-raydium")
	Signature  string // native transaction signature
	Slot       int64  // Solana slot number
	ReceivedAt int64  // source receive timestamp, Unix ms
	Payload    []byte // raw notification payload
}

// NormalizedEvent is the single internal event type produced by the feed
// adapter. ID is unique and strictly increasing per process lifetime.
type NormalizedEvent struct {
	ID         uint64    // strictly increasing internal id
	ObservedAt int64     // monotonic observation timestamp, Unix ms
	Slot       int64     // ordering key; non-decreasing per source connection
	Kind       EventKind // SWAP | TRANSFER | OTHER
	Venue      string    // DEX program or venue identifier
	Accounts   []string  // ordered account keys involved in the transaction
	Signature  string    // native transaction signature (raw back-reference)
	Source     string    // originating subscription

	// Swap fields, populated when Kind == SWAP.
	TokenIn   string  // input mint
	TokenOut  string  // output mint
	AmountIn  float64 // UI amount of input token
	AmountOut float64 // estimated UI amount of output token
	Slippage  float64 // estimated slippage fraction (0.01 == 1%)
}

// IsSwap reports whether the event carries swap fields.
func (e *NormalizedEvent) IsSwap() bool {
	return e.Kind == EventKindSwap
}
