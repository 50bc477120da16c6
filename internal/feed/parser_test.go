package feed

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"

	"github.com/skadziol/sando-seer/internal/domain"
)

// buildRayLog assembles a ray_log payload with the given mints and amounts.
func buildRayLog(t *testing.T, tokenIn, tokenOut string, amountIn, amountOut uint64) string {
	t.Helper()

	inBytes, err := base58.Decode(tokenIn)
	if err != nil {
		t.Fatalf("decode tokenIn: %v", err)
	}
	outBytes, err := base58.Decode(tokenOut)
	if err != nil {
		t.Fatalf("decode tokenOut: %v", err)
	}

	data := make([]byte, 113)
	data[0] = 0x09
	copy(data[33:65], inBytes)
	copy(data[65:97], outBytes)
	binary.LittleEndian.PutUint64(data[97:105], amountIn)
	binary.LittleEndian.PutUint64(data[105:113], amountOut)

	return "Program log: ray_log: " + base64.StdEncoding.EncodeToString(data)
}

func TestParseRaydiumSwap(t *testing.T) {
	const usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	raw := domain.RawEvent{
		Source:    "ws-raydium",
		Signature: "sig1",
		Slot:      100,
		Payload: EncodePayload(
			[]string{buildRayLog(t, WSOL, usdc, 1_000_000_000, 150_000_000)},
			[]string{"acc1", "acc2"},
		),
	}

	var event domain.NormalizedEvent
	NewParser().Parse(&raw, &event)

	if event.Kind != domain.EventKindSwap {
		t.Fatalf("Kind = %s, want SWAP", event.Kind)
	}
	if event.Venue != "raydium" {
		t.Errorf("Venue = %s, want raydium", event.Venue)
	}
	if event.TokenIn != WSOL {
		t.Errorf("TokenIn = %s, want WSOL", event.TokenIn)
	}
	if event.TokenOut != usdc {
		t.Errorf("TokenOut = %s, want USDC", event.TokenOut)
	}
	if event.AmountIn != 1_000_000_000 {
		t.Errorf("AmountIn = %f, want 1e9", event.AmountIn)
	}
	if event.AmountOut != 150_000_000 {
		t.Errorf("AmountOut = %f, want 1.5e8", event.AmountOut)
	}
	if len(event.Accounts) != 2 {
		t.Errorf("Accounts = %v, want 2 entries", event.Accounts)
	}
}

func TestParsePumpFunSwapByInstruction(t *testing.T) {
	raw := domain.RawEvent{
		Source:    "ws-pumpfun",
		Signature: "sig2",
		Payload: EncodePayload([]string{
			"Program " + PumpFun + " invoke [1]",
			"Program log: Instruction: Buy",
		}, nil),
	}

	var event domain.NormalizedEvent
	NewParser().Parse(&raw, &event)

	if event.Kind != domain.EventKindSwap {
		t.Fatalf("Kind = %s, want SWAP", event.Kind)
	}
	if event.Venue != "pumpfun" {
		t.Errorf("Venue = %s, want pumpfun", event.Venue)
	}
}

func TestParseTransfer(t *testing.T) {
	raw := domain.RawEvent{
		Source:    "ws-raydium",
		Signature: "sig3",
		Payload:   EncodePayload([]string{"Program log: Instruction: Transfer"}, nil),
	}

	var event domain.NormalizedEvent
	NewParser().Parse(&raw, &event)

	if event.Kind != domain.EventKindTransfer {
		t.Fatalf("Kind = %s, want TRANSFER", event.Kind)
	}
}

func TestParseMalformedPayload(t *testing.T) {
	raw := domain.RawEvent{
		Source:    "ws-raydium",
		Signature: "sig4",
		Payload:   []byte("not json"),
	}

	var event domain.NormalizedEvent
	NewParser().Parse(&raw, &event)

	if event.Kind != domain.EventKindOther {
		t.Fatalf("Kind = %s, want OTHER", event.Kind)
	}
}
