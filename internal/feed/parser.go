// Package feed normalizes raw venue subscriptions into a single ordered
// stream of events for the pipeline.
package feed

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/skadziol/sando-seer/internal/domain"
)

// Known DEX program IDs.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// PumpFun is the pump.fun program ID.
	PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	// OrcaWhirlpool is the Orca Whirlpool program ID.
	OrcaWhirlpool = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
)

// WSOL is the Wrapped SOL mint address.
const WSOL = "So11111111111111111111111111111111111111112"

// VenueName maps a program ID to a short venue identifier.
func VenueName(programID string) string {
	switch programID {
	case RaydiumAMMV4:
		return "raydium"
	case PumpFun:
		return "pumpfun"
	case OrcaWhirlpool:
		return "orca"
	}
	return programID
}

// rawPayload is the wire form a Source stores in RawEvent.Payload.
type rawPayload struct {
	Logs        []string `json:"logs"`
	AccountKeys []string `json:"account_keys,omitempty"`
}

// EncodePayload serializes logs and account keys for RawEvent.Payload.
func EncodePayload(logs, accountKeys []string) []byte {
	data, _ := json.Marshal(rawPayload{Logs: logs, AccountKeys: accountKeys})
	return data
}

var rayLogPattern = regexp.MustCompile(`ray_log: ([A-Za-z0-9+/=]+)`)

// Parser extracts swap fields from raw transaction logs. Pure; one instance
// is shared by all workers.
type Parser struct{}

// NewParser creates a log parser.
func NewParser() *Parser {
	return &Parser{}
}

// swapInfo is the parsed swap content of one transaction.
type swapInfo struct {
	venue     string
	tokenIn   string
	tokenOut  string
	amountIn  float64
	amountOut float64
}

// Parse classifies the raw payload and fills swap fields on the event.
// Non-swap transactions that move tokens are classified TRANSFER; everything
// else is OTHER.
func (p *Parser) Parse(raw *domain.RawEvent, event *domain.NormalizedEvent) {
	var payload rawPayload
	if err := json.Unmarshal(raw.Payload, &payload); err != nil {
		event.Kind = domain.EventKindOther
		return
	}

	event.Accounts = payload.AccountKeys

	if info := p.parseSwap(payload.Logs); info != nil {
		event.Kind = domain.EventKindSwap
		event.Venue = info.venue
		event.TokenIn = info.tokenIn
		event.TokenOut = info.tokenOut
		event.AmountIn = info.amountIn
		event.AmountOut = info.amountOut
		// Estimated slippage; refined only when expected-out is known.
		event.Slippage = 0.01
		return
	}

	if containsTransfer(payload.Logs) {
		event.Kind = domain.EventKindTransfer
		return
	}
	event.Kind = domain.EventKindOther
}

// parseSwap detects a swap and extracts mints and amounts.
func (p *Parser) parseSwap(logs []string) *swapInfo {
	// Raydium: decode ray_log binary payload.
	// Layout: discriminator(1) + ammId(32) + inputMint(32) + outputMint(32) +
	// amountIn(8) + amountOut(8).
	for _, line := range logs {
		matches := rayLogPattern.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(matches[1])
		if err != nil || !isRaydiumSwapLog(data) {
			continue
		}
		info := &swapInfo{venue: "raydium"}
		if len(data) >= 97 {
			info.tokenIn = base58.Encode(data[33:65])
			info.tokenOut = base58.Encode(data[65:97])
		}
		if len(data) >= 113 {
			info.amountIn = float64(binary.LittleEndian.Uint64(data[97:105]))
			info.amountOut = float64(binary.LittleEndian.Uint64(data[105:113]))
		}
		return info
	}

	// Other venues: instruction name in program logs.
	venue := ""
	sawSwap := false
	for _, line := range logs {
		switch {
		case strings.Contains(line, PumpFun):
			venue = "pumpfun"
		case strings.Contains(line, OrcaWhirlpool):
			venue = "orca"
		}
		if strings.Contains(line, "Instruction: Swap") ||
			strings.Contains(line, "Instruction: Buy") ||
			strings.Contains(line, "Instruction: Sell") {
			sawSwap = true
		}
	}
	if sawSwap && venue != "" {
		return &swapInfo{venue: venue}
	}
	return nil
}

// isRaydiumSwapLog checks the ray_log discriminator for swap variants.
func isRaydiumSwapLog(data []byte) bool {
	if len(data) < 1 {
		return false
	}
	disc := data[0]
	return disc == 0x09 || disc == 0x0b || disc == 0x0d || disc == 0x0e
}

func containsTransfer(logs []string) bool {
	for _, line := range logs {
		if strings.Contains(line, "Instruction: Transfer") {
			return true
		}
	}
	return false
}
