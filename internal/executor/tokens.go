// Package executor turns admitted attempts into signed, submitted and
// confirmed transactions.
package executor

// TokenInfo describes a known mint.
type TokenInfo struct {
	Symbol   string
	Decimals int
}

// Well-known mint addresses.
const (
	MintSOL  = "So11111111111111111111111111111111111111112"
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintBONK = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

// KnownTokens maps mint addresses to display metadata.
var KnownTokens = map[string]TokenInfo{
	MintSOL:  {Symbol: "SOL", Decimals: 9},
	MintUSDC: {Symbol: "USDC", Decimals: 6},
	MintBONK: {Symbol: "BONK", Decimals: 5},
}

// TokenSymbol returns the symbol for a mint, or a truncated address for
// unknown mints.
func TokenSymbol(mint string) string {
	if info, ok := KnownTokens[mint]; ok {
		return info.Symbol
	}
	if len(mint) > 8 {
		return mint[:8]
	}
	return mint
}
