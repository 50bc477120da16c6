package idhash

import (
	"testing"

	"github.com/skadziol/sando-seer/internal/domain"
)

func TestOpportunityKey(t *testing.T) {
	tests := []struct {
		name     string
		kind     domain.CandidateKind
		venue    string
		accounts []string
		tokenIn  string
		tokenOut string
	}{
		{
			name:     "sandwich on raydium",
			kind:     domain.KindSandwich,
			venue:    "raydium",
			accounts: []string{"Acc1", "Acc2", "Pool3"},
			tokenIn:  "So11111111111111111111111111111111111111112",
			tokenOut: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		},
		{
			name:     "arbitrage without accounts",
			kind:     domain.KindArbitrage,
			venue:    "orca",
			accounts: nil,
			tokenIn:  "SOL",
			tokenOut: "USDC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OpportunityKey(tt.kind, tt.venue, tt.accounts, tt.tokenIn, tt.tokenOut)

			if len(got) != 64 {
				t.Errorf("OpportunityKey() length = %d, want 64", len(got))
			}

			// Same inputs must produce the same key.
			again := OpportunityKey(tt.kind, tt.venue, tt.accounts, tt.tokenIn, tt.tokenOut)
			if got != again {
				t.Errorf("OpportunityKey() not deterministic: %s != %s", got, again)
			}
		})
	}
}

func TestOpportunityKey_AccountOrderIndependent(t *testing.T) {
	a := OpportunityKey(domain.KindSandwich, "raydium", []string{"A", "B", "C"}, "SOL", "BONK")
	b := OpportunityKey(domain.KindSandwich, "raydium", []string{"C", "A", "B"}, "SOL", "BONK")

	if a != b {
		t.Errorf("key should not depend on account order: %s != %s", a, b)
	}
}

func TestOpportunityKey_KindDiscriminates(t *testing.T) {
	accounts := []string{"A", "B"}
	sandwich := OpportunityKey(domain.KindSandwich, "raydium", accounts, "SOL", "BONK")
	arb := OpportunityKey(domain.KindArbitrage, "raydium", accounts, "SOL", "BONK")

	if sandwich == arb {
		t.Error("different kinds on the same swap must produce different keys")
	}
}
