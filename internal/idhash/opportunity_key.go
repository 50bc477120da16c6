// Package idhash computes deterministic identities for pipeline records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/skadziol/sando-seer/internal/domain"
)

// OpportunityKey computes the deterministic dedup identity of a real-world
// opportunity. Two candidates with the same key refer to the same opportunity
// regardless of which event triggered discovery, so the trigger event id and
// observation timestamps must not participate in the hash.
//
// Formula: SHA256(kind|venue|sorted accounts|token_in|token_out)
// Returns hex-encoded hash (64 characters).
func OpportunityKey(
	kind domain.CandidateKind,
	venue string,
	accounts []string,
	tokenIn string,
	tokenOut string,
) string {
	sorted := make([]string, len(accounts))
	copy(sorted, accounts)
	sort.Strings(sorted)

	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		string(kind),
		venue,
		strings.Join(sorted, ","),
		tokenIn,
		tokenOut,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
