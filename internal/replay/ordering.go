package replay

import (
	"sort"

	"github.com/skadziol/sando-seer/internal/domain"
)

// SortOutcomes orders outcomes by (recorded_at ASC, attempt_id ASC).
// Replaying the same log always visits outcomes in the same order.
func SortOutcomes(outcomes []domain.Outcome) {
	sort.Slice(outcomes, func(i, j int) bool {
		return compareOutcomes(&outcomes[i], &outcomes[j]) < 0
	})
}

// VerifyOrder checks that outcomes are already in deterministic order.
func VerifyOrder(outcomes []domain.Outcome) error {
	for i := 1; i < len(outcomes); i++ {
		if compareOutcomes(&outcomes[i-1], &outcomes[i]) > 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

func compareOutcomes(a, b *domain.Outcome) int {
	if a.RecordedAt != b.RecordedAt {
		if a.RecordedAt < b.RecordedAt {
			return -1
		}
		return 1
	}
	if a.AttemptID != b.AttemptID {
		if a.AttemptID < b.AttemptID {
			return -1
		}
		return 1
	}
	return 0
}
