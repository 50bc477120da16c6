package exposure

import (
	"testing"

	"github.com/skadziol/sando-seer/internal/domain"
)

func attempt(key, venue string, accounts []string) *domain.ExecutionAttempt {
	return &domain.ExecutionAttempt{
		AttemptID:      "att-" + key,
		OpportunityKey: key,
		Scored: &domain.ScoredOpportunity{
			Candidate: &domain.OpportunityCandidate{
				Key:      key,
				Venue:    venue,
				Accounts: accounts,
			},
		},
		State: domain.AttemptPending,
	}
}

func TestTrackerOpenClose(t *testing.T) {
	tr := NewTracker()

	tr.AttemptOpened(attempt("k1", "raydium", []string{"pool1", "vaultA"}))
	tr.AttemptOpened(attempt("k2", "raydium", []string{"pool2"}))

	snap := tr.Snapshot()
	if snap.OpenAttempts != 2 {
		t.Errorf("OpenAttempts = %d, want 2", snap.OpenAttempts)
	}
	if snap.VenueExposure("raydium") != 2 {
		t.Errorf("raydium exposure = %d, want 2", snap.VenueExposure("raydium"))
	}
	if snap.MaxAccountExposureOf([]string{"pool1"}) != 1 {
		t.Errorf("pool1 exposure = %d, want 1", snap.MaxAccountExposureOf([]string{"pool1"}))
	}

	tr.AttemptClosed(&domain.Outcome{
		OpportunityKey: "k1",
		Venue:          "raydium",
		Accounts:       []string{"pool1", "vaultA"},
		State:          domain.AttemptConfirmed,
		RealizedProfit: 0.02,
	})

	snap = tr.Snapshot()
	if snap.OpenAttempts != 1 {
		t.Errorf("OpenAttempts = %d, want 1", snap.OpenAttempts)
	}
	if snap.VenueExposure("raydium") != 1 {
		t.Errorf("raydium exposure = %d, want 1", snap.VenueExposure("raydium"))
	}
	if snap.MaxAccountExposureOf([]string{"pool1", "vaultA"}) != 0 {
		t.Error("closed attempt's accounts still exposed")
	}
	if snap.RealizedProfit != 0.02 {
		t.Errorf("RealizedProfit = %f, want 0.02", snap.RealizedProfit)
	}
}

func TestTrackerVersionAdvances(t *testing.T) {
	tr := NewTracker()

	v0 := tr.Snapshot().Version
	tr.AttemptOpened(attempt("k1", "orca", []string{"pool1"}))
	v1 := tr.Snapshot().Version
	if v1 <= v0 {
		t.Fatalf("version did not advance: %d -> %d", v0, v1)
	}
}

func TestTrackerSnapshotIsCopy(t *testing.T) {
	tr := NewTracker()
	tr.AttemptOpened(attempt("k1", "orca", []string{"pool1"}))

	snap := tr.Snapshot()
	snap.ByVenue["orca"] = 99

	if tr.Snapshot().VenueExposure("orca") != 1 {
		t.Fatal("mutating a snapshot leaked into the tracker")
	}
}
