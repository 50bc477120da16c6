package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/outcome"
)

func testOutcome(attemptID string, kind domain.CandidateKind, state domain.AttemptState) *domain.Outcome {
	return &domain.Outcome{
		OpportunityKey: "key-" + attemptID,
		AttemptID:      attemptID,
		Kind:           kind,
		Venue:          "raydium",
		Accounts:       []string{"pool1"},
		State:          state,
		ExpectedProfit: 0.01,
		RecordedAt:     1000,
	}
}

func TestLogRecordAndRead(t *testing.T) {
	log := NewLog()
	ctx := context.Background()

	require.NoError(t, log.Record(ctx, testOutcome("a1", domain.KindSandwich, domain.AttemptConfirmed)))
	require.NoError(t, log.Record(ctx, testOutcome("a2", domain.KindSandwich, domain.AttemptReverted)))
	require.NoError(t, log.Record(ctx, testOutcome("a3", domain.KindSnipe, domain.AttemptAborted)))

	recent, err := log.RecentByKind(ctx, domain.KindSandwich, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "a2", recent[0].AttemptID, "newest first")

	byKey, err := log.ByOpportunityKey(ctx, "key-a3")
	require.NoError(t, err)
	require.Len(t, byKey, 1)
	require.Equal(t, domain.KindSnipe, byKey[0].Kind)
}

func TestLogRejectsDuplicateAttempt(t *testing.T) {
	log := NewLog()
	ctx := context.Background()

	require.NoError(t, log.Record(ctx, testOutcome("a1", domain.KindSandwich, domain.AttemptConfirmed)))
	err := log.Record(ctx, testOutcome("a1", domain.KindSandwich, domain.AttemptConfirmed))
	require.ErrorIs(t, err, outcome.ErrDuplicateKey)
	require.Equal(t, 1, log.Len())
}

func TestLogRejectsNonTerminal(t *testing.T) {
	log := NewLog()

	o := testOutcome("a1", domain.KindSandwich, domain.AttemptSubmitted)
	require.ErrorIs(t, log.Record(context.Background(), o), outcome.ErrInvalidInput)
}

func TestLogRecentByKindLimit(t *testing.T) {
	log := NewLog()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		o := testOutcome(fmt.Sprintf("a%d", i), domain.KindArbitrage, domain.AttemptConfirmed)
		require.NoError(t, log.Record(ctx, o))
	}

	recent, err := log.RecentByKind(ctx, domain.KindArbitrage, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, "a9", recent[0].AttemptID)
}

func TestLogCopiesOnRecord(t *testing.T) {
	log := NewLog()
	ctx := context.Background()

	o := testOutcome("a1", domain.KindSandwich, domain.AttemptConfirmed)
	require.NoError(t, log.Record(ctx, o))
	o.RealizedProfit = 99

	recent, err := log.RecentByKind(ctx, domain.KindSandwich, 1)
	require.NoError(t, err)
	require.Zero(t, recent[0].RealizedProfit, "stored record must not alias caller memory")
}

func TestJournalUpsertAndOpen(t *testing.T) {
	j := NewJournal()
	ctx := context.Background()

	att := &domain.ExecutionAttempt{
		AttemptID:      "att1",
		OpportunityKey: "k1",
		State:          domain.AttemptPending,
	}
	require.NoError(t, j.SaveAttempt(ctx, att))

	open, err := j.OpenAttempts(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)

	att.State = domain.AttemptConfirmed
	require.NoError(t, j.SaveAttempt(ctx, att))

	open, err = j.OpenAttempts(ctx)
	require.NoError(t, err)
	require.Empty(t, open, "terminal attempts are not open")
}
