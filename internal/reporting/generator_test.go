package reporting

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/outcome/memory"
)

func seedLog(t *testing.T, outcomes []*domain.Outcome) *memory.Log {
	t.Helper()
	log := memory.NewLog()
	for _, o := range outcomes {
		if err := log.Record(context.Background(), o); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	return log
}

func outcomeFixture(kind domain.CandidateKind, attemptID string, state domain.AttemptState, expected, realized float64, recordedAt int64) *domain.Outcome {
	return &domain.Outcome{
		OpportunityKey: "key-" + attemptID,
		AttemptID:      attemptID,
		Kind:           kind,
		Venue:          "raydium",
		State:          state,
		ExpectedProfit: expected,
		RealizedProfit: realized,
		RecordedAt:     recordedAt,
	}
}

func TestGenerateSummarizesByKind(t *testing.T) {
	log := seedLog(t, []*domain.Outcome{
		outcomeFixture(domain.KindSandwich, "a1", domain.AttemptConfirmed, 0.02, 0.015, 100),
		outcomeFixture(domain.KindSandwich, "a2", domain.AttemptReverted, 0.03, 0, 200),
		outcomeFixture(domain.KindArbitrage, "a3", domain.AttemptConfirmed, 0.01, 0.012, 300),
		outcomeFixture(domain.KindSnipe, "a4", domain.AttemptExpired, 0.05, 0, 400),
	})

	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	report, err := NewGenerator(log).WithClock(func() time.Time { return fixed }).Generate(context.Background(), 100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if report.GeneratedAt != fixed {
		t.Errorf("GeneratedAt = %v, want fixed clock", report.GeneratedAt)
	}
	if report.TotalOutcomes != 4 {
		t.Errorf("TotalOutcomes = %d, want 4", report.TotalOutcomes)
	}
	if math.Abs(report.TotalRealized-0.027) > 1e-9 {
		t.Errorf("TotalRealized = %f, want 0.027", report.TotalRealized)
	}

	if len(report.Kinds) != 3 {
		t.Fatalf("Kinds = %d rows, want 3", len(report.Kinds))
	}
	sandwich := report.Kinds[0]
	if sandwich.Kind != domain.KindSandwich {
		t.Fatalf("first row kind = %s", sandwich.Kind)
	}
	if sandwich.Outcomes != 2 || sandwich.Confirmed != 1 || sandwich.Reverted != 1 {
		t.Errorf("sandwich row = %+v", sandwich)
	}
	if math.Abs(sandwich.Realized.WinRate-0.5) > 1e-9 {
		t.Errorf("sandwich win rate = %f, want 0.5", sandwich.Realized.WinRate)
	}

	// Confirmed: expected 0.03, realized 0.027.
	if math.Abs(report.SlippageToForecast-0.9) > 1e-9 {
		t.Errorf("SlippageToForecast = %f, want 0.9", report.SlippageToForecast)
	}
}

func TestGenerateEmptyLog(t *testing.T) {
	report, err := NewGenerator(memory.NewLog()).Generate(context.Background(), 100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.TotalOutcomes != 0 || report.SlippageToForecast != 0 {
		t.Errorf("empty report = %+v", report)
	}
	if len(report.Kinds) != 3 {
		t.Errorf("Kinds = %d rows, want 3 zero rows", len(report.Kinds))
	}
}

// fakeArchive serves canned per-kind aggregates and records the query range.
type fakeArchive struct {
	realized map[string]float64
	err      error
	fromMs   int64
	toMs     int64
}

func (f *fakeArchive) ProfitByKind(_ context.Context, fromMs, toMs int64) (map[string]float64, error) {
	f.fromMs, f.toMs = fromMs, toMs
	if f.err != nil {
		return nil, f.err
	}
	return f.realized, nil
}

func TestGenerateArchiveCrossCheck(t *testing.T) {
	log := seedLog(t, []*domain.Outcome{
		outcomeFixture(domain.KindSandwich, "a1", domain.AttemptConfirmed, 0.02, 0.015, 100),
		outcomeFixture(domain.KindArbitrage, "a2", domain.AttemptConfirmed, 0.01, 0.012, 200),
	})
	// Archive missed the arbitrage write.
	archive := &fakeArchive{realized: map[string]float64{"SANDWICH": 0.015}}

	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	report, err := NewGenerator(log).
		WithClock(func() time.Time { return fixed }).
		WithArchive(archive).
		Generate(context.Background(), 100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if archive.toMs != fixed.UnixMilli() {
		t.Errorf("archive queried up to %d, want %d", archive.toMs, fixed.UnixMilli())
	}
	if math.Abs(report.ArchiveRealized["SANDWICH"]-0.015) > 1e-9 {
		t.Errorf("ArchiveRealized[SANDWICH] = %f, want 0.015", report.ArchiveRealized["SANDWICH"])
	}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "## Analytics Archive Cross-Check") {
		t.Fatalf("markdown missing archive section:\n%s", md)
	}
	// Arbitrage delta 0.012 shows the missed write.
	if !strings.Contains(md, "| ARBITRAGE | 0.012000 | 0.000000 | 0.012000 |") {
		t.Errorf("markdown missing arbitrage delta row:\n%s", md)
	}
}

func TestGenerateWithoutArchiveOmitsCrossCheck(t *testing.T) {
	log := seedLog(t, []*domain.Outcome{
		outcomeFixture(domain.KindSandwich, "a1", domain.AttemptConfirmed, 0.02, 0.015, 100),
	})
	report, err := NewGenerator(log).Generate(context.Background(), 100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.ArchiveRealized != nil {
		t.Errorf("ArchiveRealized = %v, want nil", report.ArchiveRealized)
	}
	if strings.Contains(RenderMarkdown(report), "Archive") {
		t.Error("markdown should omit archive section without an archive source")
	}
}

func TestRenderMarkdown(t *testing.T) {
	log := seedLog(t, []*domain.Outcome{
		outcomeFixture(domain.KindSandwich, "a1", domain.AttemptConfirmed, 0.02, 0.015, 100),
	})
	report, err := NewGenerator(log).Generate(context.Background(), 100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md := RenderMarkdown(report)
	for _, want := range []string{
		"# Outcome Report",
		"## By Kind",
		"| SANDWICH | 1 | 1 | 0 | 0 | 0 |",
		"## Realized Profit Distribution",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	// Kinds without outcomes are omitted from the distribution table.
	if strings.Contains(md, "| SNIPE | 0.0") {
		t.Error("distribution table should skip empty kinds")
	}
}

func TestRenderCSV(t *testing.T) {
	log := seedLog(t, []*domain.Outcome{
		outcomeFixture(domain.KindSandwich, "a1", domain.AttemptConfirmed, 0.02, 0.015, 100),
		outcomeFixture(domain.KindArbitrage, "a2", domain.AttemptAborted, 0.01, 0, 200),
	})
	report, err := NewGenerator(log).Generate(context.Background(), 100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	csv := RenderCSV(report)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 4 {
		t.Fatalf("csv lines = %d, want header + 3 kinds:\n%s", len(lines), csv)
	}
	if !strings.HasPrefix(lines[0], "kind,outcomes,confirmed") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "SANDWICH,1,1,0,0,0") {
		t.Errorf("sandwich row = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "ARBITRAGE,1,0,0,0,1") {
		t.Errorf("arbitrage row = %q", lines[2])
	}
}
