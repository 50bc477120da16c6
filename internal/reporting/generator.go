package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/replay"
	"github.com/skadziol/sando-seer/internal/stats"
)

// ArchiveSource aggregates realized profit from the analytics archive. The
// archive is a secondary copy of the outcome log; the report compares the
// two so missed archive writes show up as a per-kind delta.
type ArchiveSource interface {
	ProfitByKind(ctx context.Context, fromMs, toMs int64) (map[string]float64, error)
}

// Generator builds reports from the outcome log.
type Generator struct {
	source  replay.OutcomeSource
	archive ArchiveSource
	now     func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator(source replay.OutcomeSource) *Generator {
	return &Generator{
		source: source,
		now:    time.Now,
	}
}

// WithClock fixes the report timestamp, for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithArchive adds the analytics archive cross-check to generated reports.
func (g *Generator) WithArchive(archive ArchiveSource) *Generator {
	g.archive = archive
	return g
}

// Generate loads up to limit outcomes per kind and summarizes them.
func (g *Generator) Generate(ctx context.Context, limit int) (*Report, error) {
	report := &Report{GeneratedAt: g.now()}

	var confirmedExpected, confirmedRealized float64
	for _, kind := range []domain.CandidateKind{domain.KindSandwich, domain.KindArbitrage, domain.KindSnipe} {
		outcomes, err := g.source.RecentByKind(ctx, kind, limit)
		if err != nil {
			return nil, err
		}
		// RecentByKind returns newest first; summarize chronologically.
		replay.SortOutcomes(outcomes)

		row := KindRow{Kind: kind}
		profits := make([]float64, 0, len(outcomes))
		for i := range outcomes {
			o := &outcomes[i]
			row.Outcomes++
			row.ExpectedSum += o.ExpectedProfit
			row.RealizedSum += o.RealizedProfit
			profits = append(profits, o.RealizedProfit)

			switch o.State {
			case domain.AttemptConfirmed:
				row.Confirmed++
				confirmedExpected += o.ExpectedProfit
				confirmedRealized += o.RealizedProfit
			case domain.AttemptReverted:
				row.Reverted++
			case domain.AttemptExpired:
				row.Expired++
			case domain.AttemptAborted:
				row.Aborted++
			}
		}
		row.Realized = stats.Compute(profits)

		report.TotalOutcomes += row.Outcomes
		report.TotalRealized += row.RealizedSum
		report.Kinds = append(report.Kinds, row)
	}

	if confirmedExpected != 0 {
		report.SlippageToForecast = confirmedRealized / confirmedExpected
	}

	if g.archive != nil {
		realized, err := g.archive.ProfitByKind(ctx, 0, report.GeneratedAt.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("archive profit by kind: %w", err)
		}
		report.ArchiveRealized = realized
	}
	return report, nil
}
