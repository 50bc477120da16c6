// Package reporting renders outcome history as operator-facing reports.
package reporting

import (
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/stats"
)

// KindRow summarizes one candidate kind.
type KindRow struct {
	Kind domain.CandidateKind

	Outcomes  int
	Confirmed int
	Reverted  int
	Expired   int
	Aborted   int

	ExpectedSum float64
	RealizedSum float64

	// Realized aggregates realized profit across all outcomes of the kind,
	// in recorded order.
	Realized stats.Distribution
}

// Report is the full profit report.
type Report struct {
	GeneratedAt time.Time

	TotalOutcomes int
	TotalRealized float64

	// SlippageToForecast is realized/expected over confirmed outcomes;
	// zero when nothing confirmed.
	SlippageToForecast float64

	Kinds []KindRow

	// ArchiveRealized is realized profit per kind as recorded by the
	// analytics archive, keyed by kind string. Nil when no archive is
	// configured. A per-kind delta against RealizedSum means the archive
	// missed writes.
	ArchiveRealized map[string]float64
}
