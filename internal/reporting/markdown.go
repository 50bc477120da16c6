package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Outcome Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Outcomes: %d | Realized: %.6f SOL\n\n", r.TotalOutcomes, r.TotalRealized))
	if r.SlippageToForecast != 0 {
		sb.WriteString(fmt.Sprintf("Realized/expected on confirmed attempts: %.2f\n\n", r.SlippageToForecast))
	}

	sb.WriteString("## By Kind\n\n")
	sb.WriteString("| Kind | Outcomes | Confirmed | Reverted | Expired | Aborted | Win Rate | Realized | Max Drawdown |\n")
	sb.WriteString("|------|----------|-----------|----------|---------|---------|----------|----------|--------------|\n")
	for _, row := range r.Kinds {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %d | %.2f | %.6f | %.6f |\n",
			row.Kind,
			row.Outcomes,
			row.Confirmed,
			row.Reverted,
			row.Expired,
			row.Aborted,
			row.Realized.WinRate,
			row.RealizedSum,
			row.Realized.MaxDrawdown,
		))
	}
	sb.WriteString("\n")

	sb.WriteString("## Realized Profit Distribution\n\n")
	sb.WriteString("| Kind | Mean | Median | P10 | P90 | Stddev | Max Consecutive Losses |\n")
	sb.WriteString("|------|------|--------|-----|-----|--------|------------------------|\n")
	for _, row := range r.Kinds {
		if row.Outcomes == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %.6f | %.6f | %.6f | %.6f | %.6f | %d |\n",
			row.Kind,
			row.Realized.Mean,
			row.Realized.Median,
			row.Realized.P10,
			row.Realized.P90,
			row.Realized.Stddev,
			row.Realized.MaxConsecutiveLosses,
		))
	}

	if r.ArchiveRealized != nil {
		sb.WriteString("\n## Analytics Archive Cross-Check\n\n")
		sb.WriteString("| Kind | Log Realized | Archive Realized | Delta |\n")
		sb.WriteString("|------|--------------|------------------|-------|\n")
		for _, row := range r.Kinds {
			archived := r.ArchiveRealized[string(row.Kind)]
			sb.WriteString(fmt.Sprintf("| %s | %.6f | %.6f | %.6f |\n",
				row.Kind, row.RealizedSum, archived, row.RealizedSum-archived))
		}
	}

	return sb.String()
}
