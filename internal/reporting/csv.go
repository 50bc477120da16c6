package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the per-kind summary as a CSV string.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("kind,outcomes,confirmed,reverted,expired,aborted,win_rate,")
	sb.WriteString("expected_sum,realized_sum,realized_mean,realized_median,")
	sb.WriteString("realized_p10,realized_p90,max_drawdown,max_consecutive_losses\n")

	for _, row := range r.Kinds {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%d\n",
			row.Kind,
			row.Outcomes,
			row.Confirmed,
			row.Reverted,
			row.Expired,
			row.Aborted,
			row.Realized.WinRate,
			row.ExpectedSum,
			row.RealizedSum,
			row.Realized.Mean,
			row.Realized.Median,
			row.Realized.P10,
			row.Realized.P90,
			row.Realized.MaxDrawdown,
			row.Realized.MaxConsecutiveLosses,
		))
	}

	return sb.String()
}
