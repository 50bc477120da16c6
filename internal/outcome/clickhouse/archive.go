package clickhouse

import (
	"context"
	"fmt"

	"github.com/skadziol/sando-seer/internal/domain"
)

// Archive appends outcomes to the analytics table. Best-effort: the archive
// is a secondary copy of the primary outcome log, never the source of truth.
type Archive struct {
	conn *Conn
}

// NewArchive creates an archive writer.
func NewArchive(conn *Conn) *Archive {
	return &Archive{conn: conn}
}

// Append inserts a batch of outcomes.
func (a *Archive) Append(ctx context.Context, outcomes []domain.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO outcomes_archive (
			attempt_id, opportunity_key, kind, venue, state,
			expected_profit, realized_profit, submitted_txs, recorded_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare outcome batch: %w", err)
	}

	for _, o := range outcomes {
		if err := batch.Append(
			o.AttemptID, o.OpportunityKey, string(o.Kind), o.Venue, string(o.State),
			o.ExpectedProfit, o.RealizedProfit, o.SubmittedTxs, o.RecordedAt,
		); err != nil {
			return fmt.Errorf("append outcome %s: %w", o.AttemptID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send outcome batch: %w", err)
	}
	return nil
}

// ProfitByKind aggregates realized profit per candidate kind over a time
// range, for reporting.
func (a *Archive) ProfitByKind(ctx context.Context, fromMs, toMs int64) (map[string]float64, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT kind, sum(realized_profit)
		FROM outcomes_archive
		WHERE recorded_at >= ? AND recorded_at < ?
		GROUP BY kind
	`, fromMs, toMs)
	if err != nil {
		return nil, fmt.Errorf("query profit by kind: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var kind string
		var profit float64
		if err := rows.Scan(&kind, &profit); err != nil {
			return nil, fmt.Errorf("scan profit row: %w", err)
		}
		out[kind] = profit
	}
	return out, rows.Err()
}
