package postgres

import (
	"context"
	"fmt"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/outcome"
)

// Log implements outcome.Log using PostgreSQL.
type Log struct {
	pool *Pool
}

// NewLog creates a new Log.
func NewLog(pool *Pool) *Log {
	return &Log{pool: pool}
}

// Compile-time interface check.
var _ outcome.Log = (*Log)(nil)

// Record appends one outcome. Returns ErrDuplicateKey if an outcome for the
// attempt already exists.
func (l *Log) Record(ctx context.Context, o *domain.Outcome) error {
	if o == nil || o.AttemptID == "" || o.OpportunityKey == "" {
		return outcome.ErrInvalidInput
	}
	if !o.State.Terminal() {
		return outcome.ErrInvalidInput
	}

	query := `
		INSERT INTO outcomes (
			attempt_id, opportunity_key, kind, venue, accounts,
			state, expected_profit, realized_profit, submitted_txs, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)
	`

	_, err := l.pool.Exec(ctx, query,
		o.AttemptID, o.OpportunityKey, string(o.Kind), o.Venue, o.Accounts,
		string(o.State), o.ExpectedProfit, o.RealizedProfit, o.SubmittedTxs, o.RecordedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return outcome.ErrDuplicateKey
		}
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// RecentByKind returns up to limit outcomes of the given kind, newest first.
func (l *Log) RecentByKind(ctx context.Context, kind domain.CandidateKind, limit int) ([]domain.Outcome, error) {
	query := `
		SELECT attempt_id, opportunity_key, kind, venue, accounts,
		       state, expected_profit, realized_profit, submitted_txs, recorded_at
		FROM outcomes
		WHERE kind = $1
		ORDER BY recorded_at DESC, attempt_id DESC
		LIMIT $2
	`

	rows, err := l.pool.Query(ctx, query, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes by kind: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// ByOpportunityKey returns all outcomes for an opportunity, oldest first.
func (l *Log) ByOpportunityKey(ctx context.Context, key string) ([]domain.Outcome, error) {
	query := `
		SELECT attempt_id, opportunity_key, kind, venue, accounts,
		       state, expected_profit, realized_profit, submitted_txs, recorded_at
		FROM outcomes
		WHERE opportunity_key = $1
		ORDER BY recorded_at ASC, attempt_id ASC
	`

	rows, err := l.pool.Query(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("query outcomes by key: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanOutcomes(rows rowScanner) ([]domain.Outcome, error) {
	var result []domain.Outcome
	for rows.Next() {
		var o domain.Outcome
		var kind, state string
		if err := rows.Scan(
			&o.AttemptID, &o.OpportunityKey, &kind, &o.Venue, &o.Accounts,
			&state, &o.ExpectedProfit, &o.RealizedProfit, &o.SubmittedTxs, &o.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Kind = domain.CandidateKind(kind)
		o.State = domain.AttemptState(state)
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return result, nil
}
