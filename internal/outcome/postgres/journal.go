package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skadziol/sando-seer/internal/domain"
	"github.com/skadziol/sando-seer/internal/outcome"
)

// Journal implements outcome.Journal using PostgreSQL. The scored
// opportunity travels as JSONB so reconciliation can rebuild the full
// attempt after a restart.
type Journal struct {
	pool *Pool
}

// NewJournal creates a new Journal.
func NewJournal(pool *Pool) *Journal {
	return &Journal{pool: pool}
}

// Compile-time interface check.
var _ outcome.Journal = (*Journal)(nil)

// SaveAttempt stores the current state of an attempt. Upsert by attempt id.
func (j *Journal) SaveAttempt(ctx context.Context, att *domain.ExecutionAttempt) error {
	if att == nil || att.AttemptID == "" {
		return outcome.ErrInvalidInput
	}

	scored, err := json.Marshal(att.Scored)
	if err != nil {
		return fmt.Errorf("marshal scored opportunity: %w", err)
	}

	query := `
		INSERT INTO attempts (
			attempt_id, opportunity_key, state, submitted_txs,
			created_at, terminal_at, abort_reason, scored
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8
		)
		ON CONFLICT (attempt_id) DO UPDATE SET
			state = EXCLUDED.state,
			submitted_txs = EXCLUDED.submitted_txs,
			terminal_at = EXCLUDED.terminal_at,
			abort_reason = EXCLUDED.abort_reason
	`

	_, err = j.pool.Exec(ctx, query,
		att.AttemptID, att.OpportunityKey, string(att.State), att.SubmittedTxs,
		att.CreatedAt, att.TerminalAt, att.AbortReason, scored,
	)
	if err != nil {
		return fmt.Errorf("upsert attempt: %w", err)
	}
	return nil
}

// OpenAttempts returns every journaled attempt still non-terminal.
func (j *Journal) OpenAttempts(ctx context.Context) ([]domain.ExecutionAttempt, error) {
	query := `
		SELECT attempt_id, opportunity_key, state, submitted_txs,
		       created_at, terminal_at, abort_reason, scored
		FROM attempts
		WHERE state IN ('PENDING', 'SUBMITTED')
		ORDER BY created_at ASC
	`

	rows, err := j.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query open attempts: %w", err)
	}
	defer rows.Close()

	var result []domain.ExecutionAttempt
	for rows.Next() {
		var att domain.ExecutionAttempt
		var state string
		var scored []byte
		if err := rows.Scan(
			&att.AttemptID, &att.OpportunityKey, &state, &att.SubmittedTxs,
			&att.CreatedAt, &att.TerminalAt, &att.AbortReason, &scored,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		att.State = domain.AttemptState(state)
		if len(scored) > 0 {
			if err := json.Unmarshal(scored, &att.Scored); err != nil {
				return nil, fmt.Errorf("unmarshal scored opportunity: %w", err)
			}
		}
		result = append(result, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return result, nil
}
