package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaydog12322/Anatta/internal/domain"
)

// ExecutionStore implements domain.ExecutionJournal using PostgreSQL.
type ExecutionStore struct {
	pool *pgxpool.Pool
}

// NewExecutionStore creates a new ExecutionStore.
func NewExecutionStore(pool *pgxpool.Pool) *ExecutionStore {
	return &ExecutionStore{pool: pool}
}

// Record appends one execution outcome to the journal.
func (s *ExecutionStore) Record(ctx context.Context, rec domain.ExecutionRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO executions (id, proposal_id, krx_code, nxt_code, buy_venue, sell_venue, qty, status, failed_leg, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.ProposalID, rec.KRXCode, rec.NXTCode,
		string(rec.BuyVenue), string(rec.SellVenue), rec.Qty,
		string(rec.Status), string(rec.FailedLeg), rec.Error,
		rec.StartedAt, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert execution: %w", err)
	}
	return nil
}

// Recent returns the most recent execution records, newest first.
func (s *ExecutionStore) Recent(ctx context.Context, limit int) ([]domain.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, proposal_id, krx_code, nxt_code, buy_venue, sell_venue, qty, status, failed_leg, error, started_at, completed_at
		FROM executions ORDER BY completed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: query executions: %w", err)
	}
	defer rows.Close()

	var recs []domain.ExecutionRecord
	for rows.Next() {
		var rec domain.ExecutionRecord
		var buyVenue, sellVenue, status, failedLeg string
		if err := rows.Scan(
			&rec.ID, &rec.ProposalID, &rec.KRXCode, &rec.NXTCode,
			&buyVenue, &sellVenue, &rec.Qty, &status, &failedLeg, &rec.Error,
			&rec.StartedAt, &rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan execution: %w", err)
		}
		rec.BuyVenue = domain.Venue(buyVenue)
		rec.SellVenue = domain.Venue(sellVenue)
		rec.Status = domain.ExecStatus(status)
		rec.FailedLeg = domain.Side(failedLeg)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate executions: %w", err)
	}
	return recs, nil
}

var _ domain.ExecutionJournal = (*ExecutionStore)(nil)
