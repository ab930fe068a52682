package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/driftmail/automata/pkg/models"
)

// WakeRepository stores durable wake records. The row is the source of truth
// for delayed resumption; no in-memory timers are kept.
type WakeRepository struct {
	db *sql.DB
}

func (r *WakeRepository) Schedule(ctx context.Context, executionID string, wakeAt time.Time) error {
	query := `
		INSERT INTO pending_wakes (execution_id, wake_at)
		VALUES ($1, $2)
		ON CONFLICT (execution_id) DO UPDATE SET wake_at = EXCLUDED.wake_at
	`

	_, err := r.db.ExecContext(ctx, query, executionID, wakeAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to schedule wake for execution %s: %w", executionID, err)
	}

	return nil
}

func (r *WakeRepository) Due(ctx context.Context, now time.Time) ([]*models.PendingWake, error) {
	query := `SELECT execution_id, wake_at FROM pending_wakes WHERE wake_at <= $1 ORDER BY wake_at ASC`

	rows, err := r.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query due wakes: %w", err)
	}

	defer func() { _ = rows.Close() }()

	wakes := make([]*models.PendingWake, 0)

	for rows.Next() {
		wake := &models.PendingWake{}
		if err := rows.Scan(&wake.ExecutionID, &wake.WakeAt); err != nil {
			return nil, fmt.Errorf("failed to scan wake: %w", err)
		}

		wakes = append(wakes, wake)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wakes: %w", err)
	}

	return wakes, nil
}

func (r *WakeRepository) Delete(ctx context.Context, executionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_wakes WHERE execution_id = $1`, executionID)
	if err != nil {
		return fmt.Errorf("failed to delete wake for execution %s: %w", executionID, err)
	}

	return nil
}
