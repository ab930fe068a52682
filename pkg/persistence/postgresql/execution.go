package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/google/uuid"
)

// ExecutionRepository handles execution database operations. Save uses a
// compare-and-swap on version to serialize writers per execution.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const executionColumns = `
	id
  , workflow_id
  , contact_id
  , status
  , current_step
  , trigger_event
  , log
  , version
  , started_at
  , completed_at
`

func (r *ExecutionRepository) Create(ctx context.Context, execution *models.Execution) error {
	if execution.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate execution ID: %w", err)
		}

		execution.ID = id.String()
	}

	execution.Version = 1

	logJSON, err := marshalLog(execution.Log)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	query := `
		INSERT INTO workflow_executions (id, workflow_id, contact_id, status, current_step, trigger_event, log, version, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.ContactID,
		string(execution.Status),
		execution.CurrentStep,
		execution.TriggerEvent,
		logJSON,
		execution.Version,
		execution.StartedAt,
		execution.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `SELECT` + executionColumns + `FROM workflow_executions WHERE id = $1`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, persistence.NewExecutionError("ByID", id, err)
	}

	return execution, nil
}

// Save persists the execution guarded by the version check. A zero-row update
// means another writer advanced the record first.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	logJSON, err := marshalLog(execution.Log)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	query := `
		UPDATE workflow_executions SET
			status = $1,
			current_step = $2,
			log = $3,
			completed_at = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		string(execution.Status),
		execution.CurrentStep,
		logJSON,
		execution.CompletedAt,
		execution.ID,
		execution.Version,
	)
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("Save", execution.ID, err)
	}

	if affected == 0 {
		return persistence.ErrExecutionConflict
	}

	execution.Version++

	return nil
}

func (r *ExecutionRepository) List(ctx context.Context, filter persistence.ExecutionFilter) (*persistence.ExecutionPage, error) {
	where := "WHERE 1=1"
	args := make([]any, 0, 4)

	if filter.WorkflowID != "" {
		args = append(args, filter.WorkflowID)
		where += fmt.Sprintf(" AND workflow_id = $%d", len(args))
	}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	page := &persistence.ExecutionPage{Executions: make([]*models.Execution, 0)}

	countQuery := `SELECT COUNT(*) FROM workflow_executions ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&page.TotalCount); err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}

	query := `SELECT` + executionColumns + `FROM workflow_executions ` + where + ` ORDER BY started_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		page.Executions = append(page.Executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return page, nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	execution := &models.Execution{}

	var logJSON []byte

	err := row.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.ContactID,
		&execution.Status,
		&execution.CurrentStep,
		&execution.TriggerEvent,
		&logJSON,
		&execution.Version,
		&execution.StartedAt,
		&execution.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(logJSON, &execution.Log); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution log: %w", err)
	}

	return execution, nil
}

func marshalLog(log []models.LogEntry) ([]byte, error) {
	if log == nil {
		log = []models.LogEntry{}
	}

	return json.Marshal(log)
}
