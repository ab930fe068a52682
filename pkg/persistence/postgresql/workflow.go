package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/google/uuid"
)

// WorkflowRepository handles workflow and action database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const workflowColumns = `
	id
  , name
  , description
  , status
  , trigger_type
  , trigger_config
  , execution_count
  , created_at
  , updated_at
  , deleted_at
`

func (r *WorkflowRepository) All(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT` + workflowColumns + `FROM workflows WHERE deleted_at IS NULL ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query)
}

func (r *WorkflowRepository) ByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error) {
	query := `SELECT` + workflowColumns + `FROM workflows WHERE status = $1 AND deleted_at IS NULL ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query, string(status))
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		if err := r.loadActions(ctx, workflow); err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) ByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT` + workflowColumns + `FROM workflows WHERE id = $1 AND deleted_at IS NULL`

	row := r.db.QueryRowContext(ctx, query, id)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, persistence.NewWorkflowError("ByID", id, err)
	}

	if err := r.loadActions(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	workflow := &models.Workflow{}

	var triggerConfigJSON []byte

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&workflow.Status,
		&workflow.TriggerType,
		&triggerConfigJSON,
		&workflow.ExecutionCount,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&workflow.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(triggerConfigJSON, &workflow.TriggerConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger config: %w", err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) loadActions(ctx context.Context, workflow *models.Workflow) error {
	query := `
		SELECT id, workflow_id, type, config, delay_seconds, sort_order, created_at, updated_at
		FROM workflow_actions
		WHERE workflow_id = $1
		ORDER BY sort_order ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query actions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflow.Actions = make([]*models.Action, 0)

	for rows.Next() {
		action := &models.Action{}

		var configJSON []byte

		err := rows.Scan(
			&action.ID,
			&action.WorkflowID,
			&action.Type,
			&configJSON,
			&action.DelaySeconds,
			&action.SortOrder,
			&action.CreatedAt,
			&action.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan action: %w", err)
		}

		if err := json.Unmarshal(configJSON, &action.Config); err != nil {
			return fmt.Errorf("failed to unmarshal action config: %w", err)
		}

		workflow.Actions = append(workflow.Actions, action)
	}

	return rows.Err()
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	triggerConfigJSON, err := json.Marshal(workflow.TriggerConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger config: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, description, status, trigger_type, trigger_config, execution_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			trigger_type = EXCLUDED.trigger_type,
			trigger_config = EXCLUDED.trigger_config,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		string(workflow.Status),
		string(workflow.TriggerType),
		triggerConfigJSON,
		workflow.ExecutionCount,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow. Its executions remain as an audit trail.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

func (r *WorkflowRepository) SaveAction(ctx context.Context, action *models.Action) error {
	now := time.Now().UTC()

	if action.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate action ID: %w", err)
		}

		action.ID = id.String()
		action.CreatedAt = now
	}

	action.UpdatedAt = now

	configJSON, err := json.Marshal(action.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal action config: %w", err)
	}

	query := `
		INSERT INTO workflow_actions (id, workflow_id, type, config, delay_seconds, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			config = EXCLUDED.config,
			delay_seconds = EXCLUDED.delay_seconds,
			sort_order = EXCLUDED.sort_order,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		action.ID,
		action.WorkflowID,
		string(action.Type),
		configJSON,
		action.DelaySeconds,
		action.SortOrder,
		action.CreatedAt,
		action.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("SaveAction", action.WorkflowID, err)
	}

	return nil
}

func (r *WorkflowRepository) DeleteAction(ctx context.Context, workflowID, actionID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workflow_actions WHERE id = $1 AND workflow_id = $2`, actionID, workflowID)
	if err != nil {
		return persistence.NewWorkflowError("DeleteAction", workflowID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("DeleteAction", workflowID, err)
	}

	if affected == 0 {
		return persistence.ErrActionNotFound
	}

	return nil
}

// ReorderActions rewrites sort_order to match the given id sequence.
func (r *WorkflowRepository) ReorderActions(ctx context.Context, workflowID string, actionIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for position, actionID := range actionIDs {
		result, err := tx.ExecContext(ctx,
			`UPDATE workflow_actions SET sort_order = $1, updated_at = NOW() WHERE id = $2 AND workflow_id = $3`,
			position, actionID, workflowID)
		if err != nil {
			_ = tx.Rollback()

			return persistence.NewWorkflowError("ReorderActions", workflowID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			_ = tx.Rollback()

			return persistence.NewWorkflowError("ReorderActions", workflowID, err)
		}

		if affected == 0 {
			_ = tx.Rollback()

			return persistence.ErrActionNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) IncrementExecutionCount(ctx context.Context, workflowID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workflows SET execution_count = execution_count + 1 WHERE id = $1`, workflowID)
	if err != nil {
		return persistence.NewWorkflowError("IncrementExecutionCount", workflowID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("IncrementExecutionCount", workflowID, err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}
