// Package runtime orchestrates workflow executions: enrollment, the per-step
// state machine, trigger matching and durable wake scheduling.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/google/uuid"
)

// Tracker owns the lifecycle of execution records. It is the only writer of
// executions; every mutation goes through a compare-and-swap save so that at
// most one step of a given execution advances at a time.
type Tracker struct {
	executions persistence.ExecutionRepository
	logger     *slog.Logger
}

func NewTracker(executions persistence.ExecutionRepository, logger *slog.Logger) *Tracker {
	return &Tracker{
		executions: executions,
		logger:     logger.With("module", "tracker"),
	}
}

// Start creates the execution record for a new enrollment. The cursor starts
// at the first action's sort order, or zero for an empty workflow.
func (t *Tracker) Start(
	ctx context.Context,
	workflow *models.Workflow,
	contactID, triggerEvent string,
) (*models.Execution, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, persistence.NewExecutionError("start", "", err)
	}

	cursor := 0
	if first := workflow.FirstAction(); first != nil {
		cursor = first.SortOrder
	}

	execution := &models.Execution{
		ID:           id.String(),
		WorkflowID:   workflow.ID,
		ContactID:    contactID,
		Status:       models.ExecutionStatusRunning,
		CurrentStep:  cursor,
		TriggerEvent: triggerEvent,
		StartedAt:    time.Now().UTC(),
	}

	if err := t.executions.Create(ctx, execution); err != nil {
		return nil, persistence.NewExecutionError("start", execution.ID, err)
	}

	t.logger.InfoContext(ctx, "Execution started",
		"execution_id", execution.ID,
		"workflow_id", workflow.ID,
		"contact_id", contactID,
		"trigger_event", triggerEvent)

	return execution, nil
}

// RecordStep appends a step outcome and moves the cursor to the next sort
// order in one persisted mutation.
func (t *Tracker) RecordStep(ctx context.Context, execution *models.Execution, entry models.LogEntry, nextCursor int) error {
	execution.AppendLog(entry)
	execution.CurrentStep = nextCursor

	return t.save(ctx, execution)
}

// MarkWaiting suspends the execution on its current step. The cursor stays at
// the awaited action.
func (t *Tracker) MarkWaiting(ctx context.Context, execution *models.Execution) error {
	execution.Status = models.ExecutionStatusWaiting

	return t.save(ctx, execution)
}

// MarkRunning transitions a waiting execution back to running on wake.
func (t *Tracker) MarkRunning(ctx context.Context, execution *models.Execution) error {
	execution.Status = models.ExecutionStatusRunning

	return t.save(ctx, execution)
}

// Complete marks the execution terminal after the last action succeeded.
func (t *Tracker) Complete(ctx context.Context, execution *models.Execution) error {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.CompletedAt = &now

	if err := t.save(ctx, execution); err != nil {
		return err
	}

	t.logger.InfoContext(ctx, "Execution completed", "execution_id", execution.ID)

	return nil
}

// Fail marks the execution terminal with an error outcome. The entry, when
// non-empty, lands in the log before the status flips.
func (t *Tracker) Fail(ctx context.Context, execution *models.Execution, entry models.LogEntry) error {
	if entry.Summary != "" || entry.Error != "" {
		execution.AppendLog(entry)
	}

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.CompletedAt = &now

	if err := t.save(ctx, execution); err != nil {
		return err
	}

	t.logger.WarnContext(ctx, "Execution failed",
		"execution_id", execution.ID,
		"error", entry.Error)

	return nil
}

func (t *Tracker) save(ctx context.Context, execution *models.Execution) error {
	if err := t.executions.Save(ctx, execution); err != nil {
		return persistence.NewExecutionError("save", execution.ID, err)
	}

	return nil
}
