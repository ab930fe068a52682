// Package persistence provides the data storage abstraction for workflows,
// executions, wakes and contact snapshots.
package persistence

import (
	"context"
	"time"

	"github.com/driftmail/automata/pkg/models"
)

// ExecutionFilter narrows execution listings.
type ExecutionFilter struct {
	WorkflowID string
	Status     *models.ExecutionStatus
	Limit      int
	Offset     int
}

// ExecutionPage is one page of execution records plus the unpaged total.
type ExecutionPage struct {
	Executions []*models.Execution
	TotalCount int
}

// WorkflowRepository stores workflow definitions and their owned actions.
// Deleting a workflow cascades to its actions but never to its executions.
type WorkflowRepository interface {
	All(ctx context.Context) ([]*models.Workflow, error)
	ByID(ctx context.Context, id string) (*models.Workflow, error)
	ByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error

	SaveAction(ctx context.Context, action *models.Action) error
	DeleteAction(ctx context.Context, workflowID, actionID string) error
	ReorderActions(ctx context.Context, workflowID string, actionIDs []string) error

	IncrementExecutionCount(ctx context.Context, workflowID string) error
}

// ExecutionRepository stores execution records. Save is a compare-and-swap on
// the execution's version; ErrExecutionConflict signals a lost race.
type ExecutionRepository interface {
	Create(ctx context.Context, execution *models.Execution) error
	ByID(ctx context.Context, id string) (*models.Execution, error)
	Save(ctx context.Context, execution *models.Execution) error
	List(ctx context.Context, filter ExecutionFilter) (*ExecutionPage, error)
}

// WakeRepository stores durable wake records for suspended executions.
type WakeRepository interface {
	Schedule(ctx context.Context, executionID string, wakeAt time.Time) error
	Due(ctx context.Context, now time.Time) ([]*models.PendingWake, error)
	Delete(ctx context.Context, executionID string) error
}

// ContactRepository stores contact snapshots mutated by capabilities.
type ContactRepository interface {
	ByID(ctx context.Context, id string) (*models.Contact, error)
	Save(ctx context.Context, contact *models.Contact) error
}

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	WakeRepository() WakeRepository
	ContactRepository() ContactRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
