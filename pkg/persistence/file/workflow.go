package file

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/google/uuid"
)

const workflowsDir = "workflows"

// WorkflowRepository stores workflows (with their embedded actions) as single
// JSON documents.
type WorkflowRepository struct {
	persistence *Persistence
}

func (r *WorkflowRepository) All(ctx context.Context) ([]*models.Workflow, error) {
	r.persistence.mu.RLock()
	defer r.persistence.mu.RUnlock()

	return r.all(ctx)
}

func (r *WorkflowRepository) all(_ context.Context) ([]*models.Workflow, error) {
	ids, err := r.persistence.listIDs(workflowsDir)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow := &models.Workflow{}
		if err := r.persistence.readDocument(workflowsDir, id, workflow); err != nil {
			return nil, persistence.NewWorkflowError("All", id, err)
		}

		if workflow.DeletedAt != nil {
			continue
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (r *WorkflowRepository) ByID(ctx context.Context, id string) (*models.Workflow, error) {
	r.persistence.mu.RLock()
	defer r.persistence.mu.RUnlock()

	return r.byID(ctx, id)
}

func (r *WorkflowRepository) byID(_ context.Context, id string) (*models.Workflow, error) {
	workflow := &models.Workflow{}

	err := r.persistence.readDocument(workflowsDir, id, workflow)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, persistence.NewWorkflowError("ByID", id, err)
	}

	if workflow.DeletedAt != nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	return workflow, nil
}

func (r *WorkflowRepository) ByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.Status == status {
			matching = append(matching, workflow)
		}
	}

	return matching, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	return r.save(ctx, workflow)
}

func (r *WorkflowRepository) save(_ context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewWorkflowError("Save", "", err)
		}

		workflow.ID = id.String()
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return r.persistence.writeDocument(workflowsDir, workflow.ID, workflow)
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	workflow, err := r.byID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	workflow.DeletedAt = &now

	return r.persistence.writeDocument(workflowsDir, id, workflow)
}

func (r *WorkflowRepository) SaveAction(ctx context.Context, action *models.Action) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	workflow, err := r.byID(ctx, action.WorkflowID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	if action.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewWorkflowError("SaveAction", action.WorkflowID, err)
		}

		action.ID = id.String()
		action.CreatedAt = now
	}

	action.UpdatedAt = now

	replaced := false

	for i, existing := range workflow.Actions {
		if existing.ID == action.ID {
			workflow.Actions[i] = action
			replaced = true

			break
		}
	}

	if !replaced {
		workflow.Actions = append(workflow.Actions, action)
	}

	return r.save(ctx, workflow)
}

func (r *WorkflowRepository) DeleteAction(ctx context.Context, workflowID, actionID string) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	workflow, err := r.byID(ctx, workflowID)
	if err != nil {
		return err
	}

	kept := make([]*models.Action, 0, len(workflow.Actions))

	for _, action := range workflow.Actions {
		if action.ID != actionID {
			kept = append(kept, action)
		}
	}

	if len(kept) == len(workflow.Actions) {
		return persistence.ErrActionNotFound
	}

	workflow.Actions = kept

	return r.save(ctx, workflow)
}

func (r *WorkflowRepository) ReorderActions(ctx context.Context, workflowID string, actionIDs []string) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	workflow, err := r.byID(ctx, workflowID)
	if err != nil {
		return err
	}

	byID := make(map[string]*models.Action, len(workflow.Actions))
	for _, action := range workflow.Actions {
		byID[action.ID] = action
	}

	for position, actionID := range actionIDs {
		action, ok := byID[actionID]
		if !ok {
			return persistence.ErrActionNotFound
		}

		action.SortOrder = position
		action.UpdatedAt = time.Now().UTC()
	}

	return r.save(ctx, workflow)
}

func (r *WorkflowRepository) IncrementExecutionCount(ctx context.Context, workflowID string) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	workflow, err := r.byID(ctx, workflowID)
	if err != nil {
		return err
	}

	workflow.ExecutionCount++

	return r.save(ctx, workflow)
}
