package file

import (
	"context"
	"os"
	"sort"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/google/uuid"
)

const executionsDir = "executions"

// ExecutionRepository stores execution records with optimistic locking on the
// version field.
type ExecutionRepository struct {
	persistence *Persistence
}

func (r *ExecutionRepository) Create(_ context.Context, execution *models.Execution) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	if execution.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewExecutionError("Create", "", err)
		}

		execution.ID = id.String()
	}

	execution.Version = 1

	return r.persistence.writeDocument(executionsDir, execution.ID, execution)
}

func (r *ExecutionRepository) ByID(_ context.Context, id string) (*models.Execution, error) {
	r.persistence.mu.RLock()
	defer r.persistence.mu.RUnlock()

	return r.byID(id)
}

func (r *ExecutionRepository) byID(id string) (*models.Execution, error) {
	execution := &models.Execution{}

	err := r.persistence.readDocument(executionsDir, id, execution)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, persistence.NewExecutionError("ByID", id, err)
	}

	return execution, nil
}

// Save persists the execution only if the stored version still matches,
// then bumps the version. This is the per-execution critical section.
func (r *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	stored, err := r.byID(execution.ID)
	if err != nil {
		return err
	}

	if stored.Version != execution.Version {
		return persistence.ErrExecutionConflict
	}

	execution.Version++

	return r.persistence.writeDocument(executionsDir, execution.ID, execution)
}

func (r *ExecutionRepository) List(_ context.Context, filter persistence.ExecutionFilter) (*persistence.ExecutionPage, error) {
	r.persistence.mu.RLock()
	defer r.persistence.mu.RUnlock()

	ids, err := r.persistence.listIDs(executionsDir)
	if err != nil {
		return nil, err
	}

	matching := make([]*models.Execution, 0, len(ids))

	for _, id := range ids {
		execution, err := r.byID(id)
		if err != nil {
			return nil, err
		}

		if filter.WorkflowID != "" && execution.WorkflowID != filter.WorkflowID {
			continue
		}

		if filter.Status != nil && execution.Status != *filter.Status {
			continue
		}

		matching = append(matching, execution)
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].StartedAt.After(matching[j].StartedAt)
	})

	page := &persistence.ExecutionPage{TotalCount: len(matching)}

	offset := filter.Offset
	if offset > len(matching) {
		offset = len(matching)
	}

	end := len(matching)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}

	page.Executions = matching[offset:end]

	return page, nil
}
