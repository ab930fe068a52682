// Package testutil provides test data builders and in-memory test doubles.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/google/uuid"
)

// CreateTestWorkflow builds an active, manually triggered workflow with
// default values that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	id, _ := uuid.NewV7()

	workflow := &models.Workflow{
		ID:          id.String(),
		Name:        "Test Workflow",
		Status:      models.WorkflowStatusActive,
		TriggerType: models.TriggerTypeManual,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithEventTrigger configures the workflow to trigger on the named event.
func WithEventTrigger(eventName string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.TriggerType = models.TriggerTypeEvent
		w.TriggerConfig = map[string]any{"event_name": eventName}
	}
}

// WithScheduleTrigger configures the workflow to trigger on a cron expression.
func WithScheduleTrigger(cronExpression string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.TriggerType = models.TriggerTypeSchedule
		w.TriggerConfig = map[string]any{"cron": cronExpression}
	}
}

// WithStatus sets the workflow status.
func WithStatus(status models.WorkflowStatus) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Status = status
	}
}

// WithActions attaches actions to the workflow.
func WithActions(actions ...*models.Action) func(*models.Workflow) {
	return func(w *models.Workflow) {
		for _, action := range actions {
			action.WorkflowID = w.ID
		}

		w.Actions = actions
	}
}

// CreateTestAction builds an action with default values that can be
// overridden.
func CreateTestAction(actionType models.ActionType, sortOrder int, overrides ...func(*models.Action)) *models.Action {
	id, _ := uuid.NewV7()

	action := &models.Action{
		ID:        id.String(),
		Type:      actionType,
		Config:    map[string]any{},
		SortOrder: sortOrder,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(action)
	}

	return action
}

// WithConfig sets the action configuration.
func WithConfig(config map[string]any) func(*models.Action) {
	return func(a *models.Action) {
		a.Config = config
	}
}

// WithDelay sets the action pre-delay in seconds.
func WithDelay(seconds int) func(*models.Action) {
	return func(a *models.Action) {
		a.DelaySeconds = seconds
	}
}

// CreateTestContact builds a contact with default values that can be
// overridden.
func CreateTestContact(overrides ...func(*models.Contact)) *models.Contact {
	id, _ := uuid.NewV7()

	contact := &models.Contact{
		ID:        id.String(),
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Fields:    map[string]any{},
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(contact)
	}

	return contact
}

// WithFields sets the contact's custom fields.
func WithFields(fields map[string]any) func(*models.Contact) {
	return func(c *models.Contact) {
		c.Fields = fields
	}
}

// WithTags sets the contact's tags.
func WithTags(tags ...string) func(*models.Contact) {
	return func(c *models.Contact) {
		c.Tags = tags
	}
}

// InMemoryContactRepository is a map-backed contact repository for tests.
type InMemoryContactRepository struct {
	mu       sync.RWMutex
	contacts map[string]*models.Contact
}

var _ persistence.ContactRepository = (*InMemoryContactRepository)(nil)

func NewInMemoryContactRepository(contacts ...*models.Contact) *InMemoryContactRepository {
	repo := &InMemoryContactRepository{contacts: make(map[string]*models.Contact)}

	for _, contact := range contacts {
		repo.contacts[contact.ID] = cloneContact(contact)
	}

	return repo
}

func (r *InMemoryContactRepository) ByID(_ context.Context, id string) (*models.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contact, ok := r.contacts[id]
	if !ok {
		return nil, persistence.ErrContactNotFound
	}

	return cloneContact(contact), nil
}

func (r *InMemoryContactRepository) Save(_ context.Context, contact *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.contacts[contact.ID] = cloneContact(contact)

	return nil
}

func cloneContact(contact *models.Contact) *models.Contact {
	clone := *contact
	clone.Tags = append([]string(nil), contact.Tags...)
	clone.Lists = append([]string(nil), contact.Lists...)
	clone.Courses = append([]string(nil), contact.Courses...)

	clone.Fields = make(map[string]any, len(contact.Fields))
	for k, v := range contact.Fields {
		clone.Fields[k] = v
	}

	return &clone
}
