// Package models defines the core domain models for contact automation workflows.
package models

import (
	"sort"
	"time"
)

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft  WorkflowStatus = "draft"  // Editable, never enrolled automatically
	WorkflowStatusActive WorkflowStatus = "active" // Accepting new enrollments
	WorkflowStatusPaused WorkflowStatus = "paused" // Blocks new enrollments, in-flight executions keep running
)

// TriggerType determines how a workflow enrolls contacts.
type TriggerType string

const (
	TriggerTypeEvent    TriggerType = "event"    // trigger_config.event_name, exact match
	TriggerTypeSchedule TriggerType = "schedule" // trigger_config.cron, standard cron expression
	TriggerTypeManual   TriggerType = "manual"   // operator-initiated only
)

// Workflow owns an ordered list of actions executed per enrolled contact.
type Workflow struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"            validate:"required,min=3"`
	Description    string         `json:"description"`
	Status         WorkflowStatus `json:"status"          validate:"required,oneof=draft active paused"`
	TriggerType    TriggerType    `json:"trigger_type"    validate:"required,oneof=event schedule manual"`
	TriggerConfig  map[string]any `json:"trigger_config"`
	Actions        []*Action      `json:"actions"`
	ExecutionCount int64          `json:"execution_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
}

// EventName returns trigger_config.event_name for event-triggered workflows.
func (w *Workflow) EventName() string {
	name, _ := w.TriggerConfig["event_name"].(string)

	return name
}

// CronExpression returns trigger_config.cron for schedule-triggered workflows.
func (w *Workflow) CronExpression() string {
	expr, _ := w.TriggerConfig["cron"].(string)

	return expr
}

// SortedActions returns the workflow's actions ordered by (sort_order, id).
// The runtime always executes in this order regardless of numeric gaps.
func (w *Workflow) SortedActions() []*Action {
	actions := make([]*Action, len(w.Actions))
	copy(actions, w.Actions)

	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].SortOrder != actions[j].SortOrder {
			return actions[i].SortOrder < actions[j].SortOrder
		}

		return actions[i].ID < actions[j].ID
	})

	return actions
}

// ActionAt returns the action with the exact sort order, if present.
func (w *Workflow) ActionAt(sortOrder int) *Action {
	var found *Action

	for _, action := range w.SortedActions() {
		if action.SortOrder == sortOrder {
			found = action

			break
		}
	}

	return found
}

// NextAfter returns the first action with a sort order strictly greater than
// the given one, or nil when the sequence is exhausted.
func (w *Workflow) NextAfter(sortOrder int) *Action {
	for _, action := range w.SortedActions() {
		if action.SortOrder > sortOrder {
			return action
		}
	}

	return nil
}

// FirstAction returns the lowest-ordered action, or nil for an empty workflow.
func (w *Workflow) FirstAction() *Action {
	actions := w.SortedActions()
	if len(actions) == 0 {
		return nil
	}

	return actions[0]
}
