// Package web provides HTTP request and response types for the workflow API.
package web

// CreateWorkflowRequest represents the request body for creating a new workflow.
// Workflows always start in draft; activation happens through an update.
type CreateWorkflowRequest struct {
	Name          string         `json:"name"           validate:"required,min=3"`
	Description   string         `json:"description"`
	TriggerType   string         `json:"trigger_type"   validate:"required,oneof=event schedule manual"`
	TriggerConfig map[string]any `json:"trigger_config"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. All fields are optional to support partial updates; status changes
// must follow the operator transitions (draft->active, active<->paused).
type UpdateWorkflowRequest struct {
	Name          *string        `json:"name,omitempty"           validate:"omitempty,min=3"`
	Description   *string        `json:"description,omitempty"`
	Status        *string        `json:"status,omitempty"         validate:"omitempty,oneof=draft active paused"`
	TriggerType   *string        `json:"trigger_type,omitempty"   validate:"omitempty,oneof=event schedule manual"`
	TriggerConfig map[string]any `json:"trigger_config,omitempty"`
}

// CreateActionRequest represents the request body for adding an action to a
// workflow's ordered list.
type CreateActionRequest struct {
	Type         string         `json:"type"          validate:"required"`
	Config       map[string]any `json:"config"`
	DelaySeconds int            `json:"delay_seconds" validate:"gte=0"`
	SortOrder    int            `json:"sort_order"    validate:"gte=0"`
}

// UpdateActionRequest represents the request body for updating an existing
// action. The type is immutable; delete and recreate to change it.
type UpdateActionRequest struct {
	Config       map[string]any `json:"config,omitempty"`
	DelaySeconds *int           `json:"delay_seconds,omitempty" validate:"omitempty,gte=0"`
	SortOrder    *int           `json:"sort_order,omitempty"    validate:"omitempty,gte=0"`
}

// ReorderActionsRequest carries the complete ordered list of action ids; each
// action's sort_order is rewritten to its position in the list.
type ReorderActionsRequest struct {
	ActionIDs []string `json:"action_ids" validate:"required,min=1,dive,required"`
}

// TriggerWorkflowRequest represents the manual enrollment request body.
type TriggerWorkflowRequest struct {
	ContactID string `json:"contact_id" validate:"required"`
}
