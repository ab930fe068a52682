package models

import "time"

// ActionType tags one step of a workflow with the capability it invokes.
type ActionType string

const (
	ActionTypeSendEmail      ActionType = "send_email"
	ActionTypeAddTag         ActionType = "add_tag"
	ActionTypeRemoveTag      ActionType = "remove_tag"
	ActionTypeEnrollCourse   ActionType = "enroll_course"
	ActionTypeAddToList      ActionType = "add_to_list"
	ActionTypeRemoveFromList ActionType = "remove_from_list"
	ActionTypeWait           ActionType = "wait"
	ActionTypeWebhook        ActionType = "webhook"
	ActionTypeUpdateContact  ActionType = "update_contact"
	ActionTypeCreateNote     ActionType = "create_note"
	ActionTypeCondition      ActionType = "condition"
)

// ActionTypes lists every recognized action type tag.
var ActionTypes = []ActionType{
	ActionTypeSendEmail,
	ActionTypeAddTag,
	ActionTypeRemoveTag,
	ActionTypeEnrollCourse,
	ActionTypeAddToList,
	ActionTypeRemoveFromList,
	ActionTypeWait,
	ActionTypeWebhook,
	ActionTypeUpdateContact,
	ActionTypeCreateNote,
	ActionTypeCondition,
}

// ValidActionType reports whether the tag names a known action type.
func ValidActionType(t ActionType) bool {
	for _, known := range ActionTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Action is one ordered, typed step in a workflow. DelaySeconds is applied
// before the action runs. SortOrder defines execution order, ties broken by
// id ascending.
type Action struct {
	ID           string         `json:"id"`
	WorkflowID   string         `json:"workflow_id"`
	Type         ActionType     `json:"type"          validate:"required"`
	Config       map[string]any `json:"config"`
	DelaySeconds int            `json:"delay_seconds" validate:"gte=0"`
	SortOrder    int            `json:"sort_order"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ConditionBranches returns the then/else sort order targets of a condition
// action. JSON numbers decode as float64, so both forms are accepted.
func (a *Action) ConditionBranches() (thenTarget, elseTarget int, ok bool) {
	thenTarget, thenOK := intConfig(a.Config, "then")
	elseTarget, elseOK := intConfig(a.Config, "else")

	return thenTarget, elseTarget, thenOK && elseOK
}

func intConfig(config map[string]any, key string) (int, bool) {
	switch v := config[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
