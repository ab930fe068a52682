package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflow_SortedActions_OrdersBySortOrderThenID(t *testing.T) {
	workflow := &Workflow{
		Actions: []*Action{
			{ID: "c", SortOrder: 20},
			{ID: "b", SortOrder: 10},
			{ID: "a", SortOrder: 10},
			{ID: "d", SortOrder: 0},
		},
	}

	actions := workflow.SortedActions()

	require.Len(t, actions, 4)
	assert.Equal(t, "d", actions[0].ID)
	assert.Equal(t, "a", actions[1].ID) // tie broken by id ascending
	assert.Equal(t, "b", actions[2].ID)
	assert.Equal(t, "c", actions[3].ID)
}

func TestWorkflow_NextAfter_SkipsNumericGaps(t *testing.T) {
	workflow := &Workflow{
		Actions: []*Action{
			{ID: "a", SortOrder: 0},
			{ID: "b", SortOrder: 10},
			{ID: "c", SortOrder: 25},
		},
	}

	next := workflow.NextAfter(0)
	require.NotNil(t, next)
	assert.Equal(t, 10, next.SortOrder)

	next = workflow.NextAfter(10)
	require.NotNil(t, next)
	assert.Equal(t, 25, next.SortOrder)

	assert.Nil(t, workflow.NextAfter(25))
}

func TestWorkflow_ActionAt(t *testing.T) {
	workflow := &Workflow{
		Actions: []*Action{
			{ID: "a", SortOrder: 0},
			{ID: "b", SortOrder: 10},
		},
	}

	require.NotNil(t, workflow.ActionAt(10))
	assert.Nil(t, workflow.ActionAt(5))
}

func TestAction_ConditionBranches(t *testing.T) {
	action := &Action{
		Type: ActionTypeCondition,
		// float64 is what encoding/json produces for numbers
		Config: map[string]any{"then": float64(10), "else": 20},
	}

	thenTarget, elseTarget, ok := action.ConditionBranches()
	require.True(t, ok)
	assert.Equal(t, 10, thenTarget)
	assert.Equal(t, 20, elseTarget)

	action.Config = map[string]any{"then": 10}
	_, _, ok = action.ConditionBranches()
	assert.False(t, ok)
}

func TestValidActionType(t *testing.T) {
	assert.True(t, ValidActionType(ActionTypeSendEmail))
	assert.True(t, ValidActionType(ActionTypeCondition))
	assert.False(t, ValidActionType(ActionType("launch_rocket")))
}

func TestExecutionStatus_Terminal(t *testing.T) {
	assert.False(t, ExecutionStatusRunning.Terminal())
	assert.False(t, ExecutionStatusWaiting.Terminal())
	assert.True(t, ExecutionStatusCompleted.Terminal())
	assert.True(t, ExecutionStatusFailed.Terminal())
}

func TestContact_Snapshot_OverlaysCustomFields(t *testing.T) {
	contact := &Contact{
		ID:        "42",
		Email:     "jo@example.com",
		FirstName: "Jo",
		Fields:    map[string]any{"country": "US", "email": "override@example.com"},
	}

	snapshot := contact.Snapshot()

	assert.Equal(t, "US", snapshot["country"])
	assert.Equal(t, "override@example.com", snapshot["email"])
	assert.Equal(t, "Jo", snapshot["first_name"])
}
