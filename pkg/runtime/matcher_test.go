package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) listExecutions(t *testing.T, workflowID string) []*models.Execution {
	t.Helper()

	page, err := h.store.ExecutionRepository().List(context.Background(), persistence.ExecutionFilter{WorkflowID: workflowID})
	require.NoError(t, err)

	return page.Executions
}

func TestOnEventEnrollsMatchingWorkflows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	signup := testutil.CreateTestWorkflow(
		testutil.WithEventTrigger("contact.signup"),
		testutil.WithActions(testutil.CreateTestAction(models.ActionTypeAddTag, 0)),
	)
	purchase := testutil.CreateTestWorkflow(
		testutil.WithEventTrigger("contact.purchase"),
		testutil.WithActions(testutil.CreateTestAction(models.ActionTypeAddTag, 0)),
	)
	h.saveWorkflow(t, signup)
	h.saveWorkflow(t, purchase)

	require.NoError(t, h.matcher.OnEvent(ctx, "contact.signup", "contact-1", nil))

	assert.Len(t, h.listExecutions(t, signup.ID), 1)
	assert.Empty(t, h.listExecutions(t, purchase.ID))

	// Re-firing the same event creates a second, independent execution.
	require.NoError(t, h.matcher.OnEvent(ctx, "contact.signup", "contact-1", nil))
	assert.Len(t, h.listExecutions(t, signup.ID), 2)
}

func TestPausedWorkflowBlocksNewEnrollmentsOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	workflow := testutil.CreateTestWorkflow(
		testutil.WithEventTrigger("contact.signup"),
		testutil.WithActions(
			testutil.CreateTestAction(models.ActionTypeWait, 0, testutil.WithDelay(3600)),
		),
	)
	h.saveWorkflow(t, workflow)

	require.NoError(t, h.matcher.OnEvent(ctx, "contact.signup", "contact-1", nil))

	inflight := h.listExecutions(t, workflow.ID)
	require.Len(t, inflight, 1)
	require.Equal(t, models.ExecutionStatusWaiting, inflight[0].Status)

	workflow.Status = models.WorkflowStatusPaused
	h.saveWorkflow(t, workflow)

	require.NoError(t, h.matcher.OnEvent(ctx, "contact.signup", "contact-2", nil))

	// No new enrollment, and the in-flight execution is untouched.
	after := h.listExecutions(t, workflow.ID)
	require.Len(t, after, 1)
	assert.Equal(t, models.ExecutionStatusWaiting, after[0].Status)
}

func TestOnScheduleMatchesCronMinute(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	workflow := testutil.CreateTestWorkflow(
		testutil.WithScheduleTrigger("*/5 * * * *"),
		testutil.WithActions(testutil.CreateTestAction(models.ActionTypeAddTag, 0)),
	)
	workflow.TriggerConfig["contact_ids"] = []any{"contact-1", "contact-2"}
	h.saveWorkflow(t, workflow)

	matching := time.Date(2026, 3, 1, 10, 15, 30, 0, time.UTC)
	require.NoError(t, h.matcher.OnSchedule(ctx, matching))
	assert.Len(t, h.listExecutions(t, workflow.ID), 2)

	offMinute := time.Date(2026, 3, 1, 10, 16, 0, 0, time.UTC)
	require.NoError(t, h.matcher.OnSchedule(ctx, offMinute))
	assert.Len(t, h.listExecutions(t, workflow.ID), 2)
}

func TestOnScheduleSkipsInvalidCron(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	workflow := testutil.CreateTestWorkflow(
		testutil.WithScheduleTrigger("not a cron"),
		testutil.WithActions(testutil.CreateTestAction(models.ActionTypeAddTag, 0)),
	)
	h.saveWorkflow(t, workflow)

	require.NoError(t, h.matcher.OnSchedule(ctx, time.Now().UTC()))
	assert.Empty(t, h.listExecutions(t, workflow.ID))
}

func TestManualEnrollAllowsDrafts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	workflow := testutil.CreateTestWorkflow(
		testutil.WithStatus(models.WorkflowStatusDraft),
		testutil.WithActions(testutil.CreateTestAction(models.ActionTypeAddTag, 0)),
	)
	h.saveWorkflow(t, workflow)

	execution, err := h.matcher.Manual(ctx, workflow.ID, "contact-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Equal(t, "manual", execution.TriggerEvent)
}

func TestManualEnrollUnknownWorkflow(t *testing.T) {
	h := newHarness(t)

	_, err := h.matcher.Manual(context.Background(), "missing", "contact-1")
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}
