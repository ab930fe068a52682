package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftmail/automata/pkg/condition"
	"github.com/driftmail/automata/pkg/eventbus"
	"github.com/driftmail/automata/pkg/events"
	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/otelhelper"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/registry"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 2 * time.Second
)

// Runner drives the per-execution state machine: one action per step, delays
// as durable suspension, condition branches as cursor jumps, capability
// failures through the retry policy into the failed state.
type Runner struct {
	workflows  persistence.WorkflowRepository
	executions persistence.ExecutionRepository
	wakes      persistence.WakeRepository
	contacts   persistence.ContactRepository
	tracker    *Tracker
	registry   *registry.Registry
	evaluator  *condition.Evaluator
	publisher  eventbus.EventPublisher
	tracer     trace.Tracer
	logger     *slog.Logger

	// Retry policy applied to failing capabilities. Defaults: 3 attempts,
	// constant 2s backoff.
	RetryAttempts int
	RetryBackoff  time.Duration
}

func NewRunner(
	store persistence.Persistence,
	tracker *Tracker,
	reg *registry.Registry,
	evaluator *condition.Evaluator,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Runner {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("runtime")
	}

	return &Runner{
		workflows:     store.WorkflowRepository(),
		executions:    store.ExecutionRepository(),
		wakes:         store.WakeRepository(),
		contacts:      store.ContactRepository(),
		tracker:       tracker,
		registry:      reg,
		evaluator:     evaluator,
		publisher:     publisher,
		tracer:        tracer,
		logger:        logger.With("module", "runner"),
		RetryAttempts: defaultRetryAttempts,
		RetryBackoff:  defaultRetryBackoff,
	}
}

// Enroll creates an execution for the contact and runs the step loop until
// the execution suspends on a delay or reaches a terminal state.
func (r *Runner) Enroll(
	ctx context.Context,
	workflow *models.Workflow,
	contactID, triggerEvent string,
) (*models.Execution, error) {
	execution, err := r.tracker.Start(ctx, workflow, contactID, triggerEvent)
	if err != nil {
		return nil, err
	}

	if err := r.workflows.IncrementExecutionCount(ctx, workflow.ID); err != nil {
		r.logger.WarnContext(ctx, "Failed to increment execution count",
			"workflow_id", workflow.ID,
			"error", err)
	}

	r.publishLifecycle(ctx, events.ExecutionStartedEvent, execution, "")

	return execution, r.run(ctx, workflow, execution, false)
}

// Resume continues a suspended execution from its persisted cursor. The
// current step's delay has already been served, so it is not applied again.
func (r *Runner) Resume(ctx context.Context, executionID string) (*models.Execution, error) {
	execution, err := r.executions.ByID(ctx, executionID)
	if err != nil {
		return nil, persistence.NewExecutionError("resume", executionID, err)
	}

	if execution.Status.Terminal() {
		return execution, nil
	}

	workflow, err := r.workflows.ByID(ctx, execution.WorkflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			failErr := r.tracker.Fail(ctx, execution, models.LogEntry{
				Level:   "error",
				Summary: "workflow removed",
				Error:   "workflow no longer exists",
			})
			r.publishLifecycle(ctx, events.ExecutionFailedEvent, execution, "workflow removed")

			return execution, failErr
		}

		return nil, persistence.NewExecutionError("resume", executionID, err)
	}

	if err := r.tracker.MarkRunning(ctx, execution); err != nil {
		return nil, err
	}

	r.publishLifecycle(ctx, events.ExecutionResumedEvent, execution, "")

	return execution, r.run(ctx, workflow, execution, true)
}

// Cancel removes any pending wake and marks the execution failed with reason
// "cancelled". Already-executed actions are not rolled back.
func (r *Runner) Cancel(ctx context.Context, executionID string) error {
	execution, err := r.executions.ByID(ctx, executionID)
	if err != nil {
		return persistence.NewExecutionError("cancel", executionID, err)
	}

	if execution.Status.Terminal() {
		return nil
	}

	if err := r.wakes.Delete(ctx, executionID); err != nil {
		return persistence.NewExecutionError("cancel", executionID, err)
	}

	if err := r.tracker.Fail(ctx, execution, models.LogEntry{
		Level:   "warn",
		Summary: "execution cancelled",
		Error:   "cancelled",
	}); err != nil {
		return err
	}

	r.publishLifecycle(ctx, events.ExecutionCancelledEvent, execution, "cancelled")

	return nil
}

// run executes steps until the execution suspends or terminates.
// skipDelayForCurrent is set on resume, where the cursor's delay was already
// served by the wake.
func (r *Runner) run(
	ctx context.Context,
	workflow *models.Workflow,
	execution *models.Execution,
	skipDelayForCurrent bool,
) error {
	for {
		action := workflow.ActionAt(execution.CurrentStep)
		if action == nil {
			next := workflow.NextAfter(execution.CurrentStep)
			if next == nil {
				if err := r.tracker.Complete(ctx, execution); err != nil {
					return err
				}

				r.publishLifecycle(ctx, events.ExecutionCompletedEvent, execution, "")

				return nil
			}

			// The action at the cursor was deleted mid-execution. Skip it
			// rather than stalling the enrollment.
			entry := models.LogEntry{Level: "warn", Summary: "action removed"}
			if err := r.tracker.RecordStep(ctx, execution, entry, next.SortOrder); err != nil {
				return err
			}

			skipDelayForCurrent = false

			continue
		}

		if action.DelaySeconds > 0 && !skipDelayForCurrent {
			return r.suspend(ctx, execution, action)
		}

		skipDelayForCurrent = false

		if err := r.step(ctx, workflow, execution, action); err != nil {
			return err
		}

		if execution.Status.Terminal() {
			return nil
		}
	}
}

// suspend persists a durable wake and parks the execution. No goroutine or
// timer is held for the delay; the wake record is the source of truth.
func (r *Runner) suspend(ctx context.Context, execution *models.Execution, action *models.Action) error {
	wakeAt := time.Now().UTC().Add(time.Duration(action.DelaySeconds) * time.Second)

	if err := r.wakes.Schedule(ctx, execution.ID, wakeAt); err != nil {
		return persistence.NewExecutionError("suspend", execution.ID, err)
	}

	if err := r.tracker.MarkWaiting(ctx, execution); err != nil {
		return err
	}

	r.publishLifecycle(ctx, events.ExecutionWaitingEvent, execution, "")

	r.logger.InfoContext(ctx, "Execution suspended",
		"execution_id", execution.ID,
		"action_id", action.ID,
		"wake_at", wakeAt)

	return nil
}

func (r *Runner) step(
	ctx context.Context,
	workflow *models.Workflow,
	execution *models.Execution,
	action *models.Action,
) error {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "runtime.step",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.ActionIDKey, action.ID),
		attribute.String(otelhelper.ActionTypeKey, string(action.Type)),
	)
	defer span.End()

	switch action.Type {
	case models.ActionTypeWait:
		// The delay itself was served before dispatch; nothing left to do.
		return r.advance(ctx, workflow, execution, action, "wait elapsed")
	case models.ActionTypeCondition:
		return r.branch(ctx, execution, action)
	default:
		summary, err := r.execute(ctx, execution, action)
		if err != nil {
			otelhelper.SetError(span, err)
			// Per-attempt error entries are already in the log.
			if failErr := r.tracker.Fail(ctx, execution, models.LogEntry{}); failErr != nil {
				return failErr
			}

			r.publishLifecycle(ctx, events.ExecutionFailedEvent, execution, err.Error())

			return nil
		}

		return r.advance(ctx, workflow, execution, action, summary)
	}
}

// execute dispatches the action to its capability, retrying on failure per
// the retry policy. Every failed attempt appends an error entry to the log.
func (r *Runner) execute(ctx context.Context, execution *models.Execution, action *models.Action) (string, error) {
	var summary string

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(r.RetryAttempts-1), retry.NewConstant(r.RetryBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		capability, err := r.registry.Create(string(action.Type), action.Config)
		if err == nil {
			summary, err = capability.Execute(ctx, execution.ContactID)
		}

		if err != nil {
			r.logger.WarnContext(ctx, "Step attempt failed",
				"execution_id", execution.ID,
				"action_id", action.ID,
				"action_type", action.Type,
				"attempt", attempt,
				"error", err)

			execution.AppendLog(models.LogEntry{
				ActionID:   action.ID,
				ActionType: action.Type,
				Level:      "error",
				Summary:    fmt.Sprintf("attempt %d failed", attempt),
				Error:      err.Error(),
			})

			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return summary, nil
}

// branch evaluates the condition predicate against the contact snapshot and
// jumps the cursor to the chosen sort order target.
func (r *Runner) branch(ctx context.Context, execution *models.Execution, action *models.Action) error {
	thenTarget, elseTarget, ok := action.ConditionBranches()
	if !ok {
		if err := r.tracker.Fail(ctx, execution, models.LogEntry{
			ActionID:   action.ID,
			ActionType: action.Type,
			Level:      "error",
			Summary:    "condition missing branch targets",
			Error:      "invalid condition config",
		}); err != nil {
			return err
		}

		r.publishLifecycle(ctx, events.ExecutionFailedEvent, execution, "invalid condition config")

		return nil
	}

	snapshot := map[string]any{}

	contact, err := r.contacts.ByID(ctx, execution.ContactID)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to load contact for condition, evaluating to false",
			"execution_id", execution.ID,
			"contact_id", execution.ContactID,
			"error", err)
	} else {
		snapshot = contact.Snapshot()
	}

	result := r.evaluator.Evaluate(condition.ParsePredicate(action.Config), snapshot)

	target := elseTarget
	if result {
		target = thenTarget
	}

	entry := models.LogEntry{
		ActionID:   action.ID,
		ActionType: action.Type,
		Level:      "info",
		Summary:    fmt.Sprintf("condition evaluated to %t, jumping to step %d", result, target),
	}

	return r.tracker.RecordStep(ctx, execution, entry, target)
}

// advance records the step outcome and moves the cursor to the next action in
// sort order, completing the execution when the sequence is exhausted.
func (r *Runner) advance(
	ctx context.Context,
	workflow *models.Workflow,
	execution *models.Execution,
	action *models.Action,
	summary string,
) error {
	entry := models.LogEntry{
		ActionID:   action.ID,
		ActionType: action.Type,
		Level:      "info",
		Summary:    summary,
	}

	next := workflow.NextAfter(action.SortOrder)
	if next == nil {
		execution.AppendLog(entry)

		if err := r.tracker.Complete(ctx, execution); err != nil {
			return err
		}

		r.publishLifecycle(ctx, events.ExecutionCompletedEvent, execution, "")

		return nil
	}

	return r.tracker.RecordStep(ctx, execution, entry, next.SortOrder)
}

func (r *Runner) publishLifecycle(
	ctx context.Context,
	eventType events.EventType,
	execution *models.Execution,
	errMsg string,
) {
	if r.publisher == nil {
		return
	}

	event := events.ExecutionLifecycle{
		Type:        eventType,
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		ContactID:   execution.ContactID,
		Status:      string(execution.Status),
		CurrentStep: execution.CurrentStep,
		Error:       errMsg,
		Timestamp:   time.Now().UTC(),
	}

	if err := r.publisher.Publish(ctx, events.ExecutionTopic, execution.ID, event); err != nil {
		r.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", eventType,
			"execution_id", execution.ID,
			"error", err)
	}
}
