package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/robfig/cron/v3"
)

// AudienceResolver expands a schedule-triggered workflow into the contact ids
// to enroll on each firing. Audience semantics live outside the engine.
type AudienceResolver interface {
	Resolve(ctx context.Context, workflow *models.Workflow) ([]string, error)
}

// ConfigAudience resolves the audience from trigger_config.contact_ids. It is
// the default resolver when no external audience service is wired in.
type ConfigAudience struct{}

func (ConfigAudience) Resolve(_ context.Context, workflow *models.Workflow) ([]string, error) {
	raw, _ := workflow.TriggerConfig["contact_ids"].([]any)

	ids := make([]string, 0, len(raw))

	for _, v := range raw {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// Matcher turns trigger firings into enrollments. Every match produces
// exactly one new execution per contact per firing; re-firing the same event
// for the same contact enrolls again.
type Matcher struct {
	workflows persistence.WorkflowRepository
	runner    *Runner
	audience  AudienceResolver
	logger    *slog.Logger
}

func NewMatcher(
	workflows persistence.WorkflowRepository,
	runner *Runner,
	audience AudienceResolver,
	logger *slog.Logger,
) *Matcher {
	if audience == nil {
		audience = ConfigAudience{}
	}

	return &Matcher{
		workflows: workflows,
		runner:    runner,
		audience:  audience,
		logger:    logger.With("module", "matcher"),
	}
}

// OnEvent enrolls the contact into every active event-triggered workflow
// whose event name matches exactly. One workflow's enrollment failure does
// not block the others.
func (m *Matcher) OnEvent(ctx context.Context, eventName, contactID string, payload map[string]any) error {
	workflows, err := m.workflows.ByStatus(ctx, models.WorkflowStatusActive)
	if err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "Matching event against active workflows",
		"event_name", eventName,
		"contact_id", contactID,
		"payload_keys", len(payload))

	for _, workflow := range workflows {
		if workflow.TriggerType != models.TriggerTypeEvent || workflow.EventName() != eventName {
			continue
		}

		if _, err := m.runner.Enroll(ctx, workflow, contactID, "event:"+eventName); err != nil {
			m.logger.ErrorContext(ctx, "Failed to enroll contact on event",
				"workflow_id", workflow.ID,
				"contact_id", contactID,
				"event_name", eventName,
				"error", err)
		}
	}

	return nil
}

// OnSchedule enrolls each schedule-triggered workflow's audience when its
// cron expression matches the current minute. Callers invoke it once per
// minute; finer granularity is not supported.
func (m *Matcher) OnSchedule(ctx context.Context, now time.Time) error {
	workflows, err := m.workflows.ByStatus(ctx, models.WorkflowStatusActive)
	if err != nil {
		return err
	}

	minute := now.UTC().Truncate(time.Minute)

	for _, workflow := range workflows {
		if workflow.TriggerType != models.TriggerTypeSchedule {
			continue
		}

		schedule, err := cron.ParseStandard(workflow.CronExpression())
		if err != nil {
			m.logger.WarnContext(ctx, "Invalid cron expression, skipping workflow",
				"workflow_id", workflow.ID,
				"cron", workflow.CronExpression(),
				"error", err)

			continue
		}

		if !schedule.Next(minute.Add(-time.Second)).Equal(minute) {
			continue
		}

		contactIDs, err := m.audience.Resolve(ctx, workflow)
		if err != nil {
			m.logger.ErrorContext(ctx, "Failed to resolve schedule audience",
				"workflow_id", workflow.ID,
				"error", err)

			continue
		}

		for _, contactID := range contactIDs {
			if _, err := m.runner.Enroll(ctx, workflow, contactID, "schedule"); err != nil {
				m.logger.ErrorContext(ctx, "Failed to enroll contact on schedule",
					"workflow_id", workflow.ID,
					"contact_id", contactID,
					"error", err)
			}
		}
	}

	return nil
}

// Manual enrolls a single contact directly. Used by the test-workflow path;
// drafts are allowed, only existence is required.
func (m *Matcher) Manual(ctx context.Context, workflowID, contactID string) (*models.Execution, error) {
	workflow, err := m.workflows.ByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return m.runner.Enroll(ctx, workflow, contactID, "manual")
}
