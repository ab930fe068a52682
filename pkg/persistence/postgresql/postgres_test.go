package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/persistence/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDB(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"pending_wakes", "workflow_executions", "workflow_actions", "workflows", "contacts", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("automata_test"),
			postgres.WithUsername("automata"),
			postgres.WithPassword("automata"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDB(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() { _ = p.Close(ctx) })

	return p, ctx
}

func TestPersistenceIntegration_WorkflowLifecycle(t *testing.T) {
	p, ctx := setupTestDB(t)

	workflow := &models.Workflow{
		Name:          "Welcome series",
		Description:   "Onboarding automation",
		Status:        models.WorkflowStatusActive,
		TriggerType:   models.TriggerTypeEvent,
		TriggerConfig: map[string]any{"event_name": "signup"},
	}

	repo := p.WorkflowRepository()
	require.NoError(t, repo.Save(ctx, workflow))

	tag := &models.Action{
		WorkflowID: workflow.ID,
		Type:       models.ActionTypeAddTag,
		Config:     map[string]any{"tag": "vip"},
		SortOrder:  0,
	}
	email := &models.Action{
		WorkflowID:   workflow.ID,
		Type:         models.ActionTypeSendEmail,
		Config:       map[string]any{"template": "welcome"},
		DelaySeconds: 3600,
		SortOrder:    1,
	}
	require.NoError(t, repo.SaveAction(ctx, tag))
	require.NoError(t, repo.SaveAction(ctx, email))

	fetched, err := repo.ByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Actions, 2)
	assert.Equal(t, models.ActionTypeAddTag, fetched.SortedActions()[0].Type)
	assert.Equal(t, "signup", fetched.EventName())

	require.NoError(t, repo.ReorderActions(ctx, workflow.ID, []string{email.ID, tag.ID}))

	fetched, err = repo.ByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionTypeSendEmail, fetched.SortedActions()[0].Type)

	require.NoError(t, repo.IncrementExecutionCount(ctx, workflow.ID))

	fetched, err = repo.ByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, fetched.ExecutionCount)

	active, err := repo.ByStatus(ctx, models.WorkflowStatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, repo.Delete(ctx, workflow.ID))

	_, err = repo.ByID(ctx, workflow.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestPersistenceIntegration_ExecutionVersioning(t *testing.T) {
	p, ctx := setupTestDB(t)

	workflow := &models.Workflow{
		Name:        "Versioned",
		Status:      models.WorkflowStatusActive,
		TriggerType: models.TriggerTypeManual,
	}
	require.NoError(t, p.WorkflowRepository().Save(ctx, workflow))

	repo := p.ExecutionRepository()

	execution := &models.Execution{
		WorkflowID:   workflow.ID,
		ContactID:    "42",
		Status:       models.ExecutionStatusRunning,
		TriggerEvent: "manual",
		StartedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, execution))

	stale, err := repo.ByID(ctx, execution.ID)
	require.NoError(t, err)

	execution.AppendLog(models.LogEntry{Level: "info", Summary: "step done"})
	execution.Status = models.ExecutionStatusCompleted
	now := time.Now().UTC()
	execution.CompletedAt = &now
	require.NoError(t, repo.Save(ctx, execution))

	stale.Status = models.ExecutionStatusFailed
	assert.ErrorIs(t, repo.Save(ctx, stale), persistence.ErrExecutionConflict)

	reloaded, err := repo.ByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, reloaded.Status)
	require.Len(t, reloaded.Log, 1)
	assert.Equal(t, "step done", reloaded.Log[0].Summary)
}

func TestPersistenceIntegration_WakesAndContacts(t *testing.T) {
	p, ctx := setupTestDB(t)

	execution := &models.Execution{
		WorkflowID: "018f4f3a-0000-7000-8000-000000000001",
		ContactID:  "42",
		Status:     models.ExecutionStatusWaiting,
		StartedAt:  time.Now().UTC(),
	}
	require.NoError(t, p.ExecutionRepository().Create(ctx, execution))

	wakes := p.WakeRepository()
	now := time.Now().UTC()

	require.NoError(t, wakes.Schedule(ctx, execution.ID, now.Add(-time.Second)))

	due, err := wakes.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, execution.ID, due[0].ExecutionID)

	// Rescheduling replaces the wake rather than duplicating it.
	require.NoError(t, wakes.Schedule(ctx, execution.ID, now.Add(time.Hour)))

	due, err = wakes.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)

	require.NoError(t, wakes.Delete(ctx, execution.ID))

	contacts := p.ContactRepository()
	contact := &models.Contact{
		ID:     "42",
		Email:  "jo@example.com",
		Tags:   []string{"vip"},
		Fields: map[string]any{"country": "US"},
	}
	require.NoError(t, contacts.Save(ctx, contact))

	fetched, err := contacts.ByID(ctx, "42")
	require.NoError(t, err)
	assert.True(t, fetched.HasTag("vip"))
	assert.Equal(t, "US", fetched.Fields["country"])
}
