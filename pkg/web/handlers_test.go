package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/driftmail/automata/pkg/condition"
	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence/file"
	"github.com/driftmail/automata/pkg/protocol"
	"github.com/driftmail/automata/pkg/registry"
	"github.com/driftmail/automata/pkg/runtime"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopCapability struct{}

func (noopCapability) Execute(_ context.Context, _ string) (string, error) {
	return "ok", nil
}

type noopFactory struct {
	id string
}

func (f *noopFactory) ID() string { return f.id }

func (f *noopFactory) Create(_ map[string]any) (protocol.Capability, error) {
	return noopCapability{}, nil
}

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence) {
	t.Helper()

	logger := slog.Default()
	store := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.Register(&noopFactory{id: "add_tag"})
	reg.Register(&noopFactory{id: "send_email"})

	tracker := runtime.NewTracker(store.ExecutionRepository(), logger)
	runner := runtime.NewRunner(store, tracker, reg, condition.NewEvaluator(logger), nil, nil, logger)
	matcher := runtime.NewMatcher(store.WorkflowRepository(), runner, nil, logger)

	handlers := NewAPIHandlers(store, matcher, runner, reg, validator.New(validator.WithRequiredStructEnabled()), logger)

	return NewApp(handlers), store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, resp.Body.Close())
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, raw
}

func createWorkflow(t *testing.T, app *fiber.App, body map[string]any) models.Workflow {
	t.Helper()

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(raw, &workflow))

	return workflow
}

func TestCreateAndGetWorkflow(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, map[string]any{
		"name":           "Welcome Sequence",
		"trigger_type":   "event",
		"trigger_config": map[string]any{"event_name": "contact.signup"},
	})

	assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
	assert.NotEmpty(t, workflow.ID)

	resp, raw := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Workflow
	require.NoError(t, json.Unmarshal(raw, &fetched))
	assert.Equal(t, "Welcome Sequence", fetched.Name)
}

func TestCreateWorkflowValidation(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows", map[string]any{
		"name":         "ab",
		"trigger_type": "event",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows", map[string]any{
		"name":         "Valid Name",
		"trigger_type": "webhook",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkflowStatusTransitions(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, map[string]any{
		"name":         "Status Flow",
		"trigger_type": "manual",
	})

	resp, raw := doJSON(t, app, http.MethodPut, "/workflows/"+workflow.ID, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	// Active workflows cannot go back to draft.
	resp, _ = doJSON(t, app, http.MethodPut, "/workflows/"+workflow.ID, map[string]any{"status": "draft"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/workflows/"+workflow.ID, map[string]any{"status": "paused"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/workflows/"+workflow.ID, map[string]any{"status": "active"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestActionLifecycle(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, map[string]any{
		"name":         "Action Editing",
		"trigger_type": "manual",
	})

	base := "/workflows/" + workflow.ID

	resp, raw := doJSON(t, app, http.MethodPost, base+"/actions", map[string]any{
		"type":       "add_tag",
		"config":     map[string]any{"tag": "vip"},
		"sort_order": 0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var first models.Action
	require.NoError(t, json.Unmarshal(raw, &first))
	require.NotEmpty(t, first.ID)

	resp, raw = doJSON(t, app, http.MethodPost, base+"/actions", map[string]any{
		"type":       "send_email",
		"config":     map[string]any{"template_id": "welcome"},
		"sort_order": 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var second models.Action
	require.NoError(t, json.Unmarshal(raw, &second))

	// Unknown action types are rejected at the API boundary.
	resp, _ = doJSON(t, app, http.MethodPost, base+"/actions", map[string]any{"type": "teleport"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = doJSON(t, app, http.MethodPut, base+"/actions/"+first.ID, map[string]any{
		"delay_seconds": 60,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var updated models.Action
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, 60, updated.DelaySeconds)

	// Reorder rewrites sort_order by list position.
	resp, raw = doJSON(t, app, http.MethodPut, base+"/actions/reorder", map[string]any{
		"action_ids": []string{second.ID, first.ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var reordered []models.Action
	require.NoError(t, json.Unmarshal(raw, &reordered))
	require.Len(t, reordered, 2)
	assert.Equal(t, second.ID, reordered[0].ID)
	assert.Equal(t, first.ID, reordered[1].ID)

	resp, _ = doJSON(t, app, http.MethodDelete, base+"/actions/"+first.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestTriggerWorkflowManually(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, map[string]any{
		"name":         "Manual Run",
		"trigger_type": "manual",
	})

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/trigger", map[string]any{
		"contact_id": "contact-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var execution models.Execution
	require.NoError(t, json.Unmarshal(raw, &execution))
	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	assert.Equal(t, "manual", execution.TriggerEvent)

	resp, raw = doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID+"/executions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Executions []models.Execution `json:"executions"`
		TotalCount int                `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, 1, page.TotalCount)

	resp, _ = doJSON(t, app, http.MethodGet, "/executions/"+execution.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/missing/trigger", map[string]any{
		"contact_id": "contact-1",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelExecution(t *testing.T) {
	app, _ := setupTestApp(t)

	workflow := createWorkflow(t, app, map[string]any{
		"name":         "Cancellable",
		"trigger_type": "manual",
	})

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/actions", map[string]any{
		"type":          "wait",
		"delay_seconds": 3600,
		"sort_order":    0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/trigger", map[string]any{
		"contact_id": "contact-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var execution models.Execution
	require.NoError(t, json.Unmarshal(raw, &execution))
	require.Equal(t, models.ExecutionStatusWaiting, execution.Status)

	resp, _ = doJSON(t, app, http.MethodPost, "/executions/"+execution.ID+"/cancel", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = doJSON(t, app, http.MethodGet, "/executions/"+execution.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cancelled models.Execution
	require.NoError(t, json.Unmarshal(raw, &cancelled))
	assert.Equal(t, models.ExecutionStatusFailed, cancelled.Status)
}

func TestHealthEndpoints(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/livez", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}
