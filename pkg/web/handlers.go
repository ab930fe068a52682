// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/registry"
	"github.com/driftmail/automata/pkg/runtime"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const defaultPageSize = 50

type APIHandlers struct {
	store     persistence.Persistence
	matcher   *runtime.Matcher
	runner    *runtime.Runner
	registry  *registry.Registry
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(
	store persistence.Persistence,
	matcher *runtime.Matcher,
	runner *runtime.Runner,
	reg *registry.Registry,
	validate *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		store:     store,
		matcher:   matcher,
		runner:    runner,
		registry:  reg,
		validator: validate,
		logger:    logger.With("module", "web"),
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.store.WorkflowRepository().All(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	if status := c.Query("status"); status != "" {
		filtered := workflows[:0]

		for _, workflow := range workflows {
			if workflow.Status == models.WorkflowStatus(status) {
				filtered = append(filtered, workflow)
			}
		}

		workflows = filtered
	}

	if search := c.Query("search"); search != "" {
		filtered := workflows[:0]

		for _, workflow := range workflows {
			if strings.Contains(strings.ToLower(workflow.Name), strings.ToLower(search)) {
				filtered = append(filtered, workflow)
			}
		}

		workflows = filtered
	}

	limit, offset, err := pagination(c)
	if err != nil {
		return badRequest(c, "Invalid pagination parameters: "+err.Error())
	}

	total := len(workflows)

	if offset > total {
		offset = total
	}

	end := total
	if offset+limit < end {
		end = offset + limit
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows[offset:end],
		"total_count": total,
		"pagination": fiber.Map{
			"limit":  limit,
			"offset": offset,
		},
	})
}

func pagination(c fiber.Ctx) (limit, offset int, err error) {
	limit = defaultPageSize

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, err
		}

		if limit <= 0 {
			return 0, 0, errors.New("limit must be positive")
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, err
		}

		if offset < 0 {
			return 0, 0, errors.New("offset must not be negative")
		}
	}

	return limit, offset, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.store.WorkflowRepository().ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	now := time.Now().UTC()
	workflow := &models.Workflow{
		Name:          req.Name,
		Description:   req.Description,
		Status:        models.WorkflowStatusDraft,
		TriggerType:   models.TriggerType(req.TriggerType),
		TriggerConfig: req.TriggerConfig,
		Actions:       []*models.Action{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.store.WorkflowRepository().Save(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

// validStatusTransition enforces the operator lifecycle:
// draft->active, active<->paused. No path leads back to draft.
func validStatusTransition(from, to models.WorkflowStatus) bool {
	if from == to {
		return true
	}

	switch from {
	case models.WorkflowStatusDraft:
		return to == models.WorkflowStatusActive
	case models.WorkflowStatusActive:
		return to == models.WorkflowStatusPaused
	case models.WorkflowStatusPaused:
		return to == models.WorkflowStatusActive
	default:
		return false
	}
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.store.WorkflowRepository().ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if req.Status != nil {
		status := models.WorkflowStatus(*req.Status)
		if !validStatusTransition(existing.Status, status) {
			return badRequest(c, "invalid status transition "+string(existing.Status)+" -> "+string(status))
		}

		existing.Status = status
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.TriggerType != nil {
		existing.TriggerType = models.TriggerType(*req.TriggerType)
	}

	if req.TriggerConfig != nil {
		existing.TriggerConfig = req.TriggerConfig
	}

	existing.UpdatedAt = time.Now().UTC()

	if err := h.store.WorkflowRepository().Save(c.Context(), existing); err != nil {
		return internalError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.store.WorkflowRepository().Delete(c.Context(), c.Params("id")); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateAction(c fiber.Ctx) error {
	var req CreateActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !models.ValidActionType(models.ActionType(req.Type)) {
		return badRequest(c, "unknown action type: "+req.Type)
	}

	workflow, err := h.store.WorkflowRepository().ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handlePersistenceError(c, err)
	}

	now := time.Now().UTC()
	action := &models.Action{
		WorkflowID:   workflow.ID,
		Type:         models.ActionType(req.Type),
		Config:       req.Config,
		DelaySeconds: req.DelaySeconds,
		SortOrder:    req.SortOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.WorkflowRepository().SaveAction(c.Context(), action); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(action)
}

func (h *APIHandlers) UpdateAction(c fiber.Ctx) error {
	var req UpdateActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.store.WorkflowRepository().ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handlePersistenceError(c, err)
	}

	var action *models.Action

	for _, candidate := range workflow.Actions {
		if candidate.ID == c.Params("actionId") {
			action = candidate

			break
		}
	}

	if action == nil {
		return notFound(c, "action not found")
	}

	if req.Config != nil {
		action.Config = req.Config
	}

	if req.DelaySeconds != nil {
		action.DelaySeconds = *req.DelaySeconds
	}

	if req.SortOrder != nil {
		action.SortOrder = *req.SortOrder
	}

	action.UpdatedAt = time.Now().UTC()

	if err := h.store.WorkflowRepository().SaveAction(c.Context(), action); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(action)
}

func (h *APIHandlers) DeleteAction(c fiber.Ctx) error {
	err := h.store.WorkflowRepository().DeleteAction(c.Context(), c.Params("id"), c.Params("actionId"))
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ReorderActions(c fiber.Ctx) error {
	var req ReorderActionsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	err := h.store.WorkflowRepository().ReorderActions(c.Context(), c.Params("id"), req.ActionIDs)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	workflow, err := h.store.WorkflowRepository().ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(workflow.SortedActions())
}

func (h *APIHandlers) TriggerWorkflow(c fiber.Ctx) error {
	var req TriggerWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.matcher.Manual(c.Context(), c.Params("id"), req.ContactID)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	// 404 for unknown workflows rather than an empty page.
	if _, err := h.store.WorkflowRepository().ByID(c.Context(), c.Params("id")); err != nil {
		return handlePersistenceError(c, err)
	}

	limit, offset, err := pagination(c)
	if err != nil {
		return badRequest(c, "Invalid pagination parameters: "+err.Error())
	}

	filter := persistence.ExecutionFilter{
		WorkflowID: c.Params("id"),
		Limit:      limit,
		Offset:     offset,
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ExecutionStatus(statusStr)
		filter.Status = &status
	}

	page, err := h.store.ExecutionRepository().List(c.Context(), filter)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  page.Executions,
		"total_count": page.TotalCount,
		"pagination": fiber.Map{
			"limit":  limit,
			"offset": offset,
		},
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.store.ExecutionRepository().ByID(c.Context(), c.Params("id"))
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	if err := h.runner.Cancel(c.Context(), c.Params("id")); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOK := h.registry.HealthCheck()

	repoOK := true
	repositoryCheck := "ok"

	if err := h.store.HealthCheck(c.Context()); err != nil {
		repoOK = false
		repositoryCheck = err.Error()
	}

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOK && repoOK {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
