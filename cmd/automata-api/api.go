// Package main provides the Automata API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/driftmail/automata/pkg/condition"
	"github.com/driftmail/automata/pkg/eventbus"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/registry"
	"github.com/driftmail/automata/pkg/runtime"
	"github.com/driftmail/automata/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type API struct {
	logger   *slog.Logger
	store    persistence.Persistence
	registry *registry.Registry
	eventBus eventbus.EventBus
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:   logger,
		store:    store,
		registry: reg,
		eventBus: eventBus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	tracker := runtime.NewTracker(a.store.ExecutionRepository(), a.logger)
	evaluator := condition.NewEvaluator(a.logger)
	runner := runtime.NewRunner(a.store, tracker, a.registry, evaluator, a.eventBus, nil, a.logger)
	matcher := runtime.NewMatcher(a.store.WorkflowRepository(), runner, nil, a.logger)

	handlers := web.NewAPIHandlers(a.store, matcher, runner, a.registry, a.validate, a.logger)

	return web.NewApp(handlers)
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
