package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/driftmail/automata/pkg/condition"
	"github.com/driftmail/automata/pkg/eventbus"
	"github.com/driftmail/automata/pkg/events"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/registry"
	"github.com/driftmail/automata/pkg/runtime"
	"go.opentelemetry.io/otel/trace"
)

// Engine consumes contact events, fires schedule triggers once per minute and
// sweeps due wakes. One engine process drives every active workflow.
type Engine struct {
	id            string
	logger        *slog.Logger
	store         persistence.Persistence
	registry      *registry.Registry
	eventBus      eventbus.EventBus
	tracer        trace.Tracer
	sweepInterval time.Duration

	matcher   *runtime.Matcher
	scheduler *runtime.Scheduler
}

func NewEngine(
	id string,
	store persistence.Persistence,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
	sweepInterval time.Duration,
	logger *slog.Logger,
	registry *registry.Registry,
) *Engine {
	engine := &Engine{
		id:            id,
		logger:        logger.With("engine_id", id),
		store:         store,
		registry:      registry,
		eventBus:      eventBus,
		tracer:        tracer,
		sweepInterval: sweepInterval,
	}

	tracker := runtime.NewTracker(store.ExecutionRepository(), engine.logger)
	evaluator := condition.NewEvaluator(engine.logger)
	runner := runtime.NewRunner(store, tracker, registry, evaluator, eventBus, tracer, engine.logger)

	engine.matcher = runtime.NewMatcher(store.WorkflowRepository(), runner, nil, engine.logger)
	engine.scheduler = runtime.NewScheduler(store.WakeRepository(), runner, sweepInterval, engine.logger)

	return engine
}

// Start blocks until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.InfoContext(ctx, "Starting automation engine")

	e.eventBus.Handle(events.ContactEventType, e.handleContactEvent)

	if err := e.eventBus.Subscribe(ctx, events.ContactTopic); err != nil {
		e.logger.ErrorContext(ctx, "Failed to subscribe to contact topic", "error", err)

		return err
	}

	go e.scheduler.Start(ctx)
	go e.runScheduleTriggers(ctx)

	e.logger.InfoContext(ctx, "Engine started successfully")

	<-ctx.Done()
	e.logger.Info("Shutting down engine...")

	return nil
}

func (e *Engine) handleContactEvent(ctx context.Context, event any) error {
	contactEvent, ok := event.(*events.ContactEvent)
	if !ok {
		e.logger.ErrorContext(ctx, "Invalid event type for ContactEvent")

		return nil
	}

	logger := e.logger.With(
		"event_name", contactEvent.Name,
		"contact_id", contactEvent.ContactID,
		"event_id", contactEvent.ID,
	)
	logger.InfoContext(ctx, "Processing contact event")

	return e.matcher.OnEvent(ctx, contactEvent.Name, contactEvent.ContactID, contactEvent.Payload)
}

// runScheduleTriggers evaluates cron expressions once per wall-clock minute.
// Ticks are aligned to the start of the minute so a "*/5" expression fires at
// exactly :00, :05 and so on.
func (e *Engine) runScheduleTriggers(ctx context.Context) {
	now := time.Now()
	next := now.Truncate(time.Minute).Add(time.Minute)

	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-timer.C:
			if err := e.matcher.OnSchedule(ctx, tick); err != nil {
				e.logger.ErrorContext(ctx, "Schedule trigger pass failed", "error", err)
			}

			next = next.Add(time.Minute)
			timer.Reset(time.Until(next))
		}
	}
}
