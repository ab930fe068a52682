package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
)

const defaultSweepInterval = 5 * time.Second

// Scheduler resumes suspended executions from their durable wake records. A
// missed sweep (process restart) loses nothing; the next sweep picks the
// records up again.
type Scheduler struct {
	wakes    persistence.WakeRepository
	runner   *Runner
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(wakes persistence.WakeRepository, runner *Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &Scheduler{
		wakes:    wakes,
		runner:   runner,
		interval: interval,
		logger:   logger.With("module", "scheduler"),
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.InfoContext(ctx, "Wake sweep started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Wake sweep stopped")

			return
		case <-ticker.C:
			s.Sweep(ctx, time.Now().UTC())
		}
	}
}

// Sweep resumes every execution whose wake is due. Due wakes are independent
// and resume concurrently.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) {
	due, err := s.wakes.Due(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch due wakes", "error", err)

		return
	}

	if len(due) == 0 {
		return
	}

	s.logger.DebugContext(ctx, "Resuming due executions", "count", len(due))

	var wg sync.WaitGroup

	for _, wake := range due {
		wg.Add(1)

		go func(wake *models.PendingWake) {
			defer wg.Done()
			s.resume(ctx, wake)
		}(wake)
	}

	wg.Wait()
}

func (s *Scheduler) resume(ctx context.Context, wake *models.PendingWake) {
	execution, err := s.runner.Resume(ctx, wake.ExecutionID)
	if err != nil {
		// The wake record stays put and is retried on the next sweep.
		s.logger.WarnContext(ctx, "Failed to resume execution, will retry",
			"execution_id", wake.ExecutionID,
			"error", err)

		return
	}

	// A re-suspended execution has already upserted a fresh wake; consuming
	// this record would drop it.
	if execution.Status == models.ExecutionStatusWaiting {
		return
	}

	if err := s.wakes.Delete(ctx, wake.ExecutionID); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete consumed wake",
			"execution_id", wake.ExecutionID,
			"error", err)
	}
}
