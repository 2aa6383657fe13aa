package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const tickJobName = "azkar-tick"

// Runner drives Scheduler.Tick on a fixed short period using gocron.
// Ticks never overlap: a tick that overruns the period delays the next one.
type Runner struct {
	scheduler *Scheduler
	cron      gocron.Scheduler
	logger    *slog.Logger

	mu   sync.Mutex
	job  gocron.Job
	tick time.Duration
}

// NewRunner creates a Runner ticking every tick.
func NewRunner(s *Scheduler, tick time.Duration, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cron, err := gocron.NewScheduler(gocron.WithClock(s.Clock()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	r := &Runner{
		scheduler: s,
		cron:      cron,
		logger:    logger,
		tick:      tick,
	}

	job, err := cron.NewJob(r.definition(tick), r.task(), r.jobOptions()...)
	if err != nil {
		_ = cron.Shutdown()
		return nil, fmt.Errorf("failed to create tick job: %w", err)
	}
	r.job = job

	return r, nil
}

func (r *Runner) definition(tick time.Duration) gocron.JobDefinition {
	return gocron.DurationJob(tick)
}

func (r *Runner) task() gocron.Task {
	return gocron.NewTask(func() {
		res := r.scheduler.Tick()
		if res.Kind == TickFired {
			r.logger.Debug("tick fired", "item_id", res.Item.ID, "daily_count", res.State.DailyCount)
		}
	})
}

func (r *Runner) jobOptions() []gocron.JobOption {
	return []gocron.JobOption{
		gocron.WithName(tickJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	}
}

// Tick returns the current tick period.
func (r *Runner) Tick() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}

// SetTick changes the tick period. The job is rebuilt in place.
func (r *Runner) SetTick(tick time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tick == r.tick {
		return nil
	}

	job, err := r.cron.Update(r.job.ID(), r.definition(tick), r.task(), r.jobOptions()...)
	if err != nil {
		return fmt.Errorf("failed to update tick job: %w", err)
	}
	r.job = job
	r.logger.Info("tick period changed", "from", r.tick, "to", tick)
	r.tick = tick
	return nil
}

// Run starts ticking and blocks until ctx is done. An in-flight tick is
// allowed to finish before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("starting scheduler", "tick", r.Tick())
	r.cron.Start()

	<-ctx.Done()

	r.logger.Info("stopping scheduler")
	if err := r.cron.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}
