// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"vetiver/internal/shared/biztime"
	"vetiver/internal/shared/config"
	"vetiver/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// JobGuard serializes runs of a named job across process instances.
type JobGuard interface {
	Run(ctx context.Context, jobName string, fn func(ctx context.Context) error) error
}

// RunRecorder persists the start instant of each completed job run, so that
// cadence decisions survive process restarts.
type RunRecorder interface {
	LastRun(ctx context.Context, jobName string) (time.Time, error)
	MarkRun(ctx context.Context, jobName string, at time.Time) error
}

// cadenceGrace absorbs timer jitter when comparing the recorded last run
// against the job cadence. Without it the steady-state tick would always
// land a hair inside the cadence and be skipped.
const cadenceGrace = time.Minute

// SchedulerManager manages all scheduled jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	guard     JobGuard
	recorder  RunRecorder
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
// It initializes gocron with the business timezone.
func NewSchedulerManager(guard JobGuard, recorder RunRecorder, log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		guard:     guard,
		recorder:  recorder,
		logger:    log,
	}, nil
}

// RegisterCycleJobs registers the cycle engine's batch jobs:
// - Tag-change sweep on the sync cadence
// - Drift-correction sweep and early-reset trigger on the check cadence
// A cadence of zero minutes disables the corresponding jobs.
func (m *SchedulerManager) RegisterCycleJobs(
	cfg *config.CycleConfig,
	tagChangeSweepJob BatchJob,
	driftSweepJob BatchJob,
	earlyResetJob BatchJob,
) error {
	if !cfg.Enabled {
		m.logger.Infow("cycle engine disabled, no jobs registered")
		return nil
	}

	if cfg.SyncIntervalMinutes > 0 {
		interval := time.Duration(cfg.SyncIntervalMinutes) * time.Minute
		_, err := m.scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				m.runGuarded(ctx, "cycle-tag-change-sweep", interval, tagChangeSweepJob)
			}),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithTags("cycle", "tag-change-sweep"),
			gocron.WithName("cycle-tag-change-sweep"),
		)
		if err != nil {
			return err
		}
		m.logger.Infow("registered tag-change sweep job", "interval", interval)
	}

	if cfg.CheckIntervalMinutes > 0 {
		interval := time.Duration(cfg.CheckIntervalMinutes) * time.Minute
		_, err := m.scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				m.runGuarded(ctx, "cycle-drift-sweep", interval, driftSweepJob)
				m.runGuarded(ctx, "cycle-early-reset", interval, earlyResetJob)
			}),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithTags("cycle", "drift-sweep", "early-reset"),
			gocron.WithName("cycle-check"),
		)
		if err != nil {
			return err
		}
		m.logger.Infow("registered drift-sweep and early-reset jobs", "interval", interval)
	}

	return nil
}

// runGuarded executes the job under its distributed lock and records the run.
// A run recorded less than one cadence ago skips the execution, so a restart
// with WithStartImmediately does not double-fire the jobs. Lock contention
// also skips the run; only infrastructure failures surface as errors in the
// log.
func (m *SchedulerManager) runGuarded(ctx context.Context, jobName string, every time.Duration, job BatchJob) {
	startTime := biztime.NowUTC()

	if m.recorder != nil {
		last, err := m.recorder.LastRun(ctx, jobName)
		if err != nil {
			m.logger.Warnw("failed to read last job run, running anyway", "job", jobName, "error", err)
		} else if !last.IsZero() && startTime.Sub(last) < every-cadenceGrace {
			m.logger.Debugw("skipping job, last run within cadence",
				"job", jobName, "last_run", last, "cadence", every)
			return
		}
	}

	err := m.guard.Run(ctx, jobName, func(ctx context.Context) error {
		count, err := job.Execute(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			m.logger.Infow("batch job processed items",
				"job", jobName,
				"count", count,
				"duration", time.Since(startTime),
			)
		} else {
			m.logger.Debugw("batch job found nothing to process",
				"job", jobName,
				"duration", time.Since(startTime),
			)
		}
		if m.recorder != nil {
			if err := m.recorder.MarkRun(ctx, jobName, startTime); err != nil {
				m.logger.Warnw("failed to record job run", "job", jobName, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		// Cancelled context means graceful shutdown, not a job failure.
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("batch job failed",
			"job", jobName,
			"error", err,
			"duration", time.Since(startTime),
		)
	}
}

// ========================================
// Scheduler Lifecycle Methods
// ========================================

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
