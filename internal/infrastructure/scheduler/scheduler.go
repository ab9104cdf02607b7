// Package scheduler runs periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var timeNow = time.Now

// Job is a named unit of periodic work. An empty Spec disables the job.
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler wraps a cron runner with logging and per-run timeouts.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	ctx    context.Context
}

// New creates a Scheduler. Jobs receive contexts derived from ctx.
func New(ctx context.Context, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
		ctx:    ctx,
	}
}

// Add registers job. Returns false when the job is disabled.
func (s *Scheduler) Add(job Job) (bool, error) {
	if job.Spec == "" {
		s.logger.Info("job disabled", zap.String("job", job.Name))
		return false, nil
	}
	if _, err := s.cron.AddFunc(job.Spec, s.wrap(job)); err != nil {
		return false, fmt.Errorf("scheduling %s: %w", job.Name, err)
	}
	s.logger.Info("job scheduled", zap.String("job", job.Name), zap.String("spec", job.Spec))
	return true, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) wrap(job Job) func() {
	return func() {
		ctx := s.ctx
		if job.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, job.Timeout)
			defer cancel()
		}

		start := timeNow()
		s.logger.Info("running scheduled job", zap.String("job", job.Name))
		if err := job.Run(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job completed", zap.String("job", job.Name), zap.Duration("took", timeNow().Sub(start)))
	}
}
