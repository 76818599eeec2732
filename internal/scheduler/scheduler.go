package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Job is one independent fetch cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs every job once on Start and then on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	interval  time.Duration
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler.
func New(interval time.Duration, logger zerolog.Logger, jobs ...Job) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// a slow cycle never overlaps itself
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		jobs:      jobs,
		interval:  interval,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.jobs) == 0 {
		s.logger.Warn().Msg("no jobs configured; nothing to schedule")
		return nil
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	for _, job := range s.jobs {
		if _, err := s.scheduler.Every(s.interval).Tag(job.Name()).Do(s.run, job); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	s.logger.Info().Dur("interval", s.interval).Int("jobs", len(s.jobs)).Msg("scheduler started")
	return nil
}

func (s *Scheduler) run(job Job) {
	if s.ctx.Err() != nil {
		return
	}

	start := time.Now()
	s.logger.Debug().Str("job", job.Name()).Msg("running job")

	if err := job.Run(s.ctx); err != nil {
		s.logger.Warn().Err(err).Str("job", job.Name()).Msg("cycle aborted")
		return
	}
	s.logger.Debug().Str("job", job.Name()).Dur("took", time.Since(start)).Msg("completed job")
}

// Stop cancels in-flight cycles and stops future ones.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
