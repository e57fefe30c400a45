package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

// Prober checks upstream sources once.
type Prober interface {
	ProbeSources(ctx context.Context) []climate.SourceStatus
}

// Scheduler periodically probes the live upstream sources.
type Scheduler struct {
	scheduler *gocron.Scheduler
	prober    Prober
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. timeout bounds a single probe round.
func New(prober Prober, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		prober:    prober,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the probe job and starts the underlying scheduler. The
// first round runs immediately.
func (s *Scheduler) Start() error {
	if s.prober == nil {
		s.logger.Info("scheduler: no prober configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs one probe round.
func (s *Scheduler) RunOnce() {
	s.logger.Debug("scheduler: running source probe job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	statuses := s.prober.ProbeSources(ctx)
	healthy := 0
	for _, st := range statuses {
		if st.Healthy {
			healthy++
		}
	}
	s.logger.Info("scheduler: completed source probe job", "sources", len(statuses), "healthy", healthy)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
