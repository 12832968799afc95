package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-mood/internal/logger"
)

// Refresher replays the last weather query.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Scheduler periodically refreshes the current weather query.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Refresher
	interval  time.Duration
}

// New creates a new Scheduler. A non-positive interval disables it.
func New(interval time.Duration, target Refresher) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		target:    target,
		interval:  interval,
	}
}

// Start schedules the periodic refresh and starts the underlying scheduler.
// The first run happens one interval after Start.
func (s *Scheduler) Start() error {
	log := logger.GetLogger()

	if s.interval <= 0 {
		log.Info("scheduler: refresh interval not set; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(func() {
		log.Debug("scheduler: refreshing weather")
		s.target.Refresh(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Infow("scheduler: started", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
