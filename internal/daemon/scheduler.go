package daemon

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
)

// Scheduler wraps gocron for the daemon's periodic jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

func newScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.InternalError("create scheduler", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Every registers a named duration job.
func (s *Scheduler) Every(interval time.Duration, name string, fn func()) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
	)
	if err != nil {
		return errors.InternalError("register scheduled job", err).WithContext("job", name)
	}
	s.logger.Info("scheduled job registered",
		logfields.Name(name),
		slog.Duration("interval", interval))
	return nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return errors.InternalError("scheduler shutdown", err)
	}
	return nil
}
