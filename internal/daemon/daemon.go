// Package daemon runs serve mode: the HTTP API plus the background machinery
// around it. The daemon owns lifecycle only; all domain wiring arrives
// pre-built through Options.
package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/config"
	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/eventlog"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
	"git.home.luguber.info/inful/talentscout/internal/metrics"
	"git.home.luguber.info/inful/talentscout/internal/notify"
	"git.home.luguber.info/inful/talentscout/internal/server"
)

// stopTimeout bounds graceful shutdown of every component combined.
const stopTimeout = 30 * time.Second

// Options carries the assembled application into the daemon.
type Options struct {
	Config   *config.Config
	Deps     server.Deps
	EventLog *eventlog.SQLite
	Notify   *notify.Publisher
	Metrics  http.Handler
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Daemon composes the API server, scheduler, and import watcher.
type Daemon struct {
	cfg       *config.Config
	deps      server.Deps
	eventLog  *eventlog.SQLite
	notify    *notify.Publisher
	logger    *slog.Logger
	recorder  metrics.Recorder
	api       *server.Server
	scheduler *Scheduler
	watcher   *ImportWatcher
}

// New wires the daemon from pre-built application parts.
func New(opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	api, err := server.New(opts.Config, opts.Deps, opts.Metrics, logger, recorder)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      opts.Config,
		deps:     opts.Deps,
		eventLog: opts.EventLog,
		notify:   opts.Notify,
		logger:   logger,
		recorder: recorder,
		api:      api,
	}

	if opts.Config.Scheduler.Enabled {
		sched, err := newScheduler(logger)
		if err != nil {
			return nil, err
		}
		d.scheduler = sched
	}

	if opts.Config.Watch.Enabled {
		watcher, err := NewImportWatcher(opts.Config.ImportDir(), d.importFile, logger)
		if err != nil {
			return nil, err
		}
		d.watcher = watcher
	}

	return d, nil
}

// Run starts everything and blocks until ctx is cancelled or a termination
// signal arrives, then shuts down with a bounded timeout.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Start(ctx); err != nil {
		return err
	}
	d.logger.Info("daemon running", slog.String("addr", d.api.Addr()))

	<-ctx.Done()
	d.logger.Info("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return d.Stop(stopCtx)
}

// Start brings up the task workers, API server, scheduler jobs, and watcher.
func (d *Daemon) Start(ctx context.Context) error {
	d.deps.Tasks.Start(ctx)

	if err := d.api.Start(ctx); err != nil {
		return err
	}

	if d.scheduler != nil {
		if err := d.registerJobs(ctx); err != nil {
			return err
		}
		d.scheduler.Start()
	}

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop shuts components down in reverse start order. All errors are
// collected; shutdown keeps going past individual failures.
func (d *Daemon) Stop(ctx context.Context) error {
	var errs []error

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.api.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	d.deps.Tasks.Stop()

	if d.notify != nil {
		d.notify.Close()
	}
	if d.eventLog != nil {
		if err := d.eventLog.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.InternalError("daemon shutdown", errs[0]).
			WithContext("failures", len(errs))
	}
	d.logger.Info("daemon stopped")
	return nil
}

// registerJobs installs the config-gated background jobs.
func (d *Daemon) registerJobs(ctx context.Context) error {
	if interval := d.cfg.Scheduler.ImportInterval.Std(); interval > 0 {
		if err := d.scheduler.Every(interval, "import-sweep", func() {
			d.sweepImports(ctx)
		}); err != nil {
			return err
		}
	}
	if interval := d.cfg.Scheduler.ReminderInterval.Std(); interval > 0 {
		if err := d.scheduler.Every(interval, "follow-up-reminder", func() {
			d.remindStale()
		}); err != nil {
			return err
		}
	}
	if interval := d.cfg.Scheduler.LearningInterval.Std(); interval > 0 {
		if err := d.scheduler.Every(interval, "learning-run", func() {
			d.runLearning(ctx)
		}); err != nil {
			return err
		}
	}
	return nil
}

// sweepImports picks up posting files dropped while the watcher was down.
func (d *Daemon) sweepImports(ctx context.Context) {
	report, err := d.deps.Jobs.ImportDir(ctx, d.cfg.ImportDir())
	if err != nil {
		if errors.IsCategory(err, errors.CategoryNotFound) {
			return
		}
		d.logger.Error("import sweep failed", logfields.Error(err))
		return
	}
	if len(report.Imported) > 0 || len(report.Failed) > 0 {
		d.logger.Info("import sweep done",
			slog.Int("imported", len(report.Imported)),
			slog.Int("failed", len(report.Failed)))
	}
}

// remindStale logs applications past the follow-up window and updates the
// overdue gauge.
func (d *Daemon) remindStale() {
	board, err := d.deps.Jobs.ActionBoard(time.Now().UTC(), d.cfg.Pipeline.FollowUpDays)
	if err != nil {
		d.logger.Error("reminder sweep failed", logfields.Error(err))
		return
	}
	d.recorder.SetOverdueFollowups(len(board.Overdue))
	for _, s := range board.Overdue {
		d.logger.Warn("follow-up overdue",
			logfields.JobID(s.ID),
			logfields.Company(s.Company),
			logfields.Stage(string(s.Stage)),
			slog.Int("days_since_update", s.DaysSinceUpdate))
	}
}

// runLearning refreshes learned preferences on schedule. Not enough signal
// is the normal early state, logged quietly.
func (d *Daemon) runLearning(ctx context.Context) {
	if _, err := d.deps.Learning.Learn(ctx); err != nil {
		if errors.IsCategory(err, errors.CategoryValidation) {
			d.logger.Debug("scheduled learning skipped", logfields.Error(err))
			return
		}
		d.logger.Error("scheduled learning failed", logfields.Error(err))
		return
	}
	d.logger.Info("scheduled learning done")
}

// importFile is the watcher callback.
func (d *Daemon) importFile(ctx context.Context, path string) error {
	res, err := d.deps.Jobs.ImportFile(ctx, path)
	if err != nil {
		return err
	}
	d.logger.Info("watched posting imported",
		logfields.JobID(res.Posting.ID),
		logfields.Path(path),
		slog.Bool("existed", res.Existed))
	return nil
}
