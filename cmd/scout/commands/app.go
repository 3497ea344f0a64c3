package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/talentscout/internal/artifacts"
	"git.home.luguber.info/inful/talentscout/internal/config"
	"git.home.luguber.info/inful/talentscout/internal/corpus"
	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/eventlog"
	"git.home.luguber.info/inful/talentscout/internal/export"
	"git.home.luguber.info/inful/talentscout/internal/fetch"
	"git.home.luguber.info/inful/talentscout/internal/llm"
	"git.home.luguber.info/inful/talentscout/internal/metrics"
	"git.home.luguber.info/inful/talentscout/internal/notify"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/retry"
	"git.home.luguber.info/inful/talentscout/internal/server"
	"git.home.luguber.info/inful/talentscout/internal/services"
	"git.home.luguber.info/inful/talentscout/internal/store"
	"git.home.luguber.info/inful/talentscout/internal/tasks"
)

// app is the assembled application: config, stores, and services. One-shot
// commands build it, run, and close it; serve mode hands it to the daemon.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	eventLog *eventlog.SQLite
	notifier *notify.Publisher
	client   *llm.Client

	tracker   *pipeline.Tracker
	artifacts *artifacts.Writer
	jobs      *services.JobService
	discovery *services.DiscoveryService
	composer  *services.ComposerService
	profile   *services.ProfileService
	learning  *services.LearningService
	corpus    *services.CorpusService
	export    *export.Service
	tasks     *tasks.Manager
}

// buildApp loads configuration and wires the service graph. In serve mode
// the transition fan-out additionally carries the NATS publisher, and an
// unreachable broker is fatal; one-shot commands log to SQLite only.
func buildApp(ctx context.Context, configPath string, logger *slog.Logger, recorder metrics.Recorder, serve bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	eventLog, err := eventlog.Open(cfg.EventLogPath())
	if err != nil {
		return nil, err
	}

	sinks := []pipeline.EventSink{eventLog}
	var notifier *notify.Publisher
	if serve && cfg.Events.NATSEnabled {
		notifier, err = notify.Connect(ctx, cfg.Events.NATSURL, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			_ = eventLog.Close()
			return nil, err
		}
		sinks = append(sinks, notifier)
	}

	policy := retry.DefaultPolicy()
	if cfg.LLM.Retries > 0 {
		policy.MaxRetries = cfg.LLM.Retries
	}
	client, err := llm.New(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout.Std(),
		Retry:       policy,
	}, logger, llm.WithRecorder(recorder))
	if err != nil {
		// Commands that never call the model work without a key; the
		// services return a config error when a nil client is needed.
		if !errors.IsCategory(err, errors.CategoryConfig) {
			_ = eventLog.Close()
			return nil, err
		}
		client = nil
	}

	records := store.NewPipelineFile(cfg.DataDir)
	tracker := pipeline.NewTracker(records, logger,
		pipeline.WithEventSink(pipeline.NewFanoutSink(logger, sinks...)),
		pipeline.WithRecorder(recorder))

	jobsStore := store.NewJobs(cfg.DataDir)
	deleted := store.NewDeletedJobs(cfg.DataDir)
	profileStore := store.NewProfile(cfg.DataDir)
	writer := artifacts.NewWriter(cfg.DataDir)
	crp := corpus.New(cfg.DataDir, logger)
	fetcher := fetch.New(nil, logger)

	repos := make([]corpus.RepoSource, 0, len(cfg.Corpus.Repos))
	for _, r := range cfg.Corpus.Repos {
		repos = append(repos, corpus.RepoSource{URL: r.URL, Branch: r.Branch, Name: r.Name})
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		recorder:  recorder,
		eventLog:  eventLog,
		notifier:  notifier,
		client:    client,
		tracker:   tracker,
		artifacts: writer,
		jobs:      services.NewJobService(jobsStore, tracker, deleted, writer, fetcher, client, logger, recorder),
		discovery: services.NewDiscoveryService(store.NewCompanies(cfg.DataDir), store.NewResearch(cfg.DataDir), profileStore, client, logger),
		composer:  services.NewComposerService(jobsStore, tracker, writer, profileStore, crp, client, cfg.Profile.BaseResume, logger),
		profile:   services.NewProfileService(profileStore, client, cfg.Profile.BaseResume, logger),
		learning:  services.NewLearningService(deleted, records, profileStore, client, logger),
		corpus:    services.NewCorpusService(crp, cfg.Corpus.Dirs, repos, logger),
		export:    export.NewService(records, jobsStore, logger),
		tasks:     tasks.NewManager(logger, tasks.WithRecorder(recorder)),
	}
	return a, nil
}

// close releases the event log and broker connection of a one-shot command.
// The daemon owns these in serve mode and closes them itself.
func (a *app) close() {
	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.eventLog != nil {
		if err := a.eventLog.Close(); err != nil {
			a.logger.Warn("event log close failed", "error", err)
		}
	}
}

// serverDeps bundles the services for the API server and daemon.
func (a *app) serverDeps() server.Deps {
	return server.Deps{
		Jobs:      a.jobs,
		Discovery: a.discovery,
		Composer:  a.composer,
		Profile:   a.profile,
		Learning:  a.learning,
		Corpus:    a.corpus,
		Export:    a.export,
		Artifacts: a.artifacts,
		Tasks:     a.tasks,
	}
}
