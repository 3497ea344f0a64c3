package commands

import (
	"context"

	"git.home.luguber.info/inful/talentscout/internal/daemon"
	"git.home.luguber.info/inful/talentscout/internal/metrics"
)

// ServeCmd runs the API server with the scheduler, import watcher, and
// event publishing.
type ServeCmd struct {
	Host string `help:"Bind host (overrides config)"`
	Port int    `help:"Bind port (overrides config)"`
}

func (c *ServeCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	recorder := metrics.NewPrometheusRecorder(nil)

	a, err := buildApp(ctx, root.Config, g.Logger, recorder, true)
	if err != nil {
		return err
	}
	if c.Host != "" {
		a.cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		a.cfg.Server.Port = c.Port
	}

	d, err := daemon.New(daemon.Options{
		Config:   a.cfg,
		Deps:     a.serverDeps(),
		EventLog: a.eventLog,
		Notify:   a.notifier,
		Metrics:  recorder.HTTPHandler(),
		Logger:   a.logger,
		Recorder: recorder,
	})
	if err != nil {
		a.close()
		return err
	}
	// The daemon owns the event log and publisher from here on.
	return d.Run(ctx)
}
