// Package server exposes the REST API used by the web UI and by scripting
// against a running scout daemon. Handlers stay thin: decode, call the
// service layer, encode. Long-running operations are submitted to the task
// manager and answered with 202 + task id.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/artifacts"
	"git.home.luguber.info/inful/talentscout/internal/config"
	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/export"
	"git.home.luguber.info/inful/talentscout/internal/metrics"
	"git.home.luguber.info/inful/talentscout/internal/services"
	"git.home.luguber.info/inful/talentscout/internal/store"
	"git.home.luguber.info/inful/talentscout/internal/tasks"
)

const readHeaderTimeout = 10 * time.Second

// Deps collects the service layer the API is built on.
type Deps struct {
	Jobs      *services.JobService
	Discovery *services.DiscoveryService
	Composer  *services.ComposerService
	Profile   *services.ProfileService
	Learning  *services.LearningService
	Corpus    *services.CorpusService
	Export    *export.Service
	Artifacts *artifacts.Writer
	Tasks     *tasks.Manager
}

// Server is the HTTP API server.
type Server struct {
	cfg      *config.Config
	deps     Deps
	logger   *slog.Logger
	recorder metrics.Recorder
	adapter  *errors.HTTPErrorAdapter
	metricsH http.Handler
	apiKey   string

	srv *http.Server
	ln  net.Listener
}

// New wires the API server. The API key is loaded from the data directory,
// generated on first use. metricsHandler may be nil; /metrics then 404s.
func New(cfg *config.Config, deps Deps, metricsHandler http.Handler, logger *slog.Logger, recorder metrics.Recorder) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	key, generated, err := store.LoadOrCreateAPIKey(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if generated {
		logger.Info("api key generated", slog.String("key", key))
	}
	return &Server{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		recorder: recorder,
		adapter:  errors.NewHTTPErrorAdapter(logger),
		metricsH: metricsHandler,
		apiKey:   key,
	}, nil
}

// Start binds the listener and serves in the background. Binding up front
// surfaces an occupied port before any goroutine is running.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Addr())
	if err != nil {
		return errors.NetworkError(s.cfg.Server.Addr(), err).WithContext("operation", "bind api listener")
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("api server error", "error", err)
		}
	}()
	s.logger.Info("api server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listener address, empty before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return errors.InternalError("api server shutdown", err)
	}
	s.logger.Info("api server stopped")
	return nil
}

// Handler builds the full route table wrapped in the middleware chain.
// Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.metricsH != nil {
		mux.Handle("GET /metrics", s.metricsH)
	}

	mux.Handle("GET /api/v1/jobs", s.handle(s.listJobs))
	mux.Handle("POST /api/v1/jobs/import", s.handle(s.importJob))
	mux.Handle("GET /api/v1/jobs/{id}", s.handle(s.getJob))
	mux.Handle("DELETE /api/v1/jobs/{id}", s.handle(s.deleteJob))
	mux.Handle("POST /api/v1/jobs/{id}/apply", s.handle(s.applyJob))
	mux.Handle("POST /api/v1/jobs/{id}/stage", s.handle(s.setStage))
	mux.Handle("POST /api/v1/jobs/{id}/close", s.handle(s.closeJob))
	mux.Handle("POST /api/v1/jobs/{id}/reopen", s.handle(s.reopenJob))
	mux.Handle("POST /api/v1/jobs/{id}/notes", s.handle(s.addNote))
	mux.Handle("GET /api/v1/jobs/{id}/history", s.handle(s.jobHistory))
	mux.Handle("POST /api/v1/jobs/{id}/analyze", s.handle(s.analyzeJob))
	mux.Handle("POST /api/v1/jobs/{id}/resume", s.handle(s.generateResume))
	mux.Handle("POST /api/v1/jobs/{id}/cover-letter", s.handle(s.generateCoverLetter))
	mux.Handle("POST /api/v1/jobs/{id}/interview-prep", s.handle(s.interviewPrep))
	mux.Handle("GET /api/v1/jobs/{id}/artifacts", s.handle(s.listArtifacts))
	mux.Handle("GET /api/v1/artifacts/{id}/{kind}", s.handle(s.serveArtifact))

	mux.Handle("GET /api/v1/pipeline", s.handle(s.pipelineOverview))
	mux.Handle("GET /api/v1/pipeline/next", s.handle(s.pipelineNext))
	mux.Handle("GET /api/v1/pipeline/stats", s.handle(s.pipelineStats))

	mux.Handle("GET /api/v1/profile", s.handle(s.getProfile))
	mux.Handle("POST /api/v1/profile/refresh", s.handle(s.refreshProfile))

	mux.Handle("POST /api/v1/discovery/companies", s.handle(s.scoutCompanies))
	mux.Handle("POST /api/v1/discovery/research", s.handle(s.researchCompany))
	mux.Handle("POST /api/v1/learning/run", s.handle(s.runLearning))

	mux.Handle("GET /api/v1/corpus/stats", s.handle(s.corpusStats))
	mux.Handle("POST /api/v1/corpus/build", s.handle(s.buildCorpus))

	mux.Handle("GET /api/v1/tasks", s.handle(s.listTasks))
	mux.Handle("GET /api/v1/tasks/{id}", s.handle(s.getTask))

	mux.Handle("GET /api/v1/export/pipeline.xlsx", s.handle(s.exportWorkbook))

	return s.chain(mux)
}

// handle adapts an error-returning handler to http.Handler, routing failures
// through the shared error adapter.
func (s *Server) handle(fn func(w http.ResponseWriter, r *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.adapter.WriteErrorResponse(w, r, err)
		}
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// submit queues fn on the task manager and answers 202 with the pending task.
func (s *Server) submit(w http.ResponseWriter, kind, jobID string, fn tasks.Fn) error {
	task, err := s.deps.Tasks.Submit(kind, jobID, fn)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusAccepted, task)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
