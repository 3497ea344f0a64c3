// Package services is the operation layer between the transports (CLI, HTTP)
// and the stores: importing postings, discovery, document generation,
// profile extraction, and preference learning. Every error flows through
// internal/errors kinds.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/artifacts"
	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/fetch"
	"git.home.luguber.info/inful/talentscout/internal/llm"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
	"git.home.luguber.info/inful/talentscout/internal/metrics"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

// JobService owns posting import and the pipeline operations exposed to the
// CLI and API.
type JobService struct {
	jobs      *store.Jobs
	tracker   *pipeline.Tracker
	deleted   *store.DeletedJobs
	artifacts *artifacts.Writer
	fetcher   *fetch.Fetcher
	client    *llm.Client
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// NewJobService wires the job service. fetcher and client may be nil; the
// operations that need them fail with a config error when missing.
func NewJobService(
	jobs *store.Jobs,
	tracker *pipeline.Tracker,
	deleted *store.DeletedJobs,
	writer *artifacts.Writer,
	fetcher *fetch.Fetcher,
	client *llm.Client,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &JobService{
		jobs:      jobs,
		tracker:   tracker,
		deleted:   deleted,
		artifacts: writer,
		fetcher:   fetcher,
		client:    client,
		logger:    logger,
		recorder:  recorder,
	}
}

// ListFilter narrows List output. Stage filters on the pipeline record.
type ListFilter struct {
	Location string
	Company  string
	Source   string
	Stage    string
}

// List returns postings matching the filter, newest import first.
func (s *JobService) List(filter ListFilter) ([]store.JobPosting, error) {
	postings, err := s.jobs.List(store.ListFilter{
		Location: filter.Location,
		Company:  filter.Company,
		Source:   filter.Source,
	})
	if err != nil {
		return nil, err
	}
	if filter.Stage == "" {
		return postings, nil
	}
	stage, err := pipeline.ParseStage(filter.Stage)
	if err != nil {
		return nil, err
	}
	var out []store.JobPosting
	for _, p := range postings {
		rec, err := s.tracker.Get(p.ID)
		if err != nil {
			if errors.IsCategory(err, errors.CategoryNotFound) {
				continue
			}
			return nil, err
		}
		if rec.Stage == stage {
			out = append(out, p)
		}
	}
	return out, nil
}

// Detail bundles a posting with its pipeline state.
type Detail struct {
	Posting store.JobPosting      `json:"posting"`
	Record  pipeline.Record       `json:"record"`
	History []pipeline.Transition `json:"history"`
}

// Get returns the posting plus pipeline record and history. Postings without
// a pipeline record (never imported through the service) still resolve; the
// record is zero in that case.
func (s *JobService) Get(id string) (Detail, error) {
	posting, err := s.jobs.Get(id)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Posting: posting}
	rec, err := s.tracker.Get(id)
	if err == nil {
		detail.Record = rec
		detail.History = rec.History
	} else if !errors.IsCategory(err, errors.CategoryNotFound) {
		return Detail{}, err
	}
	return detail, nil
}

// parsedPosting is the LLM extraction of raw posting text.
type parsedPosting struct {
	Company  string `json:"company"`
	Title    string `json:"title"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
}

// ImportResult reports one import.
type ImportResult struct {
	Posting store.JobPosting `json:"posting"`
	Record  pipeline.Record  `json:"record"`
	Existed bool             `json:"existed"`
}

// ImportURL fetches a posting URL and imports it.
func (s *JobService) ImportURL(ctx context.Context, url string) (ImportResult, error) {
	if s.fetcher == nil {
		return ImportResult{}, errors.ConfigRequired("fetcher")
	}
	text, err := s.fetcher.PostingText(url)
	if err != nil {
		s.recorder.IncImport("url", "error")
		return ImportResult{}, err
	}
	res, err := s.importText(ctx, text, url, "url")
	s.recorder.IncImport("url", importOutcome(err, res.Existed))
	return res, err
}

// ImportFile imports a markdown posting file.
func (s *JobService) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.recorder.IncImport("file", "error")
		if os.IsNotExist(err) {
			return ImportResult{}, errors.NotFound("posting file", path)
		}
		return ImportResult{}, errors.StorageError("read posting file", err).WithContext("path", path)
	}
	res, err := s.importText(ctx, string(data), "", "file")
	s.recorder.IncImport("file", importOutcome(err, res.Existed))
	return res, err
}

// ImportMarkdown imports raw posting markdown, as submitted over the API.
func (s *JobService) ImportMarkdown(ctx context.Context, text string) (ImportResult, error) {
	res, err := s.importText(ctx, text, "", "api")
	s.recorder.IncImport("api", importOutcome(err, res.Existed))
	return res, err
}

// DirReport summarizes a directory sweep.
type DirReport struct {
	Imported []ImportResult    `json:"imported"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// ImportDir sweeps dir for markdown posting files and imports each one.
// Individual failures are collected, not fatal.
func (s *JobService) ImportDir(ctx context.Context, dir string) (DirReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return DirReport{}, errors.NotFound("import directory", dir)
		}
		return DirReport{}, errors.StorageError("read import directory", err).WithContext("path", dir)
	}
	report := DirReport{Failed: make(map[string]string)}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".md" && ext != ".markdown" {
			continue
		}
		res, err := s.ImportFile(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			report.Failed[e.Name()] = err.Error()
			continue
		}
		report.Imported = append(report.Imported, res)
	}
	if len(report.Failed) == 0 {
		report.Failed = nil
	}
	return report, nil
}

// importText parses raw posting text, stores the posting, and seeds the
// pipeline record.
func (s *JobService) importText(ctx context.Context, text, url, source string) (ImportResult, error) {
	if s.client == nil {
		return ImportResult{}, errors.ConfigRequired("llm.api_key")
	}
	if strings.TrimSpace(text) == "" {
		return ImportResult{}, errors.ValidationFailed("posting", "must not be blank")
	}

	var parsed parsedPosting
	if _, err := s.client.CompleteJSON(ctx, llm.Request{
		System: postingParsePrompt,
		User:   text,
	}, postingSchema, &parsed); err != nil {
		return ImportResult{}, err
	}
	if url == "" {
		url = parsed.URL
	}

	posting, existed, err := s.jobs.Add(store.JobPosting{
		Company:     parsed.Company,
		Title:       parsed.Title,
		Location:    parsed.Location,
		URL:         url,
		Source:      source,
		Description: text,
	})
	if err != nil {
		return ImportResult{}, err
	}

	rec, recExisted, err := s.tracker.Create(ctx, pipeline.CreateRequest{
		ID:       posting.ID,
		Company:  posting.Company,
		Title:    posting.Title,
		URL:      posting.URL,
		Location: posting.Location,
		Source:   source,
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("posting imported",
		logfields.JobID(posting.ID),
		logfields.Company(posting.Company),
		slog.String("source", source),
		slog.Bool("existed", existed || recExisted))
	return ImportResult{Posting: posting, Record: rec, Existed: existed || recExisted}, nil
}

func importOutcome(err error, existed bool) string {
	switch {
	case err != nil:
		return "error"
	case existed:
		return "duplicate"
	default:
		return "ok"
	}
}

// Delete removes a posting everywhere: deletion log first (the negative
// signal must survive), then posting, artifacts, and pipeline record.
func (s *JobService) Delete(id, reason string) (store.JobPosting, error) {
	posting, err := s.jobs.Get(id)
	if err != nil {
		return store.JobPosting{}, err
	}
	if err := s.deleted.Record(store.DeletedJob{
		ID:       posting.ID,
		Company:  posting.Company,
		Title:    posting.Title,
		Location: posting.Location,
		Source:   posting.Source,
		Reason:   reason,
	}); err != nil {
		return store.JobPosting{}, err
	}
	if _, err := s.jobs.Delete(id); err != nil {
		return store.JobPosting{}, err
	}
	if s.artifacts != nil {
		if err := s.artifacts.RemoveAll(id); err != nil {
			return store.JobPosting{}, err
		}
	}
	if err := s.tracker.Remove(id); err != nil {
		return store.JobPosting{}, err
	}
	s.logger.Info("posting deleted",
		logfields.JobID(id),
		logfields.Company(posting.Company),
		slog.String("reason", reason))
	return posting, nil
}

// Apply marks a job applied.
func (s *JobService) Apply(ctx context.Context, id, via, notes string, date *time.Time) (pipeline.Record, error) {
	return s.tracker.Apply(ctx, id, via, notes, date)
}

// SetStage moves a job to an explicit stage.
func (s *JobService) SetStage(ctx context.Context, id string, stage pipeline.Stage, note string) (pipeline.Record, error) {
	return s.tracker.Transition(ctx, id, stage, pipeline.TriggerManualStatus, note)
}

// CloseJob closes a job with an outcome.
func (s *JobService) CloseJob(ctx context.Context, id string, outcome pipeline.Outcome, note string) (pipeline.Record, error) {
	return s.tracker.Close(ctx, id, outcome, note)
}

// Reopen moves a closed job back to an active stage (default screening).
func (s *JobService) Reopen(ctx context.Context, id string, stage pipeline.Stage, note string) (pipeline.Record, error) {
	if stage == "" {
		stage = pipeline.StageScreening
	}
	return s.tracker.Reopen(ctx, id, stage, note)
}

// AddNote appends a note to a job.
func (s *JobService) AddNote(id, text string) (pipeline.Record, error) {
	return s.tracker.AddNote(id, text)
}

// History returns the transition history of a job.
func (s *JobService) History(id string) ([]pipeline.Transition, error) {
	return s.tracker.History(id)
}

// Overview returns the active pipeline grouped by stage.
func (s *JobService) Overview() (pipeline.Overview, error) {
	return s.tracker.Overview()
}

// ActionBoard returns the bucketed what-to-do-next view.
func (s *JobService) ActionBoard(now time.Time, followUpDays int) (pipeline.Board, error) {
	return s.tracker.ActionBoard(now, followUpDays)
}

// Stats returns pipeline-wide counts.
func (s *JobService) Stats() (pipeline.Stats, error) {
	return s.tracker.Stats()
}

// Artifacts lists generated artifact kinds for a job.
func (s *JobService) Artifacts(id string) ([]pipeline.ArtifactKind, error) {
	if s.artifacts == nil {
		return nil, nil
	}
	if _, err := s.jobs.Get(id); err != nil {
		return nil, err
	}
	return s.artifacts.List(id)
}

// describePosting renders a posting for prompt context.
func describePosting(p store.JobPosting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nTitle: %s\n", p.Company, p.Title)
	if p.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", p.Location)
	}
	if p.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", p.URL)
	}
	b.WriteString("\n")
	b.WriteString(p.Description)
	return b.String()
}
