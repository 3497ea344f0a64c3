package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/services"
)

// decode unmarshals an optional JSON request body. An empty body yields the
// zero value so endpoints with all-optional fields accept bare POSTs.
func decode[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return v, errors.ValidationFailed("body", "unreadable")
	}
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.ValidationFailed("body", "must be valid JSON")
	}
	return v, nil
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	postings, err := s.deps.Jobs.List(services.ListFilter{
		Location: q.Get("location"),
		Company:  q.Get("company"),
		Source:   q.Get("source"),
		Stage:    q.Get("stage"),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": postings, "count": len(postings)})
	return nil
}

func (s *Server) importJob(w http.ResponseWriter, r *http.Request) error {
	body, err := decode[struct {
		URL      string `json:"url"`
		Markdown string `json:"markdown"`
	}](r)
	if err != nil {
		return err
	}
	var res services.ImportResult
	switch {
	case body.URL != "":
		res, err = s.deps.Jobs.ImportURL(r.Context(), body.URL)
	case body.Markdown != "":
		res, err = s.deps.Jobs.ImportMarkdown(r.Context(), body.Markdown)
	default:
		return errors.ValidationFailed("body", "either url or markdown is required")
	}
	if err != nil {
		return err
	}
	status := http.StatusCreated
	if res.Existed {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
	return nil
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) error {
	detail, err := s.deps.Jobs.Get(r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, detail)
	return nil
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) error {
	body, err := decode[struct {
		Reason string `json:"reason"`
	}](r)
	if err != nil {
		return err
	}
	if body.Reason == "" {
		body.Reason = r.URL.Query().Get("reason")
	}
	posting, err := s.deps.Jobs.Delete(r.PathValue("id"), body.Reason)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": posting.ID})
	return nil
}

func (s *Server) applyJob(w http.ResponseWriter, r *http.Request) error {
	body, err := decode[struct {
		Via   string `json:"via"`
		Notes string `json:"notes"`
		Date  string `json:"date"`
	}](r)
	if err != nil {
		return err
	}
	var at *time.Time
	if body.Date != "" {
		parsed, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return errors.ValidationFailed("date", "must be YYYY-MM-DD")
		}
		at = &parsed
	}
	rec, err := s.deps.Jobs.Apply(r.Context(), r.PathValue("id"), body.Via, body.Notes, at)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}

func (s *Server) setStage(w http.ResponseWriter, r *http.Request) error {
	body, err := decode[struct {
		Stage string `json:"stage"`
		Note  string `json:"note"`
	}](r)
	if err != nil {
		return err
	}
	stage, err := pipeline.ParseStage(body.Stage)
	if err != nil {
		return err
	}
	rec, err := s.deps.Jobs.SetStage(r.Context(), r.PathValue("id"), stage, body.Note)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}

func (s *Server) closeJob(w http.ResponseWriter, r *http.Request) error {
	body, err := decode[struct {
		Outcome string `json:"outcome"`
		Note    string `json:"note"`
	}](r)
	if err != nil {
		return err
	}
	outcome, err := pipeline.ParseOutcome(body.Outcome)
	if err != nil {
		return err
	}
	rec, err := s.deps.Jobs.CloseJob(r.Context(), r.PathValue("id"), outcome, body.Note)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}

func (s *Server) reopenJob(w http.ResponseWriter, r *http.Request) error {
	body, err := decode[struct {
		Stage string `json:"stage"`
		Note  string `json:"note"`
	}](r)
	if err != nil {
		return err
	}
	var stage pipeline.Stage
	if body.Stage != "" {
		if stage, err = pipeline.ParseStage(body.Stage); err != nil {
			return err
		}
	}
	rec, err := s.deps.Jobs.Reopen(r.Context(), r.PathValue("id"), stage, body.Note)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}

func (s *Server) addNote(w http.ResponseWriter, r *http.Request) error {
	body, err := decode[struct {
		Text string `json:"text"`
	}](r)
	if err != nil {
		return err
	}
	rec, err := s.deps.Jobs.AddNote(r.PathValue("id"), body.Text)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, rec)
	return nil
}

func (s *Server) jobHistory(w http.ResponseWriter, r *http.Request) error {
	history, err := s.deps.Jobs.History(r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
	return nil
}

func (s *Server) analyzeJob(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	return s.submit(w, "analyze", id, func(ctx context.Context) (any, error) {
		return s.deps.Composer.Analyze(ctx, id)
	})
}

func (s *Server) generateResume(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	body, err := decode[struct {
		Force bool `json:"force"`
	}](r)
	if err != nil {
		return err
	}
	return s.submit(w, "resume", id, func(ctx context.Context) (any, error) {
		return s.deps.Composer.GenerateResume(ctx, id, body.Force)
	})
}

func (s *Server) generateCoverLetter(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	body, err := decode[struct {
		Force bool `json:"force"`
	}](r)
	if err != nil {
		return err
	}
	return s.submit(w, "cover_letter", id, func(ctx context.Context) (any, error) {
		return s.deps.Composer.GenerateCoverLetter(ctx, id, body.Force)
	})
}

func (s *Server) interviewPrep(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	return s.submit(w, "interview_prep", id, func(ctx context.Context) (any, error) {
		return s.deps.Composer.InterviewPrep(ctx, id)
	})
}

func (s *Server) listArtifacts(w http.ResponseWriter, r *http.Request) error {
	kinds, err := s.deps.Jobs.Artifacts(r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"artifacts": kinds})
	return nil
}

// serveArtifact returns the stored artifact, markdown by default and
// freshly rendered HTML with ?format=html.
func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	kind, err := pipeline.ParseArtifactKind(r.PathValue("kind"))
	if err != nil {
		return err
	}
	if r.URL.Query().Get("format") == "html" {
		htmlPath, err := s.deps.Composer.Render(id, kind)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(htmlPath)
		if err != nil {
			return errors.StorageError("read artifact html", err).WithContext("path", htmlPath)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
		return nil
	}
	body, err := s.deps.Artifacts.ReadMarkdown(id, kind)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(body))
	return nil
}
