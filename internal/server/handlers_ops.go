package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

func (s *Server) pipelineOverview(w http.ResponseWriter, r *http.Request) error {
	overview, err := s.deps.Jobs.Overview()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, overview)
	return nil
}

func (s *Server) pipelineNext(w http.ResponseWriter, r *http.Request) error {
	board, err := s.deps.Jobs.ActionBoard(time.Now().UTC(), s.cfg.Pipeline.FollowUpDays)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, board)
	return nil
}

func (s *Server) pipelineStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := s.deps.Jobs.Stats()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) error {
	profile, err := s.deps.Profile.Get(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, profile)
	return nil
}

func (s *Server) refreshProfile(w http.ResponseWriter, r *http.Request) error {
	return s.submit(w, "profile_refresh", "", func(ctx context.Context) (any, error) {
		return s.deps.Profile.Refresh(ctx)
	})
}

func (s *Server) scoutCompanies(w http.ResponseWriter, r *http.Request) error {
	body, err := decode[struct {
		Location string `json:"location"`
		Count    int    `json:"count"`
	}](r)
	if err != nil {
		return err
	}
	if body.Location == "" {
		return errors.ValidationFailed("location", "is required")
	}
	return s.submit(w, "scout_companies", "", func(ctx context.Context) (any, error) {
		companies, added, err := s.deps.Discovery.ScoutCompanies(ctx, body.Location, body.Count)
		if err != nil {
			return nil, err
		}
		return map[string]any{"companies": companies, "added": added}, nil
	})
}

func (s *Server) researchCompany(w http.ResponseWriter, r *http.Request) error {
	body, err := decode[struct {
		Company string `json:"company"`
	}](r)
	if err != nil {
		return err
	}
	if body.Company == "" {
		return errors.ValidationFailed("company", "is required")
	}
	return s.submit(w, "research", "", func(ctx context.Context) (any, error) {
		return s.deps.Discovery.Research(ctx, body.Company)
	})
}

func (s *Server) runLearning(w http.ResponseWriter, r *http.Request) error {
	return s.submit(w, "learning", "", func(ctx context.Context) (any, error) {
		return s.deps.Learning.Learn(ctx)
	})
}

func (s *Server) corpusStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := s.deps.Corpus.Stats()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}

func (s *Server) buildCorpus(w http.ResponseWriter, r *http.Request) error {
	return s.submit(w, "corpus_build", "", func(ctx context.Context) (any, error) {
		added, err := s.deps.Corpus.Build()
		if err != nil {
			return nil, err
		}
		return map[string]int{"added": added}, nil
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) error {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return errors.ValidationFailed("limit", "must be a non-negative integer")
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": s.deps.Tasks.List(limit)})
	return nil
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) error {
	task, err := s.deps.Tasks.Get(r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, task)
	return nil
}

func (s *Server) exportWorkbook(w http.ResponseWriter, r *http.Request) error {
	data, err := s.deps.Export.WorkbookBytes()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="pipeline.xlsx"`)
	_, _ = w.Write(data)
	return nil
}
