package services

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/llm"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

// ProfileService extracts a structured candidate profile from the base
// resume and caches it in the profile store.
type ProfileService struct {
	profile    *store.Profile
	client     *llm.Client
	baseResume string
	logger     *slog.Logger
	now        func() time.Time
}

// NewProfileService wires the profile service.
func NewProfileService(profile *store.Profile, client *llm.Client, baseResume string, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		profile:    profile,
		client:     client,
		baseResume: baseResume,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the cached profile, refreshing it first when none exists.
func (s *ProfileService) Get(ctx context.Context) (store.CandidateProfile, error) {
	profile, err := s.profile.GetProfile()
	switch {
	case err == nil && profile.Name != "":
		return profile, nil
	case err != nil && !errors.IsCategory(err, errors.CategoryNotFound):
		return store.CandidateProfile{}, err
	}
	return s.Refresh(ctx)
}

type profileResponse struct {
	Name       string   `json:"name"`
	Headline   string   `json:"headline"`
	Summary    string   `json:"summary"`
	Skills     []string `json:"skills"`
	Industries []string `json:"industries"`
	Seniority  string   `json:"seniority"`
	Locations  []string `json:"locations"`
	YearsOfExp int      `json:"years_of_experience"`
}

// Refresh re-extracts the profile from the base resume.
func (s *ProfileService) Refresh(ctx context.Context) (store.CandidateProfile, error) {
	if s.client == nil {
		return store.CandidateProfile{}, errors.ConfigRequired("llm.api_key")
	}
	if s.baseResume == "" {
		return store.CandidateProfile{}, errors.ConfigRequired("profile.base_resume")
	}
	data, err := os.ReadFile(s.baseResume)
	if err != nil {
		if os.IsNotExist(err) {
			return store.CandidateProfile{}, errors.NotFound("base resume", s.baseResume)
		}
		return store.CandidateProfile{}, errors.StorageError("read base resume", err).
			WithContext("path", s.baseResume)
	}
	if strings.TrimSpace(string(data)) == "" {
		return store.CandidateProfile{}, errors.ValidationError("base resume is empty").
			WithContext("path", s.baseResume)
	}

	var resp profileResponse
	if _, err := s.client.CompleteJSON(ctx, llm.Request{
		System: profileExtractPrompt,
		User:   string(data),
	}, profileSchema, &resp); err != nil {
		return store.CandidateProfile{}, err
	}

	profile := store.CandidateProfile{
		Name:        resp.Name,
		Headline:    resp.Headline,
		Summary:     resp.Summary,
		Skills:      resp.Skills,
		Industries:  resp.Industries,
		Seniority:   resp.Seniority,
		Locations:   resp.Locations,
		YearsOfExp:  resp.YearsOfExp,
		ExtractedAt: s.now(),
	}
	if err := s.profile.SaveProfile(profile); err != nil {
		return store.CandidateProfile{}, err
	}
	s.logger.Info("candidate profile refreshed", slog.String("name", profile.Name))
	return profile, nil
}
