package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/llm"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

// LearningService digests operator behavior into preferences that feed the
// scouting prompts: deleted postings are negative signal, progressed and
// closed records positive and outcome signal.
type LearningService struct {
	deleted *store.DeletedJobs
	records pipeline.Store
	profile *store.Profile
	client  *llm.Client
	logger  *slog.Logger
	now     func() time.Time
}

// NewLearningService wires the learning service.
func NewLearningService(
	deleted *store.DeletedJobs,
	records pipeline.Store,
	profile *store.Profile,
	client *llm.Client,
	logger *slog.Logger,
) *LearningService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LearningService{
		deleted: deleted,
		records: records,
		profile: profile,
		client:  client,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// minSignals is the smallest evidence base worth a learning run.
const minSignals = 3

type learnResponse struct {
	AvoidCompanies []string `json:"avoid_companies"`
	AvoidKeywords  []string `json:"avoid_keywords"`
	PreferKeywords []string `json:"prefer_keywords"`
	PreferSources  []string `json:"prefer_sources"`
	Commentary     string   `json:"commentary"`
}

// Learn runs one learning pass and persists the resulting preferences.
// Returns a validation error when there is not enough signal yet.
func (s *LearningService) Learn(ctx context.Context) (store.LearnedPreferences, error) {
	if s.client == nil {
		return store.LearnedPreferences{}, errors.ConfigRequired("llm.api_key")
	}

	deleted, err := s.deleted.List()
	if err != nil {
		return store.LearnedPreferences{}, err
	}
	recs, err := s.records.ListAll()
	if err != nil {
		return store.LearnedPreferences{}, err
	}

	var positives, outcomes []pipeline.Record
	for _, rec := range recs {
		if rec.AppliedAt != nil {
			positives = append(positives, rec)
		}
		if rec.Closed() && rec.Outcome != "" {
			outcomes = append(outcomes, rec)
		}
	}
	if len(deleted)+len(positives)+len(outcomes) < minSignals {
		return store.LearnedPreferences{}, errors.ValidationError("not enough signal to learn from yet").
			WithContext("deleted", len(deleted)).
			WithContext("applied", len(positives))
	}

	var prompt strings.Builder
	prompt.WriteString("Deleted postings (negative signal):\n")
	for _, d := range deleted {
		fmt.Fprintf(&prompt, "- %s: %s", d.Company, d.Title)
		if d.Source != "" {
			fmt.Fprintf(&prompt, " [source: %s]", d.Source)
		}
		if d.Reason != "" {
			fmt.Fprintf(&prompt, " (reason: %s)", d.Reason)
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("\nApplied-to roles (positive signal):\n")
	for _, rec := range positives {
		fmt.Fprintf(&prompt, "- %s: %s [source: %s]\n", rec.Company, rec.Title, rec.Source)
	}
	prompt.WriteString("\nClosed records with outcomes:\n")
	for _, rec := range outcomes {
		fmt.Fprintf(&prompt, "- %s: %s -> %s\n", rec.Company, rec.Title, rec.Outcome)
	}

	var resp learnResponse
	if _, err := s.client.CompleteJSON(ctx, llm.Request{
		System: learnPrompt,
		User:   prompt.String(),
	}, learnSchema, &resp); err != nil {
		return store.LearnedPreferences{}, err
	}

	prefs := store.LearnedPreferences{
		AvoidCompanies: resp.AvoidCompanies,
		AvoidKeywords:  resp.AvoidKeywords,
		PreferKeywords: resp.PreferKeywords,
		PreferSources:  resp.PreferSources,
		Commentary:     resp.Commentary,
		LearnedAt:      s.now(),
	}
	if err := s.profile.SavePreferences(prefs); err != nil {
		return store.LearnedPreferences{}, err
	}
	s.logger.Info("preferences learned",
		slog.Int("deleted_signals", len(deleted)),
		slog.Int("positive_signals", len(positives)))
	return prefs, nil
}
