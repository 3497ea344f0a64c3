package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/llm"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

const profileReply = `{
  "name": "Jane Doe",
  "headline": "Platform engineer",
  "summary": "Ten years building infrastructure in Go.",
  "skills": ["go", "kubernetes", "postgres"],
  "industries": ["fintech"],
  "seniority": "senior",
  "locations": ["oslo"],
  "years_of_experience": 10
}`

func newProfileService(t *testing.T, client *llm.Client) (*ProfileService, *store.Profile) {
	t.Helper()
	dataDir := t.TempDir()
	resumePath := filepath.Join(t.TempDir(), "resume.md")
	require.NoError(t, os.WriteFile(resumePath, []byte("# Jane Doe\n\nPlatform engineer."), 0o644))
	profile := store.NewProfile(dataDir)
	return NewProfileService(profile, client, resumePath, nil), profile
}

func TestRefreshExtractsAndCaches(t *testing.T) {
	calls := 0
	client := fakeLLM(t, func(system, user string) string {
		calls++
		require.Contains(t, user, "Jane Doe")
		return profileReply
	})
	svc, _ := newProfileService(t, client)

	profile, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", profile.Name)
	require.Equal(t, 10, profile.YearsOfExp)
	require.False(t, profile.ExtractedAt.IsZero())

	// Get serves the cache without another model call.
	cached, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, profile.Name, cached.Name)
	require.Equal(t, 1, calls)
}

func TestGetRefreshesWhenEmpty(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string { return profileReply })
	svc, _ := newProfileService(t, client)

	profile, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", profile.Name)
}

func TestRefreshMissingResumeIsNotFound(t *testing.T) {
	client := fakeLLM(t, func(string, string) string { return profileReply })
	svc, _ := newProfileService(t, client)
	svc.baseResume = filepath.Join(t.TempDir(), "gone.md")

	_, err := svc.Refresh(context.Background())
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestLearnDigestsSignals(t *testing.T) {
	reply := mustJSON(t, map[string]any{
		"avoid_companies": []string{"MegaCorp"},
		"avoid_keywords":  []string{"on-call heavy"},
		"prefer_keywords": []string{"platform"},
		"prefer_sources":  []string{"referral"},
		"commentary":      "Deletes cluster around consultancy roles.",
	})
	var sawPrompt string
	client := fakeLLM(t, func(system, user string) string {
		sawPrompt = user
		return reply
	})

	dataDir := t.TempDir()
	deleted := store.NewDeletedJobs(dataDir)
	require.NoError(t, deleted.Record(store.DeletedJob{ID: "JOB-MEGA-000001", Company: "MegaCorp", Title: "Consultant", Reason: "travel"}))
	require.NoError(t, deleted.Record(store.DeletedJob{ID: "JOB-MEGA-000002", Company: "MegaCorp", Title: "Architect", Reason: "travel"}))

	records := pipeline.NewMemStore()
	tracker := pipeline.NewTracker(records, nil)
	rec, _, err := tracker.Create(context.Background(), pipeline.CreateRequest{Company: "Norsk Data", Title: "Platform Engineer", Source: "referral"})
	require.NoError(t, err)
	_, err = tracker.Apply(context.Background(), rec.ID, "referral", "", nil)
	require.NoError(t, err)

	profile := store.NewProfile(dataDir)
	svc := NewLearningService(deleted, records, profile, client, nil)

	prefs, err := svc.Learn(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"MegaCorp"}, prefs.AvoidCompanies)
	require.False(t, prefs.LearnedAt.IsZero())
	require.Contains(t, sawPrompt, "MegaCorp: Consultant")
	require.Contains(t, sawPrompt, "Norsk Data: Platform Engineer")

	stored, ok, err := profile.GetPreferences()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, prefs.AvoidCompanies, stored.AvoidCompanies)
}

func TestLearnNeedsEnoughSignal(t *testing.T) {
	dataDir := t.TempDir()
	client := fakeLLM(t, func(string, string) string { return "{}" })
	svc := NewLearningService(store.NewDeletedJobs(dataDir), pipeline.NewMemStore(), store.NewProfile(dataDir), client, nil)

	_, err := svc.Learn(context.Background())
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))
}
