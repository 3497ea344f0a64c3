package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/artifacts"
	"git.home.luguber.info/inful/talentscout/internal/corpus"
	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/llm"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

type composerFixture struct {
	svc     *ComposerService
	tracker *pipeline.Tracker
	writer  *artifacts.Writer
	jobID   string
}

func newComposer(t *testing.T, client *llm.Client) composerFixture {
	t.Helper()
	dataDir := t.TempDir()

	resumePath := filepath.Join(t.TempDir(), "resume.md")
	require.NoError(t, os.WriteFile(resumePath, []byte("# Jane Doe\n\nGo engineer, ten years of infrastructure work."), 0o644))

	jobs := store.NewJobs(dataDir)
	posting, _, err := jobs.Add(store.JobPosting{
		Company: "Acme Corp", Title: "Platform Engineer", Location: "oslo",
		Source: "manual", Description: "Build and run the delivery platform.",
	})
	require.NoError(t, err)

	tracker := pipeline.NewTracker(pipeline.NewMemStore(), nil)
	_, _, err = tracker.Create(context.Background(), pipeline.CreateRequest{
		ID: posting.ID, Company: posting.Company, Title: posting.Title,
	})
	require.NoError(t, err)

	writer := artifacts.NewWriter(dataDir)
	svc := NewComposerService(jobs, tracker, writer, store.NewProfile(dataDir),
		corpus.New(dataDir, nil), client, resumePath, nil)
	return composerFixture{svc: svc, tracker: tracker, writer: writer, jobID: posting.ID}
}

func TestAnalyzeWritesArtifactAndAdvances(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string {
		require.Contains(t, user, "Acme Corp")
		require.Contains(t, user, "Jane Doe")
		return "# Fit Analysis\n\nStrong match."
	})
	fx := newComposer(t, client)

	res, err := fx.svc.Analyze(context.Background(), fx.jobID)
	require.NoError(t, err)
	require.Equal(t, pipeline.ArtifactAnalysis, res.Kind)
	require.FileExists(t, res.MarkdownPath)
	require.FileExists(t, res.HTMLPath)

	rec, err := fx.tracker.Get(fx.jobID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StageResearched, rec.Stage)
	require.Contains(t, rec.Artifacts, pipeline.ArtifactAnalysis)
	require.Equal(t, pipeline.TriggerAutoAnalyze, rec.History[len(rec.History)-1].Trigger)
}

func TestAnalyzeWithoutPipelineRecordStillWrites(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string {
		return "# Fit Analysis\n\nStill useful."
	})
	fx := newComposer(t, client)
	require.NoError(t, fx.tracker.Remove(fx.jobID))

	res, err := fx.svc.Analyze(context.Background(), fx.jobID)
	require.NoError(t, err)
	require.FileExists(t, res.MarkdownPath)

	_, err = fx.tracker.Get(fx.jobID)
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestGenerateResumeGroundsAndAdvances(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string {
		if strings.Contains(system, "resume writer") {
			require.Contains(t, user, "Platform Engineer")
			return "# Jane Doe\n\nTailored resume."
		}
		t.Fatalf("unexpected system prompt: %.40s", system)
		return ""
	})
	fx := newComposer(t, client)

	res, err := fx.svc.GenerateResume(context.Background(), fx.jobID, false)
	require.NoError(t, err)
	require.Equal(t, pipeline.ArtifactResume, res.Kind)

	rec, err := fx.tracker.Get(fx.jobID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StageResumeReady, rec.Stage)
}

func TestResumeRegenerationHonorsHandEditGuard(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string {
		return "# Jane Doe\n\nGenerated resume."
	})
	fx := newComposer(t, client)

	_, err := fx.svc.GenerateResume(context.Background(), fx.jobID, false)
	require.NoError(t, err)

	// Hand-edit the artifact body, leaving the stamp stale.
	mdPath := fx.writer.MarkdownPath(fx.jobID, pipeline.ArtifactResume)
	raw, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	edited := strings.Replace(string(raw), "Generated resume.", "My own wording.", 1)
	require.NoError(t, os.WriteFile(mdPath, []byte(edited), 0o644))

	_, err = fx.svc.GenerateResume(context.Background(), fx.jobID, false)
	require.True(t, errors.IsCategory(err, errors.CategoryConflict))

	_, err = fx.svc.GenerateResume(context.Background(), fx.jobID, true)
	require.NoError(t, err)
}

func TestGenerateCoverLetterLeavesStageAlone(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string {
		return "Dear hiring team, ..."
	})
	fx := newComposer(t, client)

	_, err := fx.svc.GenerateCoverLetter(context.Background(), fx.jobID, false)
	require.NoError(t, err)

	rec, err := fx.tracker.Get(fx.jobID)
	require.NoError(t, err)
	require.Equal(t, pipeline.StageDiscovered, rec.Stage)
	require.Contains(t, rec.Artifacts, pipeline.ArtifactCoverLetter)
}

func TestInterviewPrepIncludesStoredAnalysis(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string {
		if strings.Contains(system, "job analysis expert") {
			return "# Fit Analysis\n\nEmphasize platform work."
		}
		require.Contains(t, user, "Emphasize platform work.")
		return "# Interview Prep\n\nReview platform design."
	})
	fx := newComposer(t, client)

	_, err := fx.svc.Analyze(context.Background(), fx.jobID)
	require.NoError(t, err)
	res, err := fx.svc.InterviewPrep(context.Background(), fx.jobID)
	require.NoError(t, err)
	require.Equal(t, pipeline.ArtifactInterviewPrep, res.Kind)
}

func TestAnalyzeUnknownJobIsNotFound(t *testing.T) {
	fx := newComposer(t, fakeLLM(t, func(string, string) string { return "" }))
	_, err := fx.svc.Analyze(context.Background(), "JOB-NOPE-000000")
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestMissingBaseResumeIsNotFound(t *testing.T) {
	client := fakeLLM(t, func(string, string) string { return "irrelevant" })
	fx := newComposer(t, client)
	fx.svc.baseResume = filepath.Join(t.TempDir(), "missing.md")

	_, err := fx.svc.Analyze(context.Background(), fx.jobID)
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}
