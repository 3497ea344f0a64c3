package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/artifacts"
	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/fetch"
	"git.home.luguber.info/inful/talentscout/internal/llm"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

const postingReply = `{"company": "Acme Corp", "title": "Platform Engineer", "location": "oslo", "url": "", "summary": "Build the platform."}`

func newJobService(t *testing.T, client *llm.Client) (*JobService, *pipeline.Tracker, string) {
	t.Helper()
	dataDir := t.TempDir()
	tracker := pipeline.NewTracker(pipeline.NewMemStore(), nil)
	svc := NewJobService(
		store.NewJobs(dataDir),
		tracker,
		store.NewDeletedJobs(dataDir),
		artifacts.NewWriter(dataDir),
		fetch.New(nil, nil),
		client,
		nil, nil,
	)
	return svc, tracker, dataDir
}

func TestImportFileCreatesPostingAndRecord(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string {
		require.Contains(t, user, "platform team")
		return postingReply
	})
	svc, _, _ := newJobService(t, client)

	path := filepath.Join(t.TempDir(), "posting.md")
	require.NoError(t, os.WriteFile(path, []byte("# Platform Engineer\n\nJoin the platform team at Acme Corp in Oslo."), 0o644))

	res, err := svc.ImportFile(context.Background(), path)
	require.NoError(t, err)
	require.False(t, res.Existed)
	require.Equal(t, "Acme Corp", res.Posting.Company)
	require.Equal(t, "Platform Engineer", res.Posting.Title)
	require.True(t, strings.HasPrefix(res.Posting.ID, "JOB-"))
	require.Equal(t, pipeline.StageDiscovered, res.Record.Stage)

	// Re-importing the same posting is a duplicate, not a twin.
	res2, err := svc.ImportFile(context.Background(), path)
	require.NoError(t, err)
	require.True(t, res2.Existed)
}

func TestImportDirSweepsMarkdownOnly(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string { return postingReply })
	svc, _, _ := newJobService(t, client)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("posting one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("not a posting"), 0o644))

	report, err := svc.ImportDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, report.Imported, 1)
	require.Empty(t, report.Failed)
}

func TestImportDirMissingIsNotFound(t *testing.T) {
	svc, _, _ := newJobService(t, nil)
	_, err := svc.ImportDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestDeleteLogsSignalAndRemovesEverywhere(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string { return postingReply })
	svc, tracker, dataDir := newJobService(t, client)

	path := filepath.Join(t.TempDir(), "posting.md")
	require.NoError(t, os.WriteFile(path, []byte("posting text"), 0o644))
	res, err := svc.ImportFile(context.Background(), path)
	require.NoError(t, err)
	id := res.Posting.ID

	posting, err := svc.Delete(id, "salary too low")
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", posting.Company)

	_, err = svc.Get(id)
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
	_, err = tracker.Get(res.Record.ID)
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))

	deleted, err := store.NewDeletedJobs(dataDir).List()
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	require.Equal(t, "salary too low", deleted[0].Reason)
}

func TestApplyStampsViaAndDate(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string { return postingReply })
	svc, _, _ := newJobService(t, client)

	path := filepath.Join(t.TempDir(), "posting.md")
	require.NoError(t, os.WriteFile(path, []byte("posting text"), 0o644))
	res, err := svc.ImportFile(context.Background(), path)
	require.NoError(t, err)

	when := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	rec, err := svc.Apply(context.Background(), res.Record.ID, "referral", "sent via Kim", &when)
	require.NoError(t, err)
	require.Equal(t, pipeline.StageApplied, rec.Stage)
	require.Equal(t, "referral", rec.AppliedVia)
	require.NotNil(t, rec.AppliedAt)
	require.Equal(t, when, *rec.AppliedAt)
	require.Equal(t, pipeline.TriggerManualApply, rec.History[len(rec.History)-1].Trigger)
}

func TestListFiltersByStage(t *testing.T) {
	client := fakeLLM(t, func(system, user string) string { return postingReply })
	svc, _, _ := newJobService(t, client)

	path := filepath.Join(t.TempDir(), "posting.md")
	require.NoError(t, os.WriteFile(path, []byte("posting text"), 0o644))
	res, err := svc.ImportFile(context.Background(), path)
	require.NoError(t, err)

	discovered, err := svc.List(ListFilter{Stage: "discovered"})
	require.NoError(t, err)
	require.Len(t, discovered, 1)

	applied, err := svc.List(ListFilter{Stage: "applied"})
	require.NoError(t, err)
	require.Empty(t, applied)

	_, err = svc.Apply(context.Background(), res.Record.ID, "portal", "", nil)
	require.NoError(t, err)
	applied, err = svc.List(ListFilter{Stage: "applied"})
	require.NoError(t, err)
	require.Len(t, applied, 1)
}

func TestListRejectsUnknownStage(t *testing.T) {
	svc, _, _ := newJobService(t, nil)
	_, err := svc.List(ListFilter{Stage: "hired"})
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))
}
