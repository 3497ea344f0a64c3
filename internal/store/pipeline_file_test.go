package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
)

func testRecord(id string, created time.Time) pipeline.Record {
	return pipeline.Record{
		SchemaVersion: pipeline.SchemaVersion,
		ID:            id,
		Company:       "Acme",
		Title:         "Engineer",
		Stage:         pipeline.StageDiscovered,
		CreatedAt:     created,
		UpdatedAt:     created,
		History: []pipeline.Transition{
			{To: pipeline.StageDiscovered, At: created, Trigger: pipeline.TriggerImport},
		},
	}
}

func TestPipelineFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewPipelineFile(dir)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	rec := testRecord("JOB-ACME-AB12CD", now)
	require.NoError(t, s.Save(rec))

	got, err := s.Load(rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, pipeline.StageDiscovered, got.Stage)
	require.Len(t, got.History, 1)
	require.True(t, got.CreatedAt.Equal(now))

	// The file survives a fresh store instance.
	again := NewPipelineFile(dir)
	got, err = again.Load(rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Company, got.Company)
}

func TestPipelineFileLoadUnknownIsNotFound(t *testing.T) {
	s := NewPipelineFile(t.TempDir())
	_, err := s.Load("JOB-NOPE-000000")
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestPipelineFileListAllOrdersByCreation(t *testing.T) {
	s := NewPipelineFile(t.TempDir())
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(testRecord("JOB-BBB-000002", base.Add(time.Hour))))
	require.NoError(t, s.Save(testRecord("JOB-AAA-000001", base)))
	require.NoError(t, s.Save(testRecord("JOB-CCC-000003", base.Add(2*time.Hour))))

	all, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "JOB-AAA-000001", all[0].ID)
	require.Equal(t, "JOB-BBB-000002", all[1].ID)
	require.Equal(t, "JOB-CCC-000003", all[2].ID)
}

func TestPipelineFileDelete(t *testing.T) {
	s := NewPipelineFile(t.TempDir())
	rec := testRecord("JOB-ACME-AB12CD", time.Now().UTC())
	require.NoError(t, s.Save(rec))

	require.NoError(t, s.Delete(rec.ID))
	err := s.Delete(rec.ID)
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestPipelineFileCorruptFileIsStorageError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipeline.json"), []byte("{not json"), 0o644))

	s := NewPipelineFile(dir)
	_, err := s.ListAll()
	require.True(t, errors.IsCategory(err, errors.CategoryStorage))
}

func TestPipelineFileSaveIsIsolatedFromCaller(t *testing.T) {
	s := NewPipelineFile(t.TempDir())
	rec := testRecord("JOB-ACME-AB12CD", time.Now().UTC())
	require.NoError(t, s.Save(rec))

	// Mutating the caller's copy after save must not leak into the store.
	rec.History[0].Trigger = "tampered"
	got, err := s.Load(rec.ID)
	require.NoError(t, err)
	require.Equal(t, pipeline.TriggerImport, got.History[0].Trigger)
}
