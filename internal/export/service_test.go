package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

func seedStores(t *testing.T) (pipeline.Store, *store.Jobs) {
	t.Helper()
	recs := pipeline.NewMemStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	applied := now.Add(48 * time.Hour)
	require.NoError(t, recs.Save(pipeline.Record{
		ID: "JOB-ACME-AB12CD", Company: "Acme", Title: "Platform Engineer",
		Location: "oslo", Stage: pipeline.StageApplied,
		CreatedAt: now, UpdatedAt: applied, AppliedAt: &applied,
		Notes:   []pipeline.Note{{Text: "referred by Kim", CreatedAt: applied}},
		History: []pipeline.Transition{{To: pipeline.StageDiscovered, At: now, Trigger: pipeline.TriggerImport}},
	}))
	require.NoError(t, recs.Save(pipeline.Record{
		ID: "JOB-NORSK-EF34AB", Company: "Norsk Data", Title: "SRE",
		Stage: pipeline.StageClosed, Outcome: pipeline.OutcomeRejected,
		CreatedAt: now, UpdatedAt: now, ClosedAt: &now,
		History: []pipeline.Transition{{To: pipeline.StageDiscovered, At: now, Trigger: pipeline.TriggerImport}},
	}))

	jobs := store.NewJobs(t.TempDir())
	_, _, err := jobs.Add(store.JobPosting{
		Company: "Acme", Title: "Platform Engineer", Location: "Oslo", Source: "manual",
	})
	require.NoError(t, err)
	return recs, jobs
}

func TestWorkbookBytes(t *testing.T) {
	recs, jobs := seedStores(t)
	svc := NewService(recs, jobs, nil)

	data, err := svc.WorkbookBytes()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.ElementsMatch(t, []string{sheetPipeline, sheetPostings, sheetStats}, f.GetSheetList())

	rows, err := f.GetRows(sheetPipeline)
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two records
	require.Equal(t, "ID", rows[0][0])

	postingRows, err := f.GetRows(sheetPostings)
	require.NoError(t, err)
	require.Len(t, postingRows, 2)
	require.Equal(t, "Acme", postingRows[1][1])

	statRows, err := f.GetRows(sheetStats)
	require.NoError(t, err)
	stats := make(map[string]string)
	for _, row := range statRows[1:] {
		if len(row) >= 2 {
			stats[row[0]] = row[1]
		}
	}
	require.Equal(t, "2", stats["total"])
	require.Equal(t, "1", stats["active"])
	require.Equal(t, "1", stats["outcome:rejected"])
}

func TestWriteFile(t *testing.T) {
	recs, jobs := seedStores(t)
	svc := NewService(recs, jobs, nil)

	path := filepath.Join(t.TempDir(), "pipeline.xlsx")
	require.NoError(t, svc.WriteFile(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	require.Contains(t, f.GetSheetList(), sheetPipeline)
}
