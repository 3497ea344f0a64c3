package eventlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/pipeline"
)

func openTestLog(t *testing.T) *SQLite {
	t.Helper()
	log, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestRecordAndByJob(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	events := []pipeline.Event{
		{JobID: "JOB-ACME-000001", To: pipeline.StageDiscovered, Trigger: pipeline.TriggerImport, OccurredAt: base},
		{JobID: "JOB-ACME-000001", From: pipeline.StageDiscovered, To: pipeline.StageApplied, Trigger: pipeline.TriggerManualApply, OccurredAt: base.Add(time.Hour)},
		{JobID: "JOB-OTHER-000002", To: pipeline.StageDiscovered, Trigger: pipeline.TriggerImport, OccurredAt: base.Add(2 * time.Hour)},
		{JobID: "JOB-ACME-000001", From: pipeline.StageApplied, To: pipeline.StageClosed, Outcome: pipeline.OutcomeRejected, Trigger: pipeline.TriggerManualClose, OccurredAt: base.Add(3 * time.Hour)},
	}
	for _, ev := range events {
		require.NoError(t, log.Record(ctx, ev))
	}

	entries, err := log.ByJob(ctx, "JOB-ACME-000001")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "discovered", entries[0].To)
	require.Equal(t, "applied", entries[1].To)
	require.Equal(t, "closed", entries[2].To)
	require.Equal(t, "rejected", entries[2].Outcome)
	require.True(t, entries[0].OccurredAt.Equal(base))
}

func TestRangeAndLimit(t *testing.T) {
	log := openTestLog(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Record(ctx, pipeline.Event{
			JobID:      "JOB-ACME-000001",
			To:         pipeline.StageDiscovered,
			Trigger:    pipeline.TriggerImport,
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	window, err := log.Range(ctx, base.Add(time.Hour), base.Add(3*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, window, 3)

	capped, err := log.Range(ctx, base, base.Add(24*time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, capped, 2)
}

func TestByJobUnknownIsEmpty(t *testing.T) {
	log := openTestLog(t)
	entries, err := log.ByJob(context.Background(), "JOB-NOPE-000000")
	require.NoError(t, err)
	require.Empty(t, entries)
}
