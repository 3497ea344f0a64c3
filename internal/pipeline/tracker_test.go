package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

func newTestTracker(t *testing.T, opts ...TrackerOption) *Tracker {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewTracker(NewMemStore(), logger, opts...)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func mustCreate(t *testing.T, tr *Tracker, company, title string) Record {
	t.Helper()
	rec, existed, err := tr.Create(context.Background(), CreateRequest{Company: company, Title: title})
	require.NoError(t, err)
	require.False(t, existed)
	return rec
}

// stageInvariant asserts that Stage equals the To of the last history entry.
func stageInvariant(t *testing.T, rec Record) {
	t.Helper()
	require.NotEmpty(t, rec.History)
	require.Equal(t, rec.History[len(rec.History)-1].To, rec.Stage)
}

func TestCreateStartsAtDiscovered(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")

	require.Equal(t, StageDiscovered, rec.Stage)
	require.Empty(t, rec.Outcome)
	require.Len(t, rec.History, 1)
	require.Equal(t, StageDiscovered, rec.History[0].To)
	require.Equal(t, SchemaVersion, rec.SchemaVersion)
	require.Contains(t, rec.ID, "JOB-ACME-")
	stageInvariant(t, rec)
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	tr := newTestTracker(t)
	tests := []struct {
		name    string
		company string
		title   string
	}{
		{"blank company", "", "Engineer"},
		{"blank title", "Acme", ""},
		{"whitespace company", "   ", "Engineer"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := tr.Create(context.Background(), CreateRequest{Company: tc.company, Title: tc.title})
			require.Error(t, err)
			require.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestCreateDetectsOpenDuplicate(t *testing.T) {
	tr := newTestTracker(t)
	first := mustCreate(t, tr, "Acme", "Engineer")

	again, existed, err := tr.Create(context.Background(), CreateRequest{Company: "acme", Title: "engineer"})
	require.NoError(t, err)
	require.True(t, existed)
	require.Equal(t, first.ID, again.ID)

	// A closed record no longer blocks creation.
	_, err = tr.Close(context.Background(), first.ID, OutcomeWithdrawn, "")
	require.NoError(t, err)
	fresh, existed, err := tr.Create(context.Background(), CreateRequest{Company: "Acme", Title: "Engineer"})
	require.NoError(t, err)
	require.False(t, existed)
	require.NotEqual(t, first.ID, fresh.ID)
}

func TestTransitionAppendsHistory(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")

	got, err := tr.Transition(context.Background(), rec.ID, StageResearched, "", "looked into them")
	require.NoError(t, err)
	require.Equal(t, StageResearched, got.Stage)
	require.Len(t, got.History, 2)
	last := got.History[len(got.History)-1]
	require.Equal(t, StageDiscovered, last.From)
	require.Equal(t, StageResearched, last.To)
	require.Equal(t, "looked into them", last.Note)
	stageInvariant(t, got)
}

func TestTransitionAllowsSkipsAndRegressions(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	ctx := context.Background()

	// Skip forward several stages, then move backward.
	got, err := tr.Transition(ctx, rec.ID, StageInterviewing, "", "")
	require.NoError(t, err)
	require.Equal(t, StageInterviewing, got.Stage)

	got, err = tr.Transition(ctx, rec.ID, StageResearched, "", "re-approaching after rejection")
	require.NoError(t, err)
	require.Equal(t, StageResearched, got.Stage)
	require.Len(t, got.History, 3)
	stageInvariant(t, got)
}

func TestTransitionUnknownIDIsNotFound(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Transition(context.Background(), "JOB-NOPE-000000", StageApplied, "", "")
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestTransitionIntoClosedWithoutOutcomeFails(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")

	_, err := tr.Transition(context.Background(), rec.ID, StageClosed, "", "")
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))

	// No partial append: the record is unchanged.
	got, gerr := tr.Get(rec.ID)
	require.NoError(t, gerr)
	require.Equal(t, StageDiscovered, got.Stage)
	require.Len(t, got.History, 1)
}

func TestCloseSetsOutcomeAtomically(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	ctx := context.Background()

	_, err := tr.Transition(ctx, rec.ID, StageResearched, "", "")
	require.NoError(t, err)

	got, err := tr.Close(ctx, rec.ID, OutcomeWithdrawn, "no longer interested")
	require.NoError(t, err)
	require.Equal(t, StageClosed, got.Stage)
	require.Equal(t, OutcomeWithdrawn, got.Outcome)
	require.NotNil(t, got.ClosedAt)
	require.Len(t, got.History, 3)

	hist, err := tr.History(rec.ID)
	require.NoError(t, err)
	require.Equal(t, StageClosed, hist[len(hist)-1].To)
	stageInvariant(t, got)
}

func TestCloseRejectsUnknownOutcome(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	_, err := tr.Close(context.Background(), rec.ID, Outcome("shredded"), "")
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestTransitionOutOfClosedRequiresClearedOutcome(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	ctx := context.Background()

	_, err := tr.Close(ctx, rec.ID, OutcomeRejected, "")
	require.NoError(t, err)

	_, err = tr.Transition(ctx, rec.ID, StageResearched, "", "")
	require.True(t, errors.IsCategory(err, errors.CategoryConflict))

	_, err = tr.ClearOutcome(rec.ID)
	require.NoError(t, err)

	got, err := tr.Transition(ctx, rec.ID, StageResearched, "", "second try")
	require.NoError(t, err)
	require.Equal(t, StageResearched, got.Stage)
	require.Empty(t, got.Outcome)
	require.Nil(t, got.ClosedAt)
}

func TestClearOutcomeOnlyValidWhenClosed(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	_, err := tr.ClearOutcome(rec.ID)
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestReopenClearsAndMovesInOneStep(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	ctx := context.Background()

	_, err := tr.Close(ctx, rec.ID, OutcomeGhosted, "")
	require.NoError(t, err)

	got, err := tr.Reopen(ctx, rec.ID, StageApplied, "they answered after all")
	require.NoError(t, err)
	require.Equal(t, StageApplied, got.Stage)
	require.Empty(t, got.Outcome)
	last := got.History[len(got.History)-1]
	require.Equal(t, StageClosed, last.From)
	require.Equal(t, TriggerManualReopen, last.Trigger)

	// Reopening an open record conflicts.
	_, err = tr.Reopen(ctx, rec.ID, StageResearched, "")
	require.True(t, errors.IsCategory(err, errors.CategoryConflict))
}

func TestAutoAdvanceIsForwardOnly(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	ctx := context.Background()

	got, err := tr.AutoAdvance(ctx, rec.ID, StageResearched, TriggerAutoAnalyze)
	require.NoError(t, err)
	require.Equal(t, StageResearched, got.Stage)
	require.Len(t, got.History, 2)

	// Already past applied: inferring an earlier stage is a no-op.
	_, err = tr.Transition(ctx, rec.ID, StageInterviewing, "", "")
	require.NoError(t, err)

	got, err = tr.AutoAdvance(ctx, rec.ID, StageApplied, TriggerAutoResume)
	require.NoError(t, err)
	require.Equal(t, StageInterviewing, got.Stage)
	require.Len(t, got.History, 3)

	// Same stage is also a no-op.
	got, err = tr.AutoAdvance(ctx, rec.ID, StageInterviewing, TriggerAutoResume)
	require.NoError(t, err)
	require.Len(t, got.History, 3)
}

func TestAutoAdvanceCannotClose(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	_, err := tr.AutoAdvance(context.Background(), rec.ID, StageClosed, TriggerAutoAnalyze)
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestAppliedStampsAppliedAtOnce(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	ctx := context.Background()

	got, err := tr.Transition(ctx, rec.ID, StageApplied, TriggerManualApply, "")
	require.NoError(t, err)
	require.NotNil(t, got.AppliedAt)
	first := *got.AppliedAt

	// Moving away and back does not re-stamp.
	_, err = tr.Transition(ctx, rec.ID, StageScreening, "", "")
	require.NoError(t, err)
	got, err = tr.Transition(ctx, rec.ID, StageApplied, "", "")
	require.NoError(t, err)
	require.Equal(t, first, *got.AppliedAt)
}

func TestHistoryRoundTrip(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	ctx := context.Background()

	moves := []Stage{StageResearched, StageResumeReady, StageApplied, StageScreening, StageResearched}
	for _, s := range moves {
		_, err := tr.Transition(ctx, rec.ID, s, "", "")
		require.NoError(t, err)
	}

	hist, err := tr.History(rec.ID)
	require.NoError(t, err)
	require.Len(t, hist, len(moves)+1) // creation seed + five transitions
	for i, s := range moves {
		require.Equal(t, s, hist[i+1].To)
	}

	// Restartable and isolated: a second read matches, and mutating the
	// returned slice does not touch the record.
	hist[0].Note = "scribbled"
	again, err := tr.History(rec.ID)
	require.NoError(t, err)
	require.Empty(t, again[0].Note)
	require.Equal(t, len(hist), len(again))
}

func TestScenarioCreateResearchWithdraw(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	rec, existed, err := tr.Create(ctx, CreateRequest{Company: "Acme", Title: "Engineer", URL: "http://x", Location: "Remote"})
	require.NoError(t, err)
	require.False(t, existed)
	require.Equal(t, StageDiscovered, rec.Stage)

	rec, err = tr.Transition(ctx, rec.ID, StageResearched, "", "")
	require.NoError(t, err)
	require.Equal(t, StageResearched, rec.Stage)
	require.Len(t, rec.History, 2)

	rec, err = tr.Close(ctx, rec.ID, OutcomeWithdrawn, "no longer interested")
	require.NoError(t, err)
	require.Equal(t, StageClosed, rec.Stage)
	require.Equal(t, OutcomeWithdrawn, rec.Outcome)
	require.Len(t, rec.History, 3)
}

func TestAddNoteAndRecordArtifact(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")

	got, err := tr.AddNote(rec.ID, "spoke to recruiter")
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	require.Equal(t, "spoke to recruiter", got.Notes[0].Text)

	_, err = tr.AddNote(rec.ID, "   ")
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))

	got, err = tr.RecordArtifact(rec.ID, ArtifactResume, "artifacts/"+rec.ID+"/resume.md")
	require.NoError(t, err)
	require.Equal(t, "artifacts/"+rec.ID+"/resume.md", got.Artifacts[ArtifactResume])

	_, err = tr.RecordArtifact(rec.ID, ArtifactKind("haiku"), "x")
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestRemoveIsIdempotent(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")

	require.NoError(t, tr.Remove(rec.ID))
	require.NoError(t, tr.Remove(rec.ID))

	_, err := tr.Get(rec.ID)
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

// recordingSink captures events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func TestSinkSeesEveryTransition(t *testing.T) {
	sink := &recordingSink{}
	tr := newTestTracker(t, WithEventSink(sink))
	ctx := context.Background()

	rec := mustCreate(t, tr, "Acme", "Engineer")
	_, err := tr.Transition(ctx, rec.ID, StageApplied, TriggerManualApply, "")
	require.NoError(t, err)
	_, err = tr.Close(ctx, rec.ID, OutcomeRejected, "")
	require.NoError(t, err)

	require.Len(t, sink.events, 3)
	require.Equal(t, StageDiscovered, sink.events[0].To)
	require.Equal(t, StageApplied, sink.events[1].To)
	require.Equal(t, StageClosed, sink.events[2].To)
	require.Equal(t, OutcomeRejected, sink.events[2].Outcome)
}

func TestConcurrentTransitionsKeepHistoryConsistent(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		target := ActiveStages()[1:][i%6]
		go func(s Stage) {
			defer wg.Done()
			_, err := tr.Transition(ctx, rec.ID, s, "", "")
			require.NoError(t, err)
		}(target)
	}
	wg.Wait()

	got, err := tr.Get(rec.ID)
	require.NoError(t, err)
	require.Len(t, got.History, n+1)
	stageInvariant(t, got)
	for i := 1; i < len(got.History); i++ {
		// Each entry chains from the previous one.
		require.Equal(t, got.History[i-1].To, got.History[i].From)
		require.False(t, got.History[i].At.Before(got.History[i-1].At))
	}
}

func TestClockInjection(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	tr := newTestTracker(t, WithClock(func() time.Time { return fixed }))
	rec := mustCreate(t, tr, "Acme", "Engineer")
	require.Equal(t, fixed, rec.CreatedAt)
	require.Equal(t, fixed, rec.History[0].At)
}

func TestCreateWithProvidedID(t *testing.T) {
	tr := newTestTracker(t)
	rec, existed, err := tr.Create(context.Background(), CreateRequest{
		ID: "JOB-ACME-AB12CD", Company: "Acme", Title: "Engineer",
	})
	require.NoError(t, err)
	require.False(t, existed)
	require.Equal(t, "JOB-ACME-AB12CD", rec.ID)

	// The same ID resolves to the existing record.
	again, existed, err := tr.Create(context.Background(), CreateRequest{
		ID: "JOB-ACME-AB12CD", Company: "Acme", Title: "Engineer",
	})
	require.NoError(t, err)
	require.True(t, existed)
	require.Equal(t, rec.ID, again.ID)
}

func TestApplyRecordsViaAndBackdates(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")

	when := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	got, err := tr.Apply(context.Background(), rec.ID, "referral", "through Kim", &when)
	require.NoError(t, err)
	require.Equal(t, StageApplied, got.Stage)
	require.Equal(t, "referral", got.AppliedVia)
	require.NotNil(t, got.AppliedAt)
	require.Equal(t, when, *got.AppliedAt)
	require.Equal(t, TriggerManualApply, got.History[len(got.History)-1].Trigger)
	stageInvariant(t, got)
}

func TestApplyClosedWithOutcomeConflicts(t *testing.T) {
	tr := newTestTracker(t)
	rec := mustCreate(t, tr, "Acme", "Engineer")
	_, err := tr.Close(context.Background(), rec.ID, OutcomeRejected, "")
	require.NoError(t, err)

	_, err = tr.Apply(context.Background(), rec.ID, "portal", "", nil)
	require.True(t, errors.IsCategory(err, errors.CategoryConflict))
}
