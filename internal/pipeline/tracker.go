package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/ids"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
	"git.home.luguber.info/inful/talentscout/internal/metrics"
)

// maxIDAttempts bounds ID re-derivation on suffix collision before giving up.
const maxIDAttempts = 5

// Tracker is the pipeline state machine. Every mutation of a record runs
// under a per-record lock: read current stage, validate, append history, and
// save are one indivisible unit. Reads hand out deep copies.
type Tracker struct {
	store    Store
	sink     EventSink
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithEventSink attaches a sink notified after each applied transition.
func WithEventSink(s EventSink) TrackerOption {
	return func(t *Tracker) {
		if s != nil {
			t.sink = s
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) TrackerOption {
	return func(t *Tracker) {
		if r != nil {
			t.recorder = r
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a Tracker over the given store.
func NewTracker(store Store, logger *slog.Logger, opts ...TrackerOption) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		store:    store,
		sink:     NoopSink{},
		recorder: metrics.NoopRecorder{},
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) lockFor(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// CreateRequest carries the fields for a new pipeline record.
type CreateRequest struct {
	ID       string // empty allocates a fresh job ID
	Company  string
	Title    string
	URL      string
	Location string
	Source   string
	Trigger  string
}

// Create allocates a new record at discovered with a creation history seed.
// A caller-provided ID keeps the record aligned with its posting. If an open
// record for the same company and title already exists, or the provided ID is
// taken, the existing record is returned with existed=true instead of
// creating a twin.
func (t *Tracker) Create(ctx context.Context, req CreateRequest) (Record, bool, error) {
	company := strings.TrimSpace(req.Company)
	title := strings.TrimSpace(req.Title)
	if company == "" {
		return Record{}, false, errors.ValidationFailed("company", "must not be blank")
	}
	if title == "" {
		return Record{}, false, errors.ValidationFailed("title", "must not be blank")
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerImport
	}

	// Duplicate detection and collision checking both need the full set.
	existing, err := t.store.ListAll()
	if err != nil {
		return Record{}, false, err
	}
	taken := make(map[string]bool, len(existing))
	for _, rec := range existing {
		taken[rec.ID] = true
		if !rec.Closed() && strings.EqualFold(rec.Company, company) && strings.EqualFold(rec.Title, title) {
			return rec, true, nil
		}
	}

	id := strings.TrimSpace(req.ID)
	if id != "" {
		if taken[id] {
			rec, err := t.store.Load(id)
			if err != nil {
				return Record{}, false, err
			}
			return rec, true, nil
		}
	} else {
		for attempt := 0; attempt < maxIDAttempts; attempt++ {
			candidate := ids.NewJobID(company)
			if !taken[candidate] {
				id = candidate
				break
			}
		}
		if id == "" {
			return Record{}, false, errors.Conflict("could not allocate a unique job id").
				WithContext("company", company)
		}
	}

	now := t.now()
	rec := Record{
		SchemaVersion: SchemaVersion,
		ID:            id,
		Company:       company,
		Title:         title,
		URL:           strings.TrimSpace(req.URL),
		Location:      strings.TrimSpace(req.Location),
		Source:        req.Source,
		Stage:         StageDiscovered,
		CreatedAt:     now,
		UpdatedAt:     now,
		History: []Transition{
			{To: StageDiscovered, At: now, Trigger: trigger},
		},
	}
	if err := t.store.Save(rec); err != nil {
		return Record{}, false, err
	}
	t.logger.Info("pipeline record created",
		logfields.JobID(rec.ID),
		logfields.Company(rec.Company),
		logfields.Trigger(trigger))
	t.emit(ctx, Event{
		JobID:      rec.ID,
		Company:    rec.Company,
		To:         StageDiscovered,
		Trigger:    trigger,
		OccurredAt: now,
	})
	return rec, false, nil
}

// Get returns a copy of one record.
func (t *Tracker) Get(id string) (Record, error) {
	return t.store.Load(id)
}

// Transition moves a record to target, in any direction, appending exactly
// one history entry. Entering closed requires an outcome to already be set
// (use Close); leaving closed requires the outcome to be cleared first.
func (t *Tracker) Transition(ctx context.Context, id string, target Stage, trigger, note string) (Record, error) {
	if !target.Valid() {
		return Record{}, errors.ValidationError("unknown stage").WithContext("stage", string(target))
	}
	if trigger == "" {
		trigger = TriggerManualStatus
	}

	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.Load(id)
	if err != nil {
		return Record{}, err
	}
	if target == StageClosed && rec.Outcome == "" {
		return Record{}, errors.ValidationError("closing requires an outcome").
			WithContext("id", id).
			WithContext("target", string(target))
	}
	if rec.Closed() && target != StageClosed && rec.Outcome != "" {
		return Record{}, errors.Conflict("record is closed; clear the outcome before moving it").
			WithContext("id", id).
			WithContext("outcome", string(rec.Outcome)).
			WithContext("target", string(target))
	}
	return t.apply(ctx, rec, target, rec.Outcome, trigger, note)
}

// Close records the transition to closed and the outcome in one persisted
// step. Re-closing an already closed record replaces the outcome.
func (t *Tracker) Close(ctx context.Context, id string, outcome Outcome, note string) (Record, error) {
	if !outcome.Valid() {
		return Record{}, errors.ValidationError("unknown outcome").
			WithContext("outcome", string(outcome))
	}

	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.Load(id)
	if err != nil {
		return Record{}, err
	}
	return t.apply(ctx, rec, StageClosed, outcome, TriggerManualClose, note)
}

// Apply marks a record applied, recording how and optionally when. A nil at
// keeps the usual stamp-once behavior; an explicit at backdates the
// application.
func (t *Tracker) Apply(ctx context.Context, id, via, note string, at *time.Time) (Record, error) {
	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.Load(id)
	if err != nil {
		return Record{}, err
	}
	if rec.Closed() && rec.Outcome != "" {
		return Record{}, errors.Conflict("record is closed; clear the outcome before moving it").
			WithContext("id", id).
			WithContext("outcome", string(rec.Outcome))
	}
	if via != "" {
		rec.AppliedVia = via
	}
	if at != nil {
		stamp := at.UTC()
		rec.AppliedAt = &stamp
	}
	return t.apply(ctx, rec, StageApplied, rec.Outcome, TriggerManualApply, note)
}

// ClearOutcome empties the outcome of a closed record so the next transition
// may leave closed. It appends no history entry.
func (t *Tracker) ClearOutcome(id string) (Record, error) {
	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.Load(id)
	if err != nil {
		return Record{}, err
	}
	if !rec.Closed() {
		return Record{}, errors.ValidationError("record is not closed").
			WithContext("id", id).
			WithContext("stage", string(rec.Stage))
	}
	rec.Outcome = ""
	rec.ClosedAt = nil
	rec.UpdatedAt = t.now()
	if err := t.store.Save(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Reopen clears the outcome and transitions out of closed in one per-record
// critical section.
func (t *Tracker) Reopen(ctx context.Context, id string, target Stage, note string) (Record, error) {
	if !target.Valid() || target == StageClosed {
		return Record{}, errors.ValidationError("reopen target must be an active stage").
			WithContext("target", string(target))
	}

	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.Load(id)
	if err != nil {
		return Record{}, err
	}
	if !rec.Closed() {
		return Record{}, errors.Conflict("record is not closed").
			WithContext("id", id).
			WithContext("stage", string(rec.Stage))
	}
	rec.Outcome = ""
	rec.ClosedAt = nil
	return t.apply(ctx, rec, target, "", TriggerManualReopen, note)
}

// AutoAdvance moves a record forward to inferred if and only if the current
// stage strictly precedes it in canonical order; otherwise it is a no-op and
// the record is returned unchanged. closed is not reachable this way.
func (t *Tracker) AutoAdvance(ctx context.Context, id string, inferred Stage, trigger string) (Record, error) {
	if !inferred.Valid() {
		return Record{}, errors.ValidationError("unknown stage").
			WithContext("stage", string(inferred))
	}
	if inferred == StageClosed {
		return Record{}, errors.ValidationError("auto-advance cannot close a record; outcomes require close").
			WithContext("id", id)
	}

	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.Load(id)
	if err != nil {
		return Record{}, err
	}
	if !rec.Stage.Before(inferred) {
		t.logger.Debug("auto-advance is a no-op",
			logfields.JobID(id),
			logfields.Stage(string(rec.Stage)),
			logfields.ToStage(string(inferred)))
		return rec, nil
	}
	return t.apply(ctx, rec, inferred, "", trigger, "")
}

// apply appends the transition, stamps stage side effects, persists, and
// emits. Callers hold the record lock.
func (t *Tracker) apply(ctx context.Context, rec Record, target Stage, outcome Outcome, trigger, note string) (Record, error) {
	now := t.now()
	from := rec.Stage

	rec.Stage = target
	rec.Outcome = outcome
	rec.UpdatedAt = now
	switch target {
	case StageApplied:
		if rec.AppliedAt == nil {
			stamp := now
			rec.AppliedAt = &stamp
		}
	case StageClosed:
		stamp := now
		rec.ClosedAt = &stamp
	}
	rec.History = append(rec.History, Transition{
		From:    from,
		To:      target,
		At:      now,
		Trigger: trigger,
		Note:    note,
	})

	if err := t.store.Save(rec); err != nil {
		return Record{}, err
	}

	t.recorder.IncTransition(string(from), string(target), trigger)
	t.logger.Info("pipeline transition",
		logfields.JobID(rec.ID),
		logfields.FromStage(string(from)),
		logfields.ToStage(string(target)),
		logfields.Trigger(trigger))
	if from.Index() > target.Index() && target != StageClosed {
		t.logger.Warn("pipeline record moved backward",
			logfields.JobID(rec.ID),
			logfields.FromStage(string(from)),
			logfields.ToStage(string(target)))
	}
	t.emit(ctx, Event{
		JobID:      rec.ID,
		Company:    rec.Company,
		From:       from,
		To:         target,
		Outcome:    outcome,
		Trigger:    trigger,
		Note:       note,
		OccurredAt: now,
	})
	return rec, nil
}

func (t *Tracker) emit(ctx context.Context, ev Event) {
	if err := t.sink.Record(ctx, ev); err != nil {
		t.logger.Warn("pipeline event sink failed",
			logfields.JobID(ev.JobID),
			logfields.ToStage(string(ev.To)),
			logfields.Error(err))
	}
}

// History returns the append-only transition log in insertion order. The
// returned slice is a copy; repeated calls yield identical results absent
// new transitions.
func (t *Tracker) History(id string) ([]Transition, error) {
	rec, err := t.store.Load(id)
	if err != nil {
		return nil, err
	}
	return rec.History, nil
}

// AddNote appends a timestamped free-form note.
func (t *Tracker) AddNote(id, text string) (Record, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Record{}, errors.ValidationFailed("note", "must not be blank")
	}

	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.Load(id)
	if err != nil {
		return Record{}, err
	}
	now := t.now()
	rec.Notes = append(rec.Notes, Note{Text: text, CreatedAt: now})
	rec.UpdatedAt = now
	if err := t.store.Save(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RecordArtifact attaches or replaces one generated artifact path.
func (t *Tracker) RecordArtifact(id string, kind ArtifactKind, path string) (Record, error) {
	if !artifactKinds[kind] {
		return Record{}, errors.ValidationError("unknown artifact kind").
			WithContext("kind", string(kind))
	}

	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := t.store.Load(id)
	if err != nil {
		return Record{}, err
	}
	if rec.Artifacts == nil {
		rec.Artifacts = make(map[ArtifactKind]string, 4)
	}
	rec.Artifacts[kind] = path
	rec.UpdatedAt = t.now()
	if err := t.store.Save(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Remove physically deletes a record. Idempotent: removing an unknown id is
// a success no-op. Irreversible.
func (t *Tracker) Remove(id string) error {
	lock := t.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	err := t.store.Delete(id)
	if err != nil && errors.IsCategory(err, errors.CategoryNotFound) {
		return nil
	}
	return err
}
