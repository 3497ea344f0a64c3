package pipeline

import (
	"sort"
	"time"
)

// Summary is the read-only projection used by dashboards and the work queue.
type Summary struct {
	ID              string    `json:"id"`
	Company         string    `json:"company"`
	Title           string    `json:"title"`
	Location        string    `json:"location,omitempty"`
	Stage           Stage     `json:"stage"`
	Outcome         Outcome   `json:"outcome,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	DaysSinceUpdate int       `json:"days_since_update"`
}

func summarize(rec Record, now time.Time) Summary {
	return Summary{
		ID:              rec.ID,
		Company:         rec.Company,
		Title:           rec.Title,
		Location:        rec.Location,
		Stage:           rec.Stage,
		Outcome:         rec.Outcome,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		DaysSinceUpdate: int(now.Sub(rec.UpdatedAt).Hours() / 24),
	}
}

// Overview groups all active (non-closed) records by current stage.
type Overview struct {
	Stages map[Stage][]Summary `json:"stages"`
	Counts map[Stage]int       `json:"counts"`
	Active int                 `json:"active"`
	Total  int                 `json:"total"`
}

// Overview returns the active records grouped by stage, each group ordered
// by creation time ascending (ID as tiebreak).
func (t *Tracker) Overview() (Overview, error) {
	recs, err := t.store.ListAll()
	if err != nil {
		return Overview{}, err
	}
	now := t.now()
	out := Overview{
		Stages: make(map[Stage][]Summary),
		Counts: make(map[Stage]int),
		Total:  len(recs),
	}
	for _, rec := range recs {
		out.Counts[rec.Stage]++
		if rec.Closed() {
			continue
		}
		out.Active++
		out.Stages[rec.Stage] = append(out.Stages[rec.Stage], summarize(rec, now))
	}
	for stage := range out.Stages {
		group := out.Stages[stage]
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].ID < group[j].ID
		})
	}
	return out, nil
}

// NextActions returns the prioritized work queue: earliest actionable stage
// first, oldest-stalled first within a stage, ID as the final tiebreak.
// Closed records never appear.
func (t *Tracker) NextActions(now time.Time) ([]Summary, error) {
	recs, err := t.store.ListAll()
	if err != nil {
		return nil, err
	}
	var out []Summary
	for _, rec := range recs {
		if rec.Closed() {
			continue
		}
		out = append(out, summarize(rec, now))
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].Stage.Index(), out[j].Stage.Index()
		if si != sj {
			return si < sj
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Board groups the work queue the way the dashboard presents it.
type Board struct {
	Overdue    []Summary `json:"overdue"`
	ReadyToAct []Summary `json:"ready_to_act"`
	InProgress []Summary `json:"in_progress"`
	NextUp     []Summary `json:"next_up"`
}

// nextUpCap limits how many early-stage records the board surfaces.
const nextUpCap = 5

// ActionBoard buckets active records: overdue follow-ups (waiting longer
// than followUpDays at applied/screening/interviewing, oldest first), ready
// to act (resume_ready, oldest first), in progress (not overdue, most recent
// first), and next up (discovered/researched, newest first, capped).
func (t *Tracker) ActionBoard(now time.Time, followUpDays int) (Board, error) {
	if followUpDays <= 0 {
		followUpDays = 7
	}
	recs, err := t.store.ListAll()
	if err != nil {
		return Board{}, err
	}

	var board Board
	for _, rec := range recs {
		s := summarize(rec, now)
		switch rec.Stage {
		case StageApplied, StageScreening, StageInterviewing:
			if s.DaysSinceUpdate >= followUpDays {
				board.Overdue = append(board.Overdue, s)
			} else {
				board.InProgress = append(board.InProgress, s)
			}
		case StageOffer:
			board.InProgress = append(board.InProgress, s)
		case StageResumeReady:
			board.ReadyToAct = append(board.ReadyToAct, s)
		case StageDiscovered, StageResearched:
			board.NextUp = append(board.NextUp, s)
		}
	}

	byOldest := func(group []Summary) {
		sort.Slice(group, func(i, j int) bool {
			if !group[i].UpdatedAt.Equal(group[j].UpdatedAt) {
				return group[i].UpdatedAt.Before(group[j].UpdatedAt)
			}
			return group[i].ID < group[j].ID
		})
	}
	byNewest := func(group []Summary) {
		sort.Slice(group, func(i, j int) bool {
			if !group[i].UpdatedAt.Equal(group[j].UpdatedAt) {
				return group[i].UpdatedAt.After(group[j].UpdatedAt)
			}
			return group[i].ID < group[j].ID
		})
	}
	byOldest(board.Overdue)
	byOldest(board.ReadyToAct)
	byNewest(board.InProgress)
	byNewest(board.NextUp)
	if len(board.NextUp) > nextUpCap {
		board.NextUp = board.NextUp[:nextUpCap]
	}
	return board, nil
}

// Stats summarizes the pipeline: counts by stage, outcomes of closed
// records, and totals.
type Stats struct {
	Total     int             `json:"total"`
	Active    int             `json:"active"`
	ByStage   map[Stage]int   `json:"by_stage"`
	ByOutcome map[Outcome]int `json:"by_outcome"`
}

// Stats computes pipeline-wide counts.
func (t *Tracker) Stats() (Stats, error) {
	recs, err := t.store.ListAll()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		ByStage:   make(map[Stage]int, len(stageOrder)),
		ByOutcome: make(map[Outcome]int, len(outcomeSet)),
	}
	for _, stage := range stageOrder {
		st.ByStage[stage] = 0
	}
	for _, o := range Outcomes() {
		st.ByOutcome[o] = 0
	}
	for _, rec := range recs {
		st.Total++
		st.ByStage[rec.Stage]++
		if rec.Closed() && rec.Outcome != "" {
			st.ByOutcome[rec.Outcome]++
		} else if !rec.Closed() {
			st.Active++
		}
	}
	return st, nil
}
