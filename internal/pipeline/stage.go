// Package pipeline implements the application pipeline state machine: typed
// stages and outcomes, append-only transition history, and a Tracker that
// serializes all mutations per record.
package pipeline

import (
	"strings"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

// Stage is a pipeline stage. The zero value is not a valid stage; records are
// created at StageDiscovered.
type Stage string

// Canonical stages in pipeline order.
const (
	StageDiscovered   Stage = "discovered"
	StageResearched   Stage = "researched"
	StageResumeReady  Stage = "resume_ready"
	StageApplied      Stage = "applied"
	StageScreening    Stage = "screening"
	StageInterviewing Stage = "interviewing"
	StageOffer        Stage = "offer"
	StageClosed       Stage = "closed"
)

var stageOrder = []Stage{
	StageDiscovered,
	StageResearched,
	StageResumeReady,
	StageApplied,
	StageScreening,
	StageInterviewing,
	StageOffer,
	StageClosed,
}

var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(stageOrder))
	for i, s := range stageOrder {
		m[s] = i
	}
	return m
}()

// Stages returns every stage in canonical pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ActiveStages returns every stage except closed, in canonical order.
func ActiveStages() []Stage {
	return Stages()[:len(stageOrder)-1]
}

// ParseStage converts a raw string into a Stage, rejecting unknown values.
func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := stageIndex[stage]; !ok {
		return "", errors.ValidationError("unknown stage").
			WithContext("stage", s).
			WithContext("valid", stageNames())
	}
	return stage, nil
}

// Valid reports whether s is one of the canonical stages.
func (s Stage) Valid() bool {
	_, ok := stageIndex[s]
	return ok
}

// Index returns the stage's position in canonical order, or -1 for unknown
// values.
func (s Stage) Index() int {
	i, ok := stageIndex[s]
	if !ok {
		return -1
	}
	return i
}

// Before reports whether s comes strictly before other in canonical order.
func (s Stage) Before(other Stage) bool {
	return s.Index() < other.Index()
}

func (s Stage) String() string { return string(s) }

func stageNames() []string {
	names := make([]string, len(stageOrder))
	for i, s := range stageOrder {
		names[i] = string(s)
	}
	return names
}

// Outcome is the terminal result of a closed record. Empty means not closed.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeRejected  Outcome = "rejected"
	OutcomeDeclined  Outcome = "declined"
	OutcomeGhosted   Outcome = "ghosted"
	OutcomeWithdrawn Outcome = "withdrawn"
)

var outcomeSet = map[Outcome]bool{
	OutcomeAccepted:  true,
	OutcomeRejected:  true,
	OutcomeDeclined:  true,
	OutcomeGhosted:   true,
	OutcomeWithdrawn: true,
}

// Outcomes returns all valid closed outcomes.
func Outcomes() []Outcome {
	return []Outcome{OutcomeAccepted, OutcomeRejected, OutcomeDeclined, OutcomeGhosted, OutcomeWithdrawn}
}

// ParseOutcome converts a raw string into an Outcome, rejecting unknown
// values. The empty string is not a valid outcome.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(strings.ToLower(strings.TrimSpace(s)))
	if !outcomeSet[o] {
		return "", errors.ValidationError("unknown outcome").
			WithContext("outcome", s).
			WithContext("valid", outcomeNames())
	}
	return o, nil
}

// Valid reports whether o is one of the canonical outcomes.
func (o Outcome) Valid() bool { return outcomeSet[o] }

func (o Outcome) String() string { return string(o) }

func outcomeNames() []string {
	all := Outcomes()
	names := make([]string, len(all))
	for i, o := range all {
		names[i] = string(o)
	}
	return names
}
