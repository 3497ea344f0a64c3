package pipeline

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

// SchemaVersion is stamped on every record so future layout changes can
// migrate on load.
const SchemaVersion = 1

// Trigger strings recorded on history entries. Composer-driven advances use
// the auto: prefix, operator commands the manual: prefix.
const (
	TriggerImport        = "import"
	TriggerManualStatus  = "manual:status"
	TriggerManualApply   = "manual:apply"
	TriggerManualClose   = "manual:close"
	TriggerManualReopen  = "manual:reopen"
	TriggerAutoAnalyze   = "auto:analyze"
	TriggerAutoResume    = "auto:resume"
)

// ArtifactKind names a generated document attached to a record.
type ArtifactKind string

const (
	ArtifactAnalysis      ArtifactKind = "analysis"
	ArtifactResume        ArtifactKind = "resume"
	ArtifactCoverLetter   ArtifactKind = "cover_letter"
	ArtifactInterviewPrep ArtifactKind = "interview_prep"
)

var artifactKinds = map[ArtifactKind]bool{
	ArtifactAnalysis:      true,
	ArtifactResume:        true,
	ArtifactCoverLetter:   true,
	ArtifactInterviewPrep: true,
}

// ParseArtifactKind converts a raw string into an ArtifactKind.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	k := ArtifactKind(strings.ToLower(strings.TrimSpace(s)))
	if !artifactKinds[k] {
		return "", errors.ValidationError("unknown artifact kind").WithContext("kind", s)
	}
	return k, nil
}

// Transition is one append-only history entry. From is empty for the creation
// seed entry.
type Transition struct {
	From    Stage     `json:"from"`
	To      Stage     `json:"to"`
	At      time.Time `json:"at"`
	Trigger string    `json:"trigger"`
	Note    string    `json:"note,omitempty"`
}

// Note is a free-form operator annotation on a record.
type Note struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is one tracked application. Stage always equals the To of the last
// history entry; Outcome is only set on closed records (except inside the
// explicit reopen window after ClearOutcome).
type Record struct {
	SchemaVersion int    `json:"schema_version"`
	ID            string `json:"id"`
	Company       string `json:"company"`
	Title         string `json:"title"`
	URL           string `json:"url,omitempty"`
	Location      string `json:"location,omitempty"`
	Source        string `json:"source,omitempty"`

	Stage   Stage   `json:"stage"`
	Outcome Outcome `json:"outcome,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	AppliedAt  *time.Time `json:"applied_at,omitempty"`
	AppliedVia string     `json:"applied_via,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`

	Artifacts map[ArtifactKind]string `json:"artifacts,omitempty"`
	Notes     []Note                  `json:"notes,omitempty"`
	History   []Transition            `json:"history"`
}

// Clone returns a deep copy so callers can never mutate stored state through
// a returned record.
func (r Record) Clone() Record {
	out := r
	if r.AppliedAt != nil {
		t := *r.AppliedAt
		out.AppliedAt = &t
	}
	if r.ClosedAt != nil {
		t := *r.ClosedAt
		out.ClosedAt = &t
	}
	if r.Artifacts != nil {
		out.Artifacts = make(map[ArtifactKind]string, len(r.Artifacts))
		for k, v := range r.Artifacts {
			out.Artifacts[k] = v
		}
	}
	if r.Notes != nil {
		out.Notes = make([]Note, len(r.Notes))
		copy(out.Notes, r.Notes)
	}
	if r.History != nil {
		out.History = make([]Transition, len(r.History))
		copy(out.History, r.History)
	}
	return out
}

// Closed reports whether the record sits at the terminal stage.
func (r Record) Closed() bool { return r.Stage == StageClosed }
