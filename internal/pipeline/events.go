package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/logfields"
)

// Event describes one applied transition, emitted after the store write
// succeeds. Outcome is set only for transitions into closed.
type Event struct {
	JobID      string    `json:"job_id"`
	Company    string    `json:"company"`
	From       Stage     `json:"from"`
	To         Stage     `json:"to"`
	Outcome    Outcome   `json:"outcome,omitempty"`
	Trigger    string    `json:"trigger"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventSink receives pipeline events. Implementations must be safe for
// concurrent use. Sink failures never affect pipeline correctness; the
// tracker logs and continues.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
}

// NoopSink discards events.
type NoopSink struct{}

func (NoopSink) Record(context.Context, Event) error { return nil }

// FanoutSink delivers each event to every sink in order, logging individual
// failures and always returning nil.
type FanoutSink struct {
	sinks  []EventSink
	logger *slog.Logger
}

// NewFanoutSink builds a fan-out over the given sinks; nil entries are
// skipped.
func NewFanoutSink(logger *slog.Logger, sinks ...EventSink) *FanoutSink {
	if logger == nil {
		logger = slog.Default()
	}
	out := &FanoutSink{logger: logger}
	for _, s := range sinks {
		if s != nil {
			out.sinks = append(out.sinks, s)
		}
	}
	return out
}

func (f *FanoutSink) Record(ctx context.Context, ev Event) error {
	for _, s := range f.sinks {
		if err := s.Record(ctx, ev); err != nil {
			f.logger.Warn("event sink failed",
				logfields.JobID(ev.JobID),
				logfields.ToStage(string(ev.To)),
				logfields.Error(err))
		}
	}
	return nil
}
