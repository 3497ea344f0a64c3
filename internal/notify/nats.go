// Package notify publishes pipeline transition events to NATS JetStream so
// external automations (phone notifications, dashboards) can react without
// polling the data dir.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
)

// SubjectPrefix is the subject root; the destination stage is appended, e.g.
// scout.pipeline.applied.
const SubjectPrefix = "scout.pipeline"

// StreamName is the JetStream stream ensured at connect time.
const StreamName = "SCOUT_PIPELINE"

const publishTimeout = 5 * time.Second

// Publisher implements pipeline.EventSink over a JetStream connection.
type Publisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	prefix string
	logger *slog.Logger
}

// Connect dials NATS and ensures the pipeline stream exists. An empty
// subjectPrefix falls back to SubjectPrefix.
func Connect(ctx context.Context, url, subjectPrefix string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if subjectPrefix == "" {
		subjectPrefix = SubjectPrefix
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, errors.NetworkError(url, err).WithContext("operation", "connect nats")
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.InternalError("create jetstream context", err)
	}

	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ensureCtx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ".>"},
		MaxAge:    30 * 24 * time.Hour,
		Retention: jetstream.LimitsPolicy,
	})
	if err != nil {
		conn.Close()
		return nil, errors.NetworkError(url, err).WithContext("operation", "ensure stream")
	}

	logger.Info("event publisher connected",
		logfields.URL(url),
		slog.String("stream", StreamName),
		slog.String("subject_prefix", subjectPrefix))
	return &Publisher{conn: conn, js: js, prefix: subjectPrefix, logger: logger}, nil
}

// Record publishes the event to scout.pipeline.<to-stage>.
func (p *Publisher) Record(ctx context.Context, ev pipeline.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.InternalError("encode pipeline event", err)
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	subject := p.prefix + "." + string(ev.To)
	if _, err := p.js.Publish(pubCtx, subject, data); err != nil {
		return errors.NetworkError(subject, err).WithContext("operation", "publish event")
	}
	p.logger.Debug("pipeline event published",
		logfields.JobID(ev.JobID),
		logfields.ToStage(string(ev.To)),
		slog.String("subject", subject))
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
