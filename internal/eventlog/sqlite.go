// Package eventlog keeps an append-only SQLite audit of pipeline transitions.
// The log is an observer: pipeline correctness never depends on it, and a
// write failure is logged by the tracker, not propagated.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/talentscout/internal/pipeline"
)

// Entry is one audited transition as read back from the log.
type Entry struct {
	ID         int64     `json:"id"`
	JobID      string    `json:"job_id"`
	From       string    `json:"from_stage"`
	To         string    `json:"to_stage"`
	Outcome    string    `json:"outcome,omitempty"`
	Trigger    string    `json:"trigger"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SQLite is the embedded transition log. It implements pipeline.EventSink.
// Use ":memory:" for tests, a file path for persistence.
type SQLite struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and if needed creates) the transition log at dbPath.
func Open(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		from_stage TEXT NOT NULL,
		to_stage TEXT NOT NULL,
		outcome TEXT,
		trigger_name TEXT NOT NULL,
		note TEXT,
		occurred_at INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transitions_job_id ON transitions(job_id);
	CREATE INDEX IF NOT EXISTS idx_transitions_occurred_at ON transitions(occurred_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record implements pipeline.EventSink.
func (s *SQLite) Record(ctx context.Context, ev pipeline.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transitions (job_id, from_stage, to_stage, outcome, trigger_name, note, occurred_at, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		ev.JobID, string(ev.From), string(ev.To), string(ev.Outcome), ev.Trigger, ev.Note,
		ev.OccurredAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// ByJob returns every audited transition for one record, in append order.
func (s *SQLite) ByJob(ctx context.Context, jobID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, job_id, from_stage, to_stage, outcome, trigger_name, note, occurred_at, recorded_at FROM transitions WHERE job_id = ? ORDER BY id",
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()
	return s.scan(rows)
}

// Range returns transitions that occurred within [start, end], oldest first,
// capped at limit when limit > 0.
func (s *SQLite) Range(ctx context.Context, start, end time.Time, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, job_id, from_stage, to_stage, outcome, trigger_name, note, occurred_at, recorded_at FROM transitions WHERE occurred_at >= ? AND occurred_at <= ? ORDER BY id"
	args := []any{start.Unix(), end.Unix()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()
	return s.scan(rows)
}

func (s *SQLite) scan(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var occurred, recorded int64
		if err := rows.Scan(&e.ID, &e.JobID, &e.From, &e.To, &e.Outcome, &e.Trigger, &e.Note, &occurred, &recorded); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		e.OccurredAt = time.Unix(occurred, 0).UTC()
		e.RecordedAt = time.Unix(recorded, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
