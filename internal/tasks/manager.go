// Package tasks runs long LLM-backed operations asynchronously behind a
// bounded worker pool, so the HTTP API can return 202 with a task ID instead
// of holding connections open for a minute of generation.
package tasks

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/ids"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
	"git.home.luguber.info/inful/talentscout/internal/metrics"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Task is a snapshot of one asynchronous operation. Result is set on
// completion, Error on failure.
type Task struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	JobID      string     `json:"job_id,omitempty"`
	Status     Status     `json:"status"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Fn is the work a task performs. The returned value becomes the task result.
type Fn func(ctx context.Context) (any, error)

type submission struct {
	id string
	fn Fn
}

// DefaultListLimit bounds List responses when the caller passes 0.
const DefaultListLimit = 20

// Manager owns the worker pool and the task table. Tasks are kept in memory
// only; a restart forgets finished and pending work.
type Manager struct {
	workers  int
	queue    chan submission
	logger   *slog.Logger
	recorder metrics.Recorder
	now      func() time.Time

	mu    sync.RWMutex
	table map[string]*Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithWorkers sets the pool size.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithRecorder wires metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// NewManager creates a stopped manager; call Start before submitting.
func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		workers:  2,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
		table:    make(map[string]*Task),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.queue = make(chan submission, 4*m.workers)
	return m
}

// Start launches the worker pool. Subsequent calls are no-ops.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.ctx, m.cancel = context.WithCancel(ctx)
		for i := 0; i < m.workers; i++ {
			m.wg.Add(1)
			go m.worker()
		}
		m.logger.Debug("task manager started", slog.Int("workers", m.workers))
	})
}

// Stop cancels running tasks and waits for the workers to drain.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		close(m.queue)
		m.wg.Wait()
	})
}

// Submit enqueues fn and returns the pending task snapshot. Submissions fail
// with a conflict when the queue is saturated.
func (m *Manager) Submit(kind, jobID string, fn Fn) (Task, error) {
	if m.ctx == nil {
		return Task{}, errors.InternalError("task manager not started", nil)
	}
	task := &Task{
		ID:        ids.NewTaskID(),
		Kind:      kind,
		JobID:     jobID,
		Status:    StatusPending,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	m.table[task.ID] = task
	m.mu.Unlock()

	select {
	case m.queue <- submission{id: task.ID, fn: fn}:
	default:
		m.mu.Lock()
		delete(m.table, task.ID)
		m.mu.Unlock()
		return Task{}, errors.Conflict("task queue is full; retry shortly").
			WithContext("kind", kind)
	}

	m.logger.Info("task submitted",
		logfields.TaskID(task.ID),
		slog.String("kind", kind),
		logfields.JobID(jobID))
	return *task, nil
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for sub := range m.queue {
		m.run(sub)
	}
}

func (m *Manager) run(sub submission) {
	started := m.now()
	m.update(sub.id, func(t *Task) {
		t.Status = StatusRunning
		t.StartedAt = &started
	})

	result, err := sub.fn(m.ctx)

	finished := m.now()
	var kind string
	m.update(sub.id, func(t *Task) {
		kind = t.Kind
		t.FinishedAt = &finished
		if err != nil {
			t.Status = StatusFailed
			t.Error = err.Error()
			return
		}
		t.Status = StatusCompleted
		t.Result = result
	})

	if err != nil {
		m.recorder.IncTaskResult(kind, string(StatusFailed))
		m.logger.Warn("task failed",
			logfields.TaskID(sub.id),
			slog.String("kind", kind),
			logfields.Error(err))
		return
	}
	m.recorder.IncTaskResult(kind, string(StatusCompleted))
	m.logger.Info("task completed",
		logfields.TaskID(sub.id),
		slog.String("kind", kind),
		logfields.DurationMS(float64(finished.Sub(started).Milliseconds())))
}

func (m *Manager) update(id string, mutate func(*Task)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.table[id]; ok {
		mutate(t)
	}
}

// Get returns a task snapshot by ID.
func (m *Manager) Get(id string) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.table[id]
	if !ok {
		return Task{}, errors.NotFound("task", id)
	}
	return *t, nil
}

// List returns task snapshots newest-first, capped at limit (default 20).
func (m *Manager) List(limit int) []Task {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	m.mu.RLock()
	out := make([]Task, 0, len(m.table))
	for _, t := range m.table {
		out = append(out, *t)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Wait blocks until the task reaches a terminal status or the context ends.
// Intended for tests and the CLI's synchronous mode.
func (m *Manager) Wait(ctx context.Context, id string) (Task, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		t, err := m.Get(id)
		if err != nil {
			return Task{}, err
		}
		if t.Status == StatusCompleted || t.Status == StatusFailed {
			return t, nil
		}
		select {
		case <-ctx.Done():
			return t, ctx.Err()
		case <-ticker.C:
		}
	}
}
