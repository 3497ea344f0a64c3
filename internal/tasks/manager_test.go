package tasks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

func startedManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m := NewManager(nil, opts...)
	m.Start(context.Background())
	t.Cleanup(m.Stop)
	return m
}

func TestSubmitRunsToCompletion(t *testing.T) {
	m := startedManager(t)

	task, err := m.Submit("analyze", "JOB-ACME-AB12CD", func(ctx context.Context) (any, error) {
		return map[string]string{"verdict": "apply"}, nil
	})
	require.NoError(t, err)
	require.Len(t, task.ID, 12)
	require.Equal(t, StatusPending, task.Status)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done, err := m.Wait(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, done.Status)
	require.Equal(t, map[string]string{"verdict": "apply"}, done.Result)
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.FinishedAt)
	require.Empty(t, done.Error)
}

func TestSubmitCapturesFailure(t *testing.T) {
	m := startedManager(t)

	task, err := m.Submit("resume", "", func(ctx context.Context) (any, error) {
		return nil, fmt.Errorf("model unavailable")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done, err := m.Wait(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, done.Status)
	require.Equal(t, "model unavailable", done.Error)
	require.Nil(t, done.Result)
}

func TestSubmitBeforeStartFails(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Submit("analyze", "", func(ctx context.Context) (any, error) { return nil, nil })
	require.Error(t, err)
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	m := startedManager(t, WithWorkers(1))

	release := make(chan struct{})
	var wg sync.WaitGroup
	block := func(ctx context.Context) (any, error) {
		wg.Done()
		<-release
		return nil, nil
	}

	// Occupy the single worker, then fill the queue behind it.
	wg.Add(1)
	_, err := m.Submit("block", "", block)
	require.NoError(t, err)
	wg.Wait()

	saturated := false
	for i := 0; i < 10; i++ {
		_, err := m.Submit("fill", "", func(ctx context.Context) (any, error) {
			<-release
			return nil, nil
		})
		if errors.IsCategory(err, errors.CategoryConflict) {
			saturated = true
			break
		}
		require.NoError(t, err)
	}
	require.True(t, saturated)
	close(release)
}

func TestGetUnknownIsNotFound(t *testing.T) {
	m := startedManager(t)
	_, err := m.Get("000000000000")
	require.True(t, errors.IsCategory(err, errors.CategoryNotFound))
}

func TestListNewestFirstAndCapped(t *testing.T) {
	m := startedManager(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	m.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}

	var last Task
	for i := 0; i < 25; i++ {
		task, err := m.Submit("noop", "", func(ctx context.Context) (any, error) { return nil, nil })
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err = m.Wait(ctx, task.ID)
		cancel()
		require.NoError(t, err)
		last = task
	}

	list := m.List(0)
	require.Len(t, list, DefaultListLimit)
	require.Equal(t, last.ID, list[0].ID)

	require.Len(t, m.List(3), 3)
	require.Len(t, m.List(100), 25)
}
