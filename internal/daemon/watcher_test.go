package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

type recordingImporter struct {
	mu    sync.Mutex
	paths []string
	fail  bool
}

func (r *recordingImporter) importFile(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	if r.fail {
		return errors.GenerationFailed("parse posting", nil)
	}
	return nil
}

func (r *recordingImporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func startWatcher(t *testing.T, imp *recordingImporter) (*ImportWatcher, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := NewImportWatcher(dir, imp.importFile, nil)
	require.NoError(t, err)
	w.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})
	return w, dir
}

func TestWatcherImportsAndFilesNewPostings(t *testing.T) {
	imp := &recordingImporter{}
	_, dir := startWatcher(t, imp)

	path := filepath.Join(dir, "posting.md")
	require.NoError(t, os.WriteFile(path, []byte("# Role"), 0o644))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, importedSubdir, "posting.md"))
		return err == nil
	}, 3*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, imp.count())
	require.NoFileExists(t, path)
}

func TestWatcherFilesFailuresSeparately(t *testing.T) {
	imp := &recordingImporter{fail: true}
	_, dir := startWatcher(t, imp)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, failedSubdir, "bad.md"))
		return err == nil
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	imp := &recordingImporter{}
	_, dir := startWatcher(t, imp)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0o644))

	time.Sleep(150 * time.Millisecond)
	require.Zero(t, imp.count())
}

func TestWatcherProcessesBacklogOnStart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.md"), []byte("# Role"), 0o644))

	imp := &recordingImporter{}
	w, err := NewImportWatcher(dir, imp.importFile, nil)
	require.NoError(t, err)
	w.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})

	require.Eventually(t, func() bool {
		return imp.count() == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSchedulerRunsRegisteredJob(t *testing.T) {
	s, err := newScheduler(nil)
	require.NoError(t, err)

	fired := make(chan struct{}, 8)
	require.NoError(t, s.Every(10*time.Millisecond, "tick", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}))
	s.Start()
	defer func() { require.NoError(t, s.Stop()) }()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}
