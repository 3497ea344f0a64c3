package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
)

const (
	importedSubdir = "imported"
	failedSubdir   = "failed"

	// settleDelay lets editors and downloads finish writing before import.
	settleDelay = 500 * time.Millisecond
)

// ImportFunc imports one posting file.
type ImportFunc func(ctx context.Context, path string) error

// ImportWatcher watches the import directory and feeds new markdown files
// to the import function, then files them under imported/ or failed/.
type ImportWatcher struct {
	dir      string
	importFn ImportFunc
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	settle   time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer

	stop chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewImportWatcher prepares the directory layout and the fsnotify watcher.
func NewImportWatcher(dir string, importFn ImportFunc, logger *slog.Logger) (*ImportWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range []string{dir, filepath.Join(dir, importedSubdir), filepath.Join(dir, failedSubdir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, errors.StorageError("create import directory", err).WithContext("path", d)
		}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.InternalError("create file watcher", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, errors.StorageError("watch import directory", err).WithContext("path", dir)
	}
	return &ImportWatcher{
		dir:      dir,
		importFn: importFn,
		watcher:  watcher,
		logger:   logger,
		settle:   settleDelay,
		pending:  make(map[string]*time.Timer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start processes files already present, then follows new events.
func (w *ImportWatcher) Start(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return errors.StorageError("read import directory", err).WithContext("path", w.dir)
	}
	for _, e := range entries {
		if !e.IsDir() && isPostingFile(e.Name()) {
			w.schedule(ctx, filepath.Join(w.dir, e.Name()))
		}
	}

	go w.loop(ctx)
	w.logger.Info("import watcher started", logfields.Path(w.dir))
	return nil
}

// Stop cancels pending timers and waits for in-flight imports.
func (w *ImportWatcher) Stop() {
	close(w.stop)
	_ = w.watcher.Close()
	<-w.done

	w.mu.Lock()
	for _, t := range w.pending {
		// A timer that was stopped in time never fires, so release its
		// wait-group slot here.
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("import watcher stopped")
}

func (w *ImportWatcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if filepath.Dir(event.Name) != w.dir || !isPostingFile(filepath.Base(event.Name)) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("import watcher error", logfields.Error(err))
		}
	}
}

// schedule (re)arms the settle timer for one file. Repeated writes keep
// pushing the import back until the file goes quiet.
func (w *ImportWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.process(ctx, path)
	})
}

func (w *ImportWatcher) process(ctx context.Context, path string) {
	select {
	case <-w.stop:
		return
	default:
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	err := w.importFn(ctx, path)
	dest := importedSubdir
	if err != nil {
		dest = failedSubdir
		w.logger.Error("watched posting import failed",
			logfields.Path(path),
			logfields.Error(err))
	}
	w.file(path, dest)
}

// file moves a processed posting into imported/ or failed/, timestamping
// the name on collision.
func (w *ImportWatcher) file(path, subdir string) {
	name := filepath.Base(path)
	target := filepath.Join(w.dir, subdir, name)
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(w.dir, subdir,
			fmt.Sprintf("%d-%s", time.Now().Unix(), name))
	}
	if err := os.Rename(path, target); err != nil {
		w.logger.Error("move processed posting failed",
			logfields.Path(path),
			logfields.Error(err))
	}
}

func isPostingFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}
