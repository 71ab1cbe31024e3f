package tasks

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

	"github.com/guideops/activity-comb/app/store"
)

// Watcher observes the drop directory and enqueues an import task for every
// workbook that lands in it.
type Watcher struct {
	dir       string
	scheduler TaskSchedulerInterface
	runner    *Runner
	sheet     *store.SheetAdapter
	fsWatcher *fsnotify.Watcher
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewWatcher(dir string, scheduler TaskSchedulerInterface, runner *Runner, sheet *store.SheetAdapter) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create drop directory: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dir:       dir,
		scheduler: scheduler,
		runner:    runner,
		sheet:     sheet,
		fsWatcher: fsWatcher,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (w *Watcher) Start() {
	w.enqueueExisting()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.ctx.Done():
				return
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if !isWorkbook(event.Name) {
					continue
				}
				// Give the writer a moment to finish the upload.
				time.Sleep(500 * time.Millisecond)
				w.enqueueImport(event.Name)
			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Watcher error", "dir", w.dir, "error", err)
			}
		}
	}()

	slog.Info("Watching drop directory for workbooks", "dir", w.dir)
}

func (w *Watcher) Stop() {
	w.cancel()
	w.fsWatcher.Close()
	w.wg.Wait()
}

// enqueueExisting imports workbooks that arrived while the service was down.
func (w *Watcher) enqueueExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		slog.Warn("Failed to scan drop directory", "dir", w.dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isWorkbook(entry.Name()) {
			continue
		}
		w.enqueueImport(filepath.Join(w.dir, entry.Name()))
	}
}

func (w *Watcher) enqueueImport(path string) {
	task := NewImportSheetTask(w.runner, w.sheet, path)
	if err := w.scheduler.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue ImportSheetTask", "path", path, "error", err)
		return
	}
	slog.Info("Workbook queued for import", "path", path)
}

func isWorkbook(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".imported")
}
