package docindex

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shihwesley/chronicler-sub000/internal/storage"
)

// DocExtension is the file suffix recognized as a component document.
const DocExtension = ".md"

// Sink receives debounced, ordered file events from the watcher.
type Sink interface {
	OnFileChanged(location string, content []byte)
	OnFileDeleted(location string)
	Has(location string) bool
	Checksums() map[string]string
}

// EventCallback is invoked after each applied change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind, location string)

// Watcher observes a workspace root and feeds debounced events to a Sink.
// It is an explicit object with its own run lifecycle so multiple
// workspaces can be watched in one process without cross-talk.
type Watcher struct {
	store    storage.Provider
	root     string
	sink     Sink
	logger   *slog.Logger
	cb       EventCallback
	debounce time.Duration
}

// NewWatcher creates a watcher for the given workspace root. cb may be nil.
func NewWatcher(store storage.Provider, root string, sink Sink, logger *slog.Logger, cb EventCallback) *Watcher {
	return &Watcher{
		store:    store,
		root:     root,
		sink:     sink,
		logger:   logger,
		cb:       cb,
		debounce: 200 * time.Millisecond,
	}
}

// Run starts the fsnotify loop and processes events until ctx is
// cancelled. Rapid successive writes to one file are coalesced into a
// single sink call; rename events trigger a reconciliation pass.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}

	w.logger.Info("watcher: started", slog.String("root", w.root))

	// flushCh carries debounced paths; timers only ever send here, the
	// loop goroutine owns all other state.
	flushCh := make(chan string, 64)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	schedule := func(rel string) {
		if t, ok := timers[rel]; ok {
			t.Reset(w.debounce)
			return
		}
		timers[rel] = time.AfterFunc(w.debounce, func() {
			select {
			case flushCh <- rel:
			case <-ctx.Done():
			}
		})
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(w.debounce)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(w.debounce)
		}
	}
	defer func() {
		if reconcileTimer != nil {
			reconcileTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case rel := <-flushCh:
			delete(timers, rel)
			w.applyChange(rel)

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, absPath); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					w.indexNewDir(absPath, schedule)
					continue
				}
			}

			if !strings.HasSuffix(absPath, DocExtension) {
				continue
			}
			rel, relErr := filepath.Rel(w.root, absPath)
			if relErr != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				schedule(rel)

			case ev.Op&fsnotify.Remove != 0:
				if t, ok := timers[rel]; ok {
					t.Stop()
					delete(timers, rel)
				}
				w.applyDelete(rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the old path only; the new
				// path arrives as a separate Create. Drop the old entry
				// now and reconcile shortly after for stragglers.
				if t, ok := timers[rel]; ok {
					t.Stop()
					delete(timers, rel)
				}
				w.applyDelete(rel)
				scheduleReconcile()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// applyChange reads the file and feeds it to the sink. A file that
// vanished between event and flush is treated as deleted.
func (w *Watcher) applyChange(rel string) {
	data, err := w.store.Read(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && w.sink.Has(rel) {
			w.applyDelete(rel)
			return
		}
		w.logger.Warn("watcher: read failed", slog.String("location", rel), slog.String("error", err.Error()))
		return
	}
	kind := "updated"
	if !w.sink.Has(rel) {
		kind = "created"
	}
	w.sink.OnFileChanged(rel, data)
	w.logger.Debug("watcher: indexed", slog.String("location", rel), slog.String("op", kind))
	if w.cb != nil {
		w.cb(kind, rel)
	}
}

func (w *Watcher) applyDelete(rel string) {
	if !w.sink.Has(rel) {
		return
	}
	w.sink.OnFileDeleted(rel)
	w.logger.Debug("watcher: deleted", slog.String("location", rel))
	if w.cb != nil {
		w.cb("deleted", rel)
	}
}

// reconcile compares the sink's view with the disk after a rename burst:
// stale entries are removed, changed or new files re-fed.
func (w *Watcher) reconcile() {
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}
	known := w.sink.Checksums()

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Location] = m.Checksum
	}

	for loc := range known {
		if _, ok := disk[loc]; !ok {
			w.applyDelete(loc)
		}
	}
	for loc, cs := range disk {
		if known[loc] == cs {
			continue
		}
		w.applyChange(loc)
	}
}

// indexNewDir schedules any document files already present in a newly
// created directory.
func (w *Watcher) indexNewDir(dirPath string, schedule func(string)) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, DocExtension) {
			return nil
		}
		if rel, relErr := filepath.Rel(w.root, path); relErr == nil {
			schedule(rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
