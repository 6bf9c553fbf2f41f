package docindex

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shihwesley/chronicler-sub000/internal/storage"
)

// storeSink feeds watcher events straight into a Store.
type storeSink struct {
	store *Store
}

func (s *storeSink) OnFileChanged(location string, content []byte) {
	s.store.Upsert(location, content)
}

func (s *storeSink) OnFileDeleted(location string) {
	s.store.Remove(location)
}

func (s *storeSink) Has(location string) bool {
	_, ok := s.store.GetByLocation(location)
	return ok
}

func (s *storeSink) Checksums() map[string]string {
	return s.store.Checksums()
}

// watcherTestEnv sets up a workspace dir, storage, and index for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store, NewStore()
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatcher(t *testing.T, store storage.Provider, root string, idx *Store, cb EventCallback) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	w := NewWatcher(store, root, &storeSink{store: idx}, logger, cb)
	go func() { _ = w.Run(ctx) }()
	// Give the fsnotify loop time to register the root.
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	dir, store, idx := watcherTestEnv(t)

	var mu sync.Mutex
	var events []string
	startWatcher(t, store, dir, idx, func(kind, location string) {
		mu.Lock()
		events = append(events, kind+":"+location)
		mu.Unlock()
	})

	_ = os.WriteFile(filepath.Join(dir, "new.md"), []byte("---\nid: new\n---\n# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := idx.GetByIdentity("new")
		return ok
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.md" {
				return true
			}
		}
		return false
	}, "expected created:new.md callback")
}

func TestWatcher_DebounceCoalescesWrites(t *testing.T) {
	dir, store, idx := watcherTestEnv(t)

	var mu sync.Mutex
	changed := 0
	startWatcher(t, store, dir, idx, func(kind, location string) {
		if location == "burst.md" && kind != "deleted" {
			mu.Lock()
			changed++
			mu.Unlock()
		}
	})

	// Rapid successive writes inside one debounce window.
	path := filepath.Join(dir, "burst.md")
	for i := 0; i < 5; i++ {
		_ = os.WriteFile(path, []byte("# Burst v"+string(rune('0'+i))), 0o644)
		time.Sleep(10 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := idx.GetByLocation("burst.md")
		return ok
	}, "burst file not indexed")

	// Let any stragglers settle, then check the burst collapsed.
	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if changed > 2 {
		t.Errorf("change callbacks = %d, want coalesced (<= 2)", changed)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir, store, idx := watcherTestEnv(t)
	startWatcher(t, store, dir, idx, nil)

	subDir := filepath.Join(dir, "subdir")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := idx.GetByLocation(filepath.Join("subdir", "deep.md"))
		return ok
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	dir, store, idx := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "del.md"), []byte("# Delete Me"), 0o644)
	idx.Upsert("del.md", []byte("# Delete Me"))

	startWatcher(t, store, dir, idx, nil)

	_ = os.Remove(filepath.Join(dir, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := idx.GetByLocation("del.md")
		return !ok
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, store, idx := watcherTestEnv(t)

	content := []byte("---\nid: rename\n---\n# Rename")
	_ = os.WriteFile(filepath.Join(dir, "old.md"), content, 0o644)
	idx.Upsert("old.md", content)

	startWatcher(t, store, dir, idx, nil)

	_ = os.Rename(filepath.Join(dir, "old.md"), filepath.Join(dir, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, oldOK := idx.GetByLocation("old.md")
		_, newOK := idx.GetByLocation("renamed.md")
		return !oldOK && newOK
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}
