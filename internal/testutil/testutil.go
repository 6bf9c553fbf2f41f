// Package testutil provides shared test helpers for setting up workspaces
// and search mirrors.
package testutil

import (
	"os"
	"testing"

	"github.com/shihwesley/chronicler-sub000/internal/search"
	"github.com/shihwesley/chronicler-sub000/internal/storage"
)

// TestMirror creates a temporary search mirror that is automatically cleaned up.
func TestMirror(t *testing.T) *search.Mirror {
	t.Helper()
	f, err := os.CreateTemp("", "chronicler-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	m, err := search.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

// TestWorkspace creates a temporary workspace directory with a storage.Provider.
func TestWorkspace(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
