package search

import (
	"os"
	"testing"

	"github.com/shihwesley/chronicler-sub000/internal/parser"
)

func testMirror(t *testing.T) *Mirror {
	t.Helper()
	f, err := os.CreateTemp("", "chronicler-search-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	m, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestIndexAndSearch(t *testing.T) {
	m := testMirror(t)
	doc := parser.Parse("auth.md", []byte("---\nid: auth\ntags:\n  - security\n---\n# Auth\n\nA distinctiveword lives here.\n"))
	if err := m.Index(doc); err != nil {
		t.Fatalf("Index: %v", err)
	}

	results, err := m.Search("distinctiveword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Location != "auth.md" {
		t.Errorf("results = %+v, want 1 hit for auth.md", results)
	}
}

func TestIndex_ReplacesPriorCopy(t *testing.T) {
	m := testMirror(t)
	_ = m.Index(parser.Parse("a.md", []byte("# Old\nfirstword\n")))
	_ = m.Index(parser.Parse("a.md", []byte("# New\nsecondword\n")))

	if hits, _ := m.Search("firstword", 10); len(hits) != 0 {
		t.Errorf("stale copy still searchable: %+v", hits)
	}
	if hits, _ := m.Search("secondword", 10); len(hits) != 1 {
		t.Errorf("replacement not searchable: %+v", hits)
	}
}

func TestDelete(t *testing.T) {
	m := testMirror(t)
	_ = m.Index(parser.Parse("gone.md", []byte("# Gone\nvanishingword\n")))
	if err := m.Delete("gone.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if hits, _ := m.Search("vanishingword", 10); len(hits) != 0 {
		t.Errorf("deleted document still searchable: %+v", hits)
	}
}

func TestReset(t *testing.T) {
	m := testMirror(t)
	_ = m.Index(parser.Parse("a.md", []byte("# A\nresetword\n")))
	if err := m.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if hits, _ := m.Search("resetword", 10); len(hits) != 0 {
		t.Errorf("mirror not empty after reset: %+v", hits)
	}
}
