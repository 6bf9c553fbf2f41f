package docindex

import (
	"fmt"
	"testing"
)

func docContent(id string) []byte {
	return []byte(fmt.Sprintf("---\nid: %s\n---\n# %s\n", id, id))
}

func TestLoadAll_ReplacesStore(t *testing.T) {
	s := NewStore()
	s.Upsert("old.md", docContent("old"))

	s.LoadAll([]Entry{
		{Location: "a.md", Content: docContent("a")},
		{Location: "b.md", Content: docContent("b")},
	})

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if _, ok := s.GetByLocation("old.md"); ok {
		t.Error("LoadAll should drop pre-existing documents")
	}
	if doc, ok := s.GetByIdentity("b"); !ok || doc.Location != "b.md" {
		t.Errorf("GetByIdentity(b) = %v, %v", doc, ok)
	}
}

func TestUpsertRemove_LiveCount(t *testing.T) {
	s := NewStore()
	s.Upsert("a.md", docContent("a"))
	s.Upsert("b.md", docContent("b"))
	s.Upsert("a.md", docContent("a2")) // replacement, not addition

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2 after replacing a.md", s.Len())
	}
	if doc, _ := s.GetByLocation("a.md"); doc.ComponentID != "a2" {
		t.Errorf("upsert did not replace wholesale: id = %q", doc.ComponentID)
	}
	if _, ok := s.GetByIdentity("a"); ok {
		t.Error("stale identity mapping survived upsert")
	}

	s.Remove("a.md")
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after remove", s.Len())
	}
	if _, ok := s.GetByLocation("a.md"); ok {
		t.Error("removed location still retrievable")
	}
	if _, ok := s.GetByIdentity("a2"); ok {
		t.Error("identity of removed document still resolvable")
	}
}

func TestRemove_UnknownLocationNoop(t *testing.T) {
	s := NewStore()
	s.Upsert("a.md", docContent("a"))
	s.Remove("ghost.md")
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestGetByIdentity_DuplicateLastRegisteredWins(t *testing.T) {
	s := NewStore()
	s.Upsert("first.md", docContent("shared"))
	s.Upsert("second.md", docContent("shared"))

	doc, ok := s.GetByIdentity("shared")
	if !ok || doc.Location != "second.md" {
		t.Fatalf("GetByIdentity = %v, want second.md (last registered)", doc)
	}

	// Both documents stay independently retrievable by location.
	if _, ok := s.GetByLocation("first.md"); !ok {
		t.Error("first.md should remain retrievable by location")
	}

	// Removing the winner falls back to the remaining claimant.
	s.Remove("second.md")
	doc, ok = s.GetByIdentity("shared")
	if !ok || doc.Location != "first.md" {
		t.Errorf("after removing winner, GetByIdentity = %v", doc)
	}
}

func TestGetByIdentity_EmptyIdentity(t *testing.T) {
	s := NewStore()
	s.Upsert("anon.md", []byte("# No Header\n"))
	if _, ok := s.GetByIdentity(""); ok {
		t.Error("empty identity must never resolve")
	}
}

func TestGetAll_RegistrationOrder(t *testing.T) {
	s := NewStore()
	for _, loc := range []string{"c.md", "a.md", "b.md"} {
		s.Upsert(loc, docContent(loc))
	}
	docs := s.GetAll()
	if len(docs) != 3 {
		t.Fatalf("GetAll = %d docs, want 3", len(docs))
	}
	want := []string{"c.md", "a.md", "b.md"}
	for i, doc := range docs {
		if doc.Location != want[i] {
			t.Errorf("GetAll[%d] = %s, want %s", i, doc.Location, want[i])
		}
	}
}

func TestChecksums(t *testing.T) {
	s := NewStore()
	s.Upsert("a.md", docContent("a"))
	cs := s.Checksums()
	if len(cs) != 1 || cs["a.md"] == "" {
		t.Errorf("Checksums = %v", cs)
	}
}
