// Package docindex owns the in-memory set of parsed documents for one
// workspace and keeps it live against file-change events.
package docindex

import (
	"sync"

	"github.com/shihwesley/chronicler-sub000/internal/models"
	"github.com/shihwesley/chronicler-sub000/internal/parser"
)

// Entry is one {location, content} pair handed over by the workspace scan.
type Entry struct {
	Location string
	Content  []byte
}

// Index defines the document store operations. Consumers should depend on
// this interface rather than the concrete *Store to facilitate testing.
type Index interface {
	LoadAll(entries []Entry)
	Upsert(location string, content []byte) *models.Document
	Remove(location string)
	GetByLocation(location string) (*models.Document, bool)
	GetByIdentity(componentID string) (*models.Document, bool)
	GetAll() []*models.Document
	Len() int
}

// Verify *Store satisfies Index at compile time.
var _ Index = (*Store)(nil)

// Store is the single shared, mutable resource of the core: one writer
// (the file-event path) and many readers (resolver, graph builder, API).
// The RWMutex is the read/write barrier that keeps every query from
// observing a partially-applied mutation.
type Store struct {
	mu    sync.RWMutex
	docs  map[string]*models.Document
	order []string // registration order, drives duplicate-identity policy
	byID  map[string]*models.Document
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{
		docs: make(map[string]*models.Document),
		byID: make(map[string]*models.Document),
	}
}

// LoadAll parses every entry and replaces the entire store atomically.
// Used for the initial workspace scan.
func (s *Store) LoadAll(entries []Entry) {
	docs := make(map[string]*models.Document, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, seen := docs[e.Location]; !seen {
			order = append(order, e.Location)
		}
		docs[e.Location] = parser.Parse(e.Location, e.Content)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
	s.order = order
	s.rebuildIdentity()
}

// Upsert re-parses one file and replaces any prior record for that
// location wholesale. This is the only path used for change events.
func (s *Store) Upsert(location string, content []byte) *models.Document {
	doc := parser.Parse(location, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[location]; !exists {
		s.order = append(s.order, location)
	}
	s.docs[location] = doc
	s.rebuildIdentity()
	return doc
}

// Remove deletes the record for a location. Removing an unknown location
// is a no-op.
func (s *Store) Remove(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[location]; !exists {
		return
	}
	delete(s.docs, location)
	for i, loc := range s.order {
		if loc == location {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.rebuildIdentity()
}

// GetByLocation returns the document stored for a location.
func (s *Store) GetByLocation(location string) (*models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[location]
	return doc, ok
}

// GetByIdentity returns the document claiming a componentId. When two
// documents share an identity the last-registered one wins; both remain
// retrievable by location. A documented ambiguity, not an error.
func (s *Store) GetByIdentity(componentID string) (*models.Document, bool) {
	if componentID == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.byID[componentID]
	return doc, ok
}

// GetAll returns a snapshot of every document in registration order.
func (s *Store) GetAll() []*models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Document, 0, len(s.order))
	for _, loc := range s.order {
		out = append(out, s.docs[loc])
	}
	return out
}

// Len returns the number of live documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Checksums returns location → checksum for every document, used by the
// watcher's reconciliation pass.
func (s *Store) Checksums() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.docs))
	for loc, doc := range s.docs {
		out[loc] = doc.Checksum
	}
	return out
}

// rebuildIdentity recomputes the componentId mapping in registration
// order, so later registrations overwrite earlier ones deterministically.
// O(n) per mutation, acceptable for workspaces of hundreds of documents.
// Caller must hold the write lock.
func (s *Store) rebuildIdentity() {
	byID := make(map[string]*models.Document, len(s.docs))
	for _, loc := range s.order {
		doc := s.docs[loc]
		if doc.ComponentID != "" {
			byID[doc.ComponentID] = doc
		}
	}
	s.byID = byID
}
