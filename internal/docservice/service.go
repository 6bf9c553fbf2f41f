// Package docservice coordinates storage, the live index, the search
// mirror, and the resolver behind one service used by API and MCP surfaces.
package docservice

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/shihwesley/chronicler-sub000/internal/apperr"
	"github.com/shihwesley/chronicler-sub000/internal/checksum"
	"github.com/shihwesley/chronicler-sub000/internal/docindex"
	"github.com/shihwesley/chronicler-sub000/internal/graph"
	"github.com/shihwesley/chronicler-sub000/internal/models"
	"github.com/shihwesley/chronicler-sub000/internal/parser"
	"github.com/shihwesley/chronicler-sub000/internal/resolver"
	"github.com/shihwesley/chronicler-sub000/internal/search"
	"github.com/shihwesley/chronicler-sub000/internal/storage"
)

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	*models.Document
	Content      string             `json:"content"`
	Backlinks    []resolver.LinkRef `json:"backlinks"`
	ForwardLinks []resolver.LinkRef `json:"forward_links"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Location    string   `json:"location"`
	ComponentID string   `json:"component_id"`
	Title       string   `json:"title"`
	Layer       string   `json:"layer,omitempty"`
	Tags        []string `json:"tags"`
	Checksum    string   `json:"checksum"`
}

// Service is the single writer of the index; the watcher and the write
// endpoints both funnel through its mutation methods.
type Service struct {
	store  storage.Provider
	index  *docindex.Store
	mirror *search.Mirror
	res    *resolver.Resolver
	logger *slog.Logger
}

// Verify the service can act as the watcher's sink.
var _ docindex.Sink = (*Service)(nil)

// New creates the document service.
func New(store storage.Provider, index *docindex.Store, mirror *search.Mirror, res *resolver.Resolver, logger *slog.Logger) *Service {
	return &Service{store: store, index: index, mirror: mirror, res: res, logger: logger}
}

// LoadWorkspace scans the workspace and replaces the index and search
// mirror atomically. A single unreadable file is skipped, never fatal.
func (s *Service) LoadWorkspace(_ context.Context) error {
	metas, err := s.store.List("")
	if err != nil {
		return err
	}

	entries := make([]docindex.Entry, 0, len(metas))
	for _, m := range metas {
		data, readErr := s.store.Read(m.Location)
		if readErr != nil {
			s.logger.Warn("load: read failed", slog.String("location", m.Location), slog.String("error", readErr.Error()))
			continue
		}
		entries = append(entries, docindex.Entry{Location: m.Location, Content: data})
	}
	s.index.LoadAll(entries)

	if err := s.mirror.Reset(); err != nil {
		s.logger.Warn("load: mirror reset failed", slog.String("error", err.Error()))
	}
	for _, doc := range s.index.GetAll() {
		if err := s.mirror.Index(doc); err != nil {
			s.logger.Warn("load: mirror index failed", slog.String("location", doc.Location), slog.String("error", err.Error()))
		}
	}
	s.logger.Info("workspace loaded", slog.Int("documents", s.index.Len()))
	return nil
}

// OnFileChanged applies one debounced change event: the document is
// re-parsed and replaced wholesale.
func (s *Service) OnFileChanged(location string, content []byte) {
	doc := s.index.Upsert(location, content)
	if err := s.mirror.Index(doc); err != nil {
		s.logger.Warn("mirror index failed", slog.String("location", location), slog.String("error", err.Error()))
	}
}

// OnFileDeleted applies one delete event.
func (s *Service) OnFileDeleted(location string) {
	s.index.Remove(location)
	if err := s.mirror.Delete(location); err != nil {
		s.logger.Warn("mirror delete failed", slog.String("location", location), slog.String("error", err.Error()))
	}
}

// Has reports whether a location is currently indexed.
func (s *Service) Has(location string) bool {
	_, ok := s.index.GetByLocation(location)
	return ok
}

// Checksums exposes the index checksums for watcher reconciliation.
func (s *Service) Checksums() map[string]string {
	return s.index.Checksums()
}

// GetDocument returns the full detail for one location, enriched with
// backlink and forward-link views.
func (s *Service) GetDocument(_ context.Context, location string) (*DocumentDetail, error) {
	data, err := s.store.Read(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(location, data), nil
}

// GetByIdentity returns the indexed document claiming an identity.
func (s *Service) GetByIdentity(_ context.Context, componentID string) (*models.Document, error) {
	doc, ok := s.index.GetByIdentity(componentID)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return doc, nil
}

// CreateDocument writes a new document and indexes it.
func (s *Service) CreateDocument(_ context.Context, location string, content []byte) (*DocumentDetail, error) {
	if _, err := s.store.Read(location); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(location, content); err != nil {
		return nil, err
	}
	s.OnFileChanged(location, content)
	return s.buildDetail(location, content), nil
}

// UpdateDocument writes updated content with optimistic concurrency.
func (s *Service) UpdateDocument(_ context.Context, location string, content []byte, ifMatch string) (*DocumentDetail, error) {
	existing, err := s.store.Read(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(location, content); err != nil {
		return nil, err
	}
	s.OnFileChanged(location, content)
	return s.buildDetail(location, content), nil
}

// DeleteDocument removes a document from storage and index.
func (s *Service) DeleteDocument(_ context.Context, location string) error {
	if err := s.store.Delete(location); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	s.OnFileDeleted(location)
	return nil
}

// ListDocuments returns every indexed document in registration order.
func (s *Service) ListDocuments(_ context.Context) []DocumentListItem {
	docs := s.index.GetAll()
	items := make([]DocumentListItem, len(docs))
	for i, doc := range docs {
		items[i] = DocumentListItem{
			Location:    doc.Location,
			ComponentID: doc.ComponentID,
			Title:       doc.Title,
			Layer:       doc.Layer,
			Tags:        nonNilSlice(doc.Tags),
			Checksum:    doc.Checksum,
		}
	}
	return items
}

// Search delegates full-text search to the mirror.
func (s *Service) Search(_ context.Context, query string, limit int) ([]search.Result, error) {
	return s.mirror.Search(query, limit)
}

// Graph recomputes the visualization dataset from the current index.
func (s *Service) Graph(_ context.Context) graph.Graph {
	return graph.Build(s.index.GetAll(), s.res)
}

// Backlinks returns the incoming body-link view for an identity.
func (s *Service) Backlinks(_ context.Context, componentID string) []resolver.LinkRef {
	return nonNilSlice(s.res.Backlinks(componentID))
}

// ForwardLinks returns the outgoing body-link view for an identity.
func (s *Service) ForwardLinks(_ context.Context, componentID string) []resolver.LinkRef {
	return nonNilSlice(s.res.ForwardLinks(componentID))
}

// ResolveLocal answers a link query from the index only.
func (s *Service) ResolveLocal(_ context.Context, link models.Link) resolver.Resolution {
	return s.res.ResolveLocal(link)
}

// Resolve answers a link query with the remote fallback enabled.
func (s *Service) Resolve(ctx context.Context, link models.Link) resolver.Resolution {
	return s.res.ResolveWithFallback(ctx, link)
}

func (s *Service) buildDetail(location string, data []byte) *DocumentDetail {
	doc, ok := s.index.GetByLocation(location)
	if !ok {
		doc = parser.Parse(location, data)
	}
	return &DocumentDetail{
		Document:     doc,
		Content:      string(data),
		Backlinks:    nonNilSlice(s.res.Backlinks(doc.ComponentID)),
		ForwardLinks: nonNilSlice(s.res.ForwardLinks(doc.ComponentID)),
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
