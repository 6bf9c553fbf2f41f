// Package resolver maps parsed link references to concrete documents,
// local index first with an optional remote fallback, and derives the
// backlink and forward-link views.
package resolver

import (
	"context"
	"path"
	"sync"

	"github.com/shihwesley/chronicler-sub000/internal/docindex"
	"github.com/shihwesley/chronicler-sub000/internal/models"
)

// ResultKind classifies a resolution outcome. NotFound is a normal,
// expected result, never an error.
type ResultKind string

const (
	KindLocal    ResultKind = "local"
	KindExternal ResultKind = "external"
	KindNotFound ResultKind = "not_found"
)

// Resolution is the answer to "where does this link point?".
type Resolution struct {
	Kind     ResultKind       `json:"kind"`
	Location string           `json:"location,omitempty"`
	External *RemoteComponent `json:"external,omitempty"`
}

// RemoteComponent is what an external resolver knows about an identity.
type RemoteComponent struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// RemoteResolver is the optional external lookup collaborator. It is
// treated as unreliable: unconfigured, slow, or erroring.
type RemoteResolver interface {
	ResolveComponent(ctx context.Context, identity string) (*RemoteComponent, error)
}

// LinkRef is one entry in a backlink or forward-link view.
type LinkRef struct {
	SourceLocation string      `json:"source_location"`
	TargetLocation string      `json:"target_location"`
	Link           models.Link `json:"link"`
}

// Resolver answers link queries against a document index.
type Resolver struct {
	index  docindex.Index
	remote RemoteResolver // may be nil

	// cache holds successful remote resolutions only; failed or
	// cancelled lookups write nothing, which is what makes abandonment
	// safe.
	mu    sync.Mutex
	cache map[string]RemoteComponent
}

// New creates a resolver over the given index. remote may be nil, in
// which case ResolveWithFallback degrades to the local lookup.
func New(index docindex.Index, remote RemoteResolver) *Resolver {
	return &Resolver{
		index:  index,
		remote: remote,
		cache:  make(map[string]RemoteComponent),
	}
}

// ResolveLocal performs a synchronous, index-only lookup. It never blocks
// and never performs I/O. Target-identity semantics differ per notation:
// direct-scheme and bracketed links probe by componentId, inline links
// probe by location equality (two documents can share a path stem but
// not an identity, so this is structural, not a shortcut).
func (r *Resolver) ResolveLocal(link models.Link) Resolution {
	if link.TargetIdentity == "" {
		return Resolution{Kind: KindNotFound}
	}

	switch link.Notation {
	case models.NotationInline:
		if doc, ok := r.index.GetByLocation(link.TargetIdentity); ok {
			return Resolution{Kind: KindLocal, Location: doc.Location}
		}
		if doc, ok := r.index.GetByLocation(path.Clean(link.TargetIdentity)); ok {
			return Resolution{Kind: KindLocal, Location: doc.Location}
		}
		return Resolution{Kind: KindNotFound}

	default: // direct-scheme and bracketed both carry an identity
		if doc, ok := r.index.GetByIdentity(link.TargetIdentity); ok {
			return Resolution{Kind: KindLocal, Location: doc.Location}
		}
		return Resolution{Kind: KindNotFound}
	}
}

// ResolveWithFallback tries ResolveLocal first and, on a miss, asks the
// remote resolver when one is configured. Remote failures of any kind
// surface as NotFound, never as an error: a broken endpoint must not
// prevent local navigation. The call honors ctx; abandonment leaves no
// partial cache write.
func (r *Resolver) ResolveWithFallback(ctx context.Context, link models.Link) Resolution {
	if res := r.ResolveLocal(link); res.Kind == KindLocal {
		return res
	}
	if r.remote == nil || link.TargetIdentity == "" {
		return Resolution{Kind: KindNotFound}
	}

	r.mu.Lock()
	cached, ok := r.cache[link.TargetIdentity]
	r.mu.Unlock()
	if ok {
		return Resolution{Kind: KindExternal, External: &cached}
	}

	comp, err := r.remote.ResolveComponent(ctx, link.TargetIdentity)
	if err != nil || comp == nil || ctx.Err() != nil {
		return Resolution{Kind: KindNotFound}
	}

	r.mu.Lock()
	r.cache[link.TargetIdentity] = *comp
	r.mu.Unlock()
	return Resolution{Kind: KindExternal, External: comp}
}

// Backlinks returns every body link in the workspace that resolves to
// the document claiming the given identity.
func (r *Resolver) Backlinks(componentID string) []LinkRef {
	if componentID == "" {
		return nil
	}
	var out []LinkRef
	for _, doc := range r.index.GetAll() {
		for _, link := range doc.Links {
			res := r.ResolveLocal(link)
			if res.Kind != KindLocal {
				continue
			}
			target, ok := r.index.GetByLocation(res.Location)
			if !ok || target.ComponentID != componentID {
				continue
			}
			out = append(out, LinkRef{
				SourceLocation: doc.Location,
				TargetLocation: res.Location,
				Link:           link,
			})
		}
	}
	return out
}

// ForwardLinks returns every outgoing body link of the document claiming
// the given identity that resolves locally. Unresolvable links carry no
// target location and are omitted, keeping the view symmetric with
// Backlinks.
func (r *Resolver) ForwardLinks(componentID string) []LinkRef {
	doc, ok := r.index.GetByIdentity(componentID)
	if !ok {
		return nil
	}
	var out []LinkRef
	for _, link := range doc.Links {
		res := r.ResolveLocal(link)
		if res.Kind != KindLocal {
			continue
		}
		out = append(out, LinkRef{
			SourceLocation: doc.Location,
			TargetLocation: res.Location,
			Link:           link,
		})
	}
	return out
}
