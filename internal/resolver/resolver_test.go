package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shihwesley/chronicler-sub000/internal/docindex"
	"github.com/shihwesley/chronicler-sub000/internal/models"
)

// scenarioIndex builds the auth / user-store / token-service workspace:
// auth links out to both, token-service links back to auth.
func scenarioIndex(t *testing.T) *docindex.Store {
	t.Helper()
	s := docindex.NewStore()
	s.LoadAll([]docindex.Entry{
		{Location: "auth.md", Content: []byte("---\nid: auth\n---\n# Auth\n\nUses [[user-store]] and comp://token-service\n")},
		{Location: "user-store.md", Content: []byte("---\nid: user-store\n---\n# User Store\n")},
		{Location: "token-service.md", Content: []byte("---\nid: token-service\n---\n# Tokens\n\nIssued for [[auth]]\n")},
	})
	return s
}

type fakeRemote struct {
	comp  *RemoteComponent
	err   error
	calls int
	delay time.Duration
}

func (f *fakeRemote) ResolveComponent(ctx context.Context, identity string) (*RemoteComponent, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.comp, f.err
}

func bracketed(target string) models.Link {
	return models.Link{Notation: models.NotationBracketed, TargetIdentity: target}
}

func TestResolveLocal_ByIdentity(t *testing.T) {
	r := New(scenarioIndex(t), nil)

	res := r.ResolveLocal(bracketed("user-store"))
	if res.Kind != KindLocal || res.Location != "user-store.md" {
		t.Errorf("bracketed = %+v", res)
	}

	res = r.ResolveLocal(models.Link{Notation: models.NotationDirect, TargetIdentity: "token-service"})
	if res.Kind != KindLocal || res.Location != "token-service.md" {
		t.Errorf("direct = %+v", res)
	}
}

func TestResolveLocal_InlineByLocation(t *testing.T) {
	idx := scenarioIndex(t)
	r := New(idx, nil)

	res := r.ResolveLocal(models.Link{Notation: models.NotationInline, TargetIdentity: "user-store.md"})
	if res.Kind != KindLocal || res.Location != "user-store.md" {
		t.Errorf("inline = %+v", res)
	}

	// An identity string is not a location: inline must not match it.
	res = r.ResolveLocal(models.Link{Notation: models.NotationInline, TargetIdentity: "user-store"})
	if res.Kind != KindNotFound {
		t.Errorf("inline by identity should be not-found, got %+v", res)
	}
}

func TestResolveLocal_EmptyTarget(t *testing.T) {
	r := New(scenarioIndex(t), nil)
	if res := r.ResolveLocal(bracketed("")); res.Kind != KindNotFound {
		t.Errorf("empty target = %+v, want not-found", res)
	}
}

func TestResolveWithFallback_NoRemoteConfigured(t *testing.T) {
	r := New(scenarioIndex(t), nil)
	start := time.Now()
	res := r.ResolveWithFallback(context.Background(), bracketed("elsewhere"))
	if res.Kind != KindNotFound {
		t.Errorf("res = %+v, want not-found", res)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("no-remote fallback should cost no more than the local lookup")
	}
}

func TestResolveWithFallback_LocalHitSkipsRemote(t *testing.T) {
	remote := &fakeRemote{comp: &RemoteComponent{ID: "auth"}}
	r := New(scenarioIndex(t), remote)
	res := r.ResolveWithFallback(context.Background(), bracketed("auth"))
	if res.Kind != KindLocal {
		t.Fatalf("res = %+v", res)
	}
	if remote.calls != 0 {
		t.Error("remote must not be consulted when local resolution succeeds")
	}
}

func TestResolveWithFallback_ExternalResult(t *testing.T) {
	remote := &fakeRemote{comp: &RemoteComponent{ID: "billing", Type: "service", Label: "Billing"}}
	r := New(scenarioIndex(t), remote)

	res := r.ResolveWithFallback(context.Background(), bracketed("billing"))
	if res.Kind != KindExternal || res.External == nil || res.External.ID != "billing" {
		t.Fatalf("res = %+v, want external billing", res)
	}

	// Second lookup is served from the cache.
	_ = r.ResolveWithFallback(context.Background(), bracketed("billing"))
	if remote.calls != 1 {
		t.Errorf("remote calls = %d, want 1 (cached)", remote.calls)
	}
}

func TestResolveWithFallback_RemoteErrorSwallowed(t *testing.T) {
	remote := &fakeRemote{err: errors.New("registry down")}
	r := New(scenarioIndex(t), remote)
	res := r.ResolveWithFallback(context.Background(), bracketed("ghost"))
	if res.Kind != KindNotFound {
		t.Errorf("res = %+v, want not-found on remote error", res)
	}
}

func TestResolveWithFallback_CancellationWritesNoCache(t *testing.T) {
	remote := &fakeRemote{comp: &RemoteComponent{ID: "slow"}, delay: time.Second}
	r := New(scenarioIndex(t), remote)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := r.ResolveWithFallback(ctx, bracketed("slow"))
	if res.Kind != KindNotFound {
		t.Fatalf("res = %+v, want not-found on cancellation", res)
	}

	// A later successful call proves nothing half-resolved was cached.
	remote.delay = 0
	res = r.ResolveWithFallback(context.Background(), bracketed("slow"))
	if res.Kind != KindExternal {
		t.Errorf("res = %+v, want external after retry", res)
	}
	if remote.calls != 2 {
		t.Errorf("remote calls = %d, want 2 (no cache entry from the cancelled call)", remote.calls)
	}
}

func TestBacklinksAndForwardLinks_Scenario(t *testing.T) {
	r := New(scenarioIndex(t), nil)

	fwd := r.ForwardLinks("auth")
	if len(fwd) != 2 {
		t.Fatalf("forward links = %+v, want 2", fwd)
	}
	targets := map[string]bool{}
	for _, ref := range fwd {
		if ref.SourceLocation != "auth.md" {
			t.Errorf("forward source = %s", ref.SourceLocation)
		}
		targets[ref.TargetLocation] = true
	}
	if !targets["user-store.md"] || !targets["token-service.md"] {
		t.Errorf("forward targets = %v", targets)
	}

	back := r.Backlinks("auth")
	if len(back) != 1 || back[0].SourceLocation != "token-service.md" {
		t.Fatalf("backlinks = %+v, want one from token-service.md", back)
	}
	if back[0].TargetLocation != "auth.md" {
		t.Errorf("backlink target = %s", back[0].TargetLocation)
	}
}

func TestBacklinks_UnknownIdentity(t *testing.T) {
	r := New(scenarioIndex(t), nil)
	if refs := r.Backlinks("nobody"); len(refs) != 0 {
		t.Errorf("backlinks = %+v, want none", refs)
	}
	if refs := r.ForwardLinks("nobody"); len(refs) != 0 {
		t.Errorf("forward links = %+v, want none", refs)
	}
}

func TestHTTPResolver_ResolveComponent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/components/billing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"billing","type":"service","label":"Billing"}`))
	}))
	defer srv.Close()

	h := NewHTTPResolver(srv.URL, time.Second)
	comp, err := h.ResolveComponent(context.Background(), "billing")
	if err != nil {
		t.Fatalf("ResolveComponent: %v", err)
	}
	if comp.Label != "Billing" {
		t.Errorf("comp = %+v", comp)
	}

	if _, err := h.ResolveComponent(context.Background(), "missing"); err == nil {
		t.Error("expected error for 404 response")
	}
}
