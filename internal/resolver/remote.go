package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPResolver resolves identities against a remote component registry
// over plain HTTP. The transport is treated as opaque request/response;
// callers swallow its errors.
type HTTPResolver struct {
	endpoint string
	client   *http.Client
}

// NewHTTPResolver creates a resolver for the given registry endpoint.
func NewHTTPResolver(endpoint string, timeout time.Duration) *HTTPResolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPResolver{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

// ResolveComponent looks up one identity. Any non-200 response is an
// error; the caller maps all errors to not-found.
func (h *HTTPResolver) ResolveComponent(ctx context.Context, identity string) (*RemoteComponent, error) {
	reqURL := h.endpoint + "/components/" + url.PathEscape(identity)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: lookup %s: %w", identity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: lookup %s: status %d", identity, resp.StatusCode)
	}

	var comp RemoteComponent
	if err := json.NewDecoder(resp.Body).Decode(&comp); err != nil {
		return nil, fmt.Errorf("remote: decode response: %w", err)
	}
	if comp.ID == "" {
		return nil, fmt.Errorf("remote: lookup %s: empty component id", identity)
	}
	return &comp, nil
}
