package api

import (
	"github.com/shihwesley/chronicler-sub000/internal/docservice"
	"github.com/shihwesley/chronicler-sub000/internal/graph"
	"github.com/shihwesley/chronicler-sub000/internal/resolver"
	"github.com/shihwesley/chronicler-sub000/internal/search"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Location string `json:"location" example:"services/auth.md"`
	Content  string `json:"content" example:"---\nid: auth\n---\n# Auth"`
}

// UpdateDocumentRequest is the request body for updating a document.
type UpdateDocumentRequest struct {
	Content string `json:"content" example:"---\nid: auth\n---\n# Updated"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = docservice.DocumentListItem

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents"`
	Total     int                `json:"total" example:"42"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// GraphResponse is the visualization dataset (aliased from the domain layer).
type GraphResponse = graph.Graph

// LinksResponse wraps a backlink or forward-link view.
type LinksResponse struct {
	Links []resolver.LinkRef `json:"links"`
}

// ResolveResponse wraps one link resolution.
type ResolveResponse struct {
	Resolution resolver.Resolution `json:"resolution"`
}
