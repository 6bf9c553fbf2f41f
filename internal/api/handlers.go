package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shihwesley/chronicler-sub000/internal/apperr"
	"github.com/shihwesley/chronicler-sub000/internal/docservice"
	"github.com/shihwesley/chronicler-sub000/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docLocation extracts the document location from the URL (everything after
// /api/documents/). Supports encoded slashes from generated clients
// (e.g. services%2Fauth.md).
func docLocation(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List indexed documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListDocuments(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": items,
		"total":     len(items),
	})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a single document by location
//	@Tags			documents
//	@Produce		json
//	@Param			location	path		string	true	"Document location"
//	@Success		200			{object}	DocumentDetail
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{location} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	location := docLocation(r)
	if location == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("location is required"))
		return
	}
	detail, err := h.svc.GetDocument(r.Context(), location)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", slog.String("location", location), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a new document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Location == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("location and content are required"))
		return
	}
	detail, err := h.svc.CreateDocument(r.Context(), req.Location, []byte(req.Content))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("document already exists"))
		} else {
			slog.Error("create document failed", slog.String("location", req.Location), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// UpdateDocument handles PUT /api/documents/*.
//
//	@Summary		Update a document with optimistic concurrency
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			location	path	string					true	"Document location"
//	@Param			If-Match	header	string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateDocumentRequest	true	"Updated content"
//	@Success		200			{object}	DocumentDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{location} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	location := docLocation(r)
	if location == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("location is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	var req UpdateDocumentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	detail, err := h.svc.UpdateDocument(r.Context(), location, []byte(req.Content), ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("update document failed", slog.String("location", location), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteDocument handles DELETE /api/documents/*.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			location	path	string	true	"Document location"
//	@Success		204			"Document deleted"
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{location} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	location := docLocation(r)
	if location == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("location is required"))
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), location); err != nil {
		slog.Error("delete document failed", slog.String("location", location), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the component dependency graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Graph(r.Context()))
}

// Backlinks handles GET /api/backlinks/{id}.
//
//	@Summary		List documents whose body links target a component
//	@Tags			links
//	@Produce		json
//	@Param			id	path		string	true	"Component identity"
//	@Success		200	{object}	LinksResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{id} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"links": h.svc.Backlinks(r.Context(), id),
	})
}

// ForwardLinks handles GET /api/links/{id}/forward.
//
//	@Summary		List resolvable outgoing body links of a component
//	@Tags			links
//	@Produce		json
//	@Param			id	path		string	true	"Component identity"
//	@Success		200	{object}	LinksResponse
//	@Security		BearerAuth
//	@Router			/links/{id}/forward [get]
func (h *Handler) ForwardLinks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"links": h.svc.ForwardLinks(r.Context(), id),
	})
}

// Resolve handles GET /api/resolve.
//
//	@Summary		Resolve a link target against the index and registry
//	@Tags			links
//	@Produce		json
//	@Param			notation		query		string	true	"Link notation"	Enums(direct, bracketed, inline)
//	@Param			target			query		string	true	"Identity, or location for inline links"
//	@Param			subreference	query		string	false	"Subreference within the target"
//	@Param			fallback		query		bool	false	"Consult the remote registry on a local miss"
//	@Success		200				{object}	ResolveResponse
//	@Failure		400				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("target")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'target' is required"))
		return
	}

	var notation models.LinkNotation
	switch q.Get("notation") {
	case "", string(models.NotationBracketed):
		notation = models.NotationBracketed
	case string(models.NotationDirect):
		notation = models.NotationDirect
	case string(models.NotationInline):
		notation = models.NotationInline
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown notation"))
		return
	}

	link := models.Link{
		Notation:       notation,
		TargetIdentity: target,
		Subreference:   q.Get("subreference"),
	}

	var res any
	if q.Get("fallback") == "true" {
		res = h.svc.Resolve(r.Context(), link)
	} else {
		res = h.svc.ResolveLocal(r.Context(), link)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resolution": res,
	})
}
