package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/logpress/internal/apperr"
	"github.com/starford/logpress/internal/catalog"
	"github.com/starford/logpress/internal/siteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *siteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *siteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcardPath extracts the path after the route prefix. Encoded slashes
// (journals%2F2024-01-15.md) are accepted.
func wildcardPath(r *http.Request) string {
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

// ListPages handles GET /api/pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", maxLimit)
	offset := queryInt(r, "offset", math.MaxInt32)

	items, total, err := h.svc.ListPages(r.Context(), limit, offset, r.URL.Query().Get("tag"))
	if err != nil {
		internalError(w, "list pages failed", err)
		return
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: items, Total: total})
}

// GetPage handles GET /api/pages/*.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	page, err := h.svc.GetPage(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			internalError(w, "get page failed", err, slog.String("path", path))
		}
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Stubs handles GET /api/stubs.
func (h *Handler) Stubs(w http.ResponseWriter, r *http.Request) {
	stubs, err := h.svc.Stubs(r.Context())
	if err != nil {
		internalError(w, "list stubs failed", err)
		return
	}
	writeJSON(w, http.StatusOK, StubListResponse{Stubs: stubs})
}

// Backlinks handles GET /api/backlinks/*.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	target := wildcardPath(r)
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("target is required"))
		return
	}
	links, err := h.svc.Backlinks(r.Context(), target)
	if err != nil {
		internalError(w, "backlinks failed", err, slog.String("target", target))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Target: strings.TrimSuffix(target, ".md"), Links: links})
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q, queryInt(r, "limit", maxLimit))
	if err != nil {
		internalError(w, "search failed", err, slog.String("query", q))
		return
	}
	if results == nil {
		results = []catalog.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Resolve handles GET /api/resolve?ref=.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if strings.TrimSpace(ref) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'ref' is required"))
		return
	}
	res, err := h.svc.Resolve(r.Context(), ref)
	if err != nil {
		h.snapshotError(w, "resolve failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Query handles GET /api/query?q=.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	res, err := h.svc.Query(r.Context(), q)
	if err != nil {
		h.snapshotError(w, "query failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Build handles GET /api/build.
func (h *Handler) Build(w http.ResponseWriter, _ *http.Request) {
	snap := h.svc.Snapshot()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody(apperr.ErrNotReady.Error()))
		return
	}
	writeJSON(w, http.StatusOK, BuildResponse{
		BuiltAt: snap.BuiltAt,
		Pages:   snap.Graph.Len(),
		Stubs:   len(snap.Graph.Stubs()),
	})
}

func (h *Handler) snapshotError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidQuery):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		internalError(w, msg, err)
	}
}

func internalError(w http.ResponseWriter, msg string, err error, attrs ...any) {
	slog.Error(msg, append(attrs, slog.String("error", err.Error()))...)
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}
