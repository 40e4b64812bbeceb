package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/logpress/internal/siteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *siteservice.Service, authEnabled bool, token string, events http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/pages", h.ListPages)
	r.Get("/pages/*", h.GetPage)
	r.Get("/stubs", h.Stubs)
	r.Get("/backlinks/*", h.Backlinks)

	r.Get("/search", h.Search)
	r.Get("/resolve", h.Resolve)
	r.Get("/query", h.Query)
	r.Get("/build", h.Build)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
