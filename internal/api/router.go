package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dox/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents.
	r.Get("/docs", h.GetDoc)
	r.Get("/docs/*", h.GetDoc)

	// Navigation.
	r.Get("/navigation", h.Navigation)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewSiteRouter serves the public, unauthenticated site routes: the sitemap,
// the changelog with its feed, and the assets directory of the content roots.
func NewSiteRouter(svc *docservice.Service, contentRoots []string) chi.Router {
	h := NewHandler(svc)
	ah := NewAssetHandler(contentRoots)

	r := chi.NewRouter()
	r.Get("/sitemap.xml", h.Sitemap)
	r.Get(docservice.ChangelogPath, h.Changelog)
	r.Get(docservice.ChangelogFeedPath, h.ChangelogRSS)
	r.Get("/assets/*", ah.ServeFile)
	return r
}
