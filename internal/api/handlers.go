package api

import (
	"encoding/xml"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dox/internal/apperr"
	"github.com/starford/dox/internal/docservice"
	"github.com/starford/dox/internal/logfields"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docSlug extracts the slug segments from the URL (everything after
// /api/docs/). Supports encoded slashes from OpenAPI clients.
func docSlug(r *http.Request) []string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return nil
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.Split(raw, "/")
}

// GetDoc handles GET /api/docs and GET /api/docs/*.
//
//	@Summary		Resolve and render a document by slug
//	@Tags			docs
//	@Produce		json
//	@Param			path	path		string	false	"Slug path"
//	@Param			lang	query		string	false	"Navigation language"
//	@Success		200		{object}	DocDetail
//	@Success		304		"Not modified"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/docs/{path} [get]
func (h *Handler) GetDoc(w http.ResponseWriter, r *http.Request) {
	slug := docSlug(r)
	doc, err := h.svc.GetDoc(r.Context(), slug, r.URL.Query().Get("lang"))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrUnresolvedSnippet):
			slog.Error("render doc failed", logfields.Path(strings.Join(slug, "/")), logfields.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody("unresolved snippet"))
		default:
			slog.Error("get doc failed", logfields.Path(strings.Join(slug, "/")), logfields.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if doc.Fingerprint != "" {
		tag := etag(doc.Fingerprint)
		w.Header().Set("ETag", tag)
		if notModified(r, tag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	writeJSON(w, http.StatusOK, doc)
}

// Navigation handles GET /api/navigation.
//
//	@Summary		Get the sidebar collections
//	@Tags			navigation
//	@Produce		json
//	@Param			lang	query		string	false	"Language code"
//	@Param			spec	query		string	false	"API spec id"
//	@Success		200		{object}	NavigationResponse
//	@Security		BearerAuth
//	@Router			/navigation [get]
func (h *Handler) Navigation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cols := h.svc.Navigation(r.Context(), q.Get("lang"), q.Get("spec"))
	writeJSON(w, http.StatusOK, NavigationResponse{Collections: cols})
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
		slog.Error("search failed", slog.String("query", q), logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Sitemap handles GET /sitemap.xml.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	set := urlSet{XMLNS: sitemapNS}
	for _, e := range h.svc.Sitemap(r.Context()) {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        e.Loc,
			ChangeFreq: e.ChangeFreq,
			Priority:   strconv.FormatFloat(e.Priority, 'f', 1, 64),
		})
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(set); err != nil {
		slog.Error("sitemap encode failed", logfields.Error(err))
	}
}

// Changelog handles GET /changelog.
func (h *Handler) Changelog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ChangelogResponse{
		Title:    strings.TrimSpace(h.svc.Site().Name + " Changelog"),
		Releases: h.svc.Changelog().Releases,
	})
}

// ChangelogRSS handles GET /changelog/rss.xml.
func (h *Handler) ChangelogRSS(w http.ResponseWriter, r *http.Request) {
	feed, err := h.svc.ChangelogRSS()
	if err != nil {
		slog.Error("changelog feed failed", logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(feed)
}
