// Package docservice coordinates document resolution, navigation, search and
// the sitemap for the HTTP and MCP surfaces.
package docservice

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/dox/internal/apinav"
	"github.com/starford/dox/internal/changelog"
	"github.com/starford/dox/internal/content"
	"github.com/starford/dox/internal/docs"
	"github.com/starford/dox/internal/index"
	"github.com/starford/dox/internal/logfields"
	"github.com/starford/dox/internal/models"
	"github.com/starford/dox/internal/navigation"
)

// ChangelogPath is always listed in the sitemap.
const ChangelogPath = "/changelog"

// ChangelogFeedPath serves the changelog as RSS.
const ChangelogFeedPath = ChangelogPath + "/rss.xml"

// Sitemap priorities. Every entry changes weekly.
const (
	PriorityRoot      = 1.0
	PriorityDoc       = 0.7
	PriorityAPI       = 0.6
	PriorityChangelog = 0.5

	ChangeFreq = "weekly"
)

// DocDetail is the full representation of a resolved document.
type DocDetail struct {
	*models.DocumentEntry
	HTML        string              `json:"html"`
	EditURL     string              `json:"edit_url,omitempty"`
	Prev        *models.PageLink    `json:"prev"`
	Next        *models.PageLink    `json:"next"`
	Breadcrumbs []models.Breadcrumb `json:"breadcrumbs"`
}

// Site describes the published site. With RepoURL set, documents carry a
// link to their source at RepoURL/edit/<EditBranch>/<ContentDir>/<source>.
type Site struct {
	Name       string
	BaseURL    string
	RepoURL    string
	EditBranch string
	ContentDir string
}

// SitemapEntry is one URL of the sitemap.
type SitemapEntry struct {
	Loc        string
	ChangeFreq string
	Priority   float64
}

// Page is a listed document. Dynamic pages are found in the content roots
// and titled after their path until compiled.
type Page struct {
	Href    string
	Title   string
	Dynamic bool
}

// Option configures a Service.
type Option func(*Service)

// WithAPINav sets the API navigation provider.
func WithAPINav(p apinav.Provider) Option {
	return func(s *Service) { s.apiNav = p }
}

// WithIndex enables search through db.
func WithIndex(db index.DocIndex) Option {
	return func(s *Service) { s.db = db }
}

// WithSite sets the site description used by the sitemap.
func WithSite(site Site) Option {
	return func(s *Service) { s.site = site }
}

// WithChangelog sets the release notes served at ChangelogPath.
func WithChangelog(c *changelog.Changelog) Option {
	return func(s *Service) { s.changelog = c }
}

// WithLanguage sets the navigation language used when a request names none.
func WithLanguage(lang string) Option {
	return func(s *Service) { s.lang = lang }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service coordinates the resolver, navigation builder and search index.
type Service struct {
	resolver  *docs.Resolver
	builder   *navigation.Builder
	desc      *navigation.Description
	apiNav    apinav.Provider
	db        index.DocIndex
	site      Site
	changelog *changelog.Changelog
	lang      string
	logger    *slog.Logger
}

// NewService creates a new document service.
func NewService(resolver *docs.Resolver, desc *navigation.Description, opts ...Option) *Service {
	s := &Service{
		resolver:  resolver,
		builder:   navigation.NewBuilder(resolver.Index()),
		desc:      desc,
		apiNav:    apinav.Static(nil),
		changelog: &changelog.Changelog{Releases: []changelog.Release{}},
		lang:      "en",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the entry for slug.
func (s *Service) Resolve(ctx context.Context, slug []string) (*models.DocumentEntry, error) {
	return s.resolver.Resolve(ctx, slug)
}

// GetDoc resolves slug, renders its body and places it in the sidebar. A
// body referencing an unresolved snippet fails with
// apperr.ErrUnresolvedSnippet.
func (s *Service) GetDoc(ctx context.Context, slug []string, lang string) (*DocDetail, error) {
	entry, err := s.resolver.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	var html []byte
	if entry.Body != nil {
		if html, err = entry.Body.HTML(); err != nil {
			return nil, fmt.Errorf("docservice: render %q: %w", entry.Href, err)
		}
	}
	cols := s.Navigation(ctx, lang, "")
	prev, next := navigation.PrevNext(cols, entry.Href)
	return &DocDetail{
		DocumentEntry: entry,
		HTML:          string(html),
		EditURL:       s.editURL(entry),
		Prev:          prev,
		Next:          next,
		Breadcrumbs:   navigation.Breadcrumbs(cols, entry.Href, entry.Title),
	}, nil
}

// Navigation builds the sidebar for lang and merges the API reference for
// specID into it. It never fails: a provider error leaves the API
// collection as declared.
func (s *Service) Navigation(ctx context.Context, lang, specID string) []models.SidebarCollection {
	if lang == "" {
		lang = s.lang
	}
	cols := s.builder.Build(s.desc, lang)
	groups, err := s.apiNav.Groups(ctx, specID)
	if err != nil {
		s.logger.Warn("docservice: api navigation unavailable", logfields.Error(err))
		return cols
	}
	if len(groups) == 0 {
		return cols
	}
	return navigation.MergeAPI(cols, groups)
}

// Search delegates full-text search to the index. Without an index it
// returns no results.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return []index.SearchResult{}, nil
	}
	return s.db.Search(query, limit)
}

// Sitemap lists every static document, every discovered dynamic document,
// every API operation and the changelog as absolute URLs, without
// duplicates.
func (s *Service) Sitemap(ctx context.Context) []SitemapEntry {
	base := strings.TrimRight(s.site.BaseURL, "/")
	seen := make(map[string]struct{})
	var out []SitemapEntry
	add := func(href string, priority float64) {
		if href == "" || strings.Contains(href, "://") {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		if href == "/" {
			priority = PriorityRoot
		}
		out = append(out, SitemapEntry{Loc: base + href, ChangeFreq: ChangeFreq, Priority: priority})
	}
	for _, p := range s.Pages() {
		add(p.Href, PriorityDoc)
	}
	if groups, err := s.apiNav.Groups(ctx, ""); err == nil {
		for _, g := range groups {
			for _, op := range g.Items {
				add(op.Href, PriorityAPI)
			}
		}
	}
	add(ChangelogPath, PriorityChangelog)
	return out
}

// Pages lists the static documents in manifest order followed by the
// dynamic documents the content roots hold. A failed scan of the roots is
// logged and leaves only the static documents.
func (s *Service) Pages() []Page {
	var out []Page
	for _, e := range s.resolver.Index().Entries() {
		out = append(out, Page{Href: e.Href, Title: e.Title})
	}
	found, err := s.resolver.Discover()
	if err != nil {
		s.logger.Warn("docservice: discover dynamic docs failed", logfields.Error(err))
		return out
	}
	for _, d := range found {
		out = append(out, Page{Href: d.Href, Title: content.DeriveTitle(d.Key), Dynamic: true})
	}
	return out
}

// Changelog returns the release notes, newest first.
func (s *Service) Changelog() *changelog.Changelog {
	return s.changelog
}

// ChangelogRSS renders the release notes as an RSS feed.
func (s *Service) ChangelogRSS() ([]byte, error) {
	base := strings.TrimRight(s.site.BaseURL, "/")
	return s.changelog.RSS(changelog.Feed{
		Site:     s.site.Name,
		Link:     base + ChangelogPath,
		SelfURL:  base + ChangelogFeedPath,
		Language: s.lang,
	})
}

func (s *Service) editURL(e *models.DocumentEntry) string {
	if s.site.RepoURL == "" || e.Source == "" {
		return ""
	}
	branch := s.site.EditBranch
	if branch == "" {
		branch = "main"
	}
	return strings.TrimRight(s.site.RepoURL, "/") + "/edit/" + branch + "/" +
		strings.TrimPrefix(path.Join(s.site.ContentDir, e.Source), "/")
}

// Site returns the site description.
func (s *Service) Site() Site {
	return s.site
}

// IndexCompiled adds a dynamically compiled entry to the search index. It
// is installed as the resolver's compile hook.
func (s *Service) IndexCompiled(e *models.DocumentEntry) {
	if s.db == nil {
		return
	}
	if err := index.Ingest(s.db, e, true); err != nil {
		s.logger.Warn("docservice: index compiled doc failed", logfields.DocKey(e.Key()), logfields.Error(err))
	}
}

// Invalidate drops every cached resolution the source at rel can serve,
// along with their dynamic search rows, and returns the affected keys.
func (s *Service) Invalidate(rel string) []string {
	keys := docs.KeysForSource(rel)
	for _, k := range keys {
		s.resolver.Forget(k)
		if s.db == nil {
			continue
		}
		if row, err := s.db.GetDoc(k); err == nil && row.Dynamic {
			if err := s.db.DeleteDoc(k); err != nil {
				s.logger.Warn("docservice: drop dynamic row failed", logfields.DocKey(k), logfields.Error(err))
			}
		}
	}
	return keys
}
