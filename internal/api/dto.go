package api

import (
	"encoding/xml"

	"github.com/starford/dox/internal/changelog"
	"github.com/starford/dox/internal/docservice"
	"github.com/starford/dox/internal/index"
	"github.com/starford/dox/internal/models"
)

// DocDetail is the full document response type (aliased from the domain layer).
type DocDetail = docservice.DocDetail

// SearchResult is a single search hit (aliased from the index layer).
type SearchResult = index.SearchResult

// NavigationResponse wraps the sidebar collections.
type NavigationResponse struct {
	Collections []models.SidebarCollection `json:"collections" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// urlSet is the sitemap document.
type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// ChangelogResponse lists the releases, newest first.
type ChangelogResponse struct {
	Title    string              `json:"title"`
	Releases []changelog.Release `json:"releases" validate:"required"`
}

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
