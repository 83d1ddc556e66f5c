package navigation

import (
	"regexp"
	"strings"

	"github.com/starford/dox/internal/content"
	"github.com/starford/dox/internal/models"
)

// DefaultSectionTitle titles sections whose groups carry no names.
const DefaultSectionTitle = "General"

// TitleSeparator joins ancestor group names in section titles.
const TitleSeparator = " • "

// Catalog finds the document a page identifier refers to.
type Catalog interface {
	Lookup(pageID string) (*models.DocumentEntry, bool)
}

// Builder flattens navigation descriptions against a document catalog. It
// holds no mutable state.
type Builder struct {
	catalog Catalog
}

// NewBuilder returns a builder resolving page identifiers through catalog.
// A nil catalog synthesizes every item.
func NewBuilder(catalog Catalog) *Builder {
	return &Builder{catalog: catalog}
}

// Build returns one collection per tab of the first language whose code
// equals lang, or of the first language when none matches. The result is
// freshly allocated on every call.
func (b *Builder) Build(desc *Description, lang string) []models.SidebarCollection {
	if desc == nil || len(desc.Navigation.Languages) == 0 {
		return []models.SidebarCollection{}
	}
	selected := desc.Navigation.Languages[0]
	for _, l := range desc.Navigation.Languages {
		if l.Language == lang {
			selected = l
			break
		}
	}

	out := make([]models.SidebarCollection, 0, len(selected.Tabs))
	for _, tab := range selected.Tabs {
		id := tab.ID
		if id == "" {
			id = Slugify(tab.Tab)
		}
		coll := models.SidebarCollection{
			ID:       id,
			Label:    tab.Tab,
			Sections: []models.NavigationSection{},
			Href:     tab.Href,
		}
		if tab.Href == "" {
			for _, g := range tab.Groups {
				coll.Sections = append(coll.Sections, b.sections(g, nil)...)
			}
		}
		out = append(out, coll)
	}
	return out
}

// sections flattens g depth first. Consecutive leaves share a section; a
// nested group closes the current run so declaration order is kept.
func (b *Builder) sections(g Group, ancestors []string) []models.NavigationSection {
	path := make([]string, 0, len(ancestors)+1)
	path = append(path, ancestors...)
	if g.Group != "" {
		path = append(path, g.Group)
	}
	title := DefaultSectionTitle
	if len(path) > 0 {
		title = strings.Join(path, TitleSeparator)
	}

	var out []models.NavigationSection
	var run []models.NavigationItem
	flush := func() {
		if len(run) > 0 {
			out = append(out, models.NavigationSection{Title: title, Items: run})
			run = nil
		}
	}
	for _, p := range g.Pages {
		if p.Group == nil {
			run = append(run, b.item(p.ID))
			continue
		}
		flush()
		out = append(out, b.sections(*p.Group, path)...)
	}
	flush()
	return out
}

// item resolves a page identifier, synthesizing a placeholder when no
// document matches.
func (b *Builder) item(pageID string) models.NavigationItem {
	if b.catalog != nil {
		if e, ok := b.catalog.Lookup(pageID); ok {
			return models.NavigationItem{
				ID:          e.ID,
				Title:       e.Title,
				Href:        e.Href,
				Badge:       e.Badge,
				Description: e.Description,
			}
		}
	}
	title := content.DeriveTitle(pageID)
	id := Slugify(pageID)
	if id == "" {
		id = Slugify(title)
	}
	return models.NavigationItem{
		ID:    id,
		Title: title,
		Href:  NormalizeHref(pageID),
	}
}

var (
	nonSlug     = regexp.MustCompile(`[^a-z0-9]+`)
	absoluteURL = regexp.MustCompile(`(?i)^https?://`)
)

// Slugify lowercases s and collapses every run of other characters into a
// single dash, trimming dashes at both ends.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// NormalizeHref returns absolute http(s) URLs unchanged and otherwise
// guarantees exactly one leading slash.
func NormalizeHref(pageID string) string {
	if absoluteURL.MatchString(pageID) {
		return pageID
	}
	return "/" + strings.TrimLeft(pageID, "/")
}
