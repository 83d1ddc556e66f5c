package navigation

import (
	"strings"

	"github.com/starford/dox/internal/models"
)

// Located is a navigation item together with where it sits.
type Located struct {
	Item       models.NavigationItem
	Collection models.SidebarCollection
	Section    models.NavigationSection
}

// Flatten lists every item of every non link-out collection in sidebar
// order.
func Flatten(collections []models.SidebarCollection) []Located {
	var out []Located
	for _, c := range collections {
		if c.Href != "" {
			continue
		}
		for _, s := range c.Sections {
			for _, it := range s.Items {
				out = append(out, Located{Item: it, Collection: c, Section: s})
			}
		}
	}
	return out
}

// PrevNext returns the neighbours of the first item linking to href within
// the same collection. Missing neighbours are nil.
func PrevNext(collections []models.SidebarCollection, href string) (prev, next *models.PageLink) {
	flat := Flatten(collections)
	for i, l := range flat {
		if l.Item.Href != href {
			continue
		}
		if i > 0 && flat[i-1].Collection.ID == l.Collection.ID {
			prev = &models.PageLink{Title: flat[i-1].Item.Title, Href: flat[i-1].Item.Href}
		}
		if i+1 < len(flat) && flat[i+1].Collection.ID == l.Collection.ID {
			next = &models.PageLink{Title: flat[i+1].Item.Title, Href: flat[i+1].Item.Href}
		}
		return prev, next
	}
	return nil, nil
}

// Breadcrumbs returns the trail to href: the collection, each group of the
// section title, then the page itself. A page absent from the sidebar gets a
// single crumb titled fallback.
func Breadcrumbs(collections []models.SidebarCollection, href, fallback string) []models.Breadcrumb {
	for _, l := range Flatten(collections) {
		if l.Item.Href != href {
			continue
		}
		crumbs := []models.Breadcrumb{{Label: l.Collection.Label, Href: firstHref(l.Collection)}}
		if l.Section.Title != DefaultSectionTitle {
			for _, part := range strings.Split(l.Section.Title, TitleSeparator) {
				crumbs = append(crumbs, models.Breadcrumb{Label: part})
			}
		}
		return append(crumbs, models.Breadcrumb{Label: l.Item.Title, Href: l.Item.Href})
	}
	return []models.Breadcrumb{{Label: fallback, Href: href}}
}

func firstHref(c models.SidebarCollection) string {
	for _, s := range c.Sections {
		if len(s.Items) > 0 {
			return s.Items[0].Href
		}
	}
	return ""
}
