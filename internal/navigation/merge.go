package navigation

import (
	"strings"

	"github.com/starford/dox/internal/models"
)

// IsAPICollection reports whether c is the collection that hosts the API
// reference: id "api", an id naming both "api" and "reference", or a label
// containing "api reference". Link-out collections never match.
func IsAPICollection(c models.SidebarCollection) bool {
	if c.Href != "" {
		return false
	}
	id := strings.ToLower(c.ID)
	if id == "api" {
		return true
	}
	if strings.Contains(id, "api") && strings.Contains(id, "reference") {
		return true
	}
	return strings.Contains(strings.ToLower(c.Label), "api reference")
}

// APISections converts operation groups into navigation sections. Item
// descriptions read "METHOD path".
func APISections(groups []models.OperationGroup) []models.NavigationSection {
	out := make([]models.NavigationSection, 0, len(groups))
	for _, g := range groups {
		items := make([]models.NavigationItem, 0, len(g.Items))
		for _, op := range g.Items {
			items = append(items, models.NavigationItem{
				ID:          op.ID,
				Title:       op.Title,
				Href:        op.Href,
				Badge:       op.Badge,
				Description: op.Method + " " + op.Path,
			})
		}
		out = append(out, models.NavigationSection{Title: g.Title, Items: items})
	}
	return out
}

// MergeAPI returns a copy of collections in which every API collection's
// sections are replaced by sections built from groups.
func MergeAPI(collections []models.SidebarCollection, groups []models.OperationGroup) []models.SidebarCollection {
	api := APISections(groups)
	out := make([]models.SidebarCollection, len(collections))
	for i, c := range collections {
		if IsAPICollection(c) {
			c.Sections = api
		}
		out[i] = c
	}
	return out
}
