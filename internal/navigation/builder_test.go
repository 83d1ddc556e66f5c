package navigation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/dox/internal/models"
)

type mapCatalog map[string]*models.DocumentEntry

func (m mapCatalog) Lookup(id string) (*models.DocumentEntry, bool) {
	e, ok := m[id]
	return e, ok
}

const interleaved = `
navigation:
  languages:
    - language: en
      tabs:
        - tab: Guides
          groups:
            - group: A
              pages:
                - p1
                - group: B
                  pages: [p2]
                - p3
`

func TestBuild_InterleavedGroupsKeepOrder(t *testing.T) {
	desc, err := ParseDescription([]byte(interleaved))
	require.NoError(t, err)

	got := NewBuilder(nil).Build(desc, "en")
	require.Len(t, got, 1)
	require.Equal(t, "guides", got[0].ID)

	var titles []string
	var items [][]string
	for _, s := range got[0].Sections {
		titles = append(titles, s.Title)
		var ids []string
		for _, it := range s.Items {
			ids = append(ids, it.ID)
		}
		items = append(items, ids)
	}
	require.Equal(t, []string{"A", "A • B", "A"}, titles)
	require.Equal(t, [][]string{{"p1"}, {"p2"}, {"p3"}}, items)
}

func TestBuild_ResolvesFromCatalog(t *testing.T) {
	intro := &models.DocumentEntry{ID: "introduction", Title: "Introduction", Href: "/", Description: "Start here"}
	hooks := &models.DocumentEntry{ID: "webhooks", Title: "Webhooks", Href: "/webhooks", Badge: "beta"}
	cat := mapCatalog{"introduction": intro, "webhooks": hooks, "": intro}

	desc, err := ParseDescription([]byte(`{"navigation":{"languages":[{"language":"en","tabs":[{"tab":"Docs","groups":[{"group":"","pages":["introduction","webhooks",""]}]}]}]}}`))
	require.NoError(t, err)

	got := NewBuilder(cat).Build(desc, "en")
	s := got[0].Sections
	require.Len(t, s, 1)
	require.Equal(t, DefaultSectionTitle, s[0].Title)
	require.Equal(t, []models.NavigationItem{
		{ID: "introduction", Title: "Introduction", Href: "/", Description: "Start here"},
		{ID: "webhooks", Title: "Webhooks", Href: "/webhooks", Badge: "beta"},
		{ID: "introduction", Title: "Introduction", Href: "/", Description: "Start here"},
	}, s[0].Items)
}

func TestBuild_SynthesizesMissingPages(t *testing.T) {
	desc, err := ParseDescription([]byte(`
navigation:
  languages:
    - language: en
      tabs:
        - tab: Docs
          groups:
            - group: Start
              pages: ["guides/getting-started", "/already/slashed", "https://example.com/x", ""]
`))
	require.NoError(t, err)

	items := NewBuilder(mapCatalog{}).Build(desc, "en")[0].Sections[0].Items
	require.Equal(t, models.NavigationItem{ID: "guides-getting-started", Title: "Getting Started", Href: "/guides/getting-started"}, items[0])
	require.Equal(t, "/already/slashed", items[1].Href)
	require.Equal(t, "https://example.com/x", items[2].Href)
	require.Equal(t, models.NavigationItem{ID: "overview", Title: "Overview", Href: "/"}, items[3])
}

func TestBuild_LanguageSelectionAndTabs(t *testing.T) {
	desc, err := ParseDescription([]byte(`
navigation:
  languages:
    - language: en
      tabs:
        - tab: English
    - language: fr
      tabs:
        - tab: Guides Français
          groups:
            - group: G
              pages: [a]
        - id: changelog
          tab: Changelog
          href: /changelog
          groups:
            - group: Ignored
              pages: [b]
`))
	require.NoError(t, err)
	b := NewBuilder(nil)

	fr := b.Build(desc, "fr")
	require.Len(t, fr, 2)
	require.Equal(t, "guides-fran-ais", fr[0].ID)
	require.Equal(t, "changelog", fr[1].ID)
	require.Equal(t, "/changelog", fr[1].Href)
	require.Empty(t, fr[1].Sections)

	fallback := b.Build(desc, "de")
	require.Equal(t, "English", fallback[0].Label)
	require.Empty(t, fallback[0].Sections)

	require.Equal(t, fr, b.Build(desc, "fr"), "building is repeatable")
}

func TestBuild_EmptyDescription(t *testing.T) {
	require.Empty(t, NewBuilder(nil).Build(&Description{}, "en"))
	require.Empty(t, NewBuilder(nil).Build(nil, "en"))
}

func TestParseDescription_RejectsSequencePage(t *testing.T) {
	_, err := ParseDescription([]byte(`
navigation:
  languages:
    - language: en
      tabs:
        - tab: Docs
          groups:
            - group: G
              pages: [[nested]]
`))
	require.ErrorContains(t, err, "page must be a string or a group")
}

func TestSlugifyAndNormalizeHref(t *testing.T) {
	require.Equal(t, "api-reference", Slugify("  API Reference! "))
	require.Equal(t, "", Slugify("---"))
	require.Equal(t, "/a/b", NormalizeHref("a/b"))
	require.Equal(t, "/a", NormalizeHref("//a"))
	require.Equal(t, "HTTPS://x.dev", NormalizeHref("HTTPS://x.dev"))
}
