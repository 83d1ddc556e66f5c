// Package testutil provides shared test helpers for setting up content
// roots, databases and a fully wired document service.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/dox/internal/apinav"
	"github.com/starford/dox/internal/changelog"
	"github.com/starford/dox/internal/content"
	"github.com/starford/dox/internal/docs"
	"github.com/starford/dox/internal/docservice"
	"github.com/starford/dox/internal/index"
	"github.com/starford/dox/internal/models"
	"github.com/starford/dox/internal/navigation"
	"github.com/starford/dox/internal/storage"
)

// Navigation is the description used by TestService: a Guides tab listing
// the static introduction and the dynamic setup page, and an empty API tab.
const Navigation = `
navigation:
  languages:
    - language: en
      tabs:
        - tab: Guides
          groups:
            - group: Start
              pages: [introduction, setup]
        - id: api
          tab: API
          groups: []
`

// ContentFiles are written into the content root by TestService.
var ContentFiles = map[string]string{
	"setup.mdx":              "---\ntitle: Setup\ndescription: Install dox.\n---\n## Install\n\nRun the **installer**.\n",
	"broken.mdx":             "import { Gone } from '/snippets/gone.yaml'\n\n<Gone />\n",
	"assets/images/logo.svg": "<svg/>",
	"manifest.yaml":          "entries: []\n",
}

// Changelog is the release history served by TestService.
const Changelog = `
releases:
  - version: v0.1.0
    date: "2024-01-15"
    description: First release.
  - version: v0.2.0
    date: "2024-03-01"
    items: [Changelog feed]
`

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "dox-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestContentRoot creates a temporary content root holding files.
func TestContentRoot(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestService wires a document service over ContentFiles, a static
// "introduction" entry at "/", a synced search index, one API group and
// the Changelog releases.
// It returns the service and the content root directory.
func TestService(t *testing.T) (*docservice.Service, string) {
	t.Helper()
	ctx := context.Background()
	dir, root := TestContentRoot(t, ContentFiles)

	compiler := content.NewCompiler(nil, content.WithProduction(true))
	intro, err := compiler.Compile(ctx, []byte("Welcome to dox."), nil)
	if err != nil {
		t.Fatal(err)
	}
	intro.ID, intro.Title = "introduction", "Introduction"
	ix, err := docs.NewIndex([]*models.DocumentEntry{intro})
	if err != nil {
		t.Fatal(err)
	}

	db := TestDB(t)
	if err := index.Sync(ctx, db, ix.Entries(), Logger()); err != nil {
		t.Fatal(err)
	}

	desc, err := navigation.ParseDescription([]byte(Navigation))
	if err != nil {
		t.Fatal(err)
	}
	releases, err := changelog.Parse([]byte(Changelog))
	if err != nil {
		t.Fatal(err)
	}
	api := apinav.Static{{Title: "Users", Items: []models.OperationItem{
		{ID: "list-users", Title: "List users", Href: "/api/list-users", Method: "GET", Path: "/users"},
	}}}

	var svc *docservice.Service
	resolver := docs.NewResolver(ix, []storage.Provider{root}, compiler,
		docs.WithLogger(Logger()),
		docs.WithOnCompiled(func(e *models.DocumentEntry) { svc.IndexCompiled(e) }))
	svc = docservice.NewService(resolver, desc,
		docservice.WithIndex(db),
		docservice.WithAPINav(api),
		docservice.WithChangelog(releases),
		docservice.WithSite(docservice.Site{
			Name:       "Dox",
			BaseURL:    "https://docs.example.com",
			RepoURL:    "https://github.com/example/docs",
			ContentDir: "content",
		}),
		docservice.WithLogger(Logger()))
	return svc, dir
}
