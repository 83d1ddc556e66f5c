package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/dox/internal/apperr"
	"github.com/starford/dox/internal/docs"
	"github.com/starford/dox/internal/index"
	"github.com/starford/dox/internal/models"
	"github.com/starford/dox/internal/snippet"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "content")
	writeFile(t, filepath.Join(root, "home.mdx"), "import { Hi } from '/snippets/hi.yaml'\n\n<Hi />\n")
	writeFile(t, filepath.Join(root, "guides", "setup.mdx"), "---\ntitle: Setup\n---\nInstall it.\n")
	writeFile(t, filepath.Join(root, "snippets", "hi.yaml"), "Hi: Hello from a snippet.\n")
	writeFile(t, filepath.Join(root, "manifest.yaml"), "entries:\n  - id: home\n    title: Home\n    source: home.mdx\n")
	writeFile(t, filepath.Join(root, "navigation.yaml"),
		"navigation:\n  languages:\n    - language: en\n      tabs:\n        - tab: Docs\n          groups:\n            - group: Start\n              pages: [home, guides/setup]\n")

	cfg := NewDefaultConfig()
	cfg.Content.Roots = []string{root}
	cfg.Content.Manifest = filepath.Join(root, "manifest.yaml")
	cfg.Content.Navigation = filepath.Join(root, "navigation.yaml")
	cfg.Content.Snippets = []snippet.Source{{Path: "/snippets/hi.yaml", File: "snippets/hi.yaml", Exports: []string{"Hi"}}}
	cfg.SQLite.Path = filepath.Join(dir, "dox.db")
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	c, err := build(context.Background(), cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer c.db.Close()

	home, err := c.svc.GetDoc(context.Background(), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if home.ID != "home" || !strings.Contains(home.HTML, "Hello from a snippet.") {
		t.Errorf("home = %+v, html = %q", home.DocumentEntry, home.HTML)
	}
	if home.Next == nil || home.Next.Href != "/guides/setup" {
		t.Errorf("next = %+v", home.Next)
	}

	setup, err := c.svc.GetDoc(context.Background(), []string{"guides", "setup"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if setup.Title != "Setup" {
		t.Errorf("setup title = %q", setup.Title)
	}

	n, err := c.db.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("indexed docs = %d, want 2 (static + compiled)", n)
	}
}

func TestBuild_PrunesStaleDynamicRows(t *testing.T) {
	cfg := testConfig(t)
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		t.Fatal(err)
	}
	for _, slug := range [][]string{{"guides", "setup"}, {"guides", "removed"}} {
		e := &models.DocumentEntry{ID: slug[1], Title: slug[1], Slug: slug, Href: "/" + strings.Join(slug, "/")}
		if err := index.Ingest(db, e, true); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	c, err := build(context.Background(), cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	defer c.db.Close()

	if _, err := c.db.GetDoc("guides/removed"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale row: err = %v, want ErrNotFound", err)
	}
	if _, err := c.db.GetDoc("guides/setup"); err != nil {
		t.Errorf("row with a source was pruned: %v", err)
	}
}

func TestBuild_Changelog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.Changelog = filepath.Join(t.TempDir(), "changelog.yaml")
	writeFile(t, cfg.Content.Changelog, "releases:\n  - version: v1.0.0\n    date: \"2024-01-15\"\n")
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	c, err := build(context.Background(), cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer c.db.Close()
	if got := c.svc.Changelog().Releases; len(got) != 1 || got[0].Version != "v1.0.0" {
		t.Errorf("releases = %+v", got)
	}

	writeFile(t, cfg.Content.Changelog, "releases:\n  - version: v2\n")
	if _, err := build(context.Background(), cfg, logger); err == nil || !strings.Contains(err.Error(), "load changelog") {
		t.Fatalf("err = %v, want changelog error", err)
	}
}

func TestBuild_WithoutManifest(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.Manifest = ""
	c, err := build(context.Background(), cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	defer c.db.Close()

	// home.mdx is served dynamically once no manifest claims it.
	home, err := c.svc.GetDoc(context.Background(), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if home.Href != "/" || !strings.Contains(home.HTML, "Hello from a snippet.") {
		t.Errorf("home = %+v", home.DocumentEntry)
	}
}

func TestBuild_MissingNavigation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.Navigation = filepath.Join(t.TempDir(), "missing.yaml")
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	if _, err := build(context.Background(), cfg, logger); err == nil || !strings.Contains(err.Error(), "load navigation") {
		t.Fatalf("err = %v, want navigation error", err)
	}
}

func TestDocEvent(t *testing.T) {
	tests := []struct {
		path string
		key  string
		href string
	}{
		{"guides/setup.mdx", "guides/setup", "/guides/setup"},
		{"guides/index.mdx", "guides", "/guides"},
		{"home.mdx", "", "/"},
	}
	for _, tt := range tests {
		ev := index.FileEvent{Kind: index.KindUpdated, Path: tt.path}
		got := docEvent(ev, docs.KeysForSource(tt.path))
		if got.Key != tt.key || got.Href != tt.href || got.Path != tt.path {
			t.Errorf("docEvent(%q) = %+v", tt.path, got)
		}
	}
}
