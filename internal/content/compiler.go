// Package content compiles raw document sources into document entries:
// snippet imports are stripped and resolved, frontmatter is read with
// per-field defaults, and the body becomes a renderable value.
package content

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"

	"github.com/starford/dox/internal/logfields"
	"github.com/starford/dox/internal/markdown"
	"github.com/starford/dox/internal/metrics"
	"github.com/starford/dox/internal/models"
	"github.com/starford/dox/internal/snippet"
)

// Metadata defaults.
const (
	DefaultGroup        = "Docs"
	DefaultTimeEstimate = "5 min"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for snippet diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithProduction suppresses snippet diagnostics.
func WithProduction(production bool) Option {
	return func(c *Compiler) { c.production = production }
}

// WithRecorder sets the metrics recorder for snippet diagnostics.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Compiler) { c.recorder = r }
}

// WithClock overrides the clock used for the lastUpdated default.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) { c.now = now }
}

// Compiler turns document sources into entries. It holds no mutable state
// and is safe for concurrent use.
type Compiler struct {
	registry   *snippet.Registry
	logger     *slog.Logger
	production bool
	recorder   metrics.Recorder
	now        func() time.Time
	md         goldmark.Markdown
}

// NewCompiler returns a compiler resolving snippets through registry.
func NewCompiler(registry *snippet.Registry, opts ...Option) *Compiler {
	c := &Compiler{
		registry: registry,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
		md:       markdown.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the entry for source served at slug. It only fails when ctx
// is done; unresolved snippets and malformed frontmatter degrade silently.
func (c *Compiler) Compile(ctx context.Context, source []byte, slug []string) (*models.DocumentEntry, error) {
	rawFM, body := splitFrontmatter(source)
	cleaned, imports := stripSnippetImports(string(body))

	components := make(map[string]snippet.Component)
	unresolved := make(map[string]struct{})
	for _, imp := range imports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		load, ok := c.registry.Resolve(imp.Path, imp.Name)
		if !ok {
			c.diagnose("snippet: no registered loader", imp, nil)
			unresolved[imp.Name] = struct{}{}
			continue
		}
		comp, err := load(ctx)
		if err != nil {
			c.diagnose("snippet: load failed", imp, err)
			unresolved[imp.Name] = struct{}{}
			continue
		}
		components[imp.Name] = comp
		delete(unresolved, imp.Name)
	}

	fm := parseFrontmatter(rawFM)
	slugPath := strings.Join(slug, "/")

	entry := &models.DocumentEntry{
		Title:        stringOr(fm.Title, DeriveTitle(slugPath)),
		Description:  stringOr(fm.Description, ""),
		Slug:         append([]string(nil), slug...),
		Href:         models.HrefForSlug(slug),
		Group:        stringOr(fm.Group, DefaultGroup),
		Badge:        stringOr(fm.Badge, ""),
		Keywords:     fm.Keywords,
		TimeEstimate: stringOr(fm.TimeEstimate, DefaultTimeEstimate),
		LastUpdated:  stringOr(fm.LastUpdated, c.now().Format(time.DateOnly)),
		Fingerprint:  mdfp.CalculateFingerprintFromParts(strings.TrimSpace(string(rawFM)), cleaned),
		Headings:     markdown.Headings(c.md, []byte(cleaned)),
		Body: &Body{
			md:         c.md,
			source:     []byte(cleaned),
			components: components,
			unresolved: unresolved,
		},
	}
	if entry.Keywords == nil {
		entry.Keywords = []string{}
	}
	entry.ID = slugPath
	if entry.ID == "" && fm.Title != nil && *fm.Title != "" {
		entry.ID = *fm.Title
	}
	if entry.ID == "" {
		entry.ID = "doc"
	}
	return entry, nil
}

func (c *Compiler) diagnose(msg string, imp snippetImport, err error) {
	c.recorder.IncSnippetDiagnostic()
	if c.production {
		return
	}
	attrs := []any{logfields.Snippet(imp.Name), logfields.SnippetPath(imp.Path)}
	if err != nil {
		attrs = append(attrs, logfields.Error(err))
	}
	c.logger.Warn(msg, attrs...)
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
