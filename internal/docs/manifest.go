package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/dox/internal/content"
	"github.com/starford/dox/internal/models"
)

// Manifest is the build-time list of statically registered documents.
type Manifest struct {
	Entries []ManifestEntry `yaml:"entries"`
}

// ManifestEntry declares one static document. Source is the body file,
// relative to the manifest's directory.
type ManifestEntry struct {
	ID           string   `yaml:"id"`
	Slug         []string `yaml:"slug"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Group        string   `yaml:"group"`
	Badge        string   `yaml:"badge"`
	Keywords     []string `yaml:"keywords"`
	TimeEstimate string   `yaml:"timeEstimate"`
	LastUpdated  string   `yaml:"lastUpdated"`
	Source       string   `yaml:"source"`
}

// Validate validates a manifest entry.
func (e *ManifestEntry) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.ID, validation.Required),
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.Source, validation.Required),
	)
}

// LoadManifest reads and validates a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("docs: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("docs: parse manifest %s: %w", path, err)
	}
	for i := range m.Entries {
		if err := m.Entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("docs: manifest entry %d: %w", i, err)
		}
	}
	return &m, nil
}

// BuildIndex compiles every manifest source once and returns the static
// index. Manifest metadata wins over the source's frontmatter; only the body,
// headings and fingerprint come from compilation.
func BuildIndex(ctx context.Context, m *Manifest, baseDir string, c *content.Compiler) (*Index, error) {
	entries := make([]*models.DocumentEntry, 0, len(m.Entries))
	for _, me := range m.Entries {
		src := me.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(baseDir, src)
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("docs: read source for %q: %w", me.ID, err)
		}
		slug := nonEmpty(me.Slug)
		compiled, err := c.Compile(ctx, data, slug)
		if err != nil {
			return nil, fmt.Errorf("docs: compile %q: %w", me.ID, err)
		}
		entries = append(entries, &models.DocumentEntry{
			ID:           me.ID,
			Title:        me.Title,
			Description:  me.Description,
			Slug:         slug,
			Href:         models.HrefForSlug(slug),
			Group:        orDefault(me.Group, content.DefaultGroup),
			Badge:        me.Badge,
			Keywords:     nonNil(me.Keywords),
			TimeEstimate: orDefault(me.TimeEstimate, content.DefaultTimeEstimate),
			LastUpdated:  orDefault(me.LastUpdated, compiled.LastUpdated),
			Fingerprint:  compiled.Fingerprint,
			Headings:     compiled.Headings,
			Source:       filepath.ToSlash(me.Source),
			Body:         compiled.Body,
		})
	}
	return NewIndex(entries)
}

func nonEmpty(segs []string) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
