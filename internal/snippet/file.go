package snippet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/starford/dox/internal/markdown"
)

// Source is the configuration form of an Entry: a snippet path as written in
// content, the YAML module file backing it, and the names it exports.
type Source struct {
	Path    string   `yaml:"path"`
	File    string   `yaml:"file"`
	Exports []string `yaml:"exports"`
}

// FromSources builds a registry whose modules are YAML files mapping export
// names to Markdown fragments. Relative files are resolved against baseDir.
func FromSources(baseDir string, sources []Source) *Registry {
	md := markdown.New()
	entries := make([]Entry, 0, len(sources))
	for _, s := range sources {
		file := s.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}
		entries = append(entries, Entry{
			Path:     s.Path,
			Exports:  s.Exports,
			Importer: FileImporter(md, file),
		})
	}
	return NewRegistry(entries...)
}

// FileImporter reads the module file on every call. The file is a YAML
// mapping of export name to Markdown fragment.
func FileImporter(md goldmark.Markdown, file string) Importer {
	return func(ctx context.Context) (Module, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("snippet: read module: %w", err)
		}
		var fragments map[string]string
		if err := yaml.Unmarshal(data, &fragments); err != nil {
			return nil, fmt.Errorf("snippet: parse module %s: %w", file, err)
		}
		mod := make(Module, len(fragments))
		for name, src := range fragments {
			mod[name] = fragment(md, []byte(src))
		}
		return mod, nil
	}
}

// fragment renders a Markdown snippet. Props are not interpolated.
func fragment(md goldmark.Markdown, src []byte) Component {
	return ComponentFunc(func(map[string]string) ([]byte, error) {
		return markdown.Render(md, src)
	})
}
