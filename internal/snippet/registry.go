// Package snippet maps (source path, export name) pairs to lazy component
// loaders. The table is declared once at startup and never mutated.
package snippet

import (
	"context"
	"fmt"
	"sort"

	"github.com/starford/dox/internal/apperr"
)

// ErrComponentNotFound is returned by a loader whose module does not export
// the requested name.
var ErrComponentNotFound = apperr.ErrComponentNotFound

// Component renders a reusable content fragment to HTML.
type Component interface {
	Render(props map[string]string) ([]byte, error)
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(props map[string]string) ([]byte, error)

// Render calls f.
func (f ComponentFunc) Render(props map[string]string) ([]byte, error) {
	return f(props)
}

// Module is the set of components a snippet source exports, by name.
type Module map[string]Component

// Importer obtains a snippet module.
type Importer func(ctx context.Context) (Module, error)

// Loader obtains a single component.
type Loader func(ctx context.Context) (Component, error)

// Binding identifies one registered export.
type Binding struct {
	SourcePath string `json:"source_path"`
	ExportName string `json:"export_name"`
}

// Entry declares the exports a source path provides.
type Entry struct {
	Path     string
	Exports  []string
	Importer Importer
}

// Registry resolves snippet references. Lookups are exact on the source path
// as written in content: no normalization, no globbing.
type Registry struct {
	loaders map[string]map[string]Loader
}

// NewRegistry builds a registry from entries. Later entries for the same
// (path, name) pair replace earlier ones.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{loaders: make(map[string]map[string]Loader)}
	for _, e := range entries {
		byName, ok := r.loaders[e.Path]
		if !ok {
			byName = make(map[string]Loader, len(e.Exports))
			r.loaders[e.Path] = byName
		}
		for _, name := range e.Exports {
			byName[name] = load(e.Importer, name)
		}
	}
	return r
}

// Resolve returns the loader for name exported by path.
func (r *Registry) Resolve(path, name string) (Loader, bool) {
	if r == nil {
		return nil, false
	}
	l, ok := r.loaders[path][name]
	return l, ok
}

// Bindings lists every registered (path, name) pair sorted by path then name.
func (r *Registry) Bindings() []Binding {
	var out []Binding
	for path, byName := range r.loaders {
		for name := range byName {
			out = append(out, Binding{SourcePath: path, ExportName: name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourcePath != out[j].SourcePath {
			return out[i].SourcePath < out[j].SourcePath
		}
		return out[i].ExportName < out[j].ExportName
	})
	return out
}

func load(importer Importer, name string) Loader {
	return func(ctx context.Context) (Component, error) {
		mod, err := importer(ctx)
		if err != nil {
			return nil, fmt.Errorf("snippet: import %q: %w", name, err)
		}
		c, ok := mod[name]
		if !ok || c == nil {
			return nil, fmt.Errorf("snippet: %q: %w", name, ErrComponentNotFound)
		}
		return c, nil
	}
}
