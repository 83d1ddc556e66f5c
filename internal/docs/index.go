// Package docs resolves slug paths to document entries: a static index built
// once from the manifest, then filesystem discovery across ordered content
// roots with per-key memoized compilation.
package docs

import (
	"fmt"
	"strings"

	"github.com/starford/dox/internal/apperr"
	"github.com/starford/dox/internal/models"
)

// Index is the static document index. It is built once and never mutated,
// so concurrent readers need no synchronization.
type Index struct {
	entries []*models.DocumentEntry
	bySlug  map[string]*models.DocumentEntry
	byRef   map[string]*models.DocumentEntry
}

// NewIndex indexes entries by slug key and by reference (id, slug path, and
// the "/" and "" aliases for the root document). IDs must be unique.
func NewIndex(entries []*models.DocumentEntry) (*Index, error) {
	ix := &Index{
		entries: entries,
		bySlug:  make(map[string]*models.DocumentEntry, len(entries)),
		byRef:   make(map[string]*models.DocumentEntry, len(entries)*2),
	}
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := ids[e.ID]; dup {
			return nil, fmt.Errorf("docs: %q: %w", e.ID, apperr.ErrDuplicateID)
		}
		ids[e.ID] = struct{}{}
		ix.bySlug[e.Key()] = e
		ix.byRef[e.ID] = e
	}
	// Slug aliases never shadow an id.
	for _, e := range entries {
		key := e.Key()
		if key != "" {
			if _, taken := ix.byRef[key]; !taken {
				ix.byRef[key] = e
			}
			continue
		}
		ix.byRef["/"] = e
		ix.byRef[""] = e
	}
	return ix, nil
}

// BySlug returns the entry whose joined slug equals key.
func (ix *Index) BySlug(key string) (*models.DocumentEntry, bool) {
	if ix == nil {
		return nil, false
	}
	e, ok := ix.bySlug[key]
	return e, ok
}

// Lookup finds the entry a navigation page identifier refers to: by id, then
// by slug path with any leading slash removed, then by root alias.
func (ix *Index) Lookup(pageID string) (*models.DocumentEntry, bool) {
	if ix == nil {
		return nil, false
	}
	if e, ok := ix.byRef[pageID]; ok {
		return e, true
	}
	e, ok := ix.byRef[strings.TrimPrefix(pageID, "/")]
	return e, ok
}

// Entries returns the static entries in manifest order.
func (ix *Index) Entries() []*models.DocumentEntry {
	if ix == nil {
		return nil
	}
	return append([]*models.DocumentEntry(nil), ix.entries...)
}
