// Package models defines the domain types for dox.
package models

import "strings"

// DocumentEntry is a resolved documentation page. Entries are immutable once
// constructed; callers must not modify the returned slices.
type DocumentEntry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Slug         []string  `json:"slug"`
	Href         string    `json:"href"`
	Group        string    `json:"group"`
	Badge        string    `json:"badge,omitempty"`
	Keywords     []string  `json:"keywords"`
	TimeEstimate string    `json:"time_estimate"`
	LastUpdated  string    `json:"last_updated"`
	Fingerprint  string    `json:"fingerprint"`
	Headings     []Heading `json:"headings,omitempty"`
	// Source is the slash-separated source path relative to its content
	// root, empty for entries not backed by a file.
	Source string     `json:"source,omitempty"`
	Body   Renderable `json:"-"`
}

// Key returns the slug joined with "/". The root document has an empty key.
func (e *DocumentEntry) Key() string {
	return strings.Join(e.Slug, "/")
}

// Heading is one entry of a document's table of contents.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Renderable is the compiled body of a document.
type Renderable interface {
	// HTML renders the body, substituting bound snippet components.
	HTML() ([]byte, error)
}

// HrefForSlug returns "/" joined with the slug segments, or "/" for the root.
func HrefForSlug(slug []string) string {
	if len(slug) == 0 {
		return "/"
	}
	return "/" + strings.Join(slug, "/")
}
