// Package apperr holds sentinel errors shared across packages.
package apperr

import "errors"

var (
	// ErrNotFound means no static or dynamic document matches a path.
	ErrNotFound = errors.New("not found")
	// ErrUnresolvedSnippet is returned when rendering a body that references
	// a snippet import which could not be resolved at compile time.
	ErrUnresolvedSnippet = errors.New("unresolved snippet")
	// ErrComponentNotFound means a snippet module lacks the requested export.
	ErrComponentNotFound = errors.New("component not found")
	// ErrDuplicateID means two manifest entries share an id.
	ErrDuplicateID = errors.New("duplicate document id")
)
