// Package storage defines read access to a content root directory.
package storage

import "time"

// DocFile is a lightweight listing entry for a content source file.
type DocFile struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for content root file operations. All paths are
// relative to the root and use forward slashes.
type Provider interface {
	// Root returns the absolute directory this provider serves.
	Root() string
	// Exists reports whether path names a regular file.
	Exists(path string) (bool, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// List returns every file under dir with the given extension.
	List(dir, ext string) ([]DocFile, error)
}
