// Package apinav supplies API operation groups to the navigation layer. The
// groups are produced elsewhere (for example from an OpenAPI document) and
// consumed here as data.
package apinav

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/starford/dox/internal/apperr"
	"github.com/starford/dox/internal/models"
)

// Provider returns the operation groups for an API spec. An empty specID
// selects the default spec.
type Provider interface {
	Groups(ctx context.Context, specID string) ([]models.OperationGroup, error)
}

// FileProvider serves pre-built groups from a YAML file of the form
//
//	specs:
//	  payments:
//	    - title: Charges
//	      items:
//	        - {id: create-charge, title: Create charge, href: /api/create-charge, method: POST, path: /charges}
//
// The file is read once at construction.
type FileProvider struct {
	defaultSpec string
	specs       map[string][]models.OperationGroup
}

type fileFormat struct {
	Default string                             `yaml:"default"`
	Specs   map[string][]models.OperationGroup `yaml:"specs"`
}

// NewFileProvider loads path. defaultSpec overrides the file's own default.
func NewFileProvider(path, defaultSpec string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("apinav: read %s: %w", path, err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("apinav: parse %s: %w", path, err)
	}
	if defaultSpec == "" {
		defaultSpec = f.Default
	}
	return &FileProvider{defaultSpec: defaultSpec, specs: f.Specs}, nil
}

// Groups implements Provider.
func (p *FileProvider) Groups(ctx context.Context, specID string) ([]models.OperationGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if specID == "" {
		specID = p.defaultSpec
	}
	groups, ok := p.specs[specID]
	if !ok {
		return nil, fmt.Errorf("apinav: spec %q: %w", specID, apperr.ErrNotFound)
	}
	return groups, nil
}

// Static is a Provider with no API reference; it always returns no groups.
type Static []models.OperationGroup

// Groups implements Provider.
func (s Static) Groups(context.Context, string) ([]models.OperationGroup, error) {
	return s, nil
}
