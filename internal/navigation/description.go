// Package navigation flattens a declarative navigation description into the
// sidebar collections rendered by presentation layers.
package navigation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Description is a parsed navigation description. JSON input is accepted
// since it is valid YAML.
type Description struct {
	Navigation struct {
		Languages []Language `yaml:"languages"`
	} `yaml:"navigation"`
}

// Language is the set of tabs for one language code.
type Language struct {
	Language string `yaml:"language"`
	Tabs     []Tab  `yaml:"tabs"`
}

// Tab is a top-level sidebar collection. A tab with Href is a link-out.
type Tab struct {
	ID     string  `yaml:"id"`
	Tab    string  `yaml:"tab"`
	Href   string  `yaml:"href"`
	Groups []Group `yaml:"groups"`
}

// Group is a named, ordered list of pages and nested groups.
type Group struct {
	Group string `yaml:"group"`
	Pages []Page `yaml:"pages"`
}

// Page is either a leaf page identifier or a nested group.
type Page struct {
	ID    string
	Group *Group
}

// UnmarshalYAML decodes a scalar as a page identifier and a mapping as a
// nested group.
func (p *Page) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Decode(&p.ID)
	case yaml.MappingNode:
		var g Group
		if err := n.Decode(&g); err != nil {
			return err
		}
		p.Group = &g
		return nil
	default:
		return fmt.Errorf("navigation: line %d: page must be a string or a group", n.Line)
	}
}

// ParseDescription parses a YAML or JSON navigation description.
func ParseDescription(data []byte) (*Description, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("navigation: parse description: %w", err)
	}
	return &d, nil
}

// LoadDescription reads and parses a navigation description file.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("navigation: read description: %w", err)
	}
	return ParseDescription(data)
}
