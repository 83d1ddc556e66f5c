package models

// NavigationItem is a single sidebar link.
type NavigationItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Href        string `json:"href"`
	Badge       string `json:"badge,omitempty"`
	Description string `json:"description,omitempty"`
}

// NavigationSection is a titled, ordered run of items. Title is the
// breadcrumb of group names joined with " • ".
type NavigationSection struct {
	Title string           `json:"title"`
	Items []NavigationItem `json:"items"`
}

// SidebarCollection is one top-level tab. A collection with Href set is a
// link-out and carries no sections.
type SidebarCollection struct {
	ID       string              `json:"id"`
	Label    string              `json:"label"`
	Sections []NavigationSection `json:"sections"`
	Href     string              `json:"href,omitempty"`
}

// OperationGroup is a group of API operations supplied by the API
// navigation provider.
type OperationGroup struct {
	Title string          `json:"title" yaml:"title"`
	Items []OperationItem `json:"items" yaml:"items"`
}

// OperationItem is one API operation.
type OperationItem struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Href   string `json:"href" yaml:"href"`
	Badge  string `json:"badge,omitempty" yaml:"badge"`
	Method string `json:"method" yaml:"method"`
	Path   string `json:"path" yaml:"path"`
}

// PageLink points at a neighbouring page.
type PageLink struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// Breadcrumb is one step of a page's location trail.
type Breadcrumb struct {
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}
