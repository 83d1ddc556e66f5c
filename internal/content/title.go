package content

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTitle is used when a page identifier has no usable segment.
const DefaultTitle = "Overview"

// DeriveTitle turns the last non-empty "/"-separated segment of id into a
// title: hyphens and underscores become spaces and every word is capitalized.
// The rest of each word keeps its case.
func DeriveTitle(id string) string {
	var last string
	for _, seg := range strings.Split(id, "/") {
		if seg != "" {
			last = seg
		}
	}
	if last == "" {
		return DefaultTitle
	}
	words := strings.NewReplacer("-", " ", "_", " ").Replace(last)
	// Casers are stateful; build one per call.
	return cases.Title(language.Und, cases.NoLower).String(words)
}
