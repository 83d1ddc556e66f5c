package content

import (
	"regexp"
	"strings"
)

// SnippetPrefix is the reserved path prefix that marks an import as a
// snippet import.
const SnippetPrefix = "/snippets/"

var importRe = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+\{([^}]+)\}[ \t]+from[ \t]+['"]([^'"]+)['"];?[ \t]*$`)

// snippetImport is one name requested by a stripped import declaration.
type snippetImport struct {
	Name string
	Path string
}

// stripSnippetImports removes snippet import declarations from src and
// returns the requested names in declaration order. Imports whose path does
// not start with SnippetPrefix are left untouched.
func stripSnippetImports(src string) (string, []snippetImport) {
	var imports []snippetImport
	cleaned := importRe.ReplaceAllStringFunc(src, func(stmt string) string {
		m := importRe.FindStringSubmatch(stmt)
		path := strings.TrimSpace(m[2])
		if !strings.HasPrefix(path, SnippetPrefix) {
			return stmt
		}
		for _, name := range strings.Split(m[1], ",") {
			if name = strings.TrimSpace(name); name != "" {
				imports = append(imports, snippetImport{Name: name, Path: path})
			}
		}
		return ""
	})
	return cleaned, imports
}
