package content

import (
	"fmt"

	"github.com/yuin/goldmark"

	"github.com/starford/dox/internal/apperr"
	"github.com/starford/dox/internal/markdown"
	"github.com/starford/dox/internal/snippet"
)

// Body is the compiled, renderable form of a document. It is immutable and
// safe for concurrent use.
type Body struct {
	md         goldmark.Markdown
	source     []byte
	components map[string]snippet.Component
	unresolved map[string]struct{}
}

// Source returns the cleaned Markdown (snippet imports removed).
func (b *Body) Source() []byte {
	return b.source
}

// Bound reports whether name was resolved to a component.
func (b *Body) Bound(name string) bool {
	_, ok := b.components[name]
	return ok
}

// HTML renders the body. Self-closing tags naming a bound component are
// replaced by the component's output. Tags naming an imported snippet that
// could not be resolved fail with apperr.ErrUnresolvedSnippet. Other tags
// pass through as raw HTML. Tags in code spans and code blocks are text.
func (b *Body) HTML() ([]byte, error) {
	if len(b.components) == 0 && len(b.unresolved) == 0 {
		return markdown.Render(b.md, b.source)
	}
	return markdown.RenderComponents(b.md, b.source, b.component)
}

func (b *Body) component(name string, props map[string]string) ([]byte, bool, error) {
	c, ok := b.components[name]
	if !ok {
		if _, missing := b.unresolved[name]; missing {
			return nil, false, fmt.Errorf("content: render <%s />: %w", name, apperr.ErrUnresolvedSnippet)
		}
		return nil, false, nil
	}
	html, err := c.Render(props)
	if err != nil {
		return nil, false, fmt.Errorf("content: render <%s />: %w", name, err)
	}
	return html, true, nil
}
