package markdown

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	componentTagRe = regexp.MustCompile(`<([A-Z][A-Za-z0-9_]*)((?:\s+[A-Za-z_][\w-]*(?:=(?:"[^"]*"|'[^']*'))?)*)\s*/>`)
	attrRe         = regexp.MustCompile(`([A-Za-z_][\w-]*)(?:=(?:"([^"]*)"|'([^']*)'))?`)
)

// ComponentFunc renders the self-closing tag <name props... />. It returns
// ok=false to leave the tag as raw HTML.
type ComponentFunc func(name string, props map[string]string) (html []byte, ok bool, err error)

// KindComponentBlock and KindComponentInline are the node kinds holding
// rendered component output.
var (
	KindComponentBlock  = gmast.NewNodeKind("ComponentBlock")
	KindComponentInline = gmast.NewNodeKind("ComponentInline")
)

// ComponentBlock replaces an HTML block made of component tags.
type ComponentBlock struct {
	gmast.BaseBlock
	HTML []byte
}

func (n *ComponentBlock) Kind() gmast.NodeKind { return KindComponentBlock }

func (n *ComponentBlock) Dump(src []byte, level int) {
	gmast.DumpHelper(n, src, level, nil, nil)
}

// ComponentInline replaces a single inline component tag.
type ComponentInline struct {
	gmast.BaseInline
	Name string
	HTML []byte
}

func (n *ComponentInline) Kind() gmast.NodeKind { return KindComponentInline }

func (n *ComponentInline) Dump(src []byte, level int) {
	gmast.DumpHelper(n, src, level, map[string]string{"Name": n.Name}, nil)
}

type componentRenderer struct{}

func (componentRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindComponentBlock, renderComponent)
	reg.Register(KindComponentInline, renderComponent)
}

func renderComponent(w util.BufWriter, _ []byte, n gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	switch c := n.(type) {
	case *ComponentBlock:
		_, _ = w.Write(c.HTML)
	case *ComponentInline:
		_, _ = w.Write(c.HTML)
	}
	return gmast.WalkSkipChildren, nil
}

// RenderComponents converts src to HTML, substituting self-closing
// component tags that goldmark parsed as raw HTML. Tags inside code spans
// and code blocks are text to goldmark and are never substituted.
func RenderComponents(md goldmark.Markdown, src []byte, fn ComponentFunc) ([]byte, error) {
	doc := md.Parser().Parse(text.NewReader(src))

	type swap struct{ old, new gmast.Node }
	var swaps []swap
	err := gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *gmast.RawHTML:
			raw := segmentsText(t.Segments, src)
			m := componentTagRe.FindStringSubmatchIndex(raw)
			if m == nil || m[0] != 0 || m[1] != len(raw) {
				return gmast.WalkContinue, nil
			}
			name := raw[m[2]:m[3]]
			html, ok, err := fn(name, ParseProps(raw[m[4]:m[5]]))
			if err != nil {
				return gmast.WalkStop, err
			}
			if !ok {
				return gmast.WalkContinue, nil
			}
			swaps = append(swaps, swap{t, &ComponentInline{Name: name, HTML: wrap(name, html, false)}})
		case *gmast.HTMLBlock:
			raw := segmentsText(t.Lines(), src)
			if t.HasClosure() {
				raw += string(t.ClosureLine.Value(src))
			}
			out, changed, err := substituteBlock(raw, fn)
			if err != nil {
				return gmast.WalkStop, err
			}
			if changed {
				swaps = append(swaps, swap{t, &ComponentBlock{HTML: out}})
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	for _, s := range swaps {
		s.old.Parent().ReplaceChild(s.old.Parent(), s.old, s.new)
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// substituteBlock rewrites every component tag inside raw block HTML.
func substituteBlock(raw string, fn ComponentFunc) ([]byte, bool, error) {
	locs := componentTagRe.FindAllStringSubmatchIndex(raw, -1)
	var out bytes.Buffer
	changed := false
	last := 0
	for _, loc := range locs {
		name := raw[loc[2]:loc[3]]
		html, ok, err := fn(name, ParseProps(raw[loc[4]:loc[5]]))
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		out.WriteString(raw[last:loc[0]])
		out.Write(wrap(name, html, true))
		last = loc[1]
		changed = true
	}
	out.WriteString(raw[last:])
	return out.Bytes(), changed, nil
}

func wrap(name string, html []byte, block bool) []byte {
	html = bytes.TrimSpace(html)
	if block {
		return fmt.Appendf(nil, "<div data-snippet=%q>\n%s\n</div>", name, html)
	}
	return fmt.Appendf(nil, "<span data-snippet=%q>%s</span>", name, html)
}

func segmentsText(segs *text.Segments, src []byte) string {
	var b bytes.Buffer
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

// ParseProps reads the attributes of a component tag. Bare attributes map
// to the empty string.
func ParseProps(attrs string) map[string]string {
	props := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(attrs, -1) {
		v := m[2]
		if v == "" {
			v = m[3]
		}
		props[m[1]] = v
	}
	return props
}
