package markdown

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_GFMTable(t *testing.T) {
	out, err := Render(New(), []byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<table>")
}

func TestRender_RawHTMLPassthrough(t *testing.T) {
	out, err := Render(New(), []byte("<div class=\"x\">hi</div>\n"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(out), `<div class="x">hi</div>`))
}

func TestHeadings_LevelsTwoAndThree(t *testing.T) {
	src := []byte("# Title\n\n## Install the CLI\n\ntext\n\n### Linux\n\n#### Deep\n")
	hs := Headings(New(), src)
	require.Len(t, hs, 2)
	require.Equal(t, 2, hs[0].Level)
	require.Equal(t, "Install the CLI", hs[0].Text)
	require.Equal(t, "install-the-cli", hs[0].ID)
	require.Equal(t, "Linux", hs[1].Text)
}

func TestParseProps(t *testing.T) {
	got := ParseProps(` tone="green" label='ok' open`)
	require.Equal(t, map[string]string{"tone": "green", "label": "ok", "open": ""}, got)
}

func TestRenderComponents(t *testing.T) {
	fn := func(name string, props map[string]string) ([]byte, bool, error) {
		if name != "Badge" {
			return nil, false, nil
		}
		return []byte("<em>" + props["label"] + "</em>"), true, nil
	}
	src := []byte("<Badge label=\"block\" />\n\nInline <Badge label=\"in\" /> and `<Badge label=\"code\" />`.\n\n    <Badge label=\"indented\" />\n\n<Other />\n")

	out, err := RenderComponents(New(), src, fn)
	require.NoError(t, err)
	html := string(out)
	require.Contains(t, html, "<div data-snippet=\"Badge\">\n<em>block</em>\n</div>")
	require.Contains(t, html, "<span data-snippet=\"Badge\"><em>in</em></span>")
	require.Contains(t, html, "<code>&lt;Badge label=&quot;code&quot; /&gt;</code>")
	require.Contains(t, html, "<pre><code>&lt;Badge label=&quot;indented&quot; /&gt;\n</code></pre>")
	require.Contains(t, html, "<Other />")
}

func TestRenderComponents_ErrorStops(t *testing.T) {
	boom := errors.New("boom")
	_, err := RenderComponents(New(), []byte("text <Gone /> more\n"), func(string, map[string]string) ([]byte, bool, error) {
		return nil, false, boom
	})
	require.ErrorIs(t, err, boom)
}
