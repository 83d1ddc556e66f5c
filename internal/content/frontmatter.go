package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Frontmatter holds the recognised metadata fields. A nil pointer means the
// field was absent or had an unusable type.
type Frontmatter struct {
	Title        *string
	Description  *string
	Group        *string
	Badge        *string
	Keywords     []string
	TimeEstimate *string
	LastUpdated  *string
}

// splitFrontmatter separates a leading `---` YAML block from the body.
// Documents without a block, or with an unterminated block, are all body.
func splitFrontmatter(data []byte) (raw []byte, body []byte) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, data
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, data
	}

	raw = rest[:idx]
	after := rest[idx+1+len(delim):]
	// Drop the remainder of the closing delimiter line.
	if nl := bytes.IndexByte(after, '\n'); nl >= 0 && len(bytes.TrimSpace(after[:nl])) == 0 {
		after = after[nl+1:]
	} else if nl < 0 && len(bytes.TrimSpace(after)) == 0 {
		after = nil
	}
	return raw, after
}

// parseFrontmatter decodes raw YAML. Unparsable YAML yields an empty
// Frontmatter; a field of the wrong type is dropped on its own.
func parseFrontmatter(raw []byte) Frontmatter {
	var fm Frontmatter
	if len(bytes.TrimSpace(raw)) == 0 {
		return fm
	}
	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil || fields == nil {
		return fm
	}

	fm.Title = scalar(fields["title"])
	fm.Description = scalar(fields["description"])
	fm.Group = scalar(fields["group"])
	fm.Badge = scalar(fields["badge"])
	fm.TimeEstimate = scalar(fields["timeEstimate"])
	fm.LastUpdated = scalar(fields["lastUpdated"])

	switch v := fields["keywords"].(type) {
	case []any:
		for _, item := range v {
			if s := scalar(item); s != nil && strings.TrimSpace(*s) != "" {
				fm.Keywords = append(fm.Keywords, strings.TrimSpace(*s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				fm.Keywords = append(fm.Keywords, s)
			}
		}
	}
	return fm
}

func scalar(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case int, int64, uint64, float64, bool:
		s = fmt.Sprint(t)
	case time.Time:
		s = t.Format(time.DateOnly)
	default:
		return nil
	}
	return &s
}
