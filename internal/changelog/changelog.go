// Package changelog loads release notes from YAML and renders them as an
// RSS 2.0 feed.
package changelog

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// DateLayout is the format of Release.Date.
const DateLayout = "2006-01-02"

// Release is one changelog entry.
type Release struct {
	Version     string   `json:"version" yaml:"version"`
	Date        string   `json:"date" yaml:"date"`
	Description string   `json:"description" yaml:"description"`
	Items       []string `json:"items" yaml:"items"`
}

// Validate checks the release fields.
func (r Release) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Version, validation.Required),
		validation.Field(&r.Date, validation.Required, validation.Date(DateLayout)),
	)
}

// Published returns the release date at midnight UTC.
func (r Release) Published() time.Time {
	t, _ := time.Parse(DateLayout, r.Date)
	return t.UTC()
}

// Changelog is the ordered list of releases, newest first.
type Changelog struct {
	Releases []Release `json:"releases" yaml:"releases"`
}

// Parse decodes and validates data. Releases are sorted newest first; equal
// dates keep file order.
func Parse(data []byte) (*Changelog, error) {
	var c Changelog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("changelog: parse: %w", err)
	}
	for i, r := range c.Releases {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("changelog: release %d: %w", i, err)
		}
	}
	sort.SliceStable(c.Releases, func(i, j int) bool {
		return c.Releases[i].Published().After(c.Releases[j].Published())
	})
	if c.Releases == nil {
		c.Releases = []Release{}
	}
	return &c, nil
}

// Load reads and parses the changelog file at path.
func Load(path string) (*Changelog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("changelog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Feed describes the channel the releases are published under.
type Feed struct {
	Site     string
	Link     string // page URL, e.g. https://docs.example.com/changelog
	SelfURL  string // feed URL
	Language string
}

const (
	atomNS     = "http://www.w3.org/2005/Atom"
	rfc822Date = "Mon, 02 Jan 2006 15:04:05 GMT"
)

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Atom    string   `xml:"xmlns:atom,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title         string   `xml:"title"`
	Link          string   `xml:"link"`
	Description   string   `xml:"description"`
	Language      string   `xml:"language,omitempty"`
	LastBuildDate string   `xml:"lastBuildDate,omitempty"`
	Self          atomLink `xml:"atom:link"`
	Items         []item   `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        guid   `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

type guid struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// RSS renders the releases as an RSS 2.0 document, XML header included.
func (c *Changelog) RSS(f Feed) ([]byte, error) {
	ch := channel{
		Title:       f.Site + " Changelog",
		Link:        f.Link,
		Description: "Latest updates to " + f.Site,
		Language:    f.Language,
		Self:        atomLink{Href: f.SelfURL, Rel: "self", Type: "application/rss+xml"},
	}
	if len(c.Releases) > 0 {
		ch.LastBuildDate = c.Releases[0].Published().Format(rfc822Date)
	}
	for _, r := range c.Releases {
		ch.Items = append(ch.Items, item{
			Title:       f.Site + " " + r.Version,
			Link:        f.Link,
			GUID:        guid{Value: f.Link + "#" + r.Version},
			PubDate:     r.Published().Format(rfc822Date),
			Description: r.summary(),
		})
	}
	out, err := xml.MarshalIndent(rss{Version: "2.0", Atom: atomNS, Channel: ch}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("changelog: encode rss: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func (r Release) summary() string {
	var b strings.Builder
	b.WriteString(r.Description)
	for _, it := range r.Items {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(it)
	}
	return b.String()
}
