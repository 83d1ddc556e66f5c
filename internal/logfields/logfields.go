// Package logfields holds canonical slog attribute names so that every
// package logs the same concept under the same key.
package logfields

import "log/slog"

const (
	KeyDocKey      = "doc_key"
	KeyPath        = "path"
	KeyRoot        = "root"
	KeySnippet     = "snippet"
	KeySnippetPath = "snippet_path"
	KeySource      = "source"
	KeyDurationMS  = "duration_ms"
	KeyEvent       = "event"
	KeyError       = "error"
)

func DocKey(k string) slog.Attr       { return slog.String(KeyDocKey, k) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Root(r string) slog.Attr         { return slog.String(KeyRoot, r) }
func Snippet(n string) slog.Attr      { return slog.String(KeySnippet, n) }
func SnippetPath(p string) slog.Attr  { return slog.String(KeySnippetPath, p) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Event(e string) slog.Attr        { return slog.String(KeyEvent, e) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
