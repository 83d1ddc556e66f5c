// Package metrics defines observability hooks for document resolution.
package metrics

import "time"

// Resolution sources reported by IncResolution.
const (
	SourceStatic   = "static"
	SourceCache    = "cache"
	SourceCompiled = "compiled"
	SourceNotFound = "not_found"
	SourceFailed   = "failed"
)

// Recorder receives resolver metrics. Implementations may forward to
// Prometheus or anything else; NoopRecorder is the default.
type Recorder interface {
	IncResolution(source string)
	ObserveCompileDuration(d time.Duration, success bool)
	SetCachedKeys(n int)
	IncSnippetDiagnostic()
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncResolution(string)                       {}
func (NoopRecorder) ObserveCompileDuration(time.Duration, bool) {}
func (NoopRecorder) SetCachedKeys(int)                          {}
func (NoopRecorder) IncSnippetDiagnostic()                      {}
