package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_Counts(t *testing.T) {
	p := NewPrometheusRecorder(nil)
	p.IncResolution(SourceStatic)
	p.IncResolution(SourceStatic)
	p.IncResolution(SourceCompiled)
	p.SetCachedKeys(3)
	p.IncSnippetDiagnostic()
	p.ObserveCompileDuration(20*time.Millisecond, true)

	require.Equal(t, 2.0, testutil.ToFloat64(p.resolutions.WithLabelValues(SourceStatic)))
	require.Equal(t, 1.0, testutil.ToFloat64(p.resolutions.WithLabelValues(SourceCompiled)))
	require.Equal(t, 3.0, testutil.ToFloat64(p.cachedKeys))
	require.Equal(t, 1.0, testutil.ToFloat64(p.snippetDiags))
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var p *PrometheusRecorder
	p.IncResolution(SourceCache)
	p.SetCachedKeys(1)
	p.ObserveCompileDuration(time.Second, false)
	p.IncSnippetDiagnostic()
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	p := NewPrometheusRecorder(nil)
	p.IncResolution(SourceNotFound)

	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), `dox_doc_resolutions_total{source="not_found"} 1`))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncResolution(SourceStatic)
	r.SetCachedKeys(1)
}
