package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	resolutions     *prom.CounterVec
	compileDuration *prom.HistogramVec
	cachedKeys      prom.Gauge
	snippetDiags    prom.Counter
}

// NewPrometheusRecorder constructs and registers the resolver metrics on reg,
// or on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	p := &PrometheusRecorder{
		reg: reg,
		resolutions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dox",
			Name:      "doc_resolutions_total",
			Help:      "Document resolutions by source",
		}, []string{"source"}),
		compileDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "dox",
			Name:      "doc_compile_duration_seconds",
			Help:      "Duration of dynamic document compilations",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		cachedKeys: prom.NewGauge(prom.GaugeOpts{
			Namespace: "dox",
			Name:      "doc_cached_keys",
			Help:      "Keys held in the dynamic resolution cache",
		}),
		snippetDiags: prom.NewCounter(prom.CounterOpts{
			Namespace: "dox",
			Name:      "snippet_diagnostics_total",
			Help:      "Snippet references that could not be resolved",
		}),
	}
	reg.MustRegister(p.resolutions, p.compileDuration, p.cachedKeys, p.snippetDiags)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) IncResolution(source string) {
	if p == nil {
		return
	}
	p.resolutions.WithLabelValues(source).Inc()
}

func (p *PrometheusRecorder) ObserveCompileDuration(d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.compileDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetCachedKeys(n int) {
	if p == nil {
		return
	}
	p.cachedKeys.Set(float64(n))
}

func (p *PrometheusRecorder) IncSnippetDiagnostic() {
	if p == nil {
		return
	}
	p.snippetDiags.Inc()
}
