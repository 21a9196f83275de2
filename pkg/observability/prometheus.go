package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks implements every hook interface with Prometheus metrics.
type PrometheusHooks struct {
	fetchDuration  *prometheus.HistogramVec
	fetchedSteps   prometheus.Counter
	layoutDuration *prometheus.HistogramVec
	layoutNodes    prometheus.Histogram
	layoutMarkers  prometheus.Counter
	renderDuration *prometheus.HistogramVec
	cacheEvents    *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	backendReqs    *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	backendErrors  *prometheus.CounterVec
	serverReqs     *prometheus.CounterVec
	serverLatency  *prometheus.HistogramVec
}

// NewPrometheusHooks creates the metrics and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer. Registering twice on the
// same registry panics.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &PrometheusHooks{
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "trailmap_fetch_duration_seconds",
			Help: "Time to fetch all pages of a course from the backend.",
		}, []string{"result"}),
		fetchedSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trailmap_fetched_steps_total",
			Help: "Steps fetched from the backend.",
		}),
		layoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trailmap_layout_duration_seconds",
			Help:    "Time to lay out a path.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"result"}),
		layoutNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trailmap_layout_nodes",
			Help:    "Nodes per computed path.",
			Buckets: prometheus.ExponentialBuckets(8, 2, 10),
		}),
		layoutMarkers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trailmap_layout_markers_total",
			Help: "Markers placed across all computed paths.",
		}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "trailmap_render_duration_seconds",
			Help: "Time to render artifacts.",
		}, []string{"formats", "result"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trailmap_cache_events_total",
			Help: "Cache lookups and writes by key type.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trailmap_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		backendReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trailmap_backend_requests_total",
			Help: "Requests to the learning backend by status code.",
		}, []string{"method", "host", "status"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "trailmap_backend_request_duration_seconds",
			Help: "Latency of requests to the learning backend.",
		}, []string{"method", "host"}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trailmap_backend_errors_total",
			Help: "Transport errors talking to the learning backend.",
		}, []string{"method", "host"}),
		serverReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trailmap_http_requests_total",
			Help: "Requests served by the API.",
		}, []string{"method", "route", "status"}),
		serverLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "trailmap_http_request_duration_seconds",
			Help: "Latency of requests served by the API.",
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		p.fetchDuration, p.fetchedSteps,
		p.layoutDuration, p.layoutNodes, p.layoutMarkers,
		p.renderDuration,
		p.cacheEvents, p.cacheBytes,
		p.backendReqs, p.backendLatency, p.backendErrors,
		p.serverReqs, p.serverLatency,
	)
	return p
}

// Install registers p as the global hook for every category.
func (p *PrometheusHooks) Install() {
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
	SetServerHooks(p)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *PrometheusHooks) OnFetchStart(context.Context, string) {}

func (p *PrometheusHooks) OnFetchComplete(_ context.Context, _ string, steps, _ int, d time.Duration, err error) {
	p.fetchDuration.WithLabelValues(result(err)).Observe(d.Seconds())
	if err == nil {
		p.fetchedSteps.Add(float64(steps))
	}
}

func (p *PrometheusHooks) OnLayoutStart(context.Context, int) {}

func (p *PrometheusHooks) OnLayoutComplete(_ context.Context, nodes, markers int, d time.Duration, err error) {
	p.layoutDuration.WithLabelValues(result(err)).Observe(d.Seconds())
	if err == nil {
		p.layoutNodes.Observe(float64(nodes))
		p.layoutMarkers.Add(float64(markers))
	}
}

func (p *PrometheusHooks) OnRenderStart(context.Context, []string) {}

func (p *PrometheusHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	p.renderDuration.WithLabelValues(strings.Join(formats, ","), result(err)).Observe(d.Seconds())
}

func (p *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *PrometheusHooks) OnRequest(context.Context, string, string, string) {}

func (p *PrometheusHooks) OnResponse(_ context.Context, method, host, _ string, code int, d time.Duration) {
	p.backendReqs.WithLabelValues(method, host, strconv.Itoa(code)).Inc()
	p.backendLatency.WithLabelValues(method, host).Observe(d.Seconds())
}

func (p *PrometheusHooks) OnError(_ context.Context, method, host, _ string, _ error) {
	p.backendErrors.WithLabelValues(method, host).Inc()
}

func (p *PrometheusHooks) OnServe(_ context.Context, method, route string, code int, d time.Duration) {
	p.serverReqs.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.serverLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
	_ ServerHooks   = (*PrometheusHooks)(nil)
)
