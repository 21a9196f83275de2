// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in trailmap emit events through the hooks registered here
// without knowing which backend, if any, receives them. The defaults are
// no-ops; the server installs [PrometheusHooks] at startup:
//
//	hooks := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
//	hooks.Install()
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLayoutStart(ctx, len(steps))
//	// ... lay out ...
//	observability.Pipeline().OnLayoutComplete(ctx, len(p.Nodes), len(p.Markers), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the fetch → layout → render pipeline.
type PipelineHooks interface {
	OnFetchStart(ctx context.Context, course string)
	OnFetchComplete(ctx context.Context, course string, steps, pages int, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, steps int)
	OnLayoutComplete(ctx context.Context, nodes, markers int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups. keyType is one of
// "page", "layout" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from outgoing requests to the learning backend.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// ServerHooks receives events for requests served by the HTTP API.
// route is the matched route pattern, not the raw path.
type ServerHooks interface {
	OnServe(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnFetchStart(context.Context, string)                                    {}
func (NoopPipelineHooks) OnFetchComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, int)                                      {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, int, time.Duration, error)        {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                                 {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)        {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnServe(context.Context, string, string, int, time.Duration) {}

// registry holds the installed hooks. It is replaced as a whole under mu
// so readers always see a consistent set.
type registry struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
	server   ServerHooks
}

func noopRegistry() registry {
	return registry{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
		server:   NoopServerHooks{},
	}
}

var (
	mu      sync.RWMutex
	current = noopRegistry()
)

func update(fn func(r *registry)) {
	mu.Lock()
	defer mu.Unlock()
	fn(&current)
}

func snapshot() registry {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetPipelineHooks registers pipeline hooks. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(r *registry) { r.pipeline = h })
	}
}

// SetCacheHooks registers cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(r *registry) { r.cache = h })
	}
}

// SetHTTPHooks registers backend HTTP hooks. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(r *registry) { r.http = h })
	}
}

// SetServerHooks registers API server hooks. nil is ignored.
func SetServerHooks(h ServerHooks) {
	if h != nil {
		update(func(r *registry) { r.server = h })
	}
}

func Pipeline() PipelineHooks { return snapshot().pipeline }
func Cache() CacheHooks       { return snapshot().cache }
func HTTP() HTTPHooks         { return snapshot().http }
func Server() ServerHooks     { return snapshot().server }

// Reset restores all hooks to their no-op defaults.
func Reset() {
	update(func(r *registry) { *r = noopRegistry() })
}
