package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/cache"
	"github.com/matzehuels/trailmap/pkg/errors"
	"github.com/matzehuels/trailmap/pkg/observability"
	"github.com/matzehuels/trailmap/pkg/pipeline"
)

const stepsBody = `{
  "width": 390,
  "steps": [
    {"id": "a", "status": "COMPLETED"},
    {"id": "b", "status": "IN_PROGRESS", "progress": 25},
    {"id": "c"}, {"id": "d"}
  ],
  "marker_images": ["fox.png"]
}`

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.NewRegistry()
	}
	return New(cfg, pipeline.NewRunner(fc, nil, log.New(io.Discard)), nil)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{})
	w := do(t, s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestLayout(t *testing.T) {
	s := newTestServer(t, Config{})

	w := do(t, s, http.MethodPost, "/v1/layout", stepsBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	l, err := board.UnmarshalLayout(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, l.Nodes, 4)
	assert.Equal(t, 195.0, l.Nodes[0].X)
	assert.Equal(t, 80.0, l.Nodes[0].Y)
	assert.True(t, l.Nodes[1].Active)
	assert.Equal(t, 25.0, l.Nodes[1].Progress)
	require.Len(t, l.Markers, 1)
	assert.Equal(t, "c", l.Markers[0].AnchorID)

	again := do(t, s, http.MethodPost, "/v1/layout", stepsBody)
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.JSONEq(t, w.Body.String(), again.Body.String())
}

func TestLayoutPartialConfig(t *testing.T) {
	s := newTestServer(t, Config{})
	body := `{"width": 300, "steps": [{"id": "a"}, {"id": "b"}], "config": {"curve_amplitude": 50}}`

	w := do(t, s, http.MethodPost, "/v1/layout", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	l, err := board.UnmarshalLayout(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 50.0, l.Config.CurveAmplitude)
	assert.Equal(t, 80.0, l.Config.NodeSize, "unspecified fields keep their defaults")
	assert.Equal(t, 175.0, l.Nodes[1].X)
}

func TestLayoutErrors(t *testing.T) {
	s := newTestServer(t, Config{})

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"not json", `{`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"missing steps", `{"width": 390}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"negative width", `{"width": -5, "steps": []}`, http.StatusBadRequest, errors.ErrCodeInvalidArgument},
		{"zero width", `{"width": 0, "steps": [{"id": "a"}]}`, http.StatusBadRequest, errors.ErrCodeInvalidArgument},
		{"duplicate ids", `{"steps": [{"id": "a"}, {"id": "a"}]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"broken cycle", `{"steps": [], "config": {"peak_index": 3}}`, http.StatusBadRequest, errors.ErrCodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/v1/layout", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestRender(t *testing.T) {
	s := newTestServer(t, Config{})

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"", "image/svg+xml", "<svg"},
		{"svg", "image/svg+xml", "<svg"},
		{"json", "application/json", "{"},
		{"dot", "text/vnd.graphviz", "graph trail {"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/v1/render?format="+tt.format, stepsBody)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(w.Body.String(), tt.prefix), "body starts %.40q", w.Body.String())
		})
	}

	w := do(t, s, http.MethodPost, "/v1/render?format=gif", stepsBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, w).Code)

	w = do(t, s, http.MethodPost, "/v1/render", `{"steps": [], "theme": "neon"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeInvalidStyle, decodeError(t, w).Code)
}

func TestCourseLayoutWithoutBackend(t *testing.T) {
	s := newTestServer(t, Config{})
	w := do(t, s, http.MethodGet, "/v1/courses/hiragana/layout", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ErrCodeNotFound, decodeError(t, w).Code)
}

func TestCourseLayout(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/courses/hiragana/steps":
			if r.URL.Query().Get("page") == "1" {
				fmt.Fprint(w, `{"items":[{"id":"a","status":"COMPLETED"},{"id":"b","status":"NOT_STARTED"}],"next_page":2}`)
				return
			}
			fmt.Fprint(w, `{"items":[{"id":"c","status":"NOT_STARTED"}],"next_page":null}`)
		case "/courses/busy/steps":
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	s := newTestServer(t, Config{BackendURL: backend.URL})

	w := do(t, s, http.MethodGet, "/v1/courses/hiragana/layout?width=300", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	l, err := board.UnmarshalLayout(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, l.Nodes, 3)
	assert.Equal(t, 150.0, l.Nodes[0].X)
	assert.True(t, l.Nodes[1].Active)

	w = do(t, s, http.MethodGet, "/v1/courses/missing/layout", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/v1/courses/busy/layout", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "7", w.Header().Get("Retry-After"))

	w = do(t, s, http.MethodGet, "/v1/courses/hiragana/layout?width=wide", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, width := range []string{"0", "", "-1"} {
		w = do(t, s, http.MethodGet, "/v1/courses/hiragana/layout?width="+width, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "width=%q", width)
		assert.Equal(t, errors.ErrCodeInvalidArgument, decodeError(t, w).Code, "width=%q", width)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidPath, http.StatusBadRequest},
		{errors.ErrCodeFileNotFound, http.StatusNotFound},
		{errors.ErrCodeRateLimited, http.StatusTooManyRequests},
		{errors.ErrCodeNetwork, http.StatusBadGateway},
		{errors.ErrCodeUnauthorized, http.StatusBadGateway},
		{errors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{errors.ErrCodeUnsupported, http.StatusNotImplemented},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.code), "statusFor(%q)", tt.code)
	}
}

type serveRecorder struct {
	observability.NoopServerHooks
	routes []string
}

func (r *serveRecorder) OnServe(_ context.Context, method, route string, code int, _ time.Duration) {
	r.routes = append(r.routes, fmt.Sprintf("%s %s %d", method, route, code))
}

func TestServerHooksUseRoutePattern(t *testing.T) {
	rec := &serveRecorder{}
	observability.SetServerHooks(rec)
	defer observability.Reset()

	s := newTestServer(t, Config{})
	do(t, s, http.MethodGet, "/v1/courses/hiragana/layout", "")

	require.Len(t, rec.routes, 1)
	assert.Equal(t, "GET /v1/courses/{course}/layout 404", rec.routes[0])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewPrometheusHooks(reg).Install()
	defer observability.Reset()

	s := newTestServer(t, Config{Gatherer: reg})
	do(t, s, http.MethodPost, "/v1/layout", stepsBody)

	w := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "trailmap_layout_duration_seconds")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
