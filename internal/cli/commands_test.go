package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/errors"
)

// runCLI executes one command line against a fresh CLI and returns what
// it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := captureStdout(t)
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// isolate points the config and cache directories into a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, k := range []string{EnvBackendURL, EnvBackendToken, EnvRedisAddr, EnvMongoURI} {
		t.Setenv(k, "")
	}
	return dir
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"layout", "render", "fetch", "demo", "preview", "serve", "config", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestDemoLayoutRender(t *testing.T) {
	dir := isolate(t)
	steps := filepath.Join(dir, "demo.json")

	out, err := runCLI(t, "demo", "--count", "8", "--completed", "2", "-o", steps)
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	if !strings.Contains(out, "Wrote 8 steps") {
		t.Errorf("demo output = %q", out)
	}

	out, err = runCLI(t, "layout", steps)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	layoutPath := filepath.Join(dir, "demo.layout.json")
	if !strings.Contains(out, layoutPath) || !strings.Contains(out, "fresh") {
		t.Errorf("layout output = %q", out)
	}

	layout, err := board.ReadLayoutFile(layoutPath)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if len(layout.Nodes) != 8 || layout.Height != 930 {
		t.Errorf("layout = %d nodes, height %v; want 8, 930", len(layout.Nodes), layout.Height)
	}
	if !layout.Nodes[2].Active || layout.Nodes[2].Progress != 40 {
		t.Errorf("Nodes[2] = %+v, want active at 40%%", layout.Nodes[2])
	}
	if len(layout.Markers) != 1 || layout.Markers[0].Image != "mascot.png" {
		t.Errorf("Markers = %+v", layout.Markers)
	}

	// The second run is served from the file cache.
	out, err = runCLI(t, "layout", steps)
	if err != nil {
		t.Fatalf("layout again: %v", err)
	}
	if !strings.Contains(out, "cached") {
		t.Errorf("second layout output = %q, want cached", out)
	}

	if _, err = runCLI(t, "render", layoutPath, "-f", "svg,dot", "--theme", "dark", "--labels"); err != nil {
		t.Fatalf("render: %v", err)
	}
	svg, err := os.ReadFile(filepath.Join(dir, "demo.svg"))
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !strings.HasPrefix(string(svg), "<svg") || !strings.Contains(string(svg), `id="node-7"`) {
		t.Errorf("svg = %.200s", svg)
	}
	dot, err := os.ReadFile(filepath.Join(dir, "demo.dot"))
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.HasPrefix(string(dot), "graph trail {") {
		t.Errorf("dot = %.100s", dot)
	}
}

func TestRenderFromStepsWithWidth(t *testing.T) {
	dir := isolate(t)
	steps := filepath.Join(dir, "course.yaml")
	if _, err := runCLI(t, "demo", "--course", "course", "--count", "3", "-o", steps); err != nil {
		t.Fatalf("demo: %v", err)
	}

	out := filepath.Join(dir, "map.json")
	if _, err := runCLI(t, "render", steps, "-f", "json", "--width", "414", "--no-cache", "-o", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	layout, err := board.ReadLayoutFile(out)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if layout.Width != 414 || layout.Nodes[0].X != 207 {
		t.Errorf("width = %v, x0 = %v; want 414, 207", layout.Width, layout.Nodes[0].X)
	}
}

func TestLayoutErrors(t *testing.T) {
	dir := isolate(t)

	_, err := runCLI(t, "layout", filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}

	steps := filepath.Join(dir, "s.json")
	if _, err := runCLI(t, "demo", "--count", "2", "-o", steps); err != nil {
		t.Fatalf("demo: %v", err)
	}
	for _, width := range []string{"-5", "0"} {
		for _, cmd := range []string{"layout", "render"} {
			_, err = runCLI(t, cmd, steps, "--width", width, "--no-cache")
			if !errors.Is(err, errors.ErrCodeInvalidArgument) {
				t.Errorf("%s --width %s error = %v, want INVALID_ARGUMENT", cmd, width, err)
			}
		}
	}

	_, err = runCLI(t, "render", steps, "-f", "gif")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad format error = %v, want INVALID_FORMAT", err)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := isolate(t)

	_, err := runCLI(t, "--config", filepath.Join(dir, "nope.toml"), "config")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing config error = %v, want FILE_NOT_FOUND", err)
	}

	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("[layout]\nwidth = 500\n[cache]\nbackend = \"none\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "--config", path, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "500") || !strings.Contains(out, "none") {
		t.Errorf("config output = %q", out)
	}

	steps := filepath.Join(dir, "s.json")
	if _, err := runCLI(t, "demo", "--count", "1", "-o", steps); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if _, err := runCLI(t, "--config", path, "layout", steps); err != nil {
		t.Fatalf("layout: %v", err)
	}
	layout, err := board.ReadLayoutFile(filepath.Join(dir, "s.layout.json"))
	if err != nil {
		t.Fatal(err)
	}
	if layout.Width != 500 {
		t.Errorf("Width = %v, want configured 500", layout.Width)
	}
}

func TestConfigInit(t *testing.T) {
	dir := isolate(t)

	if _, err := runCLI(t, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	path := filepath.Join(dir, "config", appName, "config.toml")
	if _, err := LoadConfig(path, true, noEnv); err != nil {
		t.Errorf("written config does not load: %v", err)
	}

	out, err := runCLI(t, "config", "init")
	if err != nil {
		t.Fatalf("config init again: %v", err)
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("second init output = %q, want warning", out)
	}
}

func TestFetch(t *testing.T) {
	dir := isolate(t)
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/courses/hiragana/steps" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"items":[
			{"id":"a","status":"COMPLETED","progress_percentage":100},
			{"id":"b","status":"IN_PROGRESS","progress_percentage":30},
			{"id":"c","status":"NOT_STARTED","progress_percentage":0}
		],"next_page":null}`)
	}))
	defer srv.Close()

	output := filepath.Join(dir, "hiragana.yaml")
	out, err := runCLI(t, "fetch", "hiragana", "--backend", srv.URL, "--token", "tok", "-o", output)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(out, "Fetched 3 steps") {
		t.Errorf("fetch output = %q", out)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q, want Bearer tok", gotAuth)
	}

	steps, err := board.ReadStepsFile(output)
	if err != nil {
		t.Fatalf("ReadStepsFile: %v", err)
	}
	if steps.Course != "hiragana" || len(steps.Steps) != 3 || steps.Steps[1].Status != "IN_PROGRESS" {
		t.Errorf("steps = %+v", steps)
	}
}

func TestFetchWithoutBackend(t *testing.T) {
	isolate(t)
	if _, err := runCLI(t, "fetch", "hiragana"); err == nil || !strings.Contains(err.Error(), EnvBackendURL) {
		t.Errorf("fetch error = %v, want hint about %s", err, EnvBackendURL)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := isolate(t)

	out, err := runCLI(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	cachePath := filepath.Join(dir, "cache", appName)
	if strings.TrimSpace(out) != cachePath {
		t.Errorf("cache path = %q, want %q", out, cachePath)
	}

	out, err = runCLI(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear (empty): %v", err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("cache clear output = %q", out)
	}

	steps := filepath.Join(dir, "s.json")
	if _, err := runCLI(t, "demo", "--count", "2", "-o", steps); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if _, err := runCLI(t, "layout", steps); err != nil {
		t.Fatalf("layout: %v", err)
	}
	if countEntries(cachePath) == 0 {
		t.Fatal("layout did not populate the cache")
	}

	out, err = runCLI(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 cached entries") {
		t.Errorf("cache clear output = %q", out)
	}
	if n := countEntries(cachePath); n != 0 {
		t.Errorf("%d entries left after clear", n)
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, "trailmap") {
		t.Errorf("completion script does not mention trailmap")
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := []struct{ in, want string }{
		{":8080", "http://localhost:8080"},
		{"0.0.0.0:9000", "http://0.0.0.0:9000"},
	}
	for _, tt := range tests {
		if got := displayAddr(tt.in); got != tt.want {
			t.Errorf("displayAddr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompleteInputFiles(t *testing.T) {
	exts, directive := completeInputFiles(nil, nil, "")
	if directive != cobra.ShellCompDirectiveFilterFileExt {
		t.Errorf("directive = %v, want FilterFileExt", directive)
	}
	if strings.Join(exts, ",") != "json,yaml,yml" {
		t.Errorf("extensions = %v", exts)
	}

	if _, directive := completeInputFiles(nil, []string{"steps.json"}, ""); directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("second argument directive = %v, want NoFileComp", directive)
	}
}
