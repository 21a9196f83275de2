package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/trailmap/pkg/cache"
	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
)

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(path, false, noEnv)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}

	_, err = LoadConfig(path, true, noEnv)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadConfig(required) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, "config.toml", `
[layout]
width = 414
curve_amplitude = 60

[cache]
backend = "redis"
redis_addr = "cache:6379"
key_prefix = "school-42:"

[backend]
base_url = "https://api.example.com"
page_size = 50

[server]
addr = ":9090"
`)

	cfg, err := LoadConfig(path, true, noEnv)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Layout.Width != 414 {
		t.Errorf("Layout.Width = %v, want 414", cfg.Layout.Width)
	}
	if got := cfg.Layout.TrailConfig().CurveAmplitude; got != 60 {
		t.Errorf("CurveAmplitude = %v, want 60", got)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.KeyPrefix != "school-42:" {
		t.Errorf("Cache.KeyPrefix = %q, want school-42:", cfg.Cache.KeyPrefix)
	}
	if cfg.Cache.MongoURI != DefaultConfig().Cache.MongoURI {
		t.Errorf("unset MongoURI = %q, want default", cfg.Cache.MongoURI)
	}
	if cfg.Backend.BaseURL != "https://api.example.com" || cfg.Backend.PageSize != 50 {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Backend.MaxPages != DefaultConfig().Backend.MaxPages {
		t.Errorf("unset MaxPages = %d, want default", cfg.Backend.MaxPages)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.toml", `
[backend]
base_url = "https://file.example.com"
`)
	env := envMap(map[string]string{
		EnvBackendURL:   "https://env.example.com",
		EnvBackendToken: "secret",
		EnvRedisAddr:    "redis:6380",
		EnvMongoURI:     "mongodb://mongo:27017",
	})

	cfg, err := LoadConfig(path, true, env)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Backend.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q, want env value", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Token != "secret" {
		t.Errorf("Token = %q, want env value", cfg.Backend.Token)
	}
	if cfg.Cache.RedisAddr != "redis:6380" || cfg.Cache.MongoURI != "mongodb://mongo:27017" {
		t.Errorf("Cache = %+v, want env values", cfg.Cache)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"bad toml", "[layout\nwidth = ", errors.ErrCodeInvalidFormat},
		{"unknown backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidArgument},
		{"negative width", "[layout]\nwidth = -1", errors.ErrCodeInvalidArgument},
		{"negative node size", "[layout]\nnode_size = -5", errors.ErrCodeInvalidArgument},
		{"bad backend url", "[backend]\nbase_url = \"ftp://x\"", errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "config.toml", tt.content), true, noEnv)
			if !errors.Is(err, tt.code) {
				t.Errorf("LoadConfig() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestTrailConfigOverlay(t *testing.T) {
	if got := (LayoutConfig{}).TrailConfig(); got != trail.DefaultConfig() {
		t.Errorf("empty overlay = %+v, want defaults", got)
	}

	got := LayoutConfig{
		NodeSize:        64,
		VerticalSpacing: 96,
		MarkerSize:      72,
		PeakIndex:       3,
	}.TrailConfig()

	if got.NodeSize != 64 || got.VerticalSpacing != 96 || got.MarkerSize != 72 {
		t.Errorf("overlay = %+v", got)
	}
	if got.VerticalMargin != trail.DefaultVerticalMargin {
		t.Errorf("VerticalMargin = %v, want default %v", got.VerticalMargin, trail.DefaultVerticalMargin)
	}
	if got.PeakIndex != 3 || got.HalfCycle != 6 || got.CycleLength != 12 {
		t.Errorf("cycle = %d/%d/%d, want 3/6/12", got.PeakIndex, got.HalfCycle, got.CycleLength)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := writeConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("writeConfig() error: %v", err)
	}
	cfg, err := LoadConfig(path, true, noEnv)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("round trip = %+v, want defaults", cfg)
	}
}

func TestEnvListMasksToken(t *testing.T) {
	got := envList(envMap(map[string]string{EnvBackendToken: "abcdef", EnvRedisAddr: "r:1"}))
	if got[EnvBackendToken] != "(set, 6 chars)" {
		t.Errorf("token = %q, want masked", got[EnvBackendToken])
	}
	if got[EnvRedisAddr] != "r:1" {
		t.Errorf("redis = %q", got[EnvRedisAddr])
	}
	if _, ok := got[EnvMongoURI]; ok {
		t.Error("unset variable listed")
	}
}

func TestNewRunnerScopesKeys(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.config.Cache.Backend = CacheNone
	c.config.Cache.KeyPrefix = "school-42:"

	r, err := c.newRunner(context.Background(), false)
	if err != nil {
		t.Fatalf("newRunner() error: %v", err)
	}
	defer r.Close()

	if got := r.Keyer.LayoutKey("abc", cache.LayoutKeyOpts{}); !strings.HasPrefix(got, "school-42:") {
		t.Errorf("LayoutKey() = %q, want school-42: prefix", got)
	}
}
