package cli

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
	"github.com/matzehuels/trailmap/pkg/pipeline"
	"github.com/matzehuels/trailmap/pkg/source"
)

// Cache backends selectable in [CacheConfig].
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheMongo = "mongo"
	CacheNone  = "none"
)

// Environment variables that override the config file.
const (
	EnvBackendURL   = "TRAILMAP_BACKEND_URL"
	EnvBackendToken = "TRAILMAP_BACKEND_TOKEN"
	EnvRedisAddr    = "TRAILMAP_REDIS_ADDR"
	EnvMongoURI     = "TRAILMAP_MONGO_URI"
)

// Config is the contents of config.toml.
type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Cache   CacheConfig   `toml:"cache"`
	Backend BackendConfig `toml:"backend"`
	Server  ServerConfig  `toml:"server"`
}

// LayoutConfig holds the default width and the geometry overrides.
// Zero values keep the engine defaults.
type LayoutConfig struct {
	Width           float64 `toml:"width"`
	NodeSize        float64 `toml:"node_size"`
	VerticalSpacing float64 `toml:"vertical_spacing"`
	VerticalMargin  float64 `toml:"vertical_margin"`
	CurveAmplitude  float64 `toml:"curve_amplitude"`
	MarkerSize      float64 `toml:"marker_size"`
	PeakIndex       int     `toml:"peak_index"`
}

type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	KeyPrefix     string `toml:"key_prefix"`
}

type BackendConfig struct {
	BaseURL  string `toml:"base_url"`
	Token    string `toml:"token"`
	PageSize int    `toml:"page_size"`
	MaxPages int    `toml:"max_pages"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Layout: LayoutConfig{Width: pipeline.DefaultWidth},
		Cache: CacheConfig{
			Backend:       CacheFile,
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
		Backend: BackendConfig{
			PageSize: source.DefaultPageSize,
			MaxPages: source.DefaultMaxPages,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadConfig reads path over [DefaultConfig] and applies environment
// overrides. A missing file is an error only when required is set.
func LoadConfig(path string, required bool, getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !required:
	case os.IsNotExist(err):
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	case err != nil:
		return Config{}, errors.Wrap(errors.ErrCodeInternal, err, "read config %s", path)
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
		}
	}
	applyEnv(&cfg, getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvBackendURL); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := getenv(EnvBackendToken); v != "" {
		cfg.Backend.Token = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		cfg.Cache.MongoURI = v
	}
}

// Validate checks the values a command cannot recover from.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheMongo, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidArgument,
			"cache.backend must be one of file, redis, mongo, none; got %q", c.Cache.Backend)
	}
	if c.Backend.BaseURL != "" {
		if err := errors.ValidateURL(c.Backend.BaseURL); err != nil {
			return err
		}
	}
	if err := pipeline.ValidateWidth(c.Layout.Width); err != nil {
		return err
	}
	return c.Layout.TrailConfig().Validate()
}

// TrailConfig overlays the set fields on the engine defaults.
func (l LayoutConfig) TrailConfig() trail.Config {
	cfg := trail.DefaultConfig()
	var opts []trail.Option
	if l.NodeSize != 0 {
		opts = append(opts, trail.WithNodeSize(l.NodeSize))
	}
	if l.VerticalSpacing != 0 || l.VerticalMargin != 0 {
		spacing, margin := cfg.VerticalSpacing, cfg.VerticalMargin
		if l.VerticalSpacing != 0 {
			spacing = l.VerticalSpacing
		}
		if l.VerticalMargin != 0 {
			margin = l.VerticalMargin
		}
		opts = append(opts, trail.WithSpacing(spacing, margin))
	}
	if l.CurveAmplitude != 0 {
		opts = append(opts, trail.WithAmplitude(l.CurveAmplitude))
	}
	if l.PeakIndex != 0 {
		opts = append(opts, trail.WithCycle(l.PeakIndex))
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if l.MarkerSize != 0 {
		cfg.MarkerSize = l.MarkerSize
	}
	return cfg
}

// envList returns the effective environment overrides for display.
func envList(getenv func(string) string) map[string]string {
	out := make(map[string]string)
	for _, k := range []string{EnvBackendURL, EnvBackendToken, EnvRedisAddr, EnvMongoURI} {
		if v := getenv(k); v != "" {
			if k == EnvBackendToken {
				v = "(set, " + strconv.Itoa(len(v)) + " chars)"
			}
			out[k] = v
		}
	}
	return out
}
