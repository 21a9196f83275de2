package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trailmap/internal/server"
	"github.com/matzehuels/trailmap/pkg/observability"
)

type serveOpts struct {
	addr    string
	baseURL string
	token   string
	noCache bool
	metrics bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{metrics: true}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout HTTP API",
		Long: `Run the layout HTTP API.

Routes:
  POST /v1/layout                  steps in, layout JSON out
  POST /v1/render?format=svg       steps in, artifact out
  GET  /v1/courses/{course}/layout layout of a backend course
  GET  /healthz, GET /metrics

The cache backend is chosen by the [cache] section of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.baseURL, "backend", "", "backend base URL for course routes")
	cmd.Flags().StringVar(&opts.token, "token", "", "bearer token for the backend")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", opts.metrics, "record Prometheus metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg := server.Config{
		Addr:         c.config.Server.Addr,
		BackendURL:   c.config.Backend.BaseURL,
		BackendToken: c.config.Backend.Token,
		PageSize:     c.config.Backend.PageSize,
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	if opts.baseURL != "" {
		cfg.BackendURL = opts.baseURL
	}
	if opts.token != "" {
		cfg.BackendToken = opts.token
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if opts.metrics {
		observability.NewPrometheusHooks(prometheus.DefaultRegisterer).Install()
		defer observability.Reset()
	}

	srv := server.New(cfg, runner, c.Logger)

	printInfo("Listening on %s", StyleLink.Render(displayAddr(cfg.Addr)))
	if cfg.BackendURL != "" {
		printDetail("Backend: %s", cfg.BackendURL)
	}
	printDetail("Cache: %s", c.config.Cache.Backend)

	return srv.ListenAndServe(ctx)
}

// displayAddr turns ":8080" into a clickable "http://localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
