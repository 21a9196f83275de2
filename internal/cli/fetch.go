package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/pipeline"
)

type fetchOpts struct {
	output   string
	baseURL  string
	token    string
	pageSize int
	maxPages int
	noCache  bool
	refresh  bool
}

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch [course]",
		Short: "Download a course's steps from the backend",
		Long: `Download a course's steps from the learning backend into a steps file.

The backend is taken from --backend, TRAILMAP_BACKEND_URL or the [backend]
section of the config file, in that order. Pages are cached; use --refresh
to bypass the cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, .json or .yaml (default: <course>.json)")
	cmd.Flags().StringVar(&opts.baseURL, "backend", "", "backend base URL")
	cmd.Flags().StringVar(&opts.token, "token", "", "bearer token for the backend")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "steps per page (default from config, 20)")
	cmd.Flags().IntVar(&opts.maxPages, "max-pages", 0, "stop after this many pages (default from config, 50)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached pages")

	return cmd
}

// fetchOptions merges flags over the [backend] config.
func (c *CLI) fetchOptions(course string, f fetchOpts) pipeline.Options {
	cfg := c.config.Backend
	opts := pipeline.Options{
		BackendURL:   cfg.BaseURL,
		BackendToken: cfg.Token,
		Course:       course,
		PageSize:     cfg.PageSize,
		MaxPages:     cfg.MaxPages,
		Refresh:      f.refresh,
		Logger:       c.Logger,
	}
	if f.baseURL != "" {
		opts.BackendURL = f.baseURL
	}
	if f.token != "" {
		opts.BackendToken = f.token
	}
	if f.pageSize != 0 {
		opts.PageSize = f.pageSize
	}
	if f.maxPages != 0 {
		opts.MaxPages = f.maxPages
	}
	return opts
}

func (c *CLI) runFetch(ctx context.Context, course string, f fetchOpts) error {
	opts := c.fetchOptions(course, f)
	if opts.BackendURL == "" {
		return fmt.Errorf("no backend configured: pass --backend or set %s", EnvBackendURL)
	}

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %s...", course))
	spinner.Start()

	steps, partial, err := runner.LoadSteps(ctx, opts)
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return fmt.Errorf("fetch %s: %w", course, err)
	}
	spinner.Stop()
	prog.done("fetched course", "course", course, "steps", len(steps.Steps))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := f.output
	if outputPath == "" {
		outputPath = course + ".json"
	}
	if err := board.WriteStepsFile(steps, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Fetched %d steps", len(steps.Steps))
	printFile(outputPath)
	if partial {
		printWarning("Stopped after %d pages; the course may be longer", opts.MaxPages)
	}
	printNewline()
	printNextStep("Lay out", "trailmap layout "+outputPath)

	return nil
}
