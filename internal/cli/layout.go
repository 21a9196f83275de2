package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/pipeline"
)

// layoutFlags holds the flags shared by commands that compute a layout.
type layoutFlags struct {
	cmd     *cobra.Command
	width   float64
	markers []string
	noCache bool
	refresh bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	f.cmd = cmd
	cmd.Flags().Float64Var(&f.width, "width", 0, "viewport width in points (default from config, 390)")
	cmd.Flags().StringSliceVar(&f.markers, "marker", nil, "marker image, repeatable (overrides the steps file)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even if cached")
}

// optionsFrom builds pipeline options from the config and the flags. A
// --width given on the command line is checked as given, so --width 0 is an
// error rather than a request for the default.
func (c *CLI) optionsFrom(f layoutFlags) (pipeline.Options, error) {
	opts := c.layoutOptions(f.markers)
	if f.cmd != nil && f.cmd.Flags().Changed("width") {
		if err := pipeline.ValidateWidth(f.width); err != nil {
			return pipeline.Options{}, err
		}
		opts.Width = f.width
	}
	opts.Refresh = f.refresh
	return opts, nil
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout [steps.json|steps.yaml]",
		Short: "Compute the path layout for a course",
		Long: `Compute the path layout for a course.

The layout command reads a steps file (JSON or YAML, as written by 'fetch'
or 'demo') and places every step on the winding path. The result is a
layout.json file (same format as 'render -f json') that 'render' and
'preview' accept directly.

Results are cached locally for faster subsequent runs.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeInputFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.optionsFrom(flags)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	flags.register(cmd)

	return cmd
}

// runLayout loads the steps, computes the layout, and writes it.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	steps, err := board.ReadStepsFile(input)
	if err != nil {
		return fmt.Errorf("load steps %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing path layout...")
	spinner.Start()

	layout, cacheHit, err := runner.LayoutWithCacheInfo(ctx, steps, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = inputBase(input) + ".layout.json"
	}
	if err := board.WriteLayoutFile(layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(layout.Nodes), len(layout.Markers), cacheHit)
	printNewline()
	printNextStep("Render", "trailmap render "+outputPath)

	return nil
}

// inputBase strips the extension and a trailing ".layout" from path, so
// both course.json and course.layout.json map to "course".
func inputBase(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return strings.TrimSuffix(base, ".layout")
}
