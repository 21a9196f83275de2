package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      layoutFlags
		output     string
		formatsStr string
		theme      string
		labels     bool
	)

	cmd := &cobra.Command{
		Use:   "render [steps.json|layout.json]",
		Short: "Render a course path to SVG, PNG, PDF, JSON or DOT",
		Long: `Render a course path.

The input is either a steps file, which is laid out first, or a layout.json
written by 'layout'. A layout is rendered as-is: --width and --marker only
apply to steps files.

PNG and PDF output require rsvg-convert on the PATH.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeInputFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := pipeline.ParseFormats(formatsStr)
			if err != nil {
				return err
			}
			opts, err := c.optionsFrom(flags)
			if err != nil {
				return err
			}
			opts.Formats = formats
			opts.Theme = theme
			opts.Labels = labels
			return c.runRender(cmd.Context(), args[0], opts, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", pipeline.FormatSVG, "output format(s): svg, png, pdf, json, dot (comma-separated)")
	cmd.Flags().StringVar(&theme, "theme", pipeline.DefaultTheme, "color theme: light, dark")
	cmd.Flags().BoolVar(&labels, "labels", false, "number the steps")
	flags.register(cmd)
	registerRenderCompletions(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+strings.Join(opts.Formats, ", ")+"...")
	spinner.Start()

	var (
		artifacts map[string][]byte
		nodes     int
		markers   int
		cached    bool
	)
	if board.IsLayoutJSON(data) {
		layout, err := board.UnmarshalLayout(data)
		if err != nil {
			spinner.StopWithError("Render failed")
			return fmt.Errorf("load layout %s: %w", input, err)
		}
		artifacts, cached, err = runner.RenderWithCacheInfo(ctx, layout, opts)
		if err != nil {
			spinner.StopWithError("Render failed")
			return err
		}
		nodes, markers = len(layout.Nodes), len(layout.Markers)
	} else {
		steps, err := board.ReadSteps(bytes.NewReader(data), board.FormatFromPath(input))
		if err != nil {
			spinner.StopWithError("Render failed")
			return fmt.Errorf("load steps %s: %w", input, err)
		}
		result, err := runner.ExecuteSteps(ctx, steps, opts)
		if err != nil {
			spinner.StopWithError("Render failed")
			return err
		}
		artifacts = result.Artifacts
		nodes, markers = result.Stats.StepCount, result.Stats.MarkerCount
		cached = result.CacheInfo.RenderHit
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(input, output, opts.Formats)
	for _, format := range opts.Formats {
		if err := os.WriteFile(paths[format], artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", paths[format], err)
		}
	}

	printSuccess("Rendered %s", strings.Join(opts.Formats, ", "))
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	printStats(nodes, markers, cached)
	return nil
}

// outputPaths maps each format to its output file. A single format with
// an explicit output writes exactly there; otherwise files are named
// <base>.<format>, where base comes from output or the input name. JSON
// goes to <base>.layout.json so it never replaces a steps file.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := inputBase(input)
	if output != "" {
		base = output
		if ext := strings.TrimPrefix(filepath.Ext(output), "."); pipeline.ValidFormats[ext] {
			base = inputBase(output)
		}
	}
	for _, f := range formats {
		if f == pipeline.FormatJSON {
			paths[f] = base + ".layout.json"
			continue
		}
		paths[f] = base + "." + f
	}
	return paths
}
