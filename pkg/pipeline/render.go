package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/errors"
	"github.com/matzehuels/trailmap/pkg/observability"
	"github.com/matzehuels/trailmap/pkg/render"
)

// RenderFromLayout generates output artifacts in the requested formats.
func RenderFromLayout(ctx context.Context, l board.Layout, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := renderFormats(ctx, l, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderFormats(ctx context.Context, l board.Layout, opts Options) (map[string][]byte, error) {
	p := l.ToPath()
	svgOpts := buildSVGOptions(l, opts)
	artifacts := make(map[string][]byte)

	var svg []byte
	svgOnce := func() []byte {
		if svg == nil {
			svg = render.RenderSVG(p, svgOpts...)
		}
		return svg
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = svgOnce()
		case FormatPNG:
			data, err = render.ToPNG(ctx, svgOnce(), DefaultPNGScale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, svgOnce())
		case FormatJSON:
			data, err = render.RenderJSON(p, l.Config)
		case FormatDOT:
			data = []byte(render.ToDOT(p, svgOpts...))
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// buildSVGOptions sizes nodes and markers from the geometry the layout was
// computed with, so a layout file renders the way it was laid out.
func buildSVGOptions(l board.Layout, opts Options) []render.SVGOption {
	theme, _ := render.ParseTheme(opts.Theme)
	svgOpts := []render.SVGOption{render.WithTheme(theme)}

	if l.Config.NodeSize > 0 {
		svgOpts = append(svgOpts, render.WithNodeSize(l.Config.NodeSize))
	}
	if l.Config.MarkerSize > 0 {
		svgOpts = append(svgOpts, render.WithMarkerSize(l.Config.MarkerSize))
	}
	if opts.Labels {
		svgOpts = append(svgOpts, render.WithLabels())
	}
	return svgOpts
}
