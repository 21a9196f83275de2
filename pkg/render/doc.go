// Package render turns a computed [trail.Path] into files.
//
// # Sinks
//
//   - [RenderSVG]: the lesson map itself; connectors, state-colored nodes,
//     peak glyphs, the active node's progress ring and marker images
//   - [RenderJSON]: the [board.Layout] document, for clients that draw the
//     path themselves
//   - [ToPDF] / [ToPNG]: SVG conversion through the external rsvg-convert tool
//   - [ToDOT] / [RenderGraphvizSVG]: a Graphviz graph with every node pinned
//     at its computed position, useful for debugging geometry with standard
//     Graphviz tooling
//
// # Example
//
//	p, _ := trail.LayoutPath(steps, 390, images)
//	svg := render.RenderSVG(p, render.WithTheme(render.ThemeDark), render.WithLabels())
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [trail.Path]: github.com/matzehuels/trailmap/pkg/core/trail
// [board.Layout]: github.com/matzehuels/trailmap/pkg/board
package render
