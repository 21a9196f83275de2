// Package pkg provides the core libraries for Trailmap lesson-path layouts.
//
// # Overview
//
// Trailmap turns an ordered list of course steps into a serpentine path:
// nodes sway left and right around the screen center, completed steps are
// marked, the first unfinished step is active, and decorative marker images
// sit in the bends. The pkg directory is organized into these areas:
//
//  1. [core/trail] - Domain logic (unlock state, geometry, marker placement)
//  2. [board] - Serialization types for steps files and layouts
//  3. [source] - Paged HTTP client for the learning backend
//  4. [render] - Output formats (SVG, DOT, JSON, PNG/PDF conversion)
//  5. [pipeline] - Orchestration (load → layout → render) with caching
//  6. [cache] - Cache backends (file, Redis, MongoDB, null)
//
// # Architecture
//
// The typical data flow through Trailmap:
//
//	Steps file / backend course
//	         ↓
//	    [board] / [source] packages (decode steps)
//	         ↓
//	    [core/trail] package (states + positions + markers)
//	         ↓
//	    [render] package (visualization)
//	         ↓
//	    SVG/PDF/PNG/JSON/DOT output
//
// # Quick Start
//
// Lay out a course and render it to SVG:
//
//	import (
//	    "github.com/matzehuels/trailmap/pkg/core/trail"
//	    "github.com/matzehuels/trailmap/pkg/render"
//	)
//
//	steps := []trail.Step{
//	    {ID: "kana-1", Status: trail.Completed},
//	    {ID: "kana-2", Status: trail.InProgress, Progress: 60},
//	    {ID: "kana-3", Status: trail.NotStarted},
//	}
//
//	// 1. Compute the path for a 390pt wide screen
//	p, _ := trail.LayoutPath(steps, 390, []string{"mascot.png"})
//
//	// 2. Render to SVG
//	svg := render.RenderSVG(p, render.WithLabels())
//
// # Main Packages
//
// [core/trail] - The layout engine. Pure functions with no I/O: positions
// follow a cycle of eight steps (four quarters of a sine-like sway), the
// peak of each cycle gets a special icon, and markers fill the peak slots
// in order.
//
// [board] - JSON and YAML documents exchanged with the outside: the steps
// file read by the CLI and the API, and the layout document written by
// `trailmap layout`. Steps JSON is checked against a JSON Schema.
//
// [source] - Fetches a course's steps page by page from the backend, with
// bounded retries for transient failures.
//
// [render] - SVG drawing with light and dark themes, Graphviz DOT export,
// and rsvg-convert based PNG/PDF conversion.
//
// [pipeline] - The same load → layout → render flow used by the CLI and
// the HTTP server. [pipeline.Runner] adds cache lookups keyed by content
// hashes.
//
// [cache] - Pluggable TTL caches: FileCache for the CLI, RedisCache and
// MongoCache for shared deployments, NullCache when caching is disabled.
//
// [observability] - Hook points for metrics, with a Prometheus
// implementation.
//
// [errors] - Coded errors shared by every package, mapped to exit
// messages in the CLI and status codes in the server.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/core/trail/...      # Specific package
//	go test -run Example ./pkg/...    # Examples only
//
// [core/trail]: https://pkg.go.dev/github.com/matzehuels/trailmap/pkg/core/trail
// [board]: https://pkg.go.dev/github.com/matzehuels/trailmap/pkg/board
// [source]: https://pkg.go.dev/github.com/matzehuels/trailmap/pkg/source
// [render]: https://pkg.go.dev/github.com/matzehuels/trailmap/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/trailmap/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/trailmap/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/trailmap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/trailmap/pkg/errors
package pkg
