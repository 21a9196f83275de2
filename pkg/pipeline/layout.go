package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/cache"
	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/observability"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout computes the path for a course. Marker images in opts take
// precedence over those carried by the steps document.
func GenerateLayout(ctx context.Context, steps board.Steps, opts Options) (board.Layout, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return board.Layout{}, err
	}

	ts, err := steps.ToTrail()
	if err != nil {
		return board.Layout{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(ts))
	start := time.Now()

	p, err := trail.LayoutPath(ts, opts.Width, markerImages(steps, opts), trail.WithConfig(opts.Layout))
	hooks.OnLayoutComplete(ctx, len(p.Nodes), len(p.Markers), time.Since(start), err)
	if err != nil {
		return board.Layout{}, err
	}

	l := board.FromPath(p, opts.Layout)
	l.StepsHash = StepsHash(ts)
	return l, nil
}

// StepsHash identifies a course's content for layout caching. Two steps
// documents that differ only in formatting hash the same.
func StepsHash(steps []trail.Step) string {
	h, err := cache.HashJSON(steps)
	if err != nil {
		return ""
	}
	return h
}

func markerImages(steps board.Steps, opts Options) []string {
	if len(opts.MarkerImages) > 0 {
		return opts.MarkerImages
	}
	return steps.MarkerImages
}
