package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/cache"
	"github.com/matzehuels/trailmap/pkg/source"
)

// StepSource fetches a course from a learning backend.
type StepSource interface {
	FetchAll(ctx context.Context, course string, opts source.FetchOptions) (source.Result, error)
}

// Load reads the steps named by opts. File sources are parsed with
// [board.ReadStepsFile]; backend sources are fetched through src, or a new
// [source.Client] built from opts when src is nil.
//
// The returned bool reports whether a backend fetch stopped at MaxPages.
func Load(ctx context.Context, c cache.Cache, src StepSource, opts Options) (board.Steps, bool, error) {
	if opts.StepsFile != "" {
		steps, err := board.ReadStepsFile(opts.StepsFile)
		return steps, false, err
	}

	if src == nil {
		client, err := source.NewClient(opts.BackendURL, c,
			source.WithToken(opts.BackendToken),
			source.WithPageSize(opts.PageSize),
			source.WithLogger(opts.Logger),
		)
		if err != nil {
			return board.Steps{}, false, err
		}
		src = client
	}

	start := time.Now()
	res, err := src.FetchAll(ctx, opts.Course, source.FetchOptions{
		MaxPages: opts.MaxPages,
		Refresh:  opts.Refresh,
	})
	if err != nil {
		return board.Steps{}, false, err
	}
	opts.Logger.Debug("fetched course",
		"course", opts.Course,
		"pages", res.Pages,
		"steps", len(res.Steps),
		"duration", time.Since(start))

	return board.FromTrail(opts.Course, res.Steps, nil), res.Partial, nil
}
