// Package trail computes the serpentine lesson path of a learning course.
//
// # Overview
//
// A course is an ordered list of [Step] records. [LayoutPath] turns that list
// into a [Path]: one positioned [Node] per step plus a sparse list of
// decorative [Marker] placements. The result is a pure function of the steps,
// the layout width and the marker images. There is no randomness and no
// hidden state, so callers may memoize it freely.
//
// # Geometry
//
// Nodes are stacked top to bottom at a fixed pitch:
//
//	y = NodeSize/2 + VerticalMargin + i*VerticalSpacing
//
// Horizontally the path swings around the centerline in a repeating cycle of
// [Config.CycleLength] steps (8 by default). Within a cycle the offset rises
// to the right extremum at [Config.PeakIndex], falls back to the center at
// [Config.HalfCycle], rises to the left extremum and falls halfway back
// before the next cycle begins:
//
//	cyclePos  0    1    2    3    4    5    6    7
//	offset    0   .5    1   .5    0   .5    1   .5
//	side      R    R    R    R    R    L    L    L
//
// The last quarter deliberately stops short of the centerline so that the
// path reads as one continuous serpentine.
//
// # State
//
// [DeriveStates] computes completion, activity and unlock flags over the full
// sequence. The active step is the first in-progress step, or else the first
// step that is not completed. A step is unlocked when it is the first step,
// the active step, or directly follows a completed step. Geometry never
// depends on state: [Arrange] takes precomputed [NodeState] values, which lets
// the demo generator lay out synthetic courses with the same code.
//
// # Markers
//
// Nodes at the two extrema of every cycle are marker slots. Slots are filled
// in order with the supplied marker images, one image per slot, and slots
// beyond the last image stay empty. A marker stands beside its anchor node on
// the side opposite the curve and faces back toward the path.
//
// # Usage
//
//	p, err := trail.LayoutPath(steps, 390, []string{"pikachu.png", "eevee.png"})
//	if err != nil {
//	    return err
//	}
//	for _, n := range p.Nodes {
//	    draw(n.X, n.Y, n.Unlocked)
//	}
//
// A non-positive or non-finite width and an inconsistent [Config] are
// rejected with an INVALID_ARGUMENT error from [errors].
//
// [errors]: github.com/matzehuels/trailmap/pkg/errors
package trail
