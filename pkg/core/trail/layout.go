package trail

import (
	"math"

	"github.com/matzehuels/trailmap/pkg/errors"
)

// Node is a step positioned on the path.
type Node struct {
	ID        string
	Index     int
	X, Y      float64 // center
	Side      Side
	Completed bool
	Active    bool
	Unlocked  bool
	Icon      Icon
	Progress  float64
}

// Marker is a decorative image standing beside a peak node.
// (X, Y) is the point of the marker closest to its anchor, vertically
// centered; the image extends away from the node.
type Marker struct {
	AnchorID    string
	AnchorIndex int
	Image       string
	X, Y        float64
	Facing      Side
}

// Path is the complete layout of a course.
type Path struct {
	Width   float64
	Height  float64
	Nodes   []Node
	Markers []Marker
}

// ActiveNode returns the active node, if any.
func (p Path) ActiveNode() (Node, bool) {
	for _, n := range p.Nodes {
		if n.Active {
			return n, true
		}
	}
	return Node{}, false
}

// LayoutPath lays out steps on a path of the given width and places one
// marker per image on successive peak slots. Options adjust [DefaultConfig].
func LayoutPath(steps []Step, width float64, images []string, opts ...Option) (Path, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return Arrange(DeriveStates(steps), width, images, cfg)
}

// Arrange positions precomputed node states. It is the geometry half of
// [LayoutPath] and never looks at statuses.
func Arrange(states []NodeState, width float64, images []string, cfg Config) (Path, error) {
	if !(width > 0) || math.IsInf(width, 1) {
		return Path{}, errors.New(errors.ErrCodeInvalidArgument, "layout width must be positive and finite, got %v", width)
	}
	if err := cfg.Validate(); err != nil {
		return Path{}, err
	}

	p := Path{
		Width:   width,
		Height:  cfg.Height(len(states)),
		Nodes:   make([]Node, len(states)),
		Markers: []Marker{},
	}
	for i, st := range states {
		x, y, side := cfg.Position(i, width)
		p.Nodes[i] = Node{
			ID:        st.ID,
			Index:     i,
			X:         x,
			Y:         y,
			Side:      side,
			Completed: st.Completed,
			Active:    st.Active,
			Unlocked:  st.Unlocked,
			Icon:      cfg.IconAt(i),
			Progress:  st.Progress,
		}
	}
	p.Markers = placeMarkers(p.Nodes, images, cfg)
	return p, nil
}

func placeMarkers(nodes []Node, images []string, cfg Config) []Marker {
	markers := make([]Marker, 0, len(images))
	for _, n := range nodes {
		if len(markers) == len(images) {
			break
		}
		if !cfg.IsMarkerSlot(n.Index) {
			continue
		}
		x, y, facing := cfg.MarkerAt(n.X, n.Y, n.Side)
		markers = append(markers, Marker{
			AnchorID:    n.ID,
			AnchorIndex: n.Index,
			Image:       images[len(markers)],
			X:           x,
			Y:           y,
			Facing:      facing,
		})
	}
	return markers
}
