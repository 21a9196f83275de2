package board

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
)

// =============================================================================
// Layout - computed path
// =============================================================================

// Layout is the serialized form of a [trail.Path] together with the
// geometry it was computed with.
type Layout struct {
	Width     float64      `json:"width" bson:"width"`
	Height    float64      `json:"height" bson:"height"`
	Config    trail.Config `json:"config" bson:"config"`
	Nodes     []NodeDoc    `json:"nodes" bson:"nodes"`
	Markers   []MarkerDoc  `json:"markers" bson:"markers"`
	StepsHash string       `json:"steps_hash,omitempty" bson:"steps_hash,omitempty"`
}

// NodeDoc is a positioned node.
type NodeDoc struct {
	ID        string  `json:"id" bson:"id"`
	Index     int     `json:"index" bson:"index"`
	X         float64 `json:"x" bson:"x"`
	Y         float64 `json:"y" bson:"y"`
	Side      string  `json:"side" bson:"side"`
	Icon      string  `json:"icon" bson:"icon"`
	Completed bool    `json:"completed" bson:"completed"`
	Active    bool    `json:"active" bson:"active"`
	Unlocked  bool    `json:"unlocked" bson:"unlocked"`
	Progress  float64 `json:"progress,omitempty" bson:"progress,omitempty"`
}

// MarkerDoc is a placed marker.
type MarkerDoc struct {
	AnchorID    string  `json:"anchor_id" bson:"anchor_id"`
	AnchorIndex int     `json:"anchor_index" bson:"anchor_index"`
	Image       string  `json:"image" bson:"image"`
	X           float64 `json:"x" bson:"x"`
	Y           float64 `json:"y" bson:"y"`
	Facing      string  `json:"facing" bson:"facing"`
}

// FromPath exports a computed path.
func FromPath(p trail.Path, cfg trail.Config) Layout {
	l := Layout{
		Width:   p.Width,
		Height:  p.Height,
		Config:  cfg,
		Nodes:   make([]NodeDoc, len(p.Nodes)),
		Markers: make([]MarkerDoc, len(p.Markers)),
	}
	for i, n := range p.Nodes {
		l.Nodes[i] = NodeDoc{
			ID:        n.ID,
			Index:     n.Index,
			X:         n.X,
			Y:         n.Y,
			Side:      n.Side.String(),
			Icon:      n.Icon.String(),
			Completed: n.Completed,
			Active:    n.Active,
			Unlocked:  n.Unlocked,
			Progress:  n.Progress,
		}
	}
	for i, m := range p.Markers {
		l.Markers[i] = MarkerDoc{
			AnchorID:    m.AnchorID,
			AnchorIndex: m.AnchorIndex,
			Image:       m.Image,
			X:           m.X,
			Y:           m.Y,
			Facing:      m.Facing.String(),
		}
	}
	return l
}

// ToPath converts the document back into engine types.
func (l Layout) ToPath() trail.Path {
	p := trail.Path{
		Width:   l.Width,
		Height:  l.Height,
		Nodes:   make([]trail.Node, len(l.Nodes)),
		Markers: make([]trail.Marker, len(l.Markers)),
	}
	for i, n := range l.Nodes {
		var side trail.Side
		var icon trail.Icon
		_ = side.UnmarshalText([]byte(n.Side))
		_ = icon.UnmarshalText([]byte(n.Icon))
		p.Nodes[i] = trail.Node{
			ID:        n.ID,
			Index:     n.Index,
			X:         n.X,
			Y:         n.Y,
			Side:      side,
			Icon:      icon,
			Completed: n.Completed,
			Active:    n.Active,
			Unlocked:  n.Unlocked,
			Progress:  n.Progress,
		}
	}
	for i, m := range l.Markers {
		var facing trail.Side
		_ = facing.UnmarshalText([]byte(m.Facing))
		p.Markers[i] = trail.Marker{
			AnchorID:    m.AnchorID,
			AnchorIndex: m.AnchorIndex,
			Image:       m.Image,
			X:           m.X,
			Y:           m.Y,
			Facing:      facing,
		}
	}
	return p
}

// Validate checks the structural consistency of a layout read from outside.
func (l Layout) Validate() error {
	if !(l.Width > 0) {
		return errors.New(errors.ErrCodeInvalidFormat, "layout width must be positive, got %v", l.Width)
	}
	for i, n := range l.Nodes {
		if n.Index != i {
			return errors.New(errors.ErrCodeInvalidFormat, "node %d has index %d", i, n.Index)
		}
	}
	for k, m := range l.Markers {
		if m.AnchorIndex < 0 || m.AnchorIndex >= len(l.Nodes) {
			return errors.New(errors.ErrCodeInvalidFormat, "marker %d anchors missing node %d", k, m.AnchorIndex)
		}
		if l.Nodes[m.AnchorIndex].ID != m.AnchorID {
			return errors.New(errors.ErrCodeInvalidFormat, "marker %d anchor id %q does not match node %q",
				k, m.AnchorID, l.Nodes[m.AnchorIndex].ID)
		}
	}
	return nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes and validates a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}

// IsLayoutJSON reports whether data looks like a layout rather than a steps
// document. Used by commands that accept either.
func IsLayoutJSON(data []byte) bool {
	var probe struct {
		Nodes json.RawMessage `json:"nodes"`
		Steps json.RawMessage `json:"steps"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Nodes != nil && probe.Steps == nil
}
