package render

import (
	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/core/trail"
)

// RenderJSON serializes the path as a board.Layout document.
func RenderJSON(p trail.Path, cfg trail.Config) ([]byte, error) {
	return board.MarshalLayout(board.FromPath(p, cfg))
}
