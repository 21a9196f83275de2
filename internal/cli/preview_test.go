package cli

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/core/trail"
)

func testLayout(t *testing.T, statuses []trail.Status, images []string) board.Layout {
	t.Helper()
	steps := make([]trail.Step, len(statuses))
	for i, s := range statuses {
		steps[i] = trail.Step{ID: fmt.Sprintf("s%d", i), Status: s}
	}
	p, err := trail.LayoutPath(steps, 390, images)
	if err != nil {
		t.Fatalf("LayoutPath() error: %v", err)
	}
	return board.FromPath(p, trail.DefaultConfig())
}

func TestDrawPath(t *testing.T) {
	l := testLayout(t, []trail.Status{trail.Completed, trail.Completed, trail.InProgress, trail.NotStarted}, []string{"mascots/fox.png"})

	lines := drawPath(l, 40)

	// Four node rows and three connector rows.
	if len(lines) != 7 {
		t.Fatalf("len(lines) = %d, want 7:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if !strings.Contains(lines[0], glyphCompleted) {
		t.Errorf("row 0 = %q, want completed glyph", lines[0])
	}
	// Index 2 is the first peak; it keeps the star even while active.
	if !strings.Contains(lines[4], glyphPeak) {
		t.Errorf("row 4 = %q, want peak glyph", lines[4])
	}
	if !strings.Contains(lines[6], glyphLocked) {
		t.Errorf("row 6 = %q, want locked glyph", lines[6])
	}

	// The marker sits on the inside of the bend, left of the peak.
	marker := strings.Index(lines[4], glyphMarker+" fox")
	peak := strings.Index(lines[4], glyphPeak)
	if marker < 0 {
		t.Fatalf("row 4 = %q, want marker label", lines[4])
	}
	if marker > peak {
		t.Errorf("marker at byte %d, peak at %d; want marker left of peak", marker, peak)
	}

	// The path bends right over the first quarter.
	if !strings.Contains(lines[1], "╲") {
		t.Errorf("connector row 1 = %q, want ╲", lines[1])
	}
}

func TestDrawPathEmpty(t *testing.T) {
	if lines := drawPath(testLayout(t, nil, nil), 40); lines != nil {
		t.Errorf("drawPath(empty) = %v, want nil", lines)
	}
}

func TestPlaceCells(t *testing.T) {
	got := placeCells([]cell{
		{col: 6, text: "b"},
		{col: 2, text: "a"},
		{col: 6, text: "overlap"},
		{col: 9, text: "too-long"},
	}, 10)
	if got != "  a   b" {
		t.Errorf("placeCells() = %q, want %q", got, "  a   b")
	}
}

func TestStatusLine(t *testing.T) {
	l := testLayout(t, []trail.Status{trail.Completed, trail.InProgress, trail.NotStarted}, nil)
	l.Nodes[1].Progress = 40

	if got := statusLine(l); !strings.HasPrefix(got, "step 2/3 · 40%") {
		t.Errorf("statusLine() = %q, want step 2/3 · 40%% prefix", got)
	}

	done := testLayout(t, []trail.Status{trail.Completed, trail.Completed}, nil)
	if got := statusLine(done); !strings.HasPrefix(got, "all 2 steps complete") {
		t.Errorf("statusLine(done) = %q", got)
	}

	if got := statusLine(board.Layout{}); !strings.HasPrefix(got, "empty course") {
		t.Errorf("statusLine(empty) = %q", got)
	}
}

func TestPreviewModel(t *testing.T) {
	statuses := make([]trail.Status, 30)
	for i := range 20 {
		statuses[i] = trail.Completed
	}
	m := newPreviewModel("course.json", testLayout(t, statuses, nil))

	if got := m.View(); got != "loading..." {
		t.Errorf("View() before size = %q", got)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	m = next.(previewModel)
	if !m.ready {
		t.Fatal("model not ready after WindowSizeMsg")
	}
	// Active row 40 is centered in a 10-row viewport.
	if m.viewport.YOffset != 35 {
		t.Errorf("YOffset = %d, want 35", m.viewport.YOffset)
	}
	view := m.View()
	if !strings.Contains(view, "course.json") || !strings.Contains(view, "step 21/30") {
		t.Errorf("View() = %q, want title and status", view)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
