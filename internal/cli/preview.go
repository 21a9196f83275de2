package cli

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trailmap/pkg/board"
)

// Path glyphs.
const (
	glyphCompleted = "●"
	glyphActive    = "◉"
	glyphUnlocked  = "○"
	glyphLocked    = "·"
	glyphPeak      = "★"
	glyphMarker    = "◆"
)

var (
	styleCompleted = lipgloss.NewStyle().Foreground(colorGreen)
	styleActive    = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	styleUnlocked  = lipgloss.NewStyle().Foreground(colorWhite)
	styleLocked    = lipgloss.NewStyle().Foreground(colorDim)
	stylePeak      = lipgloss.NewStyle().Foreground(colorYellow)
	styleMarker    = lipgloss.NewStyle().Foreground(colorGray)
	styleStatus    = lipgloss.NewStyle().Foreground(colorGray)
)

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "preview [steps.json|layout.json]",
		Short: "Show the path in the terminal",
		Long: `Show the course path in the terminal.

Completed steps are drawn as ●, the active step as ◉, unlocked steps as ○
and locked steps as ·; peaks use ★ and markers ◆. Scroll with ↑/↓, quit
with q.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeInputFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			layout, err := c.loadPreviewLayout(ctx, args[0], flags)
			if err != nil {
				return err
			}
			m := newPreviewModel(filepath.Base(args[0]), layout)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

// loadPreviewLayout accepts either a layout file or a steps file.
func (c *CLI) loadPreviewLayout(ctx context.Context, input string, flags layoutFlags) (board.Layout, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return board.Layout{}, fmt.Errorf("read %s: %w", input, err)
	}
	if board.IsLayoutJSON(data) {
		return board.UnmarshalLayout(data)
	}
	steps, err := board.ReadSteps(bytes.NewReader(data), board.FormatFromPath(input))
	if err != nil {
		return board.Layout{}, fmt.Errorf("load steps %s: %w", input, err)
	}
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return board.Layout{}, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts, err := c.optionsFrom(flags)
	if err != nil {
		return board.Layout{}, err
	}
	return runner.Layout(ctx, steps, opts)
}

// =============================================================================
// previewModel - scrollable path view
// =============================================================================

type previewModel struct {
	title    string
	layout   board.Layout
	viewport viewport.Model
	ready    bool
}

func newPreviewModel(title string, layout board.Layout) previewModel {
	return previewModel{title: title, layout: layout, viewport: viewport.New(40, 20)}
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		lines := drawPath(m.layout, msg.Width)
		m.viewport.SetContent(strings.Join(lines, "\n"))
		if !m.ready {
			if row, ok := activeRow(m.layout); ok {
				m.viewport.SetYOffset(row - m.viewport.Height/2)
			}
			m.ready = true
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m previewModel) View() string {
	if !m.ready {
		return "loading..."
	}
	return StyleTitle.Render(m.title) + "\n" + m.viewport.View() + "\n" + styleStatus.Render(statusLine(m.layout))
}

// statusLine summarizes progress: "step 4/12 · 40% · ↑/↓ scroll · q quit".
func statusLine(l board.Layout) string {
	help := "↑/↓ scroll · q quit"
	total := len(l.Nodes)
	if total == 0 {
		return "empty course · " + help
	}
	for _, n := range l.Nodes {
		if n.Active {
			s := fmt.Sprintf("step %d/%d", n.Index+1, total)
			if n.Progress > 0 {
				s += fmt.Sprintf(" · %.0f%%", n.Progress)
			}
			return s + " · " + help
		}
	}
	return fmt.Sprintf("all %d steps complete · %s", total, help)
}

// =============================================================================
// Text rendering
// =============================================================================

// rowsPerNode is the number of text rows between consecutive nodes.
const rowsPerNode = 2

// cell is a piece of text anchored at a column.
type cell struct {
	col   int
	text  string
	style lipgloss.Style
}

// drawPath renders the layout as text, one node row followed by one
// connector row per step. Columns scale the layout width onto cols.
func drawPath(l board.Layout, cols int) []string {
	if len(l.Nodes) == 0 || cols < 1 {
		return nil
	}
	column := func(x float64) int {
		if l.Width <= 0 {
			return 0
		}
		c := int(math.Round(x / l.Width * float64(cols-1)))
		return min(max(c, 0), cols-1)
	}

	markers := make(map[int][]board.MarkerDoc)
	for _, mk := range l.Markers {
		markers[mk.AnchorIndex] = append(markers[mk.AnchorIndex], mk)
	}

	lines := make([]string, 0, len(l.Nodes)*rowsPerNode)
	for i, n := range l.Nodes {
		nodeCol := column(n.X)
		cells := []cell{nodeCell(n, nodeCol)}
		for _, mk := range markers[n.Index] {
			label := glyphMarker + " " + strings.TrimSuffix(filepath.Base(mk.Image), filepath.Ext(mk.Image))
			col := column(mk.X)
			if col < nodeCol {
				// left of the node: the label ends at the marker
				col -= lipgloss.Width(label) - 1
			}
			cells = append(cells, cell{col: max(col, 0), text: label, style: styleMarker})
		}
		lines = append(lines, placeCells(cells, cols))

		if i+1 < len(l.Nodes) {
			next := l.Nodes[i+1]
			a, b := column(n.X), column(next.X)
			glyph := "│"
			switch {
			case b > a:
				glyph = "╲"
			case b < a:
				glyph = "╱"
			}
			style := styleLocked
			if n.Completed && (next.Completed || next.Active) {
				style = styleCompleted
			}
			lines = append(lines, placeCells([]cell{{col: (a + b) / 2, text: glyph, style: style}}, cols))
		}
	}
	return lines
}

func nodeCell(n board.NodeDoc, col int) cell {
	switch {
	case n.Icon == "peak":
		style := stylePeak
		switch {
		case n.Completed:
			style = styleCompleted
		case n.Active:
			style = styleActive
		case !n.Unlocked:
			style = styleLocked
		}
		return cell{col: col, text: glyphPeak, style: style}
	case n.Completed:
		return cell{col: col, text: glyphCompleted, style: styleCompleted}
	case n.Active:
		return cell{col: col, text: glyphActive, style: styleActive}
	case n.Unlocked:
		return cell{col: col, text: glyphUnlocked, style: styleUnlocked}
	default:
		return cell{col: col, text: glyphLocked, style: styleLocked}
	}
}

// placeCells lays cells out left to right, dropping any that would overlap
// an earlier one or overflow cols.
func placeCells(cells []cell, cols int) string {
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].col < cells[j].col })
	var b strings.Builder
	pos := 0
	for _, c := range cells {
		w := lipgloss.Width(c.text)
		if c.col < pos || c.col+w > cols {
			continue
		}
		b.WriteString(strings.Repeat(" ", c.col-pos))
		b.WriteString(c.style.Render(c.text))
		pos = c.col + w
	}
	return b.String()
}

// activeRow returns the text row of the active node.
func activeRow(l board.Layout) (int, bool) {
	for i, n := range l.Nodes {
		if n.Active {
			return i * rowsPerNode, true
		}
	}
	return 0, false
}
