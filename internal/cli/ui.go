package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stdout receives all user-facing output; tests swap it.
var stdout io.Writer = os.Stdout

// Terminal palette. The path colors follow the SVG light theme so the
// preview and the rendered files read the same.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")  // completed
	colorYellow = lipgloss.Color("220") // peaks, warnings
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75") // active step, links
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240") // locked
)

// Exported styles, shared with the preview.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(18)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// marker is a leading status glyph with its color.
type marker struct {
	glyph string
	style lipgloss.Style
}

var (
	markSuccess = marker{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	markError   = marker{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	markWarning = marker{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	markInfo    = marker{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

// cacheLabels describe where a layout or artifact came from.
var cacheLabels = map[bool]string{
	true:  lipgloss.NewStyle().Foreground(colorGreen).Render("cached"),
	false: lipgloss.NewStyle().Foreground(colorGray).Render("fresh"),
}

func emit(m marker, text string) {
	fmt.Fprintln(stdout, m.style.Render(m.glyph)+" "+text)
}

func printSuccess(format string, args ...any) { emit(markSuccess, fmt.Sprintf(format, args...)) }
func printError(format string, args ...any)   { emit(markError, fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { emit(markInfo, fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	emit(markWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a written file under the preceding status line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats summarizes a path on one line: "12 steps · 3 markers · cached".
// The marker count is omitted when there are none.
func printStats(steps, markers int, cached bool) {
	sep := StyleDim.Render(" · ")
	fields := []string{StyleDim.Render(fmt.Sprintf("%d steps", steps))}
	if markers > 0 {
		fields = append(fields, StyleDim.Render(fmt.Sprintf("%d markers", markers)))
	}
	fields = append(fields, cacheLabels[cached])
	fmt.Fprintln(stdout, "  "+strings.Join(fields, sep))
}

// printNextStep suggests the command that usually follows.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}
