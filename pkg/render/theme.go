package render

import (
	"strings"

	"github.com/matzehuels/trailmap/pkg/errors"
)

// Theme is a named color palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Palette holds the colors a theme paints with.
type Palette struct {
	Background string
	Track      string // connector between locked steps
	TrackDone  string // connector leading into a completed or active step
	Completed  string
	Active     string
	Unlocked   string
	Locked     string
	Glyph      string
	Progress   string
	Text       string
}

var palettes = map[Theme]Palette{
	ThemeLight: {
		Background: "#ffffff",
		Track:      "#d9dde3",
		TrackDone:  "#58cc02",
		Completed:  "#58cc02",
		Active:     "#1cb0f6",
		Unlocked:   "#ffc800",
		Locked:     "#e5e5e5",
		Glyph:      "#ffffff",
		Progress:   "#1cb0f6",
		Text:       "#4b4b4b",
	},
	ThemeDark: {
		Background: "#131f24",
		Track:      "#37464f",
		TrackDone:  "#79d634",
		Completed:  "#79d634",
		Active:     "#49c0f8",
		Unlocked:   "#ffd23f",
		Locked:     "#37464f",
		Glyph:      "#131f24",
		Progress:   "#49c0f8",
		Text:       "#f1f7fb",
	},
}

// Themes lists the built-in themes.
func Themes() []Theme { return []Theme{ThemeLight, ThemeDark} }

// ParseTheme returns the theme named s. The empty string is ThemeLight.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return ThemeLight, nil
	}
	if _, ok := palettes[t]; !ok {
		return "", errors.New(errors.ErrCodeInvalidStyle, "unknown theme %q (want light or dark)", s)
	}
	return t, nil
}

// Palette returns the theme's colors; unknown themes fall back to light.
func (t Theme) Palette() Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[ThemeLight]
}
