// Package pipeline provides the load → layout → render pipeline for trailmap.
//
// The CLI and the HTTP server both run courses through this package so that
// defaults, validation and caching behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a steps file, or fetch a course from the learning backend
//  2. Layout: place every step on the serpentine path ([trail.LayoutPath])
//  3. Render: generate output in various formats (SVG, PNG, PDF, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    StepsFile: "hiragana.yaml",
//	    Formats:   []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	steps, err := runner.LoadSteps(ctx, opts)
//	layout, err := runner.Layout(ctx, steps, opts)
//	artifacts, err := runner.Render(ctx, layout, opts)
//
// [trail.LayoutPath]: github.com/matzehuels/trailmap/pkg/core/trail
package pipeline

import (
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trailmap/pkg/board"
	"github.com/matzehuels/trailmap/pkg/cache"
	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
	"github.com/matzehuels/trailmap/pkg/render"
	"github.com/matzehuels/trailmap/pkg/source"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the viewport width of a typical phone, in points.
	DefaultWidth = 390.0

	// DefaultMaxPages bounds how many backend pages one course fetch may read.
	DefaultMaxPages = source.DefaultMaxPages

	// DefaultTheme is the default color theme.
	DefaultTheme = string(render.ThemeLight)

	// DefaultPNGScale is the resolution multiplier for PNG output.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// ContentTypes maps formats to their MIME types.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	StepsFile  string `json:"steps_file,omitempty"`
	BackendURL string `json:"backend_url,omitempty"`
	Course     string `json:"course,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
	MaxPages   int    `json:"max_pages,omitempty"`
	Refresh    bool   `json:"refresh,omitempty"`

	// Layout options
	Width        float64      `json:"width,omitempty"`
	Layout       trail.Config `json:"layout"`
	MarkerImages []string     `json:"marker_images,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Theme   string   `json:"theme,omitempty"`
	Labels  bool     `json:"labels,omitempty"`

	// Runtime options (not serialized)
	Logger       *log.Logger `json:"-"`
	BackendToken string      `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Steps is the loaded course.
	Steps board.Steps

	// Layout is the computed path.
	Layout board.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Partial is set when a backend fetch stopped at MaxPages.
	Partial bool

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	StepCount   int
	MarkerCount int
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, trimming blanks and
// dropping duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ValidateWidth checks that a layout width is a positive finite number.
func ValidateWidth(w float64) error {
	if !(w > 0) || math.IsInf(w, 1) {
		return errors.New(errors.ErrCodeInvalidArgument, "layout width must be positive and finite, got %v", w)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that exactly one step source is configured.
func (o *Options) ValidateForLoad() error {
	fromFile := o.StepsFile != ""
	fromBackend := o.BackendURL != "" || o.Course != ""
	switch {
	case fromFile && fromBackend:
		return errors.New(errors.ErrCodeInvalidInput, "steps_file and backend course are mutually exclusive")
	case !fromFile && !fromBackend:
		return errors.New(errors.ErrCodeInvalidInput, "steps_file or backend_url and course is required")
	case fromBackend:
		if err := errors.ValidateURL(o.BackendURL); err != nil {
			return err
		}
		if err := errors.ValidateCourseID(o.Course); err != nil {
			return err
		}
	}

	if o.MaxPages == 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation. A zero Width
// means unset; callers that accept a width from users validate it before it
// reaches here.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Layout == (trail.Config{}) {
		o.Layout = trail.DefaultConfig()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateWidth(o.Width); err != nil {
		return err
	}
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	for _, img := range o.MarkerImages {
		if err := errors.ValidateImageRef(img); err != nil {
			return err
		}
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	_, err := render.ParseTheme(o.Theme)
	return err
}

// FromBackend reports whether steps are fetched rather than read from a file.
func (o *Options) FromBackend() bool {
	return o.StepsFile == ""
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	configHash, _ := cache.HashJSON(o.Layout)
	return cache.LayoutKeyOpts{
		Width:        o.Width,
		ConfigHash:   configHash,
		MarkerImages: o.MarkerImages,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Theme:  o.Theme,
		Labels: o.Labels,
	}
}
