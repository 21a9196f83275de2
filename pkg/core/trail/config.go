package trail

import (
	"math"

	"github.com/matzehuels/trailmap/pkg/errors"
)

// Default geometry, in layout units (points on the device).
const (
	DefaultNodeSize        = 80.0
	DefaultVerticalSpacing = 110.0
	DefaultVerticalMargin  = 40.0
	DefaultCurveAmplitude  = 90.0
	DefaultMarkerGap       = 24.0
	DefaultMarkerNudgeY    = -12.0
	DefaultMarkerSize      = 96.0

	DefaultCycleLength = 8
	DefaultPeakIndex   = 2
	DefaultHalfCycle   = 4
)

// Config holds the tunable geometry of a path.
//
// The cycle fields are kept explicit even though they are related:
// HalfCycle must be 2*PeakIndex and CycleLength must be 2*HalfCycle.
type Config struct {
	NodeSize        float64 `json:"node_size" toml:"node_size" bson:"node_size"`
	VerticalSpacing float64 `json:"vertical_spacing" toml:"vertical_spacing" bson:"vertical_spacing"`
	VerticalMargin  float64 `json:"vertical_margin" toml:"vertical_margin" bson:"vertical_margin"`
	CurveAmplitude  float64 `json:"curve_amplitude" toml:"curve_amplitude" bson:"curve_amplitude"`
	MarkerGap       float64 `json:"marker_gap" toml:"marker_gap" bson:"marker_gap"`
	MarkerNudgeY    float64 `json:"marker_nudge_y" toml:"marker_nudge_y" bson:"marker_nudge_y"`
	MarkerSize      float64 `json:"marker_size" toml:"marker_size" bson:"marker_size"`

	CycleLength int `json:"cycle_length" toml:"cycle_length" bson:"cycle_length"`
	PeakIndex   int `json:"peak_index" toml:"peak_index" bson:"peak_index"`
	HalfCycle   int `json:"half_cycle" toml:"half_cycle" bson:"half_cycle"`
}

// DefaultConfig returns the geometry used by the mobile lesson map.
func DefaultConfig() Config {
	return Config{
		NodeSize:        DefaultNodeSize,
		VerticalSpacing: DefaultVerticalSpacing,
		VerticalMargin:  DefaultVerticalMargin,
		CurveAmplitude:  DefaultCurveAmplitude,
		MarkerGap:       DefaultMarkerGap,
		MarkerNudgeY:    DefaultMarkerNudgeY,
		MarkerSize:      DefaultMarkerSize,
		CycleLength:     DefaultCycleLength,
		PeakIndex:       DefaultPeakIndex,
		HalfCycle:       DefaultHalfCycle,
	}
}

// Validate reports an INVALID_ARGUMENT error for unusable geometry.
func (c Config) Validate() error {
	sizes := []struct {
		name string
		v    float64
	}{
		{"node_size", c.NodeSize},
		{"vertical_spacing", c.VerticalSpacing},
		{"marker_size", c.MarkerSize},
	}
	for _, s := range sizes {
		if !positive(s.v) {
			return errors.New(errors.ErrCodeInvalidArgument, "%s must be positive, got %v", s.name, s.v)
		}
	}
	nonNeg := []struct {
		name string
		v    float64
	}{
		{"vertical_margin", c.VerticalMargin},
		{"curve_amplitude", c.CurveAmplitude},
		{"marker_gap", c.MarkerGap},
	}
	for _, s := range nonNeg {
		if !(s.v >= 0) || math.IsInf(s.v, 1) {
			return errors.New(errors.ErrCodeInvalidArgument, "%s must be non-negative, got %v", s.name, s.v)
		}
	}
	if math.IsNaN(c.MarkerNudgeY) || math.IsInf(c.MarkerNudgeY, 0) {
		return errors.New(errors.ErrCodeInvalidArgument, "marker_nudge_y must be finite")
	}
	if c.PeakIndex < 1 {
		return errors.New(errors.ErrCodeInvalidArgument, "peak_index must be at least 1, got %d", c.PeakIndex)
	}
	if c.HalfCycle != 2*c.PeakIndex {
		return errors.New(errors.ErrCodeInvalidArgument,
			"half_cycle must be twice peak_index (%d), got %d", 2*c.PeakIndex, c.HalfCycle)
	}
	if c.CycleLength != 2*c.HalfCycle {
		return errors.New(errors.ErrCodeInvalidArgument,
			"cycle_length must be twice half_cycle (%d), got %d", 2*c.HalfCycle, c.CycleLength)
	}
	return nil
}

// Option adjusts the Config used by [LayoutPath].
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option { return func(dst *Config) { *dst = c } }

// WithNodeSize sets the node diameter.
func WithNodeSize(size float64) Option { return func(c *Config) { c.NodeSize = size } }

// WithAmplitude sets the maximum horizontal offset from the centerline.
func WithAmplitude(a float64) Option { return func(c *Config) { c.CurveAmplitude = a } }

// WithSpacing sets the vertical pitch and the top margin.
func WithSpacing(spacing, margin float64) Option {
	return func(c *Config) {
		c.VerticalSpacing = spacing
		c.VerticalMargin = margin
	}
}

// WithCycle derives the cycle from the quarter length: the path reaches its
// first extremum after peak steps and repeats every 4*peak steps.
func WithCycle(peak int) Option {
	return func(c *Config) {
		c.PeakIndex = peak
		c.HalfCycle = 2 * peak
		c.CycleLength = 4 * peak
	}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
