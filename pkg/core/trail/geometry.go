package trail

// Side is the side of the centerline a node bulges toward, or the direction
// a marker faces.
type Side int

const (
	Right Side = iota
	Left
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// MarshalText encodes the side as "left" or "right".
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts "left" (any case); everything else is Right.
func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "left", "LEFT", "Left":
		*s = Left
	default:
		*s = Right
	}
	return nil
}

// Icon selects the glyph drawn inside a node.
type Icon int

const (
	IconNormal Icon = iota
	IconPeak
)

func (i Icon) String() string {
	if i == IconPeak {
		return "peak"
	}
	return "normal"
}

// MarshalText encodes the icon as "normal" or "peak".
func (i Icon) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText accepts "peak" (any case); everything else is IconNormal.
func (i *Icon) UnmarshalText(b []byte) error {
	switch string(b) {
	case "peak", "PEAK", "Peak":
		*i = IconPeak
	default:
		*i = IconNormal
	}
	return nil
}

// CyclePos returns the position of step i within its cycle.
func (c Config) CyclePos(i int) int {
	pos := i % c.CycleLength
	if pos < 0 {
		pos += c.CycleLength
	}
	return pos
}

// Offset returns the normalized horizontal offset in [0,1] of step i and
// the side it lies on.
//
// The quarter length is PeakIndex. Quarters one and two rise to and fall
// from the right extremum; quarters three and four do the same on the left,
// except the fourth stops one position short of the centerline.
func (c Config) Offset(i int) (float64, Side) {
	pos := c.CyclePos(i)
	p := float64(pos)
	q := float64(c.PeakIndex)
	h := float64(c.HalfCycle)

	switch {
	case pos <= c.PeakIndex:
		return p / q, Right
	case pos <= c.HalfCycle:
		return 1 - (p-q)/q, Right
	case pos <= c.HalfCycle+c.PeakIndex:
		return (p - h) / q, Left
	default:
		return 1 - (p-h-q)/q, Left
	}
}

// Position returns the center of step i on a path of the given width.
func (c Config) Position(i int, width float64) (x, y float64, side Side) {
	offset, side := c.Offset(i)
	sign := 1.0
	if side == Left {
		sign = -1
	}
	x = width/2 + c.CurveAmplitude*offset*sign
	y = c.NodeSize/2 + c.VerticalMargin + float64(i)*c.VerticalSpacing
	return x, y, side
}

// IconAt returns IconPeak for every HalfCycle-th step starting at PeakIndex.
func (c Config) IconAt(i int) Icon {
	if i%c.HalfCycle == c.PeakIndex {
		return IconPeak
	}
	return IconNormal
}

// IsMarkerSlot reports whether step i sits on one of the two extrema of its cycle.
func (c Config) IsMarkerSlot(i int) bool {
	pos := c.CyclePos(i)
	return pos == c.PeakIndex || pos == c.PeakIndex+c.HalfCycle
}

// MarkerAt places a marker beside a node at (x, y) curving toward side.
// The marker stands on the opposite side and faces the same way the node curves.
func (c Config) MarkerAt(x, y float64, side Side) (mx, my float64, facing Side) {
	d := c.NodeSize/2 + c.MarkerGap
	if side == Right {
		mx = x - d
	} else {
		mx = x + d
	}
	return mx, y + c.MarkerNudgeY, side
}

// Height is the scroll height needed to show n steps.
func (c Config) Height(n int) float64 {
	if n == 0 {
		return 2 * c.VerticalMargin
	}
	_, y, _ := c.Position(n-1, 0)
	return y + c.NodeSize/2 + c.VerticalMargin
}
