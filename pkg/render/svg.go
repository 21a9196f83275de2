package render

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/matzehuels/trailmap/pkg/core/trail"
)

const pathCSS = `
    .node { stroke-width: 4; }
    .node.locked { stroke-dasharray: 6 6; }
    .connector { fill: none; stroke-width: 10; stroke-linecap: round; }
    .connector.locked { stroke-dasharray: 2 18; }
    .label { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; font-weight: 700; text-anchor: middle; dominant-baseline: central; }`

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme      Theme
	labels     bool
	nodeSize   float64
	markerSize float64
}

func WithTheme(t Theme) SVGOption           { return func(r *svgRenderer) { r.theme = t } }
func WithLabels() SVGOption                 { return func(r *svgRenderer) { r.labels = true } }
func WithNodeSize(size float64) SVGOption   { return func(r *svgRenderer) { r.nodeSize = size } }
func WithMarkerSize(size float64) SVGOption { return func(r *svgRenderer) { r.markerSize = size } }

// RenderSVG draws the path. The viewBox is exactly Width x Height, so node
// and marker coordinates map one to one onto the document.
func RenderSVG(p trail.Path, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	pal := r.theme.Palette()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		p.Width, p.Height, p.Width, p.Height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", pathCSS)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", pal.Background)

	r.renderConnectors(&buf, p.Nodes, pal)
	for _, n := range p.Nodes {
		r.renderNode(&buf, n, pal)
	}
	for _, m := range p.Markers {
		r.renderMarker(&buf, m)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		theme:      ThemeLight,
		nodeSize:   trail.DefaultNodeSize,
		markerSize: trail.DefaultMarkerSize,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// renderConnectors joins consecutive centers with an S-shaped cubic whose
// control points share the midpoint's y.
func (r svgRenderer) renderConnectors(buf *bytes.Buffer, nodes []trail.Node, pal Palette) {
	for i := 1; i < len(nodes); i++ {
		a, b := nodes[i-1], nodes[i]
		midY := (a.Y + b.Y) / 2

		class, color := "connector", pal.Track
		switch {
		case a.Completed && (b.Completed || b.Active):
			color = pal.TrackDone
		case !b.Unlocked:
			class += " locked"
		}
		fmt.Fprintf(buf, `  <path class="%s" stroke="%s" d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f"/>`+"\n",
			class, color, a.X, a.Y, a.X, midY, b.X, midY, b.X, b.Y)
	}
}

func nodeState(n trail.Node) string {
	switch {
	case n.Completed:
		return "completed"
	case n.Active:
		return "active"
	case n.Unlocked:
		return "unlocked"
	default:
		return "locked"
	}
}

func (r svgRenderer) renderNode(buf *bytes.Buffer, n trail.Node, pal Palette) {
	state := nodeState(n)
	fill := map[string]string{
		"completed": pal.Completed,
		"active":    pal.Active,
		"unlocked":  pal.Unlocked,
		"locked":    pal.Locked,
	}[state]
	radius := r.nodeSize / 2

	fmt.Fprintf(buf, `  <g id="node-%d" class="step %s">`+"\n", n.Index, state)
	fmt.Fprintf(buf, "    <title>%s</title>\n", html.EscapeString(n.ID))
	if n.Active && n.Progress > 0 {
		renderProgressRing(buf, n.X, n.Y, radius+8, n.Progress, pal)
	}
	fmt.Fprintf(buf, `    <circle class="node %s" cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="%s"/>`+"\n",
		state, n.X, n.Y, radius, fill, pal.Background)

	switch {
	case n.Icon == trail.IconPeak:
		renderStar(buf, n.X, n.Y, radius*0.5, pal.Glyph)
	case r.labels:
		fmt.Fprintf(buf, `    <text class="label" x="%.1f" y="%.1f" font-size="%.1f" fill="%s">%d</text>`+"\n",
			n.X, n.Y, radius*0.6, pal.Glyph, n.Index+1)
	}
	buf.WriteString("  </g>\n")
}

// renderProgressRing draws the completed fraction of a ring clockwise from
// twelve o'clock.
func renderProgressRing(buf *bytes.Buffer, cx, cy, radius, percent float64, pal Palette) {
	fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="6"/>`+"\n",
		cx, cy, radius, pal.Track)
	if percent >= 100 {
		fmt.Fprintf(buf, `    <circle class="progress" cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="6"/>`+"\n",
			cx, cy, radius, pal.Progress)
		return
	}
	theta := 2 * math.Pi * percent / 100
	ex := cx + radius*math.Sin(theta)
	ey := cy - radius*math.Cos(theta)
	large := 0
	if percent > 50 {
		large = 1
	}
	fmt.Fprintf(buf, `    <path class="progress" fill="none" stroke="%s" stroke-width="6" stroke-linecap="round" d="M %.1f %.1f A %.1f %.1f 0 %d 1 %.1f %.1f"/>`+"\n",
		pal.Progress, cx, cy-radius, radius, radius, large, ex, ey)
}

// renderStar draws a five-pointed star of the given outer radius.
func renderStar(buf *bytes.Buffer, cx, cy, outer float64, color string) {
	inner := outer * 0.45
	buf.WriteString(`    <polygon class="peak" points="`)
	for k := range 10 {
		rad := outer
		if k%2 == 1 {
			rad = inner
		}
		a := math.Pi*float64(k)/5 - math.Pi/2
		if k > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(buf, "%.1f,%.1f", cx+rad*math.Cos(a), cy+rad*math.Sin(a))
	}
	fmt.Fprintf(buf, `" fill="%s"/>`+"\n", color)
}

// renderMarker places the image on the far side of (m.X, m.Y) from its node.
// Left-facing markers are mirrored so artwork drawn facing right looks
// toward the curve.
func (r svgRenderer) renderMarker(buf *bytes.Buffer, m trail.Marker) {
	size := r.markerSize
	y := m.Y - size/2
	href := html.EscapeString(m.Image)

	if m.Facing == trail.Right {
		fmt.Fprintf(buf, `  <image class="marker" data-anchor="%d" href="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
			m.AnchorIndex, href, m.X-size, y, size, size)
		return
	}
	fmt.Fprintf(buf, `  <image class="marker mirrored" data-anchor="%d" href="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" transform="scale(-1,1)"/>`+"\n",
		m.AnchorIndex, href, -(m.X + size), y, size, size)
}
