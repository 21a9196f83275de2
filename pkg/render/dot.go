package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
)

const pointsPerInch = 72.0

// ToDOT converts a path to Graphviz DOT. Every node is pinned at its
// computed center (converted to inches, y flipped to Graphviz's upward
// axis) so neato reproduces the layout instead of computing its own.
// Markers become plaintext nodes joined to their anchors by dotted edges.
func ToDOT(p trail.Path, opts ...SVGOption) string {
	r := newSVGRenderer(opts...)
	pal := r.theme.Palette()
	size := r.nodeSize / pointsPerInch

	var buf bytes.Buffer
	buf.WriteString("graph trail {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  splines=true;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", pal.Background)
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fixedsize=true, width=%.3f, fontsize=14, fontcolor=%q];\n",
		size, pal.Glyph)
	fmt.Fprintf(&buf, "  edge [penwidth=6, color=%q];\n", pal.Track)
	buf.WriteString("\n")

	fill := map[string]string{
		"completed": pal.Completed,
		"active":    pal.Active,
		"unlocked":  pal.Unlocked,
		"locked":    pal.Locked,
	}
	for _, n := range p.Nodes {
		label := ""
		switch {
		case n.Icon == trail.IconPeak:
			label = "★"
		case r.labels:
			label = strconv.Itoa(n.Index + 1)
		}
		fmt.Fprintf(&buf, "  %q [label=%q, tooltip=%q, fillcolor=%q, pos=%q];\n",
			dotID(n.Index), label, n.ID, fill[nodeState(n)], pin(n.X, n.Y, p.Height))
	}

	if len(p.Markers) > 0 {
		buf.WriteString("\n")
	}
	for k, m := range p.Markers {
		fmt.Fprintf(&buf, "  \"m%d\" [shape=plaintext, style=\"\", label=%q, fontcolor=%q, pos=%q];\n",
			k, m.Image, pal.Text, pin(m.X, m.Y, p.Height))
	}

	buf.WriteString("\n")
	for i := 1; i < len(p.Nodes); i++ {
		attrs := ""
		if p.Nodes[i-1].Completed && (p.Nodes[i].Completed || p.Nodes[i].Active) {
			attrs = fmt.Sprintf(" [color=%q]", pal.TrackDone)
		}
		fmt.Fprintf(&buf, "  %q -- %q%s;\n", dotID(i-1), dotID(i), attrs)
	}
	for k, m := range p.Markers {
		fmt.Fprintf(&buf, "  \"m%d\" -- %q [style=dotted, penwidth=1];\n", k, dotID(m.AnchorIndex))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotID(i int) string { return "n" + strconv.Itoa(i) }

func pin(x, y, height float64) string {
	return fmt.Sprintf("%.3f,%.3f!", x/pointsPerInch, (height-y)/pointsPerInch)
}

// RenderGraphvizSVG renders DOT through Graphviz's neato engine, which
// honors pinned positions.
func RenderGraphvizSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's root element with a plain one whose
// width and height match the viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
