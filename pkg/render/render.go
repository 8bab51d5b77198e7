// Package render draws the structure of a prefab snapshot.
//
// A snapshot renders as a node-link diagram: one graph node per stored
// value, one styled edge set per relation category. Rendering goes through
// Graphviz DOT; [ToDOT] produces the diagram source and [SVG] rasterizes it.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/relata/relata/pkg/observability"
	"github.com/relata/relata/pkg/prefab"
)

// Options configures snapshot rendering.
type Options struct {
	// Detailed includes slot identity and payload size in node labels.
	// When false, only the type name is shown.
	Detailed bool
}

// Edge colors cycle through this palette, one per relation category in the
// document's category order.
var palette = []string{
	"#1f77b4", "#d62728", "#2ca02c", "#9467bd",
	"#ff7f0e", "#8c564b", "#17becf", "#7f7f7f",
}

// ToDOT converts a prefab snapshot to Graphviz DOT format. Nodes carry the
// stored type name; each relation category gets its own edge color and
// label. The resulting DOT string can be rendered with [SVG].
func ToDOT(p *prefab.Prefab, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph snapshot {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, arch := range p.Nodes {
		for i, id := range arch.Slots {
			label := fmtLabel(arch, i, opts.Detailed)
			fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(arch.DataType, id), label)
		}
	}

	for i, arch := range p.Relations {
		color := palette[i%len(palette)]
		buf.WriteString("\n")
		for _, e := range arch.Edges {
			fmt.Fprintf(&buf, "  %q -> %q [color=%q, fontcolor=%q, label=%q];\n",
				nodeID(e.Source.DataType, e.Source.ID),
				nodeID(e.Target.DataType, e.Target.ID),
				color, color, arch.DataType.Name)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(dt prefab.DataType, id prefab.SlotID) string {
	return fmt.Sprintf("%s#%d@%d", dt, id.Slot, id.Gen)
}

func fmtLabel(arch prefab.NodeArchetype, i int, detailed bool) string {
	if !detailed {
		return arch.DataType.Name
	}
	parts := []string{
		arch.DataType.String(),
		fmt.Sprintf("slot: %d@%d", arch.Slots[i].Slot, arch.Slots[i].Gen),
		fmt.Sprintf("payload: %dB", len(arch.Payloads[i])),
	}
	return strings.Join(parts, "\n")
}

// Snapshot renders a prefab straight to SVG.
func Snapshot(ctx context.Context, p *prefab.Prefab, opts Options) ([]byte, error) {
	observability.Render().OnRenderStart(ctx, "svg", p.EntityCount(), p.EdgeCount())
	return SVG(ctx, ToDOT(p, opts))
}

// SVG renders a DOT graph to SVG using Graphviz.
func SVG(ctx context.Context, dot string) ([]byte, error) {
	start := time.Now()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		observability.Render().OnRenderComplete(ctx, "svg", 0, time.Since(start), err)
		return nil, fmt.Errorf("render: %w", err)
	}

	svg := normalizeViewBox(buf.Bytes())
	observability.Render().OnRenderComplete(ctx, "svg", len(svg), time.Since(start), nil)
	return svg, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root so the diagram scales cleanly when
// embedded; Graphviz emits fixed point sizes with an offset viewBox.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
