package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	pkgio "github.com/matzehuels/hiweave/pkg/io"
	"github.com/matzehuels/hiweave/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes partition, level and depth in cluster labels.
	Detailed bool

	// Weights labels edges whose weight is not 1.
	Weights bool

	// RankByDepth aligns nodes of equal depth on one rank.
	RankByDepth bool

	// HideTerminals leaves terminals and their edges out.
	HideTerminals bool
}

// ToDOT converts a hierarchy document to Graphviz DOT source.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF] or [RenderPNG].
func ToDOT(doc *pkgio.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	hidden := make(map[string]bool)
	ranks := make(map[int][]string)
	for _, n := range doc.Nodes {
		if opts.HideTerminals && n.Kind == pkgio.KindTerminal {
			hidden[n.Key] = true
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		ranks[n.Depth] = append(ranks[n.Depth], n.Key)
	}

	if opts.RankByDepth {
		buf.WriteString("\n")
		depths := make([]int, 0, len(ranks))
		for d := range ranks {
			depths = append(depths, d)
		}
		slices.Sort(depths)
		for _, d := range depths {
			quoted := make([]string, len(ranks[d]))
			for i, k := range ranks[d] {
				quoted[i] = strconv.Quote(k)
			}
			fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
		}
	}

	buf.WriteString("\n")
	for _, e := range doc.Edges {
		if hidden[e.From] || hidden[e.To] {
			continue
		}
		var attrs []string
		if e.Type == pkgio.EdgeGeneTerm {
			attrs = append(attrs, "color=grey60", "arrowsize=0.5")
		}
		if opts.Weights && e.Weight != 1 {
			attrs = append(attrs, fmt.Sprintf("label=%q", strconv.FormatFloat(e.Weight, 'g', 3, 64)))
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n pkgio.Node, detailed bool) string {
	if n.Kind == pkgio.KindTerminal || !detailed {
		return n.Key
	}
	parts := []string{n.Key}
	if n.Partition != nil {
		parts = append(parts, fmt.Sprintf("partition: %d", *n.Partition))
	}
	if n.Label != "" && n.Kind == pkgio.KindCluster {
		parts = append(parts, fmt.Sprintf("label: %s", n.Label))
	}
	parts = append(parts, fmt.Sprintf("depth: %d", n.Depth))
	return strings.Join(parts, "\n")
}

func fmtAttrs(n pkgio.Node, detailed bool) []string {
	switch n.Kind {
	case pkgio.KindRoot:
		return []string{"label=\"\"", "shape=point", "width=0.15", "fillcolor=black"}
	case pkgio.KindTerminal:
		return []string{fmt.Sprintf("label=%q", n.Key), "shape=plaintext", "style=\"\"", "fontsize=10"}
	default:
		return []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz svg tag with one whose viewBox
// starts at the origin and whose size matches it.
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

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
