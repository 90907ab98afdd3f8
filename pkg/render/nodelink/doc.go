// Package nodelink renders hierarchies as node-link diagrams.
//
// # Usage
//
// Convert an exported hierarchy to DOT, then render to SVG:
//
//	doc := pkgio.NewDocument(h)
//	dot := nodelink.ToDOT(doc, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Clusters are drawn as rounded boxes, terminals as plain text and a
// virtual root as a filled point. Edges between clusters are solid;
// cluster → terminal edges are thin and grey.
//
// # Options
//
//   - Detailed: cluster labels include partition, level and depth
//   - Weights: edges whose weight differs from 1 carry it as a label
//   - RankByDepth: nodes at the same depth share a rank
//   - HideTerminals: omit terminals, drawing only the cluster tree
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
