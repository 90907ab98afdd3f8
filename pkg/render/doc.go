// Package render turns woven hierarchies into pictures.
//
// The [nodelink] subpackage draws a hierarchy as a Graphviz node-link
// diagram and renders it to SVG in-process. [ToPDF] and [ToPNG] convert any
// SVG further using the external rsvg-convert tool (from librsvg):
//
//	dot := nodelink.ToDOT(doc, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/hiweave/pkg/render/nodelink
package render
