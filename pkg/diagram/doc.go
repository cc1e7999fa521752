// Package diagram draws a solved plan as a node-link diagram.
//
// Notes are ellipses on the left, slots are boxes grouped by page on the
// right, and each consumed slot has an edge from its note labelled with the
// part placed there:
//
//	dot := diagram.ToDOT(inv, res, diagram.Options{Detailed: true})
//	svg, err := diagram.RenderSVG(ctx, dot)
//
// Rendering uses Graphviz compiled to WebAssembly, so no system install is
// needed.
package diagram
