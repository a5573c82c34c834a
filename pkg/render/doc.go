// Package render turns laid-out frames into files.
//
// # Overview
//
// Rendering starts from a [scene.Scene]: positions, trimmed edge segments
// and symbolic attributes for one frame. The adapters in the subpackages
// map those attributes to concrete output:
//
//   - [svg]: standalone SVG drawn from the scene, arrowheads included
//   - [nodelink]: Graphviz DOT in the classic frame-dump color scheme,
//     with node positions pinned for neato
//
// This package holds what the adapters share: the output [Formats], the
// frame palette ([EdgeColor], [VertexColor]) and SVG conversion.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	out := svg.Render(sc)
//	pdf, err := render.ToPDF(out)
//	png, err := render.ToPNG(out, 2.0)  // 2x scale
//
// [scene.Scene]: github.com/matzehuels/flowscope/pkg/render/scene
// [svg]: github.com/matzehuels/flowscope/pkg/render/svg
// [nodelink]: github.com/matzehuels/flowscope/pkg/render/nodelink
package render
