// Package graphicsstate interprets PDF content streams.
//
// A Processor walks the operations produced by the contentstream
// package, keeping the graphics state (CTM, clipping path, colors, line
// and text parameters) and handing every painting operation to a
// Device. The renderer and the text extractor are both devices; they
// see the same paths, glyphs and images in the same order.
//
// # Graphics State
//
// GraphicsState tracks:
//   - CTM (Current Transformation Matrix)
//   - the clipping path, as an immutable chain of device-space paths
//   - line properties (width, cap, join, miter limit, dash)
//   - stroke and fill color spaces, colors and constant alpha
//   - text state (font, size, spacing, scaling, leading, rise, matrices)
//
// Example usage:
//
//	gs := graphicsstate.NewGraphicsState()
//	gs.Save()                  // q
//	gs.Transform(matrix)       // cm
//	gs.SetFont("F1", f, 12)    // Tf
//	err := gs.Restore()        // Q
//
// # Content Streams
//
//	p := graphicsstate.NewProcessor(dev, resolver, graphicsstate.Options{CTM: pageToDevice})
//	err := p.Run(ops, page.Resources())
//
// Form XObjects and Type 3 glyph procedures run as nested streams with
// their own resources. Nesting is limited by Options.MaxFormDepth and a
// form that draws itself is skipped.
package graphicsstate
