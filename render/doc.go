// Package render rasterizes PDF pages into caller-owned pixel buffers.
//
// Render interprets a page's content stream with a
// graphicsstate.Processor and a raster device built on
// golang.org/x/image/vector (paths, strokes, glyphs, clip masks) and
// golang.org/x/image/draw (images). Output is BGRA, RGBA with
// ReverseByteOrder, or RGB565.
//
// Example usage:
//
//	s, _ := render.NewSurface(w, h, render.FormatBGRA)
//	err := render.Render(page, s, 0, 0, w, h, render.DefaultOptions())
//
// Renders of the same page into distinct surfaces may run concurrently.
package render
