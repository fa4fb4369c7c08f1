// Package model holds the geometric primitives shared by the page model,
// the renderer and the text layer.
//
// All coordinates are PDF user-space points with the y axis pointing up,
// unless a function says it works in device pixels.
//
//   - [Rect] - axis-aligned rectangle with intersection and union
//   - [Point] - 2D point with distance calculation
//   - [Matrix] - 2D affine transformation in PDF [a b c d e f] order
package model
