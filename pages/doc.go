// Package pages provides page tree traversal, page geometry and the
// page-level object model: annotations, links, destinations and the
// document outline.
//
// # Page Tree
//
// The page tree is flattened once, on first use:
//
//	tree := pages.NewTree(catalog, doc)
//	n, _ := tree.Count()
//	page, err := tree.Page(0) // 0-indexed
//
// Inheritable attributes (Resources, MediaBox, CropBox, Rotate) are
// looked up along the full /Parent chain. A kid that cannot be loaded
// only breaks its own index.
//
// # Page Geometry
//
// MediaBox defaults to US Letter. CropBox defaults to MediaBox and is
// clipped to it. Width and Height are swapped for 90 and 270 degree
// rotation. A page whose box has zero area fails with [ErrZeroArea].
//
// # Navigation
//
//   - [Page.Links] - link annotations with URI or internal destination
//   - [Tree.ResolveDest] - explicit and named destinations
//   - [Tree.FirstChild], [Tree.NextSibling], [Tree.Outline] - bookmarks
package pages
