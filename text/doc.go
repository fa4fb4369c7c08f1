// Package text builds the character layer of a PDF page and searches it.
//
// [Load] runs a page's content through a graphicsstate.Processor with an
// [Extractor] as the device. Every shown glyph becomes one or more
// [Char] values with a box in page space, y up:
//
//	tp, err := text.Load(page, text.DefaultOptions())
//	runes, err := tp.Text(0, tp.CharCount())
//
// Multi-rune glyphs such as ligatures split their box evenly. Runes are
// normalized to NFC.
//
// # Generated Characters
//
// The extractor inserts characters that are not in the content stream:
//
//   - a space when the gap to the previous glyph on the line exceeds
//     SpaceThreshold ems and neither side is already a space
//   - "\r\n" when the baseline moves by more than LineThreshold font sizes
//
// Generated characters have Generated set and zero-width boxes.
//
// # Queries
//
// [TextPage] answers index, box and hit-test queries, merges character
// runs into line rectangles with [TextPage.Rects], and collects the text
// inside a rectangle with [TextPage.BoundedText].
//
// # Search
//
// [NewSearch] returns a [Search] that steps forward and backward through
// the matches of a term. Case-insensitive matching uses full case
// folding, so "ß" matches "SS".
package text
