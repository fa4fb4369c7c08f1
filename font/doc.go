// Package font loads PDF fonts and maps character codes to widths,
// Unicode text and glyph outlines.
//
// # Font Kinds
//
// [Load] accepts any font dictionary:
//
//   - Type1 and MMType1, including the standard 14 fonts
//   - TrueType
//   - Type3, whose glyphs are content streams ([Font.CharProc])
//   - Type0 composite fonts with CIDFontType0 or CIDFontType2 descendants
//
// # Decoding
//
// [Font.Decode] splits a string operand into [Char] values. Simple fonts
// read one byte per code; composite fonts use the codespace ranges of
// their encoding CMap. Each Char carries its displacement in text space
// and its Unicode text, taken from ToUnicode, then the encoding, then the
// font program's own character map.
//
//	f, err := font.Load(fontRef, doc)
//	for _, ch := range f.Decode(raw) {
//		fmt.Println(ch.Text, ch.Width)
//	}
//
// # Glyph Programs
//
// Embedded TrueType and OpenType programs are parsed with
// golang.org/x/image/font/sfnt. Fonts without a usable program are drawn
// with one of the Go font faces picked from the base font name and
// descriptor flags. The faces are parsed on first use or by
// [InitFallbacks], and dropped by [ReleaseFallbacks].
//
// # Caching
//
// [Cache] loads each indirect font object once and is safe for
// concurrent use.
package font
