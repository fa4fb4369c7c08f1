package core

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// pdfDocHigh maps PDFDocEncoding bytes 0x80-0xA0 that differ from
// Latin-1. Zero entries are undefined.
var pdfDocHigh = [...]rune{
	0x2022, 0x2020, 0x2021, 0x2026, 0x2014, 0x2013, 0x0192, 0x2044,
	0x2039, 0x203A, 0x2212, 0x2030, 0x201E, 0x201C, 0x201D, 0x2018,
	0x2019, 0x201A, 0x2122, 0xFB01, 0xFB02, 0x0141, 0x0152, 0x0160,
	0x0178, 0x017D, 0x0131, 0x0142, 0x0153, 0x0161, 0x017E, 0,
	0x20AC,
}

// pdfDocLow maps PDFDocEncoding bytes 0x18-0x1F.
var pdfDocLow = [...]rune{0x02D8, 0x02C7, 0x02C6, 0x02D9, 0x02DD, 0x02DB, 0x02DA, 0x02DC}

// PDFDocRune returns the Unicode value of a PDFDocEncoding byte, or 0
// when the byte is undefined.
func PDFDocRune(b byte) rune {
	switch {
	case b >= 0x18 && b <= 0x1F:
		return pdfDocLow[b-0x18]
	case b >= 0x80 && b <= 0xA0:
		return pdfDocHigh[b-0x80]
	case b == 0x7F || b == 0xAD:
		return 0
	}
	return rune(b)
}

var utf16Decoder = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)

// DecodeTextString decodes a PDF text string. Strings starting with a
// UTF-16 byte order mark (either endianness) are UTF-16, strings with a
// UTF-8 BOM are UTF-8, and everything else is PDFDocEncoding.
func DecodeTextString(s []byte) string {
	switch {
	case len(s) >= 2 && (s[0] == 0xFE && s[1] == 0xFF || s[0] == 0xFF && s[1] == 0xFE):
		// A dangling odd byte is dropped.
		out, err := utf16Decoder.NewDecoder().Bytes(s[:len(s)&^1])
		if err != nil {
			return ""
		}
		return string(out)
	case bytes.HasPrefix(s, []byte{0xEF, 0xBB, 0xBF}):
		return strings.ToValidUTF8(string(s[3:]), "�")
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, b := range s {
		if r := PDFDocRune(b); r != 0 {
			sb.WriteRune(r)
		} else if b == 0x09 || b == 0x0A || b == 0x0D {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}
