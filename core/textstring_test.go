package core

import "testing"

func TestDecodeTextString(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"ascii", []byte("Hello"), "Hello"},
		{"latin1", []byte{'c', 0xE9}, "cé"},
		{"pdfdoc bullet and euro", []byte{0x80, ' ', 0xA0}, "• €"},
		{"pdfdoc breve", []byte{0x18}, "˘"},
		{"utf16be", []byte{0xFE, 0xFF, 0x00, 'H', 0x00, 'i', 0x4E, 0x16}, "Hi世"},
		{"utf16le", []byte{0xFF, 0xFE, 'H', 0x00, 'i', 0x00}, "Hi"},
		{"utf8 bom", []byte{0xEF, 0xBB, 0xBF, 0xC3, 0xA9}, "é"},
		{"utf16be odd length", []byte{0xFE, 0xFF, 0x00, 'O', 0x00, 'k', 0x00}, "Ok"},
		{"utf16le odd length", []byte{0xFF, 0xFE, 'O', 0x00, 'k'}, "O"},
		{"empty", nil, ""},
		{"bom only", []byte{0xFE, 0xFF}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeTextString(tt.input); got != tt.want {
				t.Errorf("DecodeTextString(% x) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPDFDocRune(t *testing.T) {
	if PDFDocRune('A') != 'A' || PDFDocRune(0x92) != 0x2122 || PDFDocRune(0x9F) != 0 {
		t.Error("PDFDocRune mapping mismatch")
	}
}
