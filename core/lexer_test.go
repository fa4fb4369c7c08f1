package core

import (
	"strings"
	"testing"
)

func lexAll(t *testing.T, input string) []*Token {
	t.Helper()
	l := NewLexer(strings.NewReader(input))
	var toks []*Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("NextToken(%q): %v", input, err)
		}
		if tok.Type == TokenEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		value string
	}{
		{"123", TokenInteger, "123"},
		{"-17", TokenInteger, "-17"},
		{"3.14", TokenReal, "3.14"},
		{".5", TokenReal, ".5"},
		{"--3", TokenInteger, "-3"},
		{"(Hello)", TokenString, "Hello"},
		{"(a (nested) b)", TokenString, "a (nested) b"},
		{`(esc\n\(\)\\)`, TokenString, "esc\n()\\"},
		{`(\101\102)`, TokenString, "AB"},
		{"(line\\\ncont)", TokenString, "linecont"},
		{"<48656C6C6F>", TokenHexString, "Hello"},
		{"<4 8 6>", TokenHexString, "H`"},
		{"/Type", TokenName, "Type"},
		{"/A#20B", TokenName, "A B"},
		{"[", TokenArrayStart, "["},
		{"<<", TokenDictStart, "<<"},
		{">>", TokenDictEnd, ">>"},
		{"R", TokenIndirectRef, "R"},
		{"T*", TokenKeyword, "T*"},
		{"'", TokenKeyword, "'"},
		{`"`, TokenKeyword, `"`},
		{"d0", TokenKeyword, "d0"},
		{"% comment", TokenComment, "% comment"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := lexAll(t, tt.input)
			if len(toks) != 1 {
				t.Fatalf("got %d tokens, want 1", len(toks))
			}
			if toks[0].Type != tt.typ || string(toks[0].Value) != tt.value {
				t.Errorf("got (%v, %q), want (%v, %q)", toks[0].Type, toks[0].Value, tt.typ, tt.value)
			}
		})
	}
}

func TestLexerSequenceAndPositions(t *testing.T) {
	toks := lexAll(t, "1 0 obj<</A[1 2]>>endobj")
	want := []TokenType{
		TokenInteger, TokenInteger, TokenKeyword, TokenDictStart, TokenName,
		TokenArrayStart, TokenInteger, TokenInteger, TokenArrayEnd, TokenDictEnd, TokenKeyword,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, typ)
		}
	}
	if toks[3].Pos != 7 {
		t.Errorf("dict start at %d, want 7", toks[3].Pos)
	}
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{"(unterminated", "<4G>", ">x", ")"} {
		l := NewLexer(strings.NewReader(input))
		if _, err := l.NextToken(); err == nil {
			t.Errorf("NextToken(%q): expected error", input)
		}
	}
}

func TestSkipStreamEOL(t *testing.T) {
	for _, input := range []string{"\r\nDATA", "\nDATA", "\rDATA", "  \nDATA"} {
		l := NewLexer(strings.NewReader(input))
		if err := l.SkipStreamEOL(); err != nil {
			t.Fatalf("SkipStreamEOL(%q): %v", input, err)
		}
		data, err := l.ReadBytes(4)
		if err != nil || string(data) != "DATA" {
			t.Errorf("after SkipStreamEOL(%q) read %q, %v", input, data, err)
		}
	}
}

func TestReadUntil(t *testing.T) {
	l := NewLexer(strings.NewReader("abc endstream"))
	data, err := l.ReadUntil([]byte("endstream"))
	if err != nil || string(data) != "abc " {
		t.Fatalf("ReadUntil = %q, %v", data, err)
	}
	tok, _ := l.NextToken()
	if string(tok.Value) != "endstream" {
		t.Errorf("next token %q, want endstream", tok.Value)
	}
	if _, err := NewLexer(strings.NewReader("abc")).ReadUntil([]byte("zz")); err == nil {
		t.Error("expected error when delimiter is missing")
	}
}
