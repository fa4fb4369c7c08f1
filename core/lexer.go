package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // true, false, null, obj, stream, operators such as T* or '
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>, Value holds the decoded bytes
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // R
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64 // offset of the first byte of the token
}

// Lexer splits PDF bytes into tokens. It is used both for the file
// structure and for content streams.
type Lexer struct {
	reader *bufio.Reader
	pos    int64
}

// NewLexer creates a lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{reader: bufio.NewReader(r)}
}

// NewLexerAt creates a lexer whose token positions start at base.
func NewLexerAt(r io.Reader, base int64) *Lexer {
	return &Lexer{reader: bufio.NewReader(r), pos: base}
}

// Pos returns the offset of the next unread byte.
func (l *Lexer) Pos() int64 {
	return l.pos
}

// NextToken returns the next token, skipping whitespace. Comments are
// returned as tokens so callers can decide whether they matter.
func (l *Lexer) NextToken() (*Token, error) {
	if err := l.skipWhitespace(); err != nil && err != io.EOF {
		return nil, err
	}

	b, err := l.peek()
	if err == io.EOF {
		return &Token{Type: TokenEOF, Pos: l.pos}, nil
	}
	if err != nil {
		return nil, err
	}

	start := l.pos
	switch b {
	case '%':
		return l.readComment()
	case '[':
		l.readByte()
		return &Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: start}, nil
	case ']':
		l.readByte()
		return &Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: start}, nil
	case '(':
		return l.readString()
	case '<':
		if next, err := l.reader.Peek(2); err == nil && next[1] == '<' {
			l.readByte()
			l.readByte()
			return &Token{Type: TokenDictStart, Value: []byte("<<"), Pos: start}, nil
		}
		return l.readHexString()
	case '>':
		if next, err := l.reader.Peek(2); err == nil && next[1] == '>' {
			l.readByte()
			l.readByte()
			return &Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: start}, nil
		}
		l.readByte()
		return nil, fmt.Errorf("unexpected '>' at offset %d", start)
	case '/':
		return l.readName()
	case ')', '{', '}':
		l.readByte()
		return nil, fmt.Errorf("unexpected %q at offset %d", b, start)
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber()
	}
	return l.readKeyword()
}

func (l *Lexer) readByte() (byte, error) {
	b, err := l.reader.ReadByte()
	if err != nil {
		return 0, err
	}
	l.pos++
	return b, nil
}

func (l *Lexer) peek() (byte, error) {
	b, err := l.reader.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// skipWhitespace skips PDF whitespace: NUL, HT, LF, FF, CR and space.
func (l *Lexer) skipWhitespace() error {
	for {
		b, err := l.peek()
		if err != nil {
			return err
		}
		if !isWhitespace(b) {
			return nil
		}
		l.readByte()
	}
}

func (l *Lexer) readComment() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if b == '\r' || b == '\n' {
			break
		}
		l.readByte()
		buf.WriteByte(b)
	}
	return &Token{Type: TokenComment, Value: buf.Bytes(), Pos: start}, nil
}

// readString reads a literal string with balanced parentheses and
// escape sequences.
func (l *Lexer) readString() (*Token, error) {
	start := l.pos
	l.readByte() // (
	var buf bytes.Buffer

	depth := 1
	for {
		b, err := l.readByte()
		if err != nil {
			return nil, fmt.Errorf("unterminated string at offset %d: %w", start, err)
		}
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return &Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
			}
			buf.WriteByte(b)
		case '\\':
			next, err := l.readByte()
			if err != nil {
				return nil, fmt.Errorf("unterminated string at offset %d: %w", start, err)
			}
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				if p, err := l.peek(); err == nil && p == '\n' {
					l.readByte()
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := next - '0'
				for i := 0; i < 2; i++ {
					p, err := l.peek()
					if err != nil || !isOctalDigit(p) {
						break
					}
					l.readByte()
					val = val*8 + (p - '0')
				}
				buf.WriteByte(val)
			default:
				buf.WriteByte(next)
			}
		case '\r':
			// An unescaped end-of-line in a string is read as LF.
			if p, err := l.peek(); err == nil && p == '\n' {
				l.readByte()
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
}

// readHexString reads <...> and returns the decoded bytes. An odd
// final digit is treated as if followed by 0.
func (l *Lexer) readHexString() (*Token, error) {
	start := l.pos
	l.readByte() // <
	var buf bytes.Buffer

	var hi byte
	half := false
	for {
		b, err := l.readByte()
		if err != nil {
			return nil, fmt.Errorf("unterminated hex string at offset %d: %w", start, err)
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			return nil, fmt.Errorf("invalid hex digit %q at offset %d", b, l.pos-1)
		}
		if half {
			buf.WriteByte(hi<<4 | hexValue(b))
		} else {
			hi = hexValue(b)
		}
		half = !half
	}
	if half {
		buf.WriteByte(hi << 4)
	}
	return &Token{Type: TokenHexString, Value: buf.Bytes(), Pos: start}, nil
}

func (l *Lexer) readName() (*Token, error) {
	start := l.pos
	l.readByte() // /
	var buf bytes.Buffer

	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.readByte()
		if b == '#' {
			if hx, err := l.reader.Peek(2); err == nil && isHexDigit(hx[0]) && isHexDigit(hx[1]) {
				l.readByte()
				l.readByte()
				buf.WriteByte(hexValue(hx[0])<<4 | hexValue(hx[1]))
				continue
			}
		}
		buf.WriteByte(b)
	}
	return &Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

// readNumber reads an integer or a real. Malformed numbers such as
// "--5" or "1.2.3" are read leniently up to the first invalid byte.
func (l *Lexer) readNumber() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer
	hasDecimal := false

	for {
		b, err := l.peek()
		if err != nil {
			break
		}
		switch {
		case b == '.' && !hasDecimal:
			hasDecimal = true
		case isDigit(b):
		case (b == '-' || b == '+') && buf.Len() == 0:
		case b == '-' && bytes.Equal(buf.Bytes(), []byte("-")):
			// Some writers emit "--"; skip the duplicate sign.
			l.readByte()
			continue
		default:
			goto done
		}
		l.readByte()
		buf.WriteByte(b)
	}
done:
	value := buf.Bytes()
	if len(value) == 1 && (value[0] == '-' || value[0] == '+' || value[0] == '.') {
		value = []byte("0")
		hasDecimal = false
	}
	tokenType := TokenInteger
	if hasDecimal {
		tokenType = TokenReal
	}
	return &Token{Type: tokenType, Value: value, Pos: start}, nil
}

// readKeyword reads a run of regular characters. Content stream
// operators such as T*, d0 and the quote operators are keywords too.
func (l *Lexer) readKeyword() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer
	for {
		b, err := l.peek()
		if err != nil {
			break
		}
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.readByte()
		buf.WriteByte(b)
	}
	value := buf.Bytes()
	if len(value) == 1 && value[0] == 'R' {
		return &Token{Type: TokenIndirectRef, Value: value, Pos: start}, nil
	}
	return &Token{Type: TokenKeyword, Value: value, Pos: start}, nil
}

// SkipStreamEOL consumes the end-of-line marker that follows the
// "stream" keyword: CRLF or LF, and a lone CR from sloppy writers.
func (l *Lexer) SkipStreamEOL() error {
	for {
		b, err := l.peek()
		if err != nil {
			return err
		}
		if b != ' ' && b != '\t' {
			break
		}
		l.readByte()
	}
	b, err := l.peek()
	if err != nil {
		return err
	}
	switch b {
	case '\n':
		l.readByte()
	case '\r':
		l.readByte()
		if p, err := l.peek(); err == nil && p == '\n' {
			l.readByte()
		}
	}
	return nil
}

// ReadBytes reads exactly n bytes of binary data.
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	data := make([]byte, n)
	read, err := io.ReadFull(l.reader, data)
	l.pos += int64(read)
	if err != nil {
		return data[:read], fmt.Errorf("unexpected EOF: expected %d bytes, got %d", n, read)
	}
	return data, nil
}

// ReadUntil reads raw bytes up to, but not including, the first
// occurrence of delim. The delimiter itself is left unread. It returns
// io.ErrUnexpectedEOF if delim never occurs.
func (l *Lexer) ReadUntil(delim []byte) ([]byte, error) {
	var buf bytes.Buffer
	for {
		if p, err := l.reader.Peek(len(delim)); err == nil && bytes.Equal(p, delim) {
			return buf.Bytes(), nil
		}
		b, err := l.readByte()
		if err != nil {
			return buf.Bytes(), io.ErrUnexpectedEOF
		}
		buf.WriteByte(b)
	}
}

// Peek returns the next byte without consuming it.
func (l *Lexer) Peek() (byte, error) {
	return l.peek()
}

// PeekN returns the next n bytes without consuming them.
func (l *Lexer) PeekN(n int) ([]byte, error) {
	return l.reader.Peek(n)
}

// ReadByte reads and returns a single byte.
func (l *Lexer) ReadByte() (byte, error) {
	return l.readByte()
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

// IsWhitespace reports whether b is PDF whitespace.
func IsWhitespace(b byte) bool {
	return isWhitespace(b)
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

// IsDelimiter reports whether b is a PDF delimiter character.
func IsDelimiter(b byte) bool {
	return isDelimiter(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
