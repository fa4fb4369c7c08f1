package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver resolves indirect references. The parser uses it
// for stream lengths stored as separate objects.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// ErrUnexpectedKeyword is returned by ParseObject when a bare keyword
// that is not an object (an operator, endobj, ...) is encountered.
var ErrUnexpectedKeyword = errors.New("unexpected keyword")

// Parser parses PDF objects from a token stream with one token of
// lookahead.
type Parser struct {
	lexer        *Lexer
	currentToken *Token
	peekToken    *Token
	resolver     ReferenceResolver
	err          error
}

// NewParser creates a parser for r.
func NewParser(r io.Reader) *Parser {
	return newParser(NewLexer(r))
}

// NewParserAt creates a parser for r whose token offsets start at base.
func NewParserAt(r io.Reader, base int64) *Parser {
	return newParser(NewLexerAt(r, base))
}

func newParser(l *Lexer) *Parser {
	p := &Parser{lexer: l}
	p.nextToken()
	p.nextToken()
	return p
}

// SetReferenceResolver sets the resolver used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// binaryFollows reports whether tok is a keyword after which raw bytes
// follow, so no lookahead token may be read.
func binaryFollows(tok *Token) bool {
	if tok == nil || tok.Type != TokenKeyword {
		return false
	}
	v := string(tok.Value)
	return v == "stream" || v == "ID"
}

func (p *Parser) nextToken() {
	p.currentToken = p.peekToken
	if binaryFollows(p.currentToken) {
		p.peekToken = nil
		return
	}
	if p.err != nil {
		p.peekToken = nil
		return
	}
	tok, err := p.lexer.NextToken()
	if err != nil {
		p.err = err
		p.peekToken = nil
		return
	}
	p.peekToken = tok
}

// reload discards lookahead after raw bytes were consumed directly from
// the lexer.
func (p *Parser) reload() {
	p.currentToken = nil
	p.peekToken = nil
	p.nextToken()
	p.nextToken()
}

func (p *Parser) skipComments() {
	for p.currentToken != nil && p.currentToken.Type == TokenComment {
		p.nextToken()
	}
}

func (p *Parser) current() (*Token, error) {
	p.skipComments()
	if p.currentToken == nil {
		if p.err != nil {
			return nil, p.err
		}
		return nil, io.ErrUnexpectedEOF
	}
	return p.currentToken, nil
}

// Offset returns the file offset of the current token.
func (p *Parser) Offset() int64 {
	if p.currentToken == nil {
		return p.lexer.Pos()
	}
	return p.currentToken.Pos
}

// ParseObject parses the next direct object or indirect reference.
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.current()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			p.nextToken()
			return Null{}, nil
		case "true":
			p.nextToken()
			return Bool(true), nil
		case "false":
			p.nextToken()
			return Bool(false), nil
		}
		return nil, fmt.Errorf("%w %q at offset %d", ErrUnexpectedKeyword, tok.Value, tok.Pos)

	case TokenInteger:
		return p.parseNumber()

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number %q: %w", tok.Value, err)
		}
		p.nextToken()
		return Real(val), nil

	case TokenString, TokenHexString:
		p.nextToken()
		return String(tok.Value), nil

	case TokenName:
		p.nextToken()
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()
	}
	return nil, fmt.Errorf("unexpected token %q at offset %d", tok.Value, tok.Pos)
}

// ParseOperand returns the next object, or the operator keyword when the
// next token is a bare keyword. Exactly one of the results is non-nil on
// success. Content stream parsers use this.
func (p *Parser) ParseOperand() (Object, *Token, error) {
	tok, err := p.current()
	if err != nil {
		return nil, nil, err
	}
	if tok.Type == TokenKeyword {
		switch string(tok.Value) {
		case "null", "true", "false":
		default:
			if binaryFollows(tok) {
				// Raw data follows; the caller reads it before parsing on.
				p.currentToken = nil
				return nil, tok, nil
			}
			p.nextToken()
			return nil, tok, nil
		}
	}
	if tok.Type == TokenIndirectRef {
		// A stray R is not meaningful in content; treat it as an operator.
		p.nextToken()
		return nil, tok, nil
	}
	obj, err := p.ParseObject()
	return obj, nil, err
}

// parseNumber parses an integer or an indirect reference "num gen R".
func (p *Parser) parseNumber() (Object, error) {
	first := p.currentToken
	n, err := strconv.ParseInt(string(first.Value), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(first.Value), 64)
		if ferr != nil {
			return nil, fmt.Errorf("invalid number %q", first.Value)
		}
		p.nextToken()
		return Real(f), nil
	}

	if p.peekToken != nil && p.peekToken.Type == TokenInteger {
		gen, err := strconv.ParseInt(string(p.peekToken.Value), 10, 64)
		if err == nil {
			p.nextToken()
			if p.peekToken != nil && p.peekToken.Type == TokenIndirectRef {
				p.nextToken()
				p.nextToken()
				return IndirectRef{Number: int(n), Generation: int(gen)}, nil
			}
			// Not a reference; the second integer is now current.
			return Int(n), nil
		}
	}
	p.nextToken()
	return Int(n), nil
}

func (p *Parser) parseArray() (Object, error) {
	p.nextToken()
	arr := Array{}
	for {
		tok, err := p.current()
		if err != nil {
			return nil, fmt.Errorf("unterminated array: %w", err)
		}
		switch tok.Type {
		case TokenArrayEnd:
			p.nextToken()
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in array")
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	p.nextToken()
	dict := make(Dict)
	for {
		tok, err := p.current()
		if err != nil {
			return nil, fmt.Errorf("unterminated dictionary: %w", err)
		}
		switch tok.Type {
		case TokenDictEnd:
			p.nextToken()
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("unexpected EOF in dictionary")
		case TokenName:
		default:
			return nil, fmt.Errorf("expected name for dictionary key at offset %d, got %q", tok.Pos, tok.Value)
		}
		key := string(tok.Value)
		p.nextToken()

		if next, err := p.current(); err == nil && next.Type == TokenDictEnd {
			// Key without a value; treat it as null.
			dict[key] = Null{}
			continue
		}
		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing value for key %q: %w", key, err)
		}
		// A null value is equivalent to an absent key.
		if _, isNull := value.(Null); isNull {
			continue
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", where the
// object may be a stream. A missing endobj is tolerated.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	num, err := p.expectInt("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.expectInt("generation number")
	if err != nil {
		return nil, err
	}
	tok, err := p.current()
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenKeyword || string(tok.Value) != "obj" {
		return nil, fmt.Errorf("expected 'obj' at offset %d, got %q", tok.Pos, tok.Value)
	}
	p.nextToken()

	obj, err := p.ParseObject()
	if err != nil {
		if errors.Is(err, ErrUnexpectedKeyword) && p.currentToken != nil && string(p.currentToken.Value) == "endobj" {
			obj = Null{}
		} else {
			return nil, fmt.Errorf("error parsing object %d %d: %w", num, gen, err)
		}
	}

	if tok := p.currentToken; tok != nil && tok.Type == TokenKeyword && string(tok.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream must follow a dictionary in object %d", num)
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("error parsing stream %d: %w", num, err)
		}
		obj = stream
	}

	if tok := p.currentToken; tok != nil && tok.Type == TokenKeyword && string(tok.Value) == "endobj" {
		p.nextToken()
	}

	return &IndirectObject{
		Ref:    IndirectRef{Number: num, Generation: gen},
		Object: obj,
	}, nil
}

func (p *Parser) expectInt(what string) (int, error) {
	tok, err := p.current()
	if err != nil {
		return 0, err
	}
	if tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected %s at offset %d, got %q", what, tok.Pos, tok.Value)
	}
	n, err := strconv.Atoi(string(tok.Value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", what, err)
	}
	p.nextToken()
	return n, nil
}

// parseStream reads stream data after the "stream" keyword. When /Length
// is missing or does not land on "endstream", the data is delimited by
// scanning for the keyword instead.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	length := -1
	switch v := dict.Get("Length").(type) {
	case Int:
		length = int(v)
	case IndirectRef:
		if p.resolver != nil {
			if resolved, err := p.resolver.ResolveReference(v); err == nil {
				if n, ok := resolved.(Int); ok {
					length = int(n)
				}
			}
		}
	}

	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, fmt.Errorf("failed to skip EOL after stream keyword: %w", err)
	}

	var data []byte
	if length >= 0 {
		if d, err := p.lexer.ReadBytes(length); err == nil && p.atEndstream() {
			data = d
		} else {
			// The declared length is wrong; recover what was consumed
			// and keep scanning for the keyword.
			rest, err := p.lexer.ReadUntil([]byte("endstream"))
			if err != nil {
				return nil, fmt.Errorf("missing endstream: %w", err)
			}
			data = trimStreamEOL(append(d, rest...))
		}
	} else {
		rest, err := p.lexer.ReadUntil([]byte("endstream"))
		if err != nil {
			return nil, fmt.Errorf("missing endstream: %w", err)
		}
		data = trimStreamEOL(rest)
	}

	tok, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read token after stream data: %w", err)
	}
	if tok.Type != TokenKeyword || string(tok.Value) != "endstream" {
		return nil, fmt.Errorf("expected 'endstream', got %q", tok.Value)
	}
	p.reload()

	return &Stream{Dict: dict, Data: data}, nil
}

// atEndstream reports whether only whitespace separates the read
// position from "endstream".
func (p *Parser) atEndstream() bool {
	buf, _ := p.lexer.PeekN(64)
	buf = bytes.TrimLeft(buf, "\x00\t\n\f\r ")
	return bytes.HasPrefix(buf, []byte("endstream"))
}

func trimStreamEOL(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
		if n := len(data); n > 0 && data[n-1] == '\r' {
			data = data[:n-1]
		}
	} else if n > 0 && data[n-1] == '\r' {
		data = data[:n-1]
	}
	return data
}

// ReadInlineImageData reads the raw bytes of an inline image following
// the ID operator, up to the whitespace-delimited EI operator.
func (p *Parser) ReadInlineImageData() ([]byte, error) {
	// A single whitespace byte separates ID from the data.
	if b, err := p.lexer.Peek(); err == nil && isWhitespace(b) {
		p.lexer.ReadByte()
	}
	var buf bytes.Buffer
	for {
		b, err := p.lexer.ReadByte()
		if err != nil {
			p.reload()
			return buf.Bytes(), fmt.Errorf("inline image without EI: %w", io.ErrUnexpectedEOF)
		}
		if isWhitespace(b) {
			next, _ := p.lexer.PeekN(3)
			if len(next) >= 2 && next[0] == 'E' && next[1] == 'I' &&
				(len(next) == 2 || isWhitespace(next[2]) || isDelimiter(next[2])) {
				p.lexer.ReadByte()
				p.lexer.ReadByte()
				p.reload()
				return buf.Bytes(), nil
			}
		}
		buf.WriteByte(b)
	}
}
