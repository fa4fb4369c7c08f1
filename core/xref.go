package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// XRefEntryType identifies the kind of a cross-reference entry.
type XRefEntryType int

const (
	XRefEntryFree         XRefEntryType = iota // type 0, or "f" in a table
	XRefEntryUncompressed                      // type 1, or "n" in a table
	XRefEntryCompressed                        // type 2, object inside an object stream
)

// XRefEntry is a single cross-reference entry.
type XRefEntry struct {
	Type       XRefEntryType
	Offset     int64 // byte offset of an uncompressed object
	Generation int
	StreamNum  int // object stream number of a compressed object
	Index      int // index within the object stream
}

// InUse reports whether the entry describes a live object.
func (e *XRefEntry) InUse() bool {
	return e.Type != XRefEntryFree
}

// XRefTable maps object numbers to their locations.
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer Dict
}

// NewXRefTable creates an empty table.
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or updates an XRef entry
func (x *XRefTable) Set(objNum int, entry *XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// merge adds entries from older that x does not define yet. Trailer
// keys missing from x are copied too.
func (x *XRefTable) merge(older *XRefTable) {
	for num, e := range older.Entries {
		if _, ok := x.Entries[num]; !ok {
			x.Entries[num] = e
		}
	}
	for k, v := range older.Trailer {
		if _, ok := x.Trailer[k]; !ok {
			x.Trailer[k] = v
		}
	}
}

// ErrNoStartXRef is returned when no startxref keyword is found near
// the end of the file.
var ErrNoStartXRef = errors.New("startxref not found")

// XRefParser reads cross-reference sections through positioned reads.
type XRefParser struct {
	r    io.ReaderAt
	size int64
}

// NewXRefParser creates a parser over r, which holds size bytes.
func NewXRefParser(r io.ReaderAt, size int64) *XRefParser {
	return &XRefParser{r: r, size: size}
}

func (x *XRefParser) section(offset int64) *io.SectionReader {
	return io.NewSectionReader(x.r, offset, x.size-offset)
}

// FindXRef returns the offset named by the last startxref keyword in the
// final 1024 bytes.
func (x *XRefParser) FindXRef() (int64, error) {
	n := int64(1024)
	if x.size < n {
		n = x.size
	}
	buf := make([]byte, n)
	read, err := x.r.ReadAt(buf, x.size-n)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("failed to read startxref area: %w", err)
	}
	buf = buf[:read]

	idx := bytes.LastIndex(buf, []byte("startxref"))
	if idx == -1 {
		return 0, ErrNoStartXRef
	}
	fields := bytes.Fields(buf[idx+len("startxref"):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("invalid startxref format")
	}
	offset, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid xref offset: %w", err)
	}
	if offset < 0 || offset >= x.size {
		return 0, fmt.Errorf("xref offset %d outside file of %d bytes", offset, x.size)
	}
	return offset, nil
}

// ParseXRef parses the section at offset, which is either a classic
// table or an xref stream. For a hybrid file the /XRefStm stream named
// by the table's trailer is folded in.
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	if offset < 0 || offset >= x.size {
		return nil, fmt.Errorf("xref offset %d outside file", offset)
	}
	l := NewLexerAt(x.section(offset), offset)
	tok, err := l.NextToken()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenKeyword && string(tok.Value) == "xref" {
		table, err := x.parseTable(l)
		if err != nil {
			return nil, err
		}
		if stm, ok := table.Trailer.GetInt("XRefStm"); ok {
			streamTable, err := x.parseXRefStream(int64(stm))
			if err == nil {
				for num, e := range streamTable.Entries {
					if cur, ok := table.Entries[num]; !ok || !cur.InUse() {
						table.Entries[num] = e
					}
				}
			}
		}
		return table, nil
	}
	return x.parseXRefStream(offset)
}

// parseTable reads subsections after the "xref" keyword and the trailer
// dictionary that follows them.
func (x *XRefParser) parseTable(l *Lexer) (*XRefTable, error) {
	table := NewXRefTable()
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Type == TokenKeyword && string(tok.Value) == "trailer":
			obj, err := newParser(l).ParseObject()
			if err != nil {
				return nil, fmt.Errorf("failed to parse trailer: %w", err)
			}
			dict, ok := obj.(Dict)
			if !ok {
				return nil, fmt.Errorf("trailer is not a dictionary, got %T", obj)
			}
			table.Trailer = dict
			return table, nil
		case tok.Type == TokenInteger:
			first, _ := strconv.Atoi(string(tok.Value))
			countTok, err := l.NextToken()
			if err != nil || countTok.Type != TokenInteger {
				return nil, fmt.Errorf("invalid subsection header at offset %d", tok.Pos)
			}
			count, _ := strconv.Atoi(string(countTok.Value))
			for i := 0; i < count; i++ {
				entry, err := parseTableEntry(l)
				if err != nil {
					return nil, fmt.Errorf("entry %d of subsection %d: %w", i, first, err)
				}
				num := first + i
				if _, dup := table.Entries[num]; !dup {
					table.Entries[num] = entry
				}
			}
		case tok.Type == TokenEOF:
			return nil, fmt.Errorf("xref table missing trailer")
		default:
			return nil, fmt.Errorf("unexpected %q in xref table at offset %d", tok.Value, tok.Pos)
		}
	}
}

// parseTableEntry reads "offset generation n|f".
func parseTableEntry(l *Lexer) (*XRefEntry, error) {
	offTok, err := l.NextToken()
	if err != nil || offTok.Type != TokenInteger {
		return nil, fmt.Errorf("invalid offset field")
	}
	genTok, err := l.NextToken()
	if err != nil || genTok.Type != TokenInteger {
		return nil, fmt.Errorf("invalid generation field")
	}
	flagTok, err := l.NextToken()
	if err != nil || flagTok.Type != TokenKeyword {
		return nil, fmt.Errorf("invalid in-use flag")
	}
	offset, _ := strconv.ParseInt(string(offTok.Value), 10, 64)
	gen, _ := strconv.Atoi(string(genTok.Value))

	switch string(flagTok.Value) {
	case "n":
		return &XRefEntry{Type: XRefEntryUncompressed, Offset: offset, Generation: gen}, nil
	case "f":
		return &XRefEntry{Type: XRefEntryFree, Generation: gen}, nil
	}
	return nil, fmt.Errorf("invalid in-use flag %q", flagTok.Value)
}

// parseXRefStream parses an xref stream object at offset.
func (x *XRefParser) parseXRefStream(offset int64) (*XRefTable, error) {
	p := NewParserAt(x.section(offset), offset)
	obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref stream: %w", err)
	}
	stream, ok := obj.Object.(*Stream)
	if !ok {
		return nil, fmt.Errorf("object at offset %d is not an xref stream", offset)
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "XRef" {
		return nil, fmt.Errorf("stream at offset %d has type %q, expected XRef", offset, typ)
	}
	return DecodeXRefStream(stream)
}

// DecodeXRefStream builds a table from an xref stream's /W, /Index and
// decoded data. The stream dictionary becomes the trailer.
func DecodeXRefStream(stream *Stream) (*XRefTable, error) {
	wArr, ok := stream.Dict.GetArray("W")
	if !ok || len(wArr) < 3 {
		return nil, fmt.Errorf("xref stream missing /W")
	}
	w := make([]int, 3)
	rowLen := 0
	for i := 0; i < 3; i++ {
		n, ok := wArr.GetInt(i)
		if !ok || n < 0 || n > 8 {
			return nil, fmt.Errorf("invalid /W entry %v", wArr.Get(i))
		}
		w[i] = int(n)
		rowLen += int(n)
	}
	if rowLen == 0 {
		return nil, fmt.Errorf("xref stream /W is all zero")
	}

	size, _ := stream.Dict.GetInt("Size")
	index := []int{0, int(size)}
	if idx, ok := stream.Dict.GetArray("Index"); ok {
		index = index[:0]
		for i := range idx {
			n, _ := idx.GetInt(i)
			index = append(index, int(n))
		}
		if len(index)%2 != 0 {
			return nil, fmt.Errorf("xref stream /Index has odd length")
		}
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode xref stream: %w", err)
	}

	table := NewXRefTable()
	table.Trailer = stream.Dict
	pos := 0
	for i := 0; i < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowLen > len(data) {
				return table, nil
			}
			entry := parseXRefStreamEntry(data[pos:pos+rowLen], w)
			pos += rowLen
			if _, dup := table.Entries[first+j]; !dup {
				table.Entries[first+j] = entry
			}
		}
	}
	return table, nil
}

// parseXRefStreamEntry decodes one row. A zero-width type field means
// type 1.
func parseXRefStreamEntry(row []byte, w []int) *XRefEntry {
	typ := int64(1)
	if w[0] > 0 {
		typ = readBigEndianInt(row[:w[0]])
	}
	f2 := readBigEndianInt(row[w[0] : w[0]+w[1]])
	f3 := readBigEndianInt(row[w[0]+w[1] : w[0]+w[1]+w[2]])

	switch typ {
	case 0:
		return &XRefEntry{Type: XRefEntryFree, Generation: int(f3)}
	case 2:
		return &XRefEntry{Type: XRefEntryCompressed, StreamNum: int(f2), Index: int(f3)}
	case 1:
		return &XRefEntry{Type: XRefEntryUncompressed, Offset: f2, Generation: int(f3)}
	}
	// Unknown types are treated as null references.
	return &XRefEntry{Type: XRefEntryFree}
}

func readBigEndianInt(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// ParseAll reads the section named by startxref and follows /Prev links
// back to the oldest section, merging them so newer entries win. Loops
// in the /Prev chain are cut.
func (x *XRefParser) ParseAll() (*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}

	var merged *XRefTable
	seen := make(map[int64]bool)
	for {
		if seen[offset] {
			break
		}
		seen[offset] = true

		table, err := x.ParseXRef(offset)
		if err != nil {
			if merged == nil {
				return nil, err
			}
			// A broken older section still leaves a usable document.
			break
		}
		if merged == nil {
			merged = table
			merged.Trailer = copyDict(table.Trailer)
		} else {
			merged.merge(table)
		}

		prev, ok := table.Trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}
	merged.Trailer.Delete("Prev")
	return merged, nil
}

func copyDict(d Dict) Dict {
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

var objHeaderRe = regexp.MustCompile(`(?m)(?:^|[\r\n\s])(\d{1,10})\s+(\d{1,5})\s+obj\b`)

// RebuildXRef reconstructs a table by scanning data for "N G obj"
// headers. Later definitions of an object win. Trailer dictionaries
// found along the way are merged with later ones taking precedence.
func RebuildXRef(data []byte) *XRefTable {
	table := NewXRefTable()
	for _, m := range objHeaderRe.FindAllSubmatchIndex(data, -1) {
		num, err := strconv.Atoi(string(data[m[2]:m[3]]))
		if err != nil {
			continue
		}
		gen, _ := strconv.Atoi(string(data[m[4]:m[5]]))
		table.Entries[num] = &XRefEntry{
			Type:       XRefEntryUncompressed,
			Offset:     int64(m[2]),
			Generation: gen,
		}
	}

	trailers := make([]Dict, 0, 2)
	for off := 0; ; {
		idx := bytes.Index(data[off:], []byte("trailer"))
		if idx < 0 {
			break
		}
		start := off + idx + len("trailer")
		if obj, err := NewParser(bytes.NewReader(data[start:])).ParseObject(); err == nil {
			if d, ok := obj.(Dict); ok {
				trailers = append(trailers, d)
			}
		}
		off = start
	}
	for _, t := range trailers {
		for k, v := range t {
			table.Trailer[k] = v
		}
	}
	table.Trailer.Delete("Prev")
	return table
}
