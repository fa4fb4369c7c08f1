package font

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/tsawler/folio/core"
)

// CMap maps character codes to CIDs (encoding CMaps) or to Unicode
// (ToUnicode CMaps). Codes are compared by value; the codespace ranges
// decide how many bytes make up one code.
type CMap struct {
	Name  string
	WMode int

	codespace []codespaceRange
	identity  bool

	cidChars  map[uint32]int
	cidRanges []cidRange

	bfChars  map[uint32]string
	bfRanges []bfRange

	parent *CMap
}

type codespaceRange struct {
	low, high []byte
}

type cidRange struct {
	low, high uint32
	cid       int
}

type bfRange struct {
	low, high uint32
	dst       []byte   // UTF-16BE of the first code
	array     []string // per-code strings for the array form
}

func newCMap() *CMap {
	return &CMap{
		cidChars: make(map[uint32]int),
		bfChars:  make(map[uint32]string),
	}
}

// PredefinedCMap returns one of the predefined CMaps this package
// knows: Identity-H and Identity-V.
func PredefinedCMap(name string) (*CMap, bool) {
	switch name {
	case "Identity-H", "Identity-V":
		c := newCMap()
		c.Name = name
		c.identity = true
		c.codespace = []codespaceRange{{low: []byte{0, 0}, high: []byte{0xFF, 0xFF}}}
		if name == "Identity-V" {
			c.WMode = 1
		}
		return c, true
	}
	return nil, false
}

// ParseCMap parses an embedded CMap program. A syntax error stops
// parsing; the mappings read up to that point are kept and returned
// together with the error.
func ParseCMap(data []byte) (*CMap, error) {
	// PostScript procedures are not valid PDF tokens.
	data = bytes.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return ' '
		}
		return r
	}, data)

	c := newCMap()
	p := core.NewParser(bytes.NewReader(data))
	var stack []core.Object
	for {
		obj, tok, err := p.ParseOperand()
		if err != nil {
			if err == io.EOF {
				return c, nil
			}
			return c, fmt.Errorf("cmap: %w", err)
		}
		if tok == nil {
			stack = append(stack, obj)
			continue
		}
		switch string(tok.Value) {
		case "endcodespacerange":
			for i := 0; i+1 < len(stack); i += 2 {
				lo, ok1 := stack[i].(core.String)
				hi, ok2 := stack[i+1].(core.String)
				if ok1 && ok2 && len(lo) == len(hi) && len(lo) > 0 && len(lo) <= 4 {
					c.codespace = append(c.codespace, codespaceRange{low: []byte(lo), high: []byte(hi)})
				}
			}
		case "endcidchar":
			for i := 0; i+1 < len(stack); i += 2 {
				code, ok1 := stack[i].(core.String)
				cid, ok2 := stack[i+1].(core.Int)
				if ok1 && ok2 {
					c.cidChars[codeValue([]byte(code))] = int(cid)
				}
			}
		case "endcidrange":
			for i := 0; i+2 < len(stack); i += 3 {
				lo, ok1 := stack[i].(core.String)
				hi, ok2 := stack[i+1].(core.String)
				cid, ok3 := stack[i+2].(core.Int)
				if ok1 && ok2 && ok3 {
					c.cidRanges = append(c.cidRanges, cidRange{
						low: codeValue([]byte(lo)), high: codeValue([]byte(hi)), cid: int(cid),
					})
				}
			}
		case "endbfchar":
			for i := 0; i+1 < len(stack); i += 2 {
				code, ok := stack[i].(core.String)
				if !ok {
					continue
				}
				switch dst := stack[i+1].(type) {
				case core.String:
					c.bfChars[codeValue([]byte(code))] = decodeUTF16([]byte(dst))
				case core.Name:
					if r, ok := glyphRune(string(dst)); ok {
						c.bfChars[codeValue([]byte(code))] = string(r)
					}
				}
			}
		case "endbfrange":
			for i := 0; i+2 < len(stack); i += 3 {
				lo, ok1 := stack[i].(core.String)
				hi, ok2 := stack[i+1].(core.String)
				if !ok1 || !ok2 {
					continue
				}
				r := bfRange{low: codeValue([]byte(lo)), high: codeValue([]byte(hi))}
				switch dst := stack[i+2].(type) {
				case core.String:
					r.dst = []byte(dst)
				case core.Array:
					for _, elem := range dst {
						s, _ := elem.(core.String)
						r.array = append(r.array, decodeUTF16([]byte(s)))
					}
				default:
					continue
				}
				if r.high >= r.low {
					c.bfRanges = append(c.bfRanges, r)
				}
			}
		case "usecmap":
			if len(stack) > 0 {
				if name, ok := stack[len(stack)-1].(core.Name); ok {
					c.parent, _ = PredefinedCMap(string(name))
				}
			}
		case "def":
			if len(stack) >= 2 {
				key, _ := stack[len(stack)-2].(core.Name)
				switch key {
				case "CMapName":
					if name, ok := stack[len(stack)-1].(core.Name); ok {
						c.Name = string(name)
					}
				case "WMode":
					if n, ok := stack[len(stack)-1].(core.Int); ok {
						c.WMode = int(n)
					}
				}
			}
		}
		stack = stack[:0]
	}
}

func codeValue(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

func decodeUTF16(b []byte) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}

// NextCode reads one character code from the front of data and returns
// its value and byte length. The length is the first codespace range
// that matches; when none does, the shortest range length is used.
// CMaps without codespace ranges read one byte.
func (c *CMap) NextCode(data []byte) (uint32, int) {
	if len(data) == 0 {
		return 0, 0
	}
	space := c.codespace
	if len(space) == 0 && c.parent != nil {
		space = c.parent.codespace
	}
	if len(space) == 0 {
		return uint32(data[0]), 1
	}
	for n := 1; n <= 4 && n <= len(data); n++ {
		for _, r := range space {
			if len(r.low) == n && inRange(data[:n], r) {
				return codeValue(data[:n]), n
			}
		}
	}
	shortest := 4
	for _, r := range space {
		shortest = min(shortest, len(r.low))
	}
	n := min(shortest, len(data))
	return codeValue(data[:n]), n
}

func inRange(code []byte, r codespaceRange) bool {
	for i, b := range code {
		if b < r.low[i] || b > r.high[i] {
			return false
		}
	}
	return true
}

// CID returns the CID for code.
func (c *CMap) CID(code uint32) (int, bool) {
	if c.identity {
		return int(code), true
	}
	if cid, ok := c.cidChars[code]; ok {
		return cid, true
	}
	for _, r := range c.cidRanges {
		if code >= r.low && code <= r.high {
			return r.cid + int(code-r.low), true
		}
	}
	if c.parent != nil {
		return c.parent.CID(code)
	}
	return 0, false
}

// Unicode returns the text for code in a ToUnicode CMap.
func (c *CMap) Unicode(code uint32) (string, bool) {
	if s, ok := c.bfChars[code]; ok {
		return s, true
	}
	for _, r := range c.bfRanges {
		if code < r.low || code > r.high {
			continue
		}
		offset := code - r.low
		if r.array != nil {
			if int(offset) < len(r.array) {
				return r.array[offset], true
			}
			return "", false
		}
		if len(r.dst) == 0 {
			return "", false
		}
		// The offset is added to the last byte pair of the destination.
		dst := append([]byte(nil), r.dst...)
		if len(dst) == 1 {
			return string(rune(uint32(dst[0]) + offset)), true
		}
		last := uint32(dst[len(dst)-2])<<8 | uint32(dst[len(dst)-1])
		last += offset
		dst[len(dst)-2], dst[len(dst)-1] = byte(last>>8), byte(last)
		return decodeUTF16(dst), true
	}
	return "", false
}

// Len returns the number of mappings, for diagnostics.
func (c *CMap) Len() int {
	return len(c.cidChars) + len(c.cidRanges) + len(c.bfChars) + len(c.bfRanges)
}
