package contentstream

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tsawler/folio/core"
)

// Operation represents a single content stream operation consisting of an
// operator and its operands. Operands are PDF objects that precede the operator.
type Operation struct {
	Operator string        // The operator (e.g., "Tj", "Tm", "q")
	Operands []core.Object // The operands
	Image    *InlineImage  // Set for BI operations only
}

// InlineImage is an image embedded in the content stream between BI and
// EI. Dict keys are expanded to their full names.
type InlineImage struct {
	Dict core.Dict
	Data []byte
}

// Number returns operand i as a float64. Missing or non-numeric operands
// yield 0 and false.
func (op Operation) Number(i int) (float64, bool) {
	if i < 0 || i >= len(op.Operands) {
		return 0, false
	}
	return core.Number(op.Operands[i])
}

// Numbers returns all operands as float64 when every one is numeric.
func (op Operation) Numbers() ([]float64, bool) {
	return core.Array(op.Operands).Numbers()
}

// Name returns operand i as a name.
func (op Operation) Name(i int) (string, bool) {
	if i < 0 || i >= len(op.Operands) {
		return "", false
	}
	n, ok := op.Operands[i].(core.Name)
	return string(n), ok
}

// Parser parses PDF content streams into a sequence of operations.
type Parser struct {
	data []byte
}

// NewParser creates a new content stream parser for the given data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse parses the content stream and returns all operations in order.
// On a syntax error it returns the operations read so far together with
// the error. Operands left over at the end of the stream are dropped.
func (p *Parser) Parse() ([]Operation, error) {
	parser := core.NewParser(bytes.NewReader(p.data))
	var (
		ops      []Operation
		operands []core.Object
	)
	for {
		obj, tok, err := parser.ParseOperand()
		if err != nil {
			if err == io.EOF {
				return ops, nil
			}
			return ops, fmt.Errorf("content stream: %w", err)
		}
		if tok == nil {
			operands = append(operands, obj)
			continue
		}

		op := string(tok.Value)
		switch op {
		case "BI":
			img, err := parseInlineImage(parser)
			if err != nil {
				return ops, fmt.Errorf("content stream: %w", err)
			}
			ops = append(ops, Operation{Operator: "BI", Image: img})
		case "ID", "EI":
			// Stray image delimiters outside BI.
		default:
			ops = append(ops, Operation{Operator: op, Operands: operands})
		}
		operands = nil
	}
}

// parseInlineImage reads the key/value pairs after BI, then the raw data
// following ID.
func parseInlineImage(parser *core.Parser) (*InlineImage, error) {
	var pairs []core.Object
	for {
		obj, tok, err := parser.ParseOperand()
		if err != nil {
			return nil, fmt.Errorf("inline image dictionary: %w", err)
		}
		if tok == nil {
			pairs = append(pairs, obj)
			continue
		}
		if string(tok.Value) != "ID" {
			return nil, fmt.Errorf("inline image: unexpected operator %q before ID", tok.Value)
		}
		break
	}

	dict := make(core.Dict, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(core.Name)
		if !ok {
			return nil, fmt.Errorf("inline image: key %v is not a name", pairs[i])
		}
		dict[expandKey(string(key))] = expandValue(pairs[i+1])
	}

	data, err := parser.ReadInlineImageData()
	if err != nil {
		return nil, err
	}
	return &InlineImage{Dict: dict, Data: data}, nil
}

var inlineKeys = map[string]string{
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"H":   "Height",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"W":   "Width",
	"L":   "Length",
}

var inlineNames = map[string]string{
	"G":    "DeviceGray",
	"RGB":  "DeviceRGB",
	"CMYK": "DeviceCMYK",
	"I":    "Indexed",
	"AHx":  "ASCIIHexDecode",
	"A85":  "ASCII85Decode",
	"LZW":  "LZWDecode",
	"Fl":   "FlateDecode",
	"RL":   "RunLengthDecode",
	"CCF":  "CCITTFaxDecode",
	"DCT":  "DCTDecode",
}

func expandKey(key string) string {
	if full, ok := inlineKeys[key]; ok {
		return full
	}
	return key
}

// expandValue replaces abbreviated color space and filter names. Names
// that are not abbreviations, such as resource color space names, pass
// through.
func expandValue(obj core.Object) core.Object {
	switch v := obj.(type) {
	case core.Name:
		if full, ok := inlineNames[string(v)]; ok {
			return core.Name(full)
		}
	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			out[i] = expandValue(elem)
		}
		return out
	}
	return obj
}
