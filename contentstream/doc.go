// Package contentstream parses PDF content streams into operations.
//
// A content stream is a flat sequence of operands followed by an operator:
//
//	ops, err := contentstream.NewParser(data).Parse()
//	for _, op := range ops {
//	    fmt.Println(op.Operator, op.Operands)
//	}
//
// Inline images (BI ... ID data EI) become a single operation with
// Operator "BI" and the image in [Operation.Image]. Abbreviated inline
// image keys and names (/W, /CS /G, /F /Fl, ...) are expanded.
//
// The parser does not interpret operators; see package graphicsstate.
package contentstream
