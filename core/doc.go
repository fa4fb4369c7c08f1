// Package core implements the PDF object syntax: the object types, a
// tokenizer, an object parser, cross-reference tables and streams, object
// streams and stream filter chains.
//
// # Object Types
//
// The eight basic types satisfy [Object]: [Null], [Bool], [Int], [Real],
// [String], [Name], [Array] and [Dict]. [Stream] pairs a dictionary with
// raw bytes and [IndirectRef] points at a numbered object.
//
// # Parsing
//
// [Lexer] tokenizes bytes for both the file structure and content
// streams. [Parser] builds objects from tokens, including "num gen obj"
// definitions and streams whose /Length is wrong or indirect.
//
// # Cross-Reference Data
//
// [XRefParser] reads classic tables, xref streams and hybrid files
// through an io.ReaderAt, following /Prev chains so the newest section
// wins. [RebuildXRef] recovers a table from a damaged file by scanning
// for object headers.
//
// # Streams
//
// [Stream.Decode] applies the filter chain. Image payload filters such
// as DCTDecode stop the chain; [Stream.DecodeImage] reports which one.
package core
