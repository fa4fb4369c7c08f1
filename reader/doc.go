// Package reader opens PDF files and loads their objects.
//
// A [Document] is created from any random-access [Source]:
//
//	doc, err := reader.NewDocument(reader.BytesSource(data), reader.WithPassword("secret"))
//	doc, err := reader.Open("document.pdf")
//	defer doc.Close()
//
// Opening verifies the header, reads the cross-reference data (classic
// tables, cross-reference streams, hybrid files and incremental updates),
// authenticates encrypted files and loads the page tree. A damaged
// cross-reference table is rebuilt by scanning the file unless
// [WithRepair](false) is given; [Document.Repaired] reports it.
//
// # Object Access
//
//   - GetObject(objNum) - load object by number
//   - ResolveReference(ref) - resolve an IndirectRef
//   - Resolve(obj) - follow references until a direct object
//   - ResolveDeep(obj) - recursively resolve all references
//
// Objects are parsed on first use, decrypted when the document is
// encrypted, and cached. All methods are safe for concurrent use.
//
// # Errors
//
// Open failures wrap one of [ErrEmptySource], [ErrNotPDF], [ErrRead],
// [ErrMalformed] or an error from package security.
package reader
