// Package folio renders PDF pages into pixel buffers and extracts,
// locates and searches their text.
//
// An Engine owns every open document and hands out small handles for
// documents, pages, text pages and searches. Handles are checked on
// every call: a handle that was closed, belongs to another Engine, or
// was never issued yields an error wrapping ErrInvalidHandle.
//
// Basic usage:
//
//	e := folio.New()
//	defer e.Close()
//
//	doc, err := e.OpenFile("report.pdf", "")
//	if err != nil {
//	    if errors.Is(err, folio.ErrPassword) {
//	        // ask for a password
//	    }
//	    return err
//	}
//	page, err := e.LoadPage(doc, 0)
//	if err != nil {
//	    return err
//	}
//	img, err := e.RenderImage(page, 150, folio.DefaultRenderOptions())
//
// Text:
//
//	tp, err := e.LoadTextPage(page)
//	n, _ := e.CharCount(tp)
//	text, _ := e.Text(tp, 0, n)
//
//	s, _ := e.FindStart(tp, "total", false, 0)
//	for found, _ := e.FindNext(s); found; found, _ = e.FindNext(s) {
//	    at, _ := e.MatchIndex(s)
//	    count, _ := e.MatchCount(s)
//	    rects, _ := e.Rects(tp, at, count)
//	    ...
//	}
//
// Every failure is an *Error carrying an ErrorKind. Closing a document
// closes its pages, text pages and searches.
//
// The lower-level packages are usable on their own: reader opens
// documents, pages walks the page tree and outline, render rasterizes a
// page into a Surface and text builds a TextPage.
package folio
