//go:build !ocr

package folio

import (
	"errors"
	"testing"

	"github.com/tsawler/folio/internal/pdftest"
	"github.com/tsawler/folio/ocr"
)

func TestOCRPageWithoutTesseract(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(pdftest.Page{MediaBox: square}, pdftest.Page{MediaBox: square}))
	p, err := e.LoadPage(d, 1)
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}

	_, err = e.OCRPage(p, 36, "eng")
	if !errors.Is(err, ocr.ErrOCRNotEnabled) {
		t.Fatalf("expected ErrOCRNotEnabled, got %v", err)
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if fe.Op != "ocr" || fe.Page != 1 {
		t.Errorf("expected op ocr on page 1, got %q on page %d", fe.Op, fe.Page)
	}

	if err := e.ClosePage(p); err != nil {
		t.Fatalf("ClosePage: %v", err)
	}
	if _, err := e.OCRPage(p, 36, "eng"); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected closed page to be rejected, got %v", err)
	}
}
