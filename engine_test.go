package folio

import (
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/folio/internal/pdftest"
	"github.com/tsawler/folio/render"
)

const square = "[0 0 100 100]"

func openDoc(t *testing.T, e *Engine, b *pdftest.Builder) Document {
	t.Helper()
	d, err := e.OpenBytes(b.Bytes(), "")
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	t.Cleanup(func() { e.CloseDocument(d) })
	return d
}

func loadFirstPage(t *testing.T, e *Engine, d Document) Page {
	t.Helper()
	p, err := e.LoadPage(d, 0)
	if err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	return p
}

// ============================================================================
// Open
// ============================================================================

func TestOpenErrors(t *testing.T) {
	encrypted := pdftest.Document(pdftest.Page{Content: "BT /F1 12 Tf (Hidden) Tj ET"}).
		Encrypt(pdftest.AES128, "user", "owner").
		Bytes()
	u32 := strings.Repeat("01", 32)
	mismatched := pdftest.Document(pdftest.Page{}).
		Trailer("/Root 1 0 R /Encrypt << /Filter /Standard /V 5 /R 4 /P -4 /O <" + u32 + "> /U <" + u32 + "> >>").
		Bytes()
	shortU := pdftest.Document(pdftest.Page{}).
		Trailer("/Root 1 0 R /Encrypt << /Filter /Standard /V 1 /R 2 /P -4 /O <" + u32 + "> /U <" + strings.Repeat("01", 20) + "> >>").
		Bytes()

	tests := []struct {
		name     string
		data     []byte
		password string
		want     ErrorKind
	}{
		{"mismatched encryption revision", mismatched, "", KindSecurity},
		{"short user entry", shortU, "", KindSecurity},
		{"empty", nil, "", KindFile},
		{"not a pdf", []byte("hello world, this is not a pdf"), "", KindFormat},
		{"password required", encrypted, "", KindPassword},
		{"wrong password", encrypted, "wrong", KindPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			base := RefCount()
			_, err := e.OpenBytes(tt.data, tt.password)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := KindOf(err); got != tt.want {
				t.Errorf("expected %v, got %v (%v)", tt.want, got, err)
			}
			if RefCount() != base {
				t.Errorf("expected failed open to release its reference, got %d", RefCount())
			}
		})
	}
}

func TestOpenFileMissing(t *testing.T) {
	e := New()
	_, err := e.OpenFile(filepath.Join(t.TempDir(), "missing.pdf"), "")
	if !errors.Is(err, ErrFile) {
		t.Errorf("expected a file error, got %v", err)
	}
}

func TestOpenEncrypted(t *testing.T) {
	data := pdftest.Document(pdftest.Page{Content: "BT /F1 12 Tf (Hidden) Tj ET"}).
		Add(5, "<< /Title ENC(Secret title) >>").
		Trailer("/Root 1 0 R /Info 5 0 R").
		Encrypt(pdftest.RC4128, "user", "owner").
		Bytes()

	e := New()
	d, err := e.OpenBytes(data, "user")
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer e.CloseDocument(d)
	if title, _ := e.MetaText(d, "Title"); title != "Secret title" {
		t.Errorf("expected Secret title, got %q", title)
	}
}

func TestDocumentInfo(t *testing.T) {
	e := New()
	b := pdftest.Document(pdftest.Page{}, pdftest.Page{}, pdftest.Page{}).
		Add(5, "<< /Title (Quarterly report) /Author (Finance) >>").
		Trailer("/Root 1 0 R /Info 5 0 R")
	d := openDoc(t, e, b)

	if n, err := e.PageCount(d); err != nil || n != 3 {
		t.Errorf("expected 3 pages, got %d (%v)", n, err)
	}
	if v, err := e.Version(d); err != nil || v != "1.7" {
		t.Errorf("expected version 1.7, got %q (%v)", v, err)
	}
	if s, _ := e.MetaText(d, "Author"); s != "Finance" {
		t.Errorf("expected Finance, got %q", s)
	}
	if s, _ := e.MetaText(d, "Subject"); s != "" {
		t.Errorf("expected empty subject, got %q", s)
	}
}

// ============================================================================
// Pages
// ============================================================================

func TestPageSizes(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(
		pdftest.Page{MediaBox: "[0 0 612 792]"},
		pdftest.Page{MediaBox: "[0 0 612 792]", Extra: "/Rotate 90"},
	))

	p := loadFirstPage(t, e, d)
	w, _ := e.PageWidthPoints(p)
	h, _ := e.PageHeightPoints(p)
	if w != 612 || h != 792 {
		t.Errorf("expected 612x792 points, got %dx%d", w, h)
	}
	if px, _ := e.PageWidthPixels(p, 150); px != 1275 {
		t.Errorf("expected 1275 pixels, got %d", px)
	}

	size, err := e.PageSizeByIndex(d, 1, 72)
	if err != nil {
		t.Fatalf("PageSizeByIndex: %v", err)
	}
	if size != (Size{Width: 792, Height: 612}) {
		t.Errorf("expected rotated 792x612, got %+v", size)
	}

	size, err = e.PageSizeByIndex(d, 9, 72)
	if !errors.Is(err, ErrPage) || size != (Size{}) {
		t.Errorf("expected page error and zero size, got %+v (%v)", size, err)
	}
	if PixelSize(612, 96) != 816 {
		t.Errorf("expected 816, got %d", PixelSize(612, 96))
	}
}

func TestLoadPageOutOfRange(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(pdftest.Page{}))

	_, err := e.LoadPage(d, 1)
	var fe *Error
	if !errors.As(err, &fe) || fe.Kind != KindPage || fe.Page != 1 {
		t.Errorf("expected page error for page 1, got %v", err)
	}
}

func TestLoadPages(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(pdftest.Page{}, pdftest.Page{}, pdftest.Page{}))

	ps, err := e.LoadPages(d, 0, 2)
	if err != nil || len(ps) != 3 {
		t.Fatalf("expected 3 pages, got %d (%v)", len(ps), err)
	}
	for i, p := range ps {
		if got, _ := e.PageIndex(p); got != i {
			t.Errorf("expected index %d, got %d", i, got)
		}
	}
	if err := e.ClosePages(ps...); err != nil {
		t.Errorf("ClosePages: %v", err)
	}

	if ps, err := e.LoadPages(d, 2, 1); err != nil || len(ps) != 0 {
		t.Errorf("expected empty range, got %d (%v)", len(ps), err)
	}

	before := e.pages.live()
	if _, err := e.LoadPages(d, 1, 5); !errors.Is(err, ErrPage) {
		t.Errorf("expected page error, got %v", err)
	}
	if e.pages.live() != before {
		t.Errorf("expected partially loaded pages to be closed, %d live", e.pages.live())
	}
}

// ============================================================================
// Render
// ============================================================================

func TestRenderPage(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(pdftest.Page{Content: "0 0 1 rg 0 0 100 100 re f", MediaBox: square}))
	p := loadFirstPage(t, e, d)

	s, err := render.NewSurface(100, 100, render.FormatBGRA)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.RenderPage(p, s, 0, 0, 50, 100, DefaultRenderOptions()); err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	px := func(x, y int) [4]byte {
		i := y*s.Stride + x*4
		return [4]byte{s.Pix[i], s.Pix[i+1], s.Pix[i+2], s.Pix[i+3]}
	}
	if got := px(25, 50); got != [4]byte{255, 0, 0, 255} {
		t.Errorf("expected blue inside the page, got %v", got)
	}
	if got := px(75, 50); got != [4]byte{0x84, 0x84, 0x84, 0xFF} {
		t.Errorf("expected gray outside the page, got %v", got)
	}

	if err := e.RenderPage(p, &render.Surface{Width: 10, Height: 10}, 0, 0, 10, 10, DefaultRenderOptions()); err == nil {
		t.Error("expected an error for an invalid surface")
	}
}

func TestRenderImage(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(pdftest.Page{Content: "1 0 0 rg 0 0 100 50 re f", MediaBox: square}))
	p := loadFirstPage(t, e, d)

	img, err := e.RenderImage(p, 144, DefaultRenderOptions())
	if err != nil {
		t.Fatalf("RenderImage: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("expected 200x200, got %v", b)
	}
	if got := img.RGBAAt(100, 150); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("expected red in the bottom half, got %v", got)
	}
	if got := img.RGBAAt(100, 50); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected white in the top half, got %v", got)
	}
}

func TestPageDeviceRoundTrip(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(pdftest.Page{MediaBox: square}))
	p := loadFirstPage(t, e, d)

	x, y, err := e.PageToDevice(p, 0, 0, 200, 200, 0, 25, 75)
	if err != nil || x != 50 || y != 50 {
		t.Fatalf("expected (50, 50), got (%d, %d) %v", x, y, err)
	}
	px, py, err := e.DeviceToPage(p, 0, 0, 200, 200, 0, x, y)
	if err != nil || px != 25 || py != 75 {
		t.Errorf("expected (25, 75), got (%v, %v) %v", px, py, err)
	}
}

// ============================================================================
// Text and search
// ============================================================================

func TestTextFlow(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(pdftest.Page{Content: "BT /F1 10 Tf 72 700 Td (Hello World) Tj ET"}))
	p := loadFirstPage(t, e, d)

	tp, err := e.LoadTextPage(p)
	if err != nil {
		t.Fatalf("LoadTextPage: %v", err)
	}
	if err := e.ClosePage(p); err != nil {
		t.Fatalf("ClosePage: %v", err)
	}

	n, err := e.CharCount(tp)
	if err != nil || n != 11 {
		t.Fatalf("expected 11 chars, got %d (%v)", n, err)
	}
	if s, _ := e.Text(tp, 6, 5); s != "World" {
		t.Errorf("expected World, got %q", s)
	}
	if _, err := e.Text(tp, 6, 10); !errors.Is(err, ErrPage) {
		t.Errorf("expected page error for a bad range, got %v", err)
	}
	if r, _ := e.Unicode(tp, 0); r != 'H' {
		t.Errorf("expected H, got %q", r)
	}
	if size, _ := e.FontSize(tp, 0); size != 10 {
		t.Errorf("expected size 10, got %v", size)
	}
	box, _ := e.CharBox(tp, 0)
	if i, _ := e.CharIndexAtPos(tp, box.Center().X, box.Center().Y, 0, 0); i != 0 {
		t.Errorf("expected char 0 at its own center, got %d", i)
	}
	if n, _ := e.CountRects(tp, 0, -1); n != 1 {
		t.Errorf("expected one line rectangle, got %d", n)
	}
	if _, err := e.GetRect(tp, 1); err == nil {
		t.Error("expected an error for rectangle 1")
	}
	if n, _ := e.BoundedText(tp, 0, 800, 612, 0, nil); n != 11 {
		t.Errorf("expected 11 bounded chars, got %d", n)
	}
}

func TestSearchFlow(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(pdftest.Page{Content: "BT /F1 10 Tf 72 700 Td (World Hello World) Tj ET"}))
	tps, err := e.LoadTextPages(d, 0, 0)
	if err != nil || len(tps) != 1 {
		t.Fatalf("LoadTextPages: %d %v", len(tps), err)
	}
	tp := tps[0]

	s, err := e.FindStart(tp, "world", false, 0)
	if err != nil {
		t.Fatalf("FindStart: %v", err)
	}
	steps := []struct {
		find  func(Search) (bool, error)
		found bool
		index int
	}{
		{e.FindNext, true, 0},
		{e.FindNext, true, 12},
		{e.FindNext, false, 12},
		{e.FindPrev, true, 0},
		{e.FindPrev, false, 0},
	}
	for i, step := range steps {
		found, err := step.find(s)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if found != step.found {
			t.Fatalf("step %d: expected found %v, got %v", i, step.found, found)
		}
		if idx, _ := e.MatchIndex(s); idx != step.index {
			t.Errorf("step %d: expected index %d, got %d", i, step.index, idx)
		}
	}
	if n, _ := e.MatchCount(s); n != 5 {
		t.Errorf("expected match of 5 chars, got %d", n)
	}

	if err := e.CloseSearch(s); err != nil {
		t.Fatalf("CloseSearch: %v", err)
	}
	if _, err := e.FindNext(s); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected invalid handle after close, got %v", err)
	}
}

// ============================================================================
// Handles
// ============================================================================

func TestCloseDocumentCascades(t *testing.T) {
	e := New()
	base := RefCount()
	d, err := e.OpenBytes(pdftest.Document(pdftest.Page{Content: "BT /F1 10 Tf 72 700 Td (abc) Tj ET"}).Bytes(), "")
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if RefCount() != base+1 {
		t.Errorf("expected open document to hold a reference")
	}
	p := loadFirstPage(t, e, d)
	tp, err := e.LoadTextPage(p)
	if err != nil {
		t.Fatalf("LoadTextPage: %v", err)
	}
	s, err := e.FindStart(tp, "b", true, 0)
	if err != nil {
		t.Fatalf("FindStart: %v", err)
	}

	if err := e.CloseDocument(d); err != nil {
		t.Fatalf("CloseDocument: %v", err)
	}
	if RefCount() != base {
		t.Errorf("expected reference to be released, got %d", RefCount())
	}
	if _, err := e.PageWidthPoints(p); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected page to be invalid, got %v", err)
	}
	if _, err := e.CharCount(tp); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected text page to be invalid, got %v", err)
	}
	if _, err := e.MatchIndex(s); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected search to be invalid, got %v", err)
	}
	if err := e.CloseDocument(d); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected second close to fail, got %v", err)
	}
}

func TestCloseTextPageClosesSearches(t *testing.T) {
	e := New()
	d := openDoc(t, e, pdftest.Document(pdftest.Page{Content: "BT /F1 10 Tf 72 700 Td (abc) Tj ET"}))
	tps, err := e.LoadTextPages(d, 0, 0)
	if err != nil {
		t.Fatalf("LoadTextPages: %v", err)
	}
	s, _ := e.FindStart(tps[0], "a", true, 0)
	if err := e.CloseTextPage(tps[0]); err != nil {
		t.Fatalf("CloseTextPage: %v", err)
	}
	if err := e.CloseSearch(s); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected search to be closed with its text page, got %v", err)
	}
}

func TestForeignAndStaleHandles(t *testing.T) {
	e1, e2 := New(), New()
	d := openDoc(t, e1, pdftest.Document(pdftest.Page{}))
	p := loadFirstPage(t, e1, d)

	if _, err := e2.PageCount(d); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected foreign document to be rejected, got %v", err)
	}
	if _, err := e2.PageWidthPoints(p); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected foreign page to be rejected, got %v", err)
	}
	if _, err := e1.PageCount(Document{}); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected zero document to be rejected, got %v", err)
	}

	if err := e1.ClosePage(p); err != nil {
		t.Fatalf("ClosePage: %v", err)
	}
	again := loadFirstPage(t, e1, d)
	if _, err := e1.PageWidthPoints(p); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected stale page to be rejected, got %v", err)
	}
	if _, err := e1.PageWidthPoints(again); err != nil {
		t.Errorf("expected new page to be valid, got %v", err)
	}
}

func TestEngineClose(t *testing.T) {
	e := New()
	base := RefCount()
	for range 3 {
		if _, err := e.OpenBytes(pdftest.Document(pdftest.Page{}).Bytes(), ""); err != nil {
			t.Fatalf("OpenBytes: %v", err)
		}
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if e.docs.live() != 0 || RefCount() != base {
		t.Errorf("expected everything released, %d docs and %d references", e.docs.live(), RefCount())
	}
}
