package folio

import (
	"errors"
	"image"

	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/render"
)

// Size is a page size in pixels.
type Size struct {
	Width  int
	Height int
}

// PixelSize converts a length in points to pixels at dpi, truncating
// toward zero: int(points * dpi / 72).
func PixelSize(points, dpi float64) int {
	return pages.PixelSize(points, dpi)
}

// LoadPage loads page index of d, counting from 0.
func (e *Engine) LoadPage(d Document, index int) (Page, error) {
	de, err := e.document("load page", d)
	if err != nil {
		return Page{}, err
	}
	page, err := de.doc.Page(index)
	if err != nil {
		return Page{}, wrap("load page", index, err, KindPage)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.docs.get(d.h); !ok {
		return Page{}, invalidHandle("load page")
	}
	return Page{h: e.pages.add(&pageEntry{doc: d.h, de: de, page: page})}, nil
}

// LoadPages loads the pages from through to, inclusive. An empty range
// returns no pages. On error the pages already loaded are closed.
func (e *Engine) LoadPages(d Document, from, to int) ([]Page, error) {
	if _, err := e.document("load pages", d); err != nil {
		return nil, err
	}
	if to < from {
		return []Page{}, nil
	}
	out := make([]Page, 0, to-from+1)
	for i := from; i <= to; i++ {
		p, err := e.LoadPage(d, i)
		if err != nil {
			e.ClosePages(out...)
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ClosePage releases p.
func (e *Engine) ClosePage(p Page) error {
	e.mu.Lock()
	_, ok := e.pages.remove(p.h)
	e.mu.Unlock()
	if !ok {
		return invalidHandle("close page")
	}
	return nil
}

// ClosePages releases every page in ps, continuing past invalid ones.
func (e *Engine) ClosePages(ps ...Page) error {
	var errs []error
	for _, p := range ps {
		if err := e.ClosePage(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PageIndex returns the 0-based index of p in its document.
func (e *Engine) PageIndex(p Page) (int, error) {
	pe, err := e.page("page index", p)
	if err != nil {
		return 0, err
	}
	return pe.page.Index(), nil
}

// PageWidthPoints returns the displayed width of p in points,
// truncated. Rotated pages report their rotated width.
func (e *Engine) PageWidthPoints(p Page) (int, error) {
	pe, err := e.page("page width", p)
	if err != nil {
		return 0, err
	}
	return pe.page.WidthPoints(), nil
}

// PageHeightPoints returns the displayed height of p in points,
// truncated.
func (e *Engine) PageHeightPoints(p Page) (int, error) {
	pe, err := e.page("page height", p)
	if err != nil {
		return 0, err
	}
	return pe.page.HeightPoints(), nil
}

// PageWidthPixels returns the displayed width of p in pixels at dpi.
func (e *Engine) PageWidthPixels(p Page, dpi float64) (int, error) {
	pe, err := e.page("page width", p)
	if err != nil {
		return 0, err
	}
	return pe.page.WidthPixels(dpi), nil
}

// PageHeightPixels returns the displayed height of p in pixels at dpi.
func (e *Engine) PageHeightPixels(p Page, dpi float64) (int, error) {
	pe, err := e.page("page height", p)
	if err != nil {
		return 0, err
	}
	return pe.page.HeightPixels(dpi), nil
}

// PageSizeByIndex returns the pixel size of page index at dpi without
// keeping the page loaded. On failure the size is zero.
func (e *Engine) PageSizeByIndex(d Document, index int, dpi float64) (Size, error) {
	de, err := e.document("page size", d)
	if err != nil {
		return Size{}, err
	}
	page, err := de.doc.Page(index)
	if err != nil {
		return Size{}, wrap("page size", index, err, KindPage)
	}
	return Size{Width: page.WidthPixels(dpi), Height: page.HeightPixels(dpi)}, nil
}

// RenderPage draws p into s, scaled to the rectangle (startX, startY,
// drawW, drawH). When the rectangle does not cover the surface the rest
// is filled gray. The rectangle's visible part is filled white before
// the page is drawn.
func (e *Engine) RenderPage(p Page, s *render.Surface, startX, startY, drawW, drawH int, opts RenderOptions) error {
	pe, err := e.page("render", p)
	if err != nil {
		return err
	}
	err = render.Render(pe.page, s, startX, startY, drawW, drawH, e.renderOptions(pe, opts))
	if errors.Is(err, render.ErrInvalidSurface) {
		return wrap("render", pe.page.Index(), err, KindUnknown)
	}
	return wrap("render", pe.page.Index(), err, KindPage)
}

func (e *Engine) renderOptions(pe *pageEntry, opts RenderOptions) render.Options {
	ro := render.DefaultOptions()
	ro.Annotations = opts.Annotations
	ro.Rotation = opts.Rotation
	ro.ReverseByteOrder = opts.ReverseByteOrder
	ro.Fonts = pe.de.fonts
	ro.MaxFormDepth = e.opts.maxFormDepth
	return ro
}

// RenderImage renders the whole of p at dpi into a new image.
func (e *Engine) RenderImage(p Page, dpi float64, opts RenderOptions) (*image.RGBA, error) {
	pe, err := e.page("render", p)
	if err != nil {
		return nil, err
	}
	return e.renderImage(pe, dpi, opts)
}

func (e *Engine) renderImage(pe *pageEntry, dpi float64, opts RenderOptions) (*image.RGBA, error) {
	w, h := pe.page.WidthPixels(dpi), pe.page.HeightPixels(dpi)
	if r := ((opts.Rotation%360)+360)%360; r == 90 || r == 270 {
		w, h = h, w
	}
	s, err := render.NewSurface(w, h, render.FormatBGRA)
	if err != nil {
		return nil, wrap("render", pe.page.Index(), err, KindUnknown)
	}
	opts.ReverseByteOrder = false
	if err := render.Render(pe.page, s, 0, 0, w, h, e.renderOptions(pe, opts)); err != nil {
		return nil, wrap("render", pe.page.Index(), err, KindPage)
	}
	img, err := s.Image(false)
	return img, wrap("render", pe.page.Index(), err, KindUnknown)
}

// PageToDevice maps a point in page space to pixel coordinates for p
// drawn at (startX, startY, sizeX, sizeY) with the extra rotation rotate.
func (e *Engine) PageToDevice(p Page, startX, startY, sizeX, sizeY, rotate int, pageX, pageY float64) (int, int, error) {
	pe, err := e.page("page to device", p)
	if err != nil {
		return 0, 0, err
	}
	x, y := render.PageToDevice(pe.page, startX, startY, sizeX, sizeY, rotate, pageX, pageY)
	return x, y, nil
}

// DeviceToPage is the inverse of PageToDevice.
func (e *Engine) DeviceToPage(p Page, startX, startY, sizeX, sizeY, rotate, deviceX, deviceY int) (float64, float64, error) {
	pe, err := e.page("device to page", p)
	if err != nil {
		return 0, 0, err
	}
	x, y := render.DeviceToPage(pe.page, startX, startY, sizeX, sizeY, rotate, deviceX, deviceY)
	return x, y, nil
}

// Links returns the link annotations of p in document order.
func (e *Engine) Links(p Page) ([]pages.Link, error) {
	pe, err := e.page("links", p)
	if err != nil {
		return nil, err
	}
	links, err := pe.page.Links()
	if err != nil {
		return nil, wrap("links", pe.page.Index(), err, KindPage)
	}
	return links, nil
}
