package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/font"
	"github.com/tsawler/folio/graphicsstate"
	"github.com/tsawler/folio/logging"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/pages"
)

// ErrNilPage is returned when Render is called without a page.
var ErrNilPage = errors.New("nil page")

// Sentinel pixels in BGRA order.
var (
	grayPixel  = [4]byte{0x84, 0x84, 0x84, 0xFF}
	whitePixel = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}
)

// Options holds configuration for rendering.
type Options struct {
	// Annotations draws the normal appearance of visible annotations.
	Annotations bool

	// Rotation is added to the page's /Rotate: 0, 90, 180 or 270,
	// clockwise.
	Rotation int

	// ReverseByteOrder writes R, G, B, A instead of B, G, R, A.
	ReverseByteOrder bool

	// Fonts is shared by renders of the same document. Nil uses a cache
	// for this render only.
	Fonts *font.Cache

	// Resolver overrides the page's own object resolver.
	Resolver graphicsstate.Resolver

	// MaxFormDepth limits nested forms; 0 means the default.
	MaxFormDepth int
}

// DefaultOptions returns the default render options.
func DefaultOptions() Options {
	return Options{
		Annotations:  false,
		Rotation:     0,
		MaxFormDepth: graphicsstate.DefaultMaxFormDepth,
	}
}

// Render draws page into s, scaling the page's crop box to the
// rectangle (startX, startY, drawW, drawH) of the surface. The rectangle
// may extend past the surface; only the visible part is drawn.
func Render(page *pages.Page, s *Surface, startX, startY, drawW, drawH int, opts Options) error {
	if page == nil {
		return ErrNilPage
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Format == FormatRGB565 {
		return render565(page, s, startX, startY, drawW, drawH, opts)
	}

	if drawW < s.Width || drawH < s.Height {
		s.fill(0, 0, s.Width, s.Height, grayPixel)
	}
	x0, y0 := max(0, startX), max(0, startY)
	x1, y1 := min(x0+min(s.Width, drawW), s.Width), min(y0+min(s.Height, drawH), s.Height)
	s.fill(x0, y0, x1, y1, whitePixel)

	// Drawing is limited to the white area covered by the page.
	area := image.Rect(x0, y0, x1, y1).Intersect(image.Rect(startX, startY, startX+drawW, startY+drawH))
	if area.Empty() {
		return nil
	}
	work := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	for i := range work.Pix {
		work.Pix[i] = 0xFF
	}

	ctm := deviceMatrix(page, opts.Rotation, float64(startX), float64(startY), float64(drawW), float64(drawH)).
		Multiply(model.Translate(-float64(area.Min.X), -float64(area.Min.Y)))
	err := drawPage(page, work, ctm, opts)
	composite(s, work, area.Min, opts.ReverseByteOrder)
	return err
}

// drawPage interprets the page content, then its annotations, into work.
func drawPage(page *pages.Page, work *image.RGBA, ctm model.Matrix, opts Options) error {
	log := logging.For("render")
	r := opts.Resolver
	if r == nil {
		r = page.Resolver()
	}
	fonts := opts.Fonts
	if fonts == nil {
		fonts = font.NewCache()
	}
	dev := newRasterDevice(work, r, log)
	procOpts := graphicsstate.Options{CTM: ctm, Fonts: fonts, MaxFormDepth: opts.MaxFormDepth}

	resources, err := page.Resources()
	if err != nil {
		return fmt.Errorf("page %d: %w", page.Index(), err)
	}
	ops, parseErr := page.Operations()
	if err := graphicsstate.NewProcessor(dev, r, procOpts).Run(ops, resources); err != nil {
		return fmt.Errorf("page %d: %w", page.Index(), err)
	}
	if parseErr != nil {
		return fmt.Errorf("page %d: %w", page.Index(), parseErr)
	}

	if !opts.Annotations {
		return nil
	}
	annots, err := page.Annotations()
	if err != nil {
		return fmt.Errorf("page %d: %w", page.Index(), err)
	}
	for _, a := range annots {
		if !a.Visible() {
			continue
		}
		form, ok := appearance(a, r)
		if !ok {
			continue
		}
		m, ok := appearanceMatrix(form, a.Rect)
		if !ok {
			continue
		}
		proc := graphicsstate.NewProcessor(dev, r, procOpts)
		if err := proc.RunForm(form, m, nil); err != nil {
			log.Debug("annotation appearance skipped", "subtype", a.Subtype, "error", err)
		}
	}
	return nil
}

// appearance returns the normal appearance stream of an annotation,
// picking the /AS state when /N is a state dictionary.
func appearance(a pages.Annotation, r graphicsstate.Resolver) (*core.Stream, bool) {
	if a.Dict.Get("AP") == nil {
		return nil, false
	}
	ap, err := r.Resolve(a.Dict.Get("AP"))
	if err != nil {
		return nil, false
	}
	apDict, ok := ap.(core.Dict)
	if !ok {
		return nil, false
	}
	n, err := r.Resolve(apDict.Get("N"))
	if err != nil {
		return nil, false
	}
	switch v := n.(type) {
	case *core.Stream:
		return v, true
	case core.Dict:
		state, ok := a.Dict.GetName("AS")
		if !ok || v.Get(string(state)) == nil {
			return nil, false
		}
		s, err := r.Resolve(v.Get(string(state)))
		if err != nil {
			return nil, false
		}
		stream, ok := s.(*core.Stream)
		return stream, ok
	}
	return nil, false
}

// appearanceMatrix maps the form's transformed bounding box onto rect.
func appearanceMatrix(form *core.Stream, rect model.Rect) (model.Matrix, bool) {
	arr, ok := form.Dict.GetArray("BBox")
	if !ok || len(arr) != 4 {
		return model.Matrix{}, false
	}
	v, ok := arr.Numbers()
	if !ok {
		return model.Matrix{}, false
	}
	m := model.Identity()
	if marr, ok := form.Dict.GetArray("Matrix"); ok && len(marr) == 6 {
		if mv, ok := marr.Numbers(); ok {
			m = model.Matrix{mv[0], mv[1], mv[2], mv[3], mv[4], mv[5]}
		}
	}
	t := m.TransformRect(model.NewRect(v[0], v[1], v[2], v[3]))
	if t.Width() == 0 || t.Height() == 0 {
		return model.Matrix{}, false
	}
	return model.Translate(-t.Left, -t.Bottom).
		Multiply(model.Scale(rect.Width()/t.Width(), rect.Height()/t.Height())).
		Multiply(model.Translate(rect.Left, rect.Bottom)), true
}

// composite copies the working image into the surface at off.
func composite(s *Surface, work *image.RGBA, off image.Point, reverse bool) {
	b := work.Rect
	for y := 0; y < b.Dy(); y++ {
		in := work.Pix[y*work.Stride:]
		out := s.Pix[(off.Y+y)*s.Stride+off.X*4:]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, a := in[x*4], in[x*4+1], in[x*4+2], in[x*4+3]
			if reverse {
				out[x*4], out[x*4+1], out[x*4+2], out[x*4+3] = r, g, bl, a
			} else {
				out[x*4], out[x*4+1], out[x*4+2], out[x*4+3] = bl, g, r, a
			}
		}
	}
}

// render565 renders through a BGRA surface holding the current pixels.
func render565(page *pages.Page, s *Surface, startX, startY, drawW, drawH int, opts Options) error {
	tmp, err := NewSurface(s.Width, s.Height, FormatBGRA)
	if err != nil {
		return err
	}
	fromRGB565(tmp, s)
	opts.ReverseByteOrder = false
	err = Render(page, tmp, startX, startY, drawW, drawH, opts)
	toRGB565(s, tmp)
	return err
}

func fromRGB565(dst, src *Surface) {
	for y := 0; y < src.Height; y++ {
		in := src.Pix[y*src.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < src.Width; x++ {
			v := uint16(in[x*2]) | uint16(in[x*2+1])<<8
			r, g, b := byte(v>>11)<<3, byte(v>>5&0x3F)<<2, byte(v&0x1F)<<3
			out[x*4], out[x*4+1], out[x*4+2], out[x*4+3] = b, g, r, 0xFF
		}
	}
}

// deviceMatrix maps page space onto the device rectangle (x, y, w, h)
// with y growing downward, after rotating the page clockwise by its
// /Rotate plus rotation degrees.
func deviceMatrix(page *pages.Page, rotation int, x, y, w, h float64) model.Matrix {
	box := page.CropBox()
	bw, bh := box.Width(), box.Height()
	switch normalizeRotation(page.Rotate() + rotation) {
	case 90:
		return model.Matrix{0, h / bw, w / bh, 0, x - box.Bottom*w/bh, y - box.Left*h/bw}
	case 180:
		return model.Matrix{-w / bw, 0, 0, h / bh, x + box.Right*w/bw, y - box.Bottom*h/bh}
	case 270:
		return model.Matrix{0, -h / bw, -w / bh, 0, x + box.Top*w/bh, y + box.Right*h/bw}
	}
	return model.Matrix{w / bw, 0, 0, -h / bh, x - box.Left*w/bw, y + box.Top*h/bh}
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg / 90 * 90
}

// PageToDevice converts a point in page space to device pixels for a
// page drawn at (startX, startY, sizeX, sizeY) with the extra rotation
// rotate, in degrees. Pixel coordinates are truncated toward zero.
func PageToDevice(page *pages.Page, startX, startY, sizeX, sizeY, rotate int, pageX, pageY float64) (int, int) {
	m := deviceMatrix(page, rotate, float64(startX), float64(startY), float64(sizeX), float64(sizeY))
	x, y := m.Apply(pageX, pageY)
	return int(x), int(y)
}

// DeviceToPage is the inverse of PageToDevice.
func DeviceToPage(page *pages.Page, startX, startY, sizeX, sizeY, rotate, deviceX, deviceY int) (float64, float64) {
	m := deviceMatrix(page, rotate, float64(startX), float64(startY), float64(sizeX), float64(sizeY))
	inv, ok := m.Invert()
	if !ok {
		return 0, 0
	}
	return inv.Apply(float64(deviceX), float64(deviceY))
}
