package render

import (
	"errors"
	"fmt"
	"image"
)

// Format is the pixel layout of a Surface.
type Format int

const (
	// FormatBGRA is 4 bytes per pixel: blue, green, red, alpha.
	FormatBGRA Format = iota
	// FormatRGB565 is 2 bytes per pixel, little-endian, 5-6-5 bits.
	FormatRGB565
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatBGRA:
		return "BGRA"
	case FormatRGB565:
		return "RGB565"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// BytesPerPixel returns the pixel size, or 0 for an unknown format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatBGRA:
		return 4
	case FormatRGB565:
		return 2
	}
	return 0
}

// ErrInvalidSurface is returned for surfaces that cannot be drawn into.
var ErrInvalidSurface = errors.New("invalid surface")

// Surface is a caller-owned pixel buffer. Row y starts at Pix[y*Stride].
type Surface struct {
	Pix    []byte
	Width  int
	Height int
	Stride int // bytes per row, at least Width*BytesPerPixel
	Format Format
}

// NewSurface allocates a zeroed surface with a tight stride.
func NewSurface(width, height int, format Format) (*Surface, error) {
	bpp := format.BytesPerPixel()
	if bpp == 0 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d %v", ErrInvalidSurface, width, height, format)
	}
	return &Surface{
		Pix:    make([]byte, width*height*bpp),
		Width:  width,
		Height: height,
		Stride: width * bpp,
		Format: format,
	}, nil
}

// Validate checks that the buffer can hold Height rows of Width pixels.
func (s *Surface) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil surface", ErrInvalidSurface)
	}
	bpp := s.Format.BytesPerPixel()
	switch {
	case bpp == 0:
		return fmt.Errorf("%w: unknown format %v", ErrInvalidSurface, s.Format)
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidSurface, s.Width, s.Height)
	case s.Stride < s.Width*bpp:
		return fmt.Errorf("%w: stride %d below %d", ErrInvalidSurface, s.Stride, s.Width*bpp)
	case s.Pix == nil || len(s.Pix) < (s.Height-1)*s.Stride+s.Width*bpp:
		return fmt.Errorf("%w: buffer of %d bytes too short", ErrInvalidSurface, len(s.Pix))
	}
	return nil
}

// fill sets every pixel of the rectangle [x0,x1)×[y0,y1) of a BGRA
// surface to the given bytes.
func (s *Surface) fill(x0, y0, x1, y1 int, px [4]byte) {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, s.Width), min(y1, s.Height)
	for y := y0; y < y1; y++ {
		row := s.Pix[y*s.Stride:]
		for x := x0; x < x1; x++ {
			copy(row[x*4:x*4+4], px[:])
		}
	}
}

// toRGB565 converts the BGRA surface src into dst, which has the same
// size.
func toRGB565(dst, src *Surface) {
	for y := 0; y < src.Height; y++ {
		in := src.Pix[y*src.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < src.Width; x++ {
			b, g, r := uint16(in[x*4]), uint16(in[x*4+1]), uint16(in[x*4+2])
			v := r>>3<<11 | g>>2<<5 | b>>3
			out[x*2] = byte(v)
			out[x*2+1] = byte(v >> 8)
		}
	}
}

// Image copies the surface into an RGBA image. reversed says the BGRA
// bytes were written in RGBA order, as Options.ReverseByteOrder does.
func (s *Surface) Image(reversed bool) (*image.RGBA, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	if s.Format == FormatRGB565 {
		tmp, _ := NewSurface(s.Width, s.Height, FormatBGRA)
		fromRGB565(tmp, s)
		s, reversed = tmp, false
	}
	for y := 0; y < s.Height; y++ {
		in := s.Pix[y*s.Stride:]
		out := img.Pix[y*img.Stride:]
		for x := 0; x < s.Width; x++ {
			i := x * 4
			if reversed {
				copy(out[i:i+4], in[i:i+4])
			} else {
				out[i], out[i+1], out[i+2], out[i+3] = in[i+2], in[i+1], in[i], in[i+3]
			}
		}
	}
	return img, nil
}
