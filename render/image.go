package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/graphicsstate"
)

// maxImagePixels bounds the decoded size of a single image.
const maxImagePixels = 1 << 26

var errUnsupportedImage = errors.New("unsupported image")

// imageDecoder converts image XObjects to NRGBA pixels.
type imageDecoder struct {
	r    graphicsstate.Resolver
	fill color.NRGBA // stencil color
}

// pageImage is an image stream with its layout parameters read.
type pageImage struct {
	stream *core.Stream
	cs     *graphicsstate.ColorSpace
	width  int
	height int
	bpc    int
	decode []float64
	mask   bool
}

func (d *imageDecoder) parse(s *core.Stream, cs *graphicsstate.ColorSpace) (*pageImage, error) {
	dict := s.Dict
	width, _ := dict.GetInt("Width")
	height, _ := dict.GetInt("Height")
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image size %dx%d", width, height)
	}
	if width > maxImagePixels/height {
		return nil, fmt.Errorf("%w: %dx%d pixels", errUnsupportedImage, width, height)
	}
	img := &pageImage{stream: s, cs: cs, width: int(width), height: int(height), bpc: 8}
	if mask, _ := dict.GetBool("ImageMask"); mask {
		img.mask = true
		img.bpc = 1
	}
	if bpc, ok := dict.GetInt("BitsPerComponent"); ok {
		img.bpc = int(bpc)
	}
	if arr, ok := dict.GetArray("Decode"); ok {
		img.decode, _ = arr.Numbers()
	}
	return img, nil
}

// decode returns the image in its own pixel space: row 0 is the top.
func (d *imageDecoder) decode(gi *graphicsstate.Image) (*image.NRGBA, error) {
	img, err := d.parse(gi.Stream, gi.ColorSpace)
	if err != nil {
		return nil, err
	}
	if img.mask {
		data, filter, _, err := img.stream.DecodeImage()
		if err != nil {
			return nil, err
		}
		if filter != "" {
			return nil, fmt.Errorf("%w: %s stencil mask", errUnsupportedImage, filter)
		}
		return img.stencil(data, d.fill)
	}

	out, samples, err := d.colors(img)
	if err != nil {
		return nil, err
	}
	if err := d.applyMasks(img, out, samples); err != nil {
		return nil, err
	}
	return out, nil
}

// colors decodes the color samples. samples holds the raw sample data
// when the image was not a JPEG, for color key masking.
func (d *imageDecoder) colors(img *pageImage) (*image.NRGBA, []byte, error) {
	data, filter, _, err := img.stream.DecodeImage()
	if err != nil {
		return nil, nil, err
	}
	switch filter {
	case "":
	case "DCTDecode", "DCT":
		out, err := img.fromJPEG(data)
		return out, nil, err
	default:
		return nil, nil, fmt.Errorf("%w: %s", errUnsupportedImage, filter)
	}
	if img.cs == nil {
		return nil, nil, fmt.Errorf("%w: no usable color space", errUnsupportedImage)
	}
	switch img.bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, nil, fmt.Errorf("%w: %d bits per component", errUnsupportedImage, img.bpc)
	}
	rowBytes := (img.width*img.cs.N*img.bpc + 7) / 8
	if len(data) < rowBytes*img.height {
		// Short data is padded, as viewers do.
		data = append(data, make([]byte, rowBytes*img.height-len(data))...)
	}

	if img.decode == nil && img.bpc == 8 {
		switch img.cs {
		case graphicsstate.DeviceGray:
			return img.toGray(data), data, nil
		case graphicsstate.DeviceRGB:
			return img.toRGB(data), data, nil
		}
	}
	return img.convert(data, rowBytes), data, nil
}

// toGray converts 8-bit grayscale samples.
func (img *pageImage) toGray(data []byte) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
	for i := range img.width * img.height {
		v := data[i]
		out.Pix[i*4+0] = v
		out.Pix[i*4+1] = v
		out.Pix[i*4+2] = v
		out.Pix[i*4+3] = 255
	}
	return out
}

// toRGB converts 8-bit RGB samples.
func (img *pageImage) toRGB(data []byte) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
	for i := range img.width * img.height {
		out.Pix[i*4+0] = data[i*3+0] // R
		out.Pix[i*4+1] = data[i*3+1] // G
		out.Pix[i*4+2] = data[i*3+2] // B
		out.Pix[i*4+3] = 255         // A
	}
	return out
}

// convert maps packed samples of any depth through /Decode and the
// color space.
func (img *pageImage) convert(data []byte, rowBytes int) *image.NRGBA {
	cs := img.cs
	n := cs.N
	maxv := float64(int(1)<<img.bpc - 1)
	decode := img.decode
	if len(decode) < 2*n {
		decode = cs.DecodeRange(img.bpc)
	}

	var palette [][3]uint8
	if cs.Family == "Indexed" {
		palette = make([][3]uint8, cs.HiVal+1)
		for i := range palette {
			r, g, b := cs.RGB([]float64{float64(i)})
			palette[i] = [3]uint8{to8(r), to8(g), to8(b)}
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
	comps := make([]float64, n)
	for y := range img.height {
		row := data[y*rowBytes : (y+1)*rowBytes]
		for x := range img.width {
			for c := range n {
				v := float64(sample(row, x*n+c, img.bpc))
				comps[c] = decode[2*c] + v*(decode[2*c+1]-decode[2*c])/maxv
			}
			px := out.Pix[y*out.Stride+x*4:]
			if palette != nil {
				idx := max(0, min(int(math.Round(comps[0])), len(palette)-1))
				px[0], px[1], px[2] = palette[idx][0], palette[idx][1], palette[idx][2]
			} else {
				r, g, b := cs.RGB(comps)
				px[0], px[1], px[2] = to8(r), to8(g), to8(b)
			}
			px[3] = 255
		}
	}
	return out
}

// sample returns the i-th bpc-bit sample of a row, most significant
// bit first.
func sample(row []byte, i, bpc int) int {
	switch bpc {
	case 8:
		return int(row[i])
	case 16:
		return int(row[2*i])<<8 | int(row[2*i+1])
	}
	bit := i * bpc
	b := row[bit/8]
	shift := 8 - bpc - bit%8
	return int(b>>shift) & (1<<bpc - 1)
}

func to8(v float64) uint8 {
	return uint8(math.Round(max(0, min(v, 1)) * 255))
}

// stencil builds a mask image painted in fill where the sample is 0, or
// 1 when /Decode is [1 0].
func (img *pageImage) stencil(data []byte, fill color.NRGBA) (*image.NRGBA, error) {
	rowBytes := (img.width + 7) / 8
	if len(data) < rowBytes*img.height {
		return nil, fmt.Errorf("insufficient data for 1-bit image: got %d, expected %d", len(data), rowBytes*img.height)
	}
	paint := 0
	if len(img.decode) >= 2 && img.decode[0] > img.decode[1] {
		paint = 1
	}
	out := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
	for y := range img.height {
		row := data[y*rowBytes:]
		for x := range img.width {
			if sample(row, x, 1) == paint {
				px := out.Pix[y*out.Stride+x*4:]
				px[0], px[1], px[2], px[3] = fill.R, fill.G, fill.B, fill.A
			}
		}
	}
	return out, nil
}

// fromJPEG decodes a DCT image. CMYK data is inverted when /Decode is
// [1 0 1 0 1 0 1 0], as Adobe writes it.
func (img *pageImage) fromJPEG(data []byte) (*image.NRGBA, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("DCTDecode: %w", err)
	}
	inverted := len(img.decode) >= 2 && img.decode[0] == 1 && img.decode[1] == 0
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if cmyk, ok := src.(*image.CMYK); ok {
		for y := range b.Dy() {
			for x := range b.Dx() {
				i := cmyk.PixOffset(b.Min.X+x, b.Min.Y+y)
				c, m, yy, k := cmyk.Pix[i], cmyk.Pix[i+1], cmyk.Pix[i+2], cmyk.Pix[i+3]
				if inverted {
					c, m, yy, k = 255-c, 255-m, 255-yy, 255-k
				}
				r, g, bl := color.CMYKToRGB(c, m, yy, k)
				px := out.Pix[y*out.Stride+x*4:]
				px[0], px[1], px[2], px[3] = r, g, bl, 255
			}
		}
	} else {
		draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
		if inverted {
			for i := 0; i < len(out.Pix); i += 4 {
				out.Pix[i], out.Pix[i+1], out.Pix[i+2] = 255-out.Pix[i], 255-out.Pix[i+1], 255-out.Pix[i+2]
			}
		}
	}

	// The stream dimensions win over the JPEG's when they disagree.
	if b.Dx() != img.width || b.Dy() != img.height {
		scaled := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), out, out.Bounds(), draw.Src, nil)
		out = scaled
	}
	return out, nil
}

// applyMasks sets alpha from /SMask, or /Mask as a stencil stream or a
// color key range array.
func (d *imageDecoder) applyMasks(img *pageImage, out *image.NRGBA, samples []byte) error {
	dict := img.stream.Dict
	if obj := dict.Get("SMask"); obj != nil {
		resolved, err := d.r.Resolve(obj)
		if err != nil {
			return err
		}
		if s, ok := resolved.(*core.Stream); ok {
			alpha, err := d.maskAlpha(s, false, img.width, img.height)
			if err != nil {
				return fmt.Errorf("SMask: %w", err)
			}
			multiplyAlpha(out, alpha)
		}
		return nil
	}

	obj := dict.Get("Mask")
	if obj == nil {
		return nil
	}
	resolved, err := d.r.Resolve(obj)
	if err != nil {
		return err
	}
	switch m := resolved.(type) {
	case *core.Stream:
		alpha, err := d.maskAlpha(m, true, img.width, img.height)
		if err != nil {
			return fmt.Errorf("Mask: %w", err)
		}
		multiplyAlpha(out, alpha)
	case core.Array:
		if samples != nil {
			img.colorKey(out, samples, m)
		}
	}
	return nil
}

// maskAlpha decodes a soft mask (gray levels) or an explicit stencil
// mask and resamples it to w×h.
func (d *imageDecoder) maskAlpha(s *core.Stream, stencil bool, w, h int) (*image.Gray, error) {
	var src *image.NRGBA
	if stencil {
		img, err := d.parse(s, nil)
		if err != nil {
			return nil, err
		}
		img.bpc = 1
		data, filter, _, err := s.DecodeImage()
		if err != nil {
			return nil, err
		}
		if filter != "" {
			return nil, fmt.Errorf("%w: %s mask", errUnsupportedImage, filter)
		}
		src, err = img.stencil(data, color.NRGBA{255, 255, 255, 255})
		if err != nil {
			return nil, err
		}
	} else {
		img, err := d.parse(s, graphicsstate.DeviceGray)
		if err != nil {
			return nil, err
		}
		src, _, err = d.colors(img)
		if err != nil {
			return nil, err
		}
	}

	gray := image.NewGray(src.Bounds())
	for i := range len(gray.Pix) {
		if stencil {
			gray.Pix[i] = src.Pix[i*4+3]
		} else {
			gray.Pix[i] = src.Pix[i*4]
		}
	}
	if gray.Rect.Dx() == w && gray.Rect.Dy() == h {
		return gray, nil
	}
	scaled := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	return scaled, nil
}

func multiplyAlpha(img *image.NRGBA, alpha *image.Gray) {
	for i := range len(alpha.Pix) {
		a := &img.Pix[i*4+3]
		*a = uint8(uint16(*a) * uint16(alpha.Pix[i]) / 255)
	}
}

// colorKey clears the alpha of pixels whose raw samples all fall in the
// /Mask ranges.
func (img *pageImage) colorKey(out *image.NRGBA, samples []byte, ranges core.Array) {
	n := img.cs.N
	v, ok := ranges.Numbers()
	if !ok || len(v) < 2*n {
		return
	}
	rowBytes := (img.width*n*img.bpc + 7) / 8
	for y := range img.height {
		row := samples[y*rowBytes:]
		for x := range img.width {
			masked := true
			for c := range n {
				s := float64(sample(row, x*n+c, img.bpc))
				if s < v[2*c] || s > v[2*c+1] {
					masked = false
					break
				}
			}
			if masked {
				out.Pix[y*out.Stride+x*4+3] = 0
			}
		}
	}
}
