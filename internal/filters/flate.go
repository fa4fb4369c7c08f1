package filters

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

// FlateDecode inflates zlib data and applies the predictor named in
// params. A stream truncated mid-way returns the bytes inflated so far,
// which is what viewers show for damaged files.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "flate: bad zlib header")
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		if buf.Len() == 0 {
			return nil, errors.Wrap(err, "flate")
		}
	}
	return applyPredictor(buf.Bytes(), params)
}

// applyPredictor undoes the TIFF or PNG predictor selected by the
// Predictor parameter.
func applyPredictor(data []byte, params Params) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	switch {
	case predictor <= 1:
		return data, nil
	case predictor == 2:
		return tiffPredictor(data, params)
	case predictor >= 10 && predictor <= 15:
		return pngPredictor(data, params)
	}
	return nil, errors.Errorf("unsupported predictor %d", predictor)
}

// rowGeometry returns bytes per pixel (at least one) and bytes per row
// for the sample layout described by params.
func rowGeometry(params Params) (bpp, rowLen int) {
	columns := getIntParam(params, "Columns", 1)
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)
	bpp = (colors*bpc + 7) / 8
	if bpp < 1 {
		bpp = 1
	}
	rowLen = (columns*colors*bpc + 7) / 8
	return bpp, rowLen
}

// tiffPredictor undoes TIFF predictor 2 for 8 and 16 bit samples.
func tiffPredictor(data []byte, params Params) ([]byte, error) {
	bpc := getIntParam(params, "BitsPerComponent", 8)
	colors := getIntParam(params, "Colors", 1)
	_, rowLen := rowGeometry(params)
	if rowLen <= 0 {
		return nil, errors.New("tiff predictor: empty row")
	}

	out := make([]byte, len(data))
	copy(out, data)
	for start := 0; start+rowLen <= len(out); start += rowLen {
		row := out[start : start+rowLen]
		switch bpc {
		case 8:
			for i := colors; i < len(row); i++ {
				row[i] += row[i-colors]
			}
		case 16:
			step := 2 * colors
			for i := step; i+1 < len(row); i += 2 {
				v := uint16(row[i])<<8 | uint16(row[i+1])
				p := uint16(row[i-step])<<8 | uint16(row[i-step+1])
				v += p
				row[i], row[i+1] = byte(v>>8), byte(v)
			}
		default:
			return nil, errors.Errorf("tiff predictor: unsupported bits per component %d", bpc)
		}
	}
	return out, nil
}

// pngPredictor undoes per-row PNG filtering. Each row carries its own
// filter type byte regardless of the Predictor value.
func pngPredictor(data []byte, params Params) ([]byte, error) {
	bpp, rowLen := rowGeometry(params)
	stride := rowLen + 1
	rows := len(data) / stride
	out := make([]byte, rows*rowLen)
	prev := make([]byte, rowLen)

	for r := 0; r < rows; r++ {
		in := data[r*stride : (r+1)*stride]
		cur := out[r*rowLen : (r+1)*rowLen]
		filter, src := in[0], in[1:]
		switch filter {
		case 0:
			copy(cur, src)
		case 1:
			for i := range src {
				var left byte
				if i >= bpp {
					left = cur[i-bpp]
				}
				cur[i] = src[i] + left
			}
		case 2:
			for i := range src {
				cur[i] = src[i] + prev[i]
			}
		case 3:
			for i := range src {
				var left int
				if i >= bpp {
					left = int(cur[i-bpp])
				}
				cur[i] = src[i] + byte((left+int(prev[i]))/2)
			}
		case 4:
			for i := range src {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prev[i-bpp]
				}
				cur[i] = src[i] + paeth(left, prev[i], upLeft)
			}
		default:
			return nil, errors.Errorf("png predictor: unknown filter type %d in row %d", filter, r)
		}
		prev = cur
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
