package ocr

import (
	"bytes"
	"image"
	"image/png"
)

// PageSegMode selects how Tesseract analyzes the page layout. The
// values match Tesseract's.
type PageSegMode int

const (
	PSM_OSD_ONLY      PageSegMode = 0  // orientation and script detection only
	PSM_AUTO_OSD      PageSegMode = 1  // automatic with OSD
	PSM_AUTO          PageSegMode = 3  // fully automatic, the default
	PSM_SINGLE_COLUMN PageSegMode = 4  // one column of text of variable sizes
	PSM_SINGLE_BLOCK  PageSegMode = 6  // one uniform block of text
	PSM_SINGLE_LINE   PageSegMode = 7  // one text line
	PSM_SINGLE_WORD   PageSegMode = 8  // one word
	PSM_SPARSE_TEXT   PageSegMode = 11 // as much text as possible, in no order
)

// encodePNG serializes img for Tesseract, which reads encoded images.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
