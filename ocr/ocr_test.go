//go:build ocr

package ocr

import (
	"image"
	"testing"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	c, err := New()
	if err != nil {
		t.Skipf("tesseract unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// blankPage is a white image the size of a small rendered page.
func blankPage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 120, 60))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}

func TestRecognizeBlankPage(t *testing.T) {
	c := newClient(t)
	if _, err := c.Recognize(blankPage()); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
}

func TestRecognizeImageBytes(t *testing.T) {
	c := newClient(t)
	data, err := encodePNG(blankPage())
	if err != nil {
		t.Fatalf("encodePNG: %v", err)
	}
	if _, err := c.RecognizeImage(data); err != nil {
		t.Errorf("RecognizeImage: %v", err)
	}
}

func TestSettings(t *testing.T) {
	c := newClient(t)
	if err := c.SetLanguage("eng"); err != nil {
		t.Errorf("SetLanguage: %v", err)
	}
	if err := c.SetPageSegMode(PSM_SINGLE_BLOCK); err != nil {
		t.Errorf("SetPageSegMode: %v", err)
	}
}

func TestCloseTwice(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Skipf("tesseract unavailable: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
