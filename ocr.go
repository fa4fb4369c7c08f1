package folio

import "github.com/tsawler/folio/ocr"

// OCRPage renders p at dpi and runs it through Tesseract with lang, such
// as "eng". Without the ocr build tag it returns ocr.ErrOCRNotEnabled.
func (e *Engine) OCRPage(p Page, dpi float64, lang string) (string, error) {
	pe, err := e.page("ocr", p)
	if err != nil {
		return "", err
	}
	index := pe.page.Index()
	img, err := e.renderImage(pe, dpi, DefaultRenderOptions())
	if err != nil {
		return "", err
	}

	client, err := ocr.New()
	if err != nil {
		return "", wrap("ocr", index, err, KindUnknown)
	}
	defer client.Close()
	if lang != "" {
		if err := client.SetLanguage(lang); err != nil {
			return "", wrap("ocr", index, err, KindUnknown)
		}
	}
	s, err := client.Recognize(img)
	return s, wrap("ocr", index, err, KindUnknown)
}
