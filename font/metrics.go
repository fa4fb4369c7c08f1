package font

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// stdMetrics holds the widths of one of the standard 14 fonts, in
// thousandths of an em.
type stdMetrics struct {
	ascii   [95]int16 // codes 32..126
	extra   map[rune]int16
	fixed   int16 // non-zero for monospaced and pictographic fonts
	ascent  float64
	descent float64
}

var helvetica = &stdMetrics{
	ascii: [95]int16{
		278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
		1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
		333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
		556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
	},
	extra: map[rune]int16{
		0x2018: 222, 0x2019: 222, 0x201C: 333, 0x201D: 333, 0x2022: 350,
		0x2013: 556, 0x2014: 1000, 0x2026: 1000, 0xFB01: 500, 0xFB02: 500,
		0x00B0: 400, 0x00A9: 737, 0x00AE: 737, 0x00A0: 278, 0x20AC: 556,
	},
	ascent: 718, descent: -207,
}

var helveticaBold = &stdMetrics{
	ascii: [95]int16{
		278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 333, 333, 584, 584, 584, 611,
		975, 722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 333, 278, 333, 584, 556,
		333, 556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889, 611, 611,
		611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500, 389, 280, 389, 584,
	},
	extra: map[rune]int16{
		0x2018: 278, 0x2019: 278, 0x201C: 500, 0x201D: 500, 0x2022: 350,
		0x2013: 556, 0x2014: 1000, 0x2026: 1000, 0xFB01: 611, 0xFB02: 611,
		0x00B0: 400, 0x00A9: 737, 0x00AE: 737, 0x00A0: 278, 0x20AC: 556,
	},
	ascent: 718, descent: -207,
}

var timesRoman = &stdMetrics{
	ascii: [95]int16{
		250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278, 564, 564, 564, 444,
		921, 722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889, 722, 722,
		556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611, 333, 278, 333, 469, 500,
		333, 444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778, 500, 500,
		500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541,
	},
	extra: map[rune]int16{
		0x2018: 333, 0x2019: 333, 0x201C: 444, 0x201D: 444, 0x2022: 350,
		0x2013: 500, 0x2014: 1000, 0x2026: 1000, 0xFB01: 556, 0xFB02: 556,
		0x00B0: 400, 0x00A9: 760, 0x00AE: 760, 0x00A0: 250, 0x20AC: 500,
	},
	ascent: 683, descent: -217,
}

var timesBold = &stdMetrics{
	ascii: [95]int16{
		250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 333, 333, 570, 570, 570, 500,
		930, 722, 667, 722, 722, 667, 611, 778, 778, 389, 500, 778, 667, 944, 722, 778,
		611, 778, 722, 556, 667, 722, 722, 1000, 722, 722, 667, 333, 278, 333, 581, 500,
		333, 500, 556, 444, 556, 444, 333, 500, 556, 278, 333, 556, 278, 833, 556, 500,
		556, 556, 444, 389, 333, 556, 500, 722, 500, 500, 444, 394, 220, 394, 520,
	},
	extra: map[rune]int16{
		0x2018: 333, 0x2019: 333, 0x201C: 500, 0x201D: 500, 0x2022: 350,
		0x2013: 500, 0x2014: 1000, 0x2026: 1000, 0xFB01: 556, 0xFB02: 556,
		0x00B0: 400, 0x00A9: 747, 0x00AE: 747, 0x00A0: 250, 0x20AC: 500,
	},
	ascent: 676, descent: -205,
}

var (
	courier      = &stdMetrics{fixed: 600, ascent: 629, descent: -157}
	symbol       = &stdMetrics{fixed: 500, ascent: 1010, descent: -293}
	zapfDingbats = &stdMetrics{fixed: 500, ascent: 820, descent: -143}
)

// standardFonts lists the standard 14 fonts. The italic faces share the
// upright widths.
var standardFonts = map[string]*stdMetrics{
	"Helvetica":             helvetica,
	"Helvetica-Bold":        helveticaBold,
	"Helvetica-Oblique":     helvetica,
	"Helvetica-BoldOblique": helveticaBold,
	"Times-Roman":           timesRoman,
	"Times-Bold":            timesBold,
	"Times-Italic":          timesRoman,
	"Times-BoldItalic":      timesBold,
	"Courier":               courier,
	"Courier-Bold":          courier,
	"Courier-Oblique":       courier,
	"Courier-BoldOblique":   courier,
	"Symbol":                symbol,
	"ZapfDingbats":          zapfDingbats,
}

// fontAliases maps common system font names to standard 14 names.
var fontAliases = map[string]string{
	"Arial":                    "Helvetica",
	"Arial-Bold":               "Helvetica-Bold",
	"Arial-Italic":             "Helvetica-Oblique",
	"Arial-BoldItalic":         "Helvetica-BoldOblique",
	"ArialMT":                  "Helvetica",
	"Arial-BoldMT":             "Helvetica-Bold",
	"Arial-ItalicMT":           "Helvetica-Oblique",
	"Arial-BoldItalicMT":       "Helvetica-BoldOblique",
	"TimesNewRoman":            "Times-Roman",
	"TimesNewRoman-Bold":       "Times-Bold",
	"TimesNewRoman-Italic":     "Times-Italic",
	"TimesNewRoman-BoldItalic": "Times-BoldItalic",
	"TimesNewRomanPSMT":        "Times-Roman",
	"TimesNewRomanPS-BoldMT":   "Times-Bold",
	"TimesNewRomanPS-ItalicMT": "Times-Italic",
	"CourierNew":               "Courier",
	"CourierNew-Bold":          "Courier-Bold",
	"CourierNewPSMT":           "Courier",
	"Helvetica-Italic":         "Helvetica-Oblique",
	"Times":                    "Times-Roman",
}

// StandardName returns the standard 14 name for base, after removing a
// subset prefix ("ABCDEF+") and normalizing "Name,Bold" style suffixes
// and common aliases.
func StandardName(base string) (string, bool) {
	base = stripSubset(base)
	if _, ok := standardFonts[base]; ok {
		return base, true
	}
	name := strings.ReplaceAll(base, " ", "")
	name = strings.Replace(name, ",", "-", 1)
	if _, ok := standardFonts[name]; ok {
		return name, true
	}
	if alias, ok := fontAliases[name]; ok {
		return alias, true
	}
	return "", false
}

// stripSubset removes the six-letter tag of a subset font.
func stripSubset(name string) string {
	if len(name) > 7 && name[6] == '+' {
		for i := 0; i < 6; i++ {
			if name[i] < 'A' || name[i] > 'Z' {
				return name
			}
		}
		return name[7:]
	}
	return name
}

// standardWidth returns the width of r in a standard font, in
// thousandths of an em. Accented letters use the width of their base
// letter.
func standardWidth(m *stdMetrics, r rune) (float64, bool) {
	if m.fixed != 0 {
		return float64(m.fixed), true
	}
	if r >= 32 && r <= 126 {
		return float64(m.ascii[r-32]), true
	}
	if w, ok := m.extra[r]; ok {
		return float64(w), true
	}
	if d := norm.NFD.String(string(r)); len(d) > 0 {
		base := []rune(d)[0]
		if base != r && base >= 32 && base <= 126 {
			return float64(m.ascii[base-32]), true
		}
	}
	return 0, false
}
