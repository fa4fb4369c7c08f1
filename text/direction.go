package text

import "unicode"

// Direction is the writing direction of a character or a run of text.
type Direction int

const (
	// LTR is left to right: Latin, Cyrillic, CJK and most other scripts.
	LTR Direction = iota
	// RTL is right to left: Arabic, Hebrew and related scripts.
	RTL
	// Neutral covers digits, punctuation, symbols and whitespace.
	Neutral
)

// String returns "LTR", "RTL" or "Neutral".
func (d Direction) String() string {
	switch d {
	case LTR:
		return "LTR"
	case RTL:
		return "RTL"
	case Neutral:
		return "Neutral"
	default:
		return "Unknown"
	}
}

var rtlScripts = []*unicode.RangeTable{
	unicode.Arabic,
	unicode.Hebrew,
	unicode.Syriac,
	unicode.Thaana,
	unicode.Nko,
}

// charDirection returns the inherent direction of r. Scripts that are
// not right to left count as LTR.
func charDirection(r rune) Direction {
	if unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
		return Neutral
	}
	if unicode.In(r, rtlScripts...) {
		return RTL
	}
	return LTR
}

// DetectDirection returns the direction of the majority of strongly
// directional characters in s, or Neutral when there are none.
func DetectDirection(s string) Direction {
	ltr, rtl := 0, 0
	for _, r := range s {
		switch charDirection(r) {
		case LTR:
			ltr++
		case RTL:
			rtl++
		}
	}
	switch {
	case ltr == 0 && rtl == 0:
		return Neutral
	case rtl > ltr:
		return RTL
	default:
		return LTR
	}
}
