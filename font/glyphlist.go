package font

import (
	"strconv"
	"strings"
)

// glyphNames maps Adobe glyph names to Unicode. It covers the Latin
// sets of the standard encodings, Greek, common punctuation, ligatures
// and the symbols that show up in technical documents.
var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3',
	"four": '4', "five": '5', "six": '6', "seven": '7',
	"eight": '8', "nine": '9', "colon": ':', "semicolon": ';',
	"less": '<', "equal": '=', "greater": '>', "question": '?',
	"at": '@', "bracketleft": '[', "backslash": '\\', "bracketright": ']',
	"asciicircum": '^', "underscore": '_', "grave": '`',
	"braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',

	"nbspace": 0x00A0, "nonbreakingspace": 0x00A0, "exclamdown": 0x00A1,
	"cent": 0x00A2, "sterling": 0x00A3, "currency": 0x00A4, "yen": 0x00A5,
	"brokenbar": 0x00A6, "section": 0x00A7, "dieresis": 0x00A8,
	"copyright": 0x00A9, "ordfeminine": 0x00AA, "guillemotleft": 0x00AB,
	"logicalnot": 0x00AC, "sfthyphen": 0x00AD, "registered": 0x00AE,
	"macron": 0x00AF, "degree": 0x00B0, "plusminus": 0x00B1,
	"twosuperior": 0x00B2, "threesuperior": 0x00B3, "acute": 0x00B4,
	"mu": 0x00B5, "paragraph": 0x00B6, "periodcentered": 0x00B7,
	"cedilla": 0x00B8, "onesuperior": 0x00B9, "ordmasculine": 0x00BA,
	"guillemotright": 0x00BB, "onequarter": 0x00BC, "onehalf": 0x00BD,
	"threequarters": 0x00BE, "questiondown": 0x00BF,
	"Agrave": 0x00C0, "Aacute": 0x00C1, "Acircumflex": 0x00C2, "Atilde": 0x00C3,
	"Adieresis": 0x00C4, "Aring": 0x00C5, "AE": 0x00C6, "Ccedilla": 0x00C7,
	"Egrave": 0x00C8, "Eacute": 0x00C9, "Ecircumflex": 0x00CA, "Edieresis": 0x00CB,
	"Igrave": 0x00CC, "Iacute": 0x00CD, "Icircumflex": 0x00CE, "Idieresis": 0x00CF,
	"Eth": 0x00D0, "Ntilde": 0x00D1, "Ograve": 0x00D2, "Oacute": 0x00D3,
	"Ocircumflex": 0x00D4, "Otilde": 0x00D5, "Odieresis": 0x00D6, "multiply": 0x00D7,
	"Oslash": 0x00D8, "Ugrave": 0x00D9, "Uacute": 0x00DA, "Ucircumflex": 0x00DB,
	"Udieresis": 0x00DC, "Yacute": 0x00DD, "Thorn": 0x00DE, "germandbls": 0x00DF,
	"agrave": 0x00E0, "aacute": 0x00E1, "acircumflex": 0x00E2, "atilde": 0x00E3,
	"adieresis": 0x00E4, "aring": 0x00E5, "ae": 0x00E6, "ccedilla": 0x00E7,
	"egrave": 0x00E8, "eacute": 0x00E9, "ecircumflex": 0x00EA, "edieresis": 0x00EB,
	"igrave": 0x00EC, "iacute": 0x00ED, "icircumflex": 0x00EE, "idieresis": 0x00EF,
	"eth": 0x00F0, "ntilde": 0x00F1, "ograve": 0x00F2, "oacute": 0x00F3,
	"ocircumflex": 0x00F4, "otilde": 0x00F5, "odieresis": 0x00F6, "divide": 0x00F7,
	"oslash": 0x00F8, "ugrave": 0x00F9, "uacute": 0x00FA, "ucircumflex": 0x00FB,
	"udieresis": 0x00FC, "yacute": 0x00FD, "thorn": 0x00FE, "ydieresis": 0x00FF,

	"Amacron": 0x0100, "amacron": 0x0101, "Abreve": 0x0102, "abreve": 0x0103,
	"Aogonek": 0x0104, "aogonek": 0x0105, "Cacute": 0x0106, "cacute": 0x0107,
	"Ccaron": 0x010C, "ccaron": 0x010D, "Dcaron": 0x010E, "dcaron": 0x010F,
	"Dcroat": 0x0110, "dcroat": 0x0111, "Emacron": 0x0112, "emacron": 0x0113,
	"Eogonek": 0x0118, "eogonek": 0x0119, "Ecaron": 0x011A, "ecaron": 0x011B,
	"Gbreve": 0x011E, "gbreve": 0x011F, "Idotaccent": 0x0130, "dotlessi": 0x0131,
	"Lacute": 0x0139, "lacute": 0x013A, "Lcaron": 0x013D, "lcaron": 0x013E,
	"Lslash": 0x0141, "lslash": 0x0142, "Nacute": 0x0143, "nacute": 0x0144,
	"Ncaron": 0x0147, "ncaron": 0x0148, "Ohungarumlaut": 0x0150, "ohungarumlaut": 0x0151,
	"OE": 0x0152, "oe": 0x0153, "Racute": 0x0154, "racute": 0x0155,
	"Rcaron": 0x0158, "rcaron": 0x0159, "Sacute": 0x015A, "sacute": 0x015B,
	"Scedilla": 0x015E, "scedilla": 0x015F, "Scaron": 0x0160, "scaron": 0x0161,
	"Tcaron": 0x0164, "tcaron": 0x0165, "Uring": 0x016E, "uring": 0x016F,
	"Uhungarumlaut": 0x0170, "uhungarumlaut": 0x0171, "Ydieresis": 0x0178,
	"Zacute": 0x0179, "zacute": 0x017A, "Zdotaccent": 0x017B, "zdotaccent": 0x017C,
	"Zcaron": 0x017D, "zcaron": 0x017E, "florin": 0x0192,

	"circumflex": 0x02C6, "caron": 0x02C7, "breve": 0x02D8, "dotaccent": 0x02D9,
	"ring": 0x02DA, "ogonek": 0x02DB, "tilde": 0x02DC, "hungarumlaut": 0x02DD,

	"Alpha": 0x0391, "Beta": 0x0392, "Gamma": 0x0393, "Epsilon": 0x0395,
	"Zeta": 0x0396, "Eta": 0x0397, "Theta": 0x0398, "Iota": 0x0399,
	"Kappa": 0x039A, "Lambda": 0x039B, "Mu": 0x039C, "Nu": 0x039D,
	"Xi": 0x039E, "Omicron": 0x039F, "Pi": 0x03A0, "Rho": 0x03A1,
	"Sigma": 0x03A3, "Tau": 0x03A4, "Upsilon": 0x03A5, "Phi": 0x03A6,
	"Chi": 0x03A7, "Psi": 0x03A8, "Omega": 0x2126, "Delta": 0x2206,
	"alpha": 0x03B1, "beta": 0x03B2, "gamma": 0x03B3, "delta": 0x03B4,
	"epsilon": 0x03B5, "zeta": 0x03B6, "eta": 0x03B7, "theta": 0x03B8,
	"iota": 0x03B9, "kappa": 0x03BA, "lambda": 0x03BB, "nu": 0x03BD,
	"xi": 0x03BE, "omicron": 0x03BF, "pi": 0x03C0, "rho": 0x03C1,
	"sigma1": 0x03C2, "sigma": 0x03C3, "tau": 0x03C4, "upsilon": 0x03C5,
	"phi": 0x03C6, "chi": 0x03C7, "psi": 0x03C8, "omega": 0x03C9,
	"theta1": 0x03D1, "phi1": 0x03D5, "omega1": 0x03D6, "Upsilon1": 0x03D2,

	"endash": 0x2013, "emdash": 0x2014, "quoteleft": 0x2018, "quoteright": 0x2019,
	"quotesinglbase": 0x201A, "quotedblleft": 0x201C, "quotedblright": 0x201D,
	"quotedblbase": 0x201E, "dagger": 0x2020, "daggerdbl": 0x2021, "bullet": 0x2022,
	"ellipsis": 0x2026, "perthousand": 0x2030, "minute": 0x2032, "second": 0x2033,
	"guilsinglleft": 0x2039, "guilsinglright": 0x203A, "fraction": 0x2044,
	"Euro": 0x20AC, "trademark": 0x2122, "aleph": 0x2135, "weierstrass": 0x2118,
	"Ifraktur": 0x2111, "Rfraktur": 0x211C, "estimated": 0x212E,

	"arrowleft": 0x2190, "arrowup": 0x2191, "arrowright": 0x2192, "arrowdown": 0x2193,
	"arrowboth": 0x2194, "arrowupdn": 0x2195, "carriagereturn": 0x21B5,
	"arrowdblleft": 0x21D0, "arrowdblup": 0x21D1, "arrowdblright": 0x21D2,
	"arrowdbldown": 0x21D3, "arrowdblboth": 0x21D4,

	"universal": 0x2200, "partialdiff": 0x2202, "existential": 0x2203,
	"emptyset": 0x2205, "gradient": 0x2207, "element": 0x2208, "notelement": 0x2209,
	"suchthat": 0x220B, "product": 0x220F, "summation": 0x2211, "minus": 0x2212,
	"asteriskmath": 0x2217, "radical": 0x221A, "proportional": 0x221D,
	"infinity": 0x221E, "angle": 0x2220, "logicaland": 0x2227, "logicalor": 0x2228,
	"intersection": 0x2229, "union": 0x222A, "integral": 0x222B,
	"therefore": 0x2234, "similar": 0x223C, "congruent": 0x2245,
	"approxequal": 0x2248, "notequal": 0x2260, "equivalence": 0x2261,
	"lessequal": 0x2264, "greaterequal": 0x2265, "propersubset": 0x2282,
	"propersuperset": 0x2283, "notsubset": 0x2284, "reflexsubset": 0x2286,
	"reflexsuperset": 0x2287, "circleplus": 0x2295, "circlemultiply": 0x2297,
	"perpendicular": 0x22A5, "dotmath": 0x22C5, "angleleft": 0x2329,
	"angleright": 0x232A, "lozenge": 0x25CA,

	"filledbox": 0x25A0, "triagup": 0x25B2, "triagdn": 0x25BC, "circle": 0x25CB,
	"spade": 0x2660, "club": 0x2663, "heart": 0x2665, "diamond": 0x2666,

	"ff": 0xFB00, "fi": 0xFB01, "fl": 0xFB02, "ffi": 0xFB03, "ffl": 0xFB04,
}

// glyphRune maps a glyph name to a rune. Besides the table it accepts
// uniXXXX, uXXXX[XX] and dotted variants such as "a.sc".
func glyphRune(name string) (rune, bool) {
	if r, ok := glyphNames[name]; ok {
		return r, true
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		return glyphRune(name[:i])
	}
	if len(name) == 1 && name[0] >= 'A' && name[0] <= 'z' && (name[0] <= 'Z' || name[0] >= 'a') {
		return rune(name[0]), true
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 {
		if v, err := strconv.ParseUint(name[3:7], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil && v <= 0x10FFFF {
			return rune(v), true
		}
	}
	return 0, false
}

// runeNames is the reverse table, used to find glyphs by name in
// embedded programs.
var runeNames = func() map[rune]string {
	m := make(map[rune]string, len(glyphNames))
	for name, r := range glyphNames {
		if prev, ok := m[r]; !ok || name < prev {
			m[r] = name
		}
	}
	for r := 'A'; r <= 'Z'; r++ {
		m[r] = string(r)
		m[r+'a'-'A'] = string(r + 'a' - 'A')
	}
	return m
}()
