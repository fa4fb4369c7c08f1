package filters

import (
	"bytes"

	"github.com/pkg/errors"
)

// ASCIIHexDecode decodes pairs of hex digits. Whitespace is skipped, '>'
// ends the data and a trailing odd digit is padded with 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	half := false
	for _, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, err := hexDigit(c)
		if err != nil {
			return nil, err
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out, nil
}

// ASCII85Decode decodes base-85 data. 'z' stands for four zero bytes,
// "~>" ends the data and an optional "<~" prefix is ignored.
func ASCII85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(bytes.TrimLeft(data, " \t\r\n\f\x00"), []byte("<~"))
	var out bytes.Buffer

	var group [5]uint32
	n := 0
	flush := func(count int) {
		for i := count; i < 5; i++ {
			group[i] = 84
		}
		var v uint32
		for _, d := range group {
			v = v*85 + d
		}
		for i := 0; i < count-1; i++ {
			out.WriteByte(byte(v >> (24 - 8*i)))
		}
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			if n == 1 {
				return nil, errors.New("ascii85: final group has a single digit")
			}
			if n > 0 {
				flush(n)
			}
			return out.Bytes(), nil
		case c == 'z' && n == 0:
			out.Write([]byte{0, 0, 0, 0})
		case c >= '!' && c <= 'u':
			group[n] = uint32(c - '!')
			n++
			if n == 5 {
				flush(5)
				n = 0
			}
		default:
			return nil, errors.Errorf("ascii85: invalid character %q", c)
		}
	}
	if n > 1 {
		flush(n)
	}
	return out.Bytes(), nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	}
	return 0, errors.Errorf("asciihex: invalid digit %q", c)
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
