package filters

import "github.com/pkg/errors"

// RunLengthDecode decodes the PackBits style run-length encoding. A
// length byte of 0-127 copies the next n+1 bytes, 129-255 repeats the
// next byte 257-n times and 128 ends the data.
func RunLengthDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			if i+n+1 > len(data) {
				return out, errors.Errorf("runlength: literal run of %d bytes truncated", n+1)
			}
			out = append(out, data[i:i+n+1]...)
			i += n + 1
		default:
			if i >= len(data) {
				return out, errors.New("runlength: repeat run truncated")
			}
			for j := 0; j < 257-n; j++ {
				out = append(out, data[i])
			}
			i++
		}
	}
	return out, nil
}
