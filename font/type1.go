package font

import (
	"bytes"
	"regexp"
	"strconv"
)

var dupRe = regexp.MustCompile(`dup\s+(\d+)\s*/([^\s/\[\]{}()<>]+)\s+put`)

// type1Encoding reads the built-in encoding from the clear-text part of
// a Type 1 font program. It returns nil when the program uses
// StandardEncoding or declares no encoding.
func type1Encoding(data []byte) map[byte]string {
	if i := bytes.Index(data, []byte("eexec")); i >= 0 {
		data = data[:i]
	}
	start := bytes.Index(data, []byte("/Encoding"))
	if start < 0 {
		return nil
	}
	rest := data[start:]
	if bytes.HasPrefix(bytes.TrimLeft(rest[len("/Encoding"):], " \t\r\n"), []byte("StandardEncoding")) {
		return nil
	}
	names := make(map[byte]string)
	for _, m := range dupRe.FindAllSubmatch(rest, -1) {
		code, err := strconv.Atoi(string(m[1]))
		if err != nil || code > 255 {
			continue
		}
		names[byte(code)] = string(m[2])
	}
	if len(names) == 0 {
		return nil
	}
	return names
}
