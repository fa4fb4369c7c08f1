package filters

import (
	"bytes"
	"io"

	"github.com/hhrutter/lzw"
	"github.com/pkg/errors"
)

// LZWDecode decodes LZW data. EarlyChange defaults to 1, meaning the
// code width grows one code early, as in TIFF.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	earlyChange := getIntParam(params, "EarlyChange", 1) == 1
	r := lzw.NewReader(bytes.NewReader(data), earlyChange)
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil && len(out) == 0 {
		return nil, errors.Wrap(err, "lzw")
	}
	return applyPredictor(out, params)
}
