package filters

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes Group 3 or Group 4 fax data into packed 1 bit
// samples, most significant bit first, one row padded to a byte.
//
// K < 0 selects Group 4, anything else Group 3. With BlackIs1 false a
// 0 bit is black, matching DeviceGray with the default /Decode.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1728)
	rows := getIntParam(params, "Rows", 0)
	k := getIntParam(params, "K", 0)

	sf := ccitt.Group3
	if k < 0 {
		sf = ccitt.Group4
	}
	opts := &ccitt.Options{
		Invert: getBoolParam(params, "BlackIs1", false),
		Align:  getBoolParam(params, "EncodedByteAlign", false),
	}
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}

	out, err := io.ReadAll(ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts))
	if err != nil && len(out) == 0 {
		return nil, errors.Wrap(err, "ccittfax")
	}
	return out, nil
}
