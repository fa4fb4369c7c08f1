package filters

import "github.com/pkg/errors"

// Params holds decode parameters converted to Go values: int, float64,
// bool and string.
type Params map[string]interface{}

// ErrUnsupportedFilter is returned for filters this package cannot
// decode.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Decode applies the named filter. Abbreviated names used in inline
// images are accepted.
func Decode(name string, data []byte, params Params) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return FlateDecode(data, params)
	case "LZWDecode", "LZW":
		return LZWDecode(data, params)
	case "ASCIIHexDecode", "AHx":
		return ASCIIHexDecode(data)
	case "ASCII85Decode", "A85":
		return ASCII85Decode(data)
	case "RunLengthDecode", "RL":
		return RunLengthDecode(data)
	case "CCITTFaxDecode", "CCF":
		return CCITTFaxDecode(data, params)
	}
	return nil, errors.Wrap(ErrUnsupportedFilter, name)
}

// IsImageFilter reports whether name produces an encoded image payload
// that is passed through undecoded.
func IsImageFilter(name string) bool {
	switch name {
	case "DCTDecode", "DCT", "JPXDecode", "JBIG2Decode":
		return true
	}
	return false
}

func getIntParam(params Params, key string, defaultValue int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

func getBoolParam(params Params, key string, defaultValue bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return defaultValue
}
