package core

import (
	"fmt"

	"github.com/tsawler/folio/internal/filters"
)

// Filters returns the stream's filter names and their decode parameters,
// aligned by index. Missing parameters are nil.
func (s *Stream) Filters() ([]string, []Dict, error) {
	return FilterChain(s.Dict.Get("Filter"), s.Dict.Get("DecodeParms"))
}

// FilterChain normalizes /Filter and /DecodeParms values, which may each
// be a single object or an array. Inline image abbreviations are kept
// as written.
func FilterChain(filterObj, paramsObj Object) ([]string, []Dict, error) {
	var names []string
	switch f := filterObj.(type) {
	case nil, Null:
		return nil, nil, nil
	case Name:
		names = []string{string(f)}
	case Array:
		for i, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, nil, fmt.Errorf("filter %d is not a name: %T", i, item)
			}
			names = append(names, string(n))
		}
	default:
		return nil, nil, fmt.Errorf("invalid Filter type: %T", filterObj)
	}

	params := make([]Dict, len(names))
	switch p := paramsObj.(type) {
	case Dict:
		params[0] = p
	case Array:
		for i := range params {
			if d, ok := p.Get(i).(Dict); ok {
				params[i] = d
			}
		}
	}
	return names, params, nil
}

// Decode applies the stream's filters in order. Decoding stops before an
// image payload filter (DCT, JPX, JBIG2); use DecodeImage to learn which
// one remains.
func (s *Stream) Decode() ([]byte, error) {
	data, _, _, err := s.DecodeImage()
	return data, err
}

// DecodeImage decodes the stream up to the first image payload filter
// and returns that filter's name and parameters, or "" when the data is
// fully decoded.
func (s *Stream) DecodeImage() ([]byte, string, Dict, error) {
	names, params, err := s.Filters()
	if err != nil {
		return nil, "", nil, err
	}
	return DecodeFilters(s.Data, names, params)
}

// DecodeFilters runs data through a filter chain. See Stream.DecodeImage.
func DecodeFilters(data []byte, names []string, params []Dict) ([]byte, string, Dict, error) {
	for i, name := range names {
		if filters.IsImageFilter(name) {
			return data, name, params[i], nil
		}
		if name == "Crypt" {
			// Only the Identity crypt filter reaches here; others are
			// removed when the object is decrypted.
			continue
		}
		out, err := filters.Decode(name, data, dictToParams(params[i]))
		if err != nil {
			return nil, "", nil, fmt.Errorf("filter %d (%s) failed: %w", i, name, err)
		}
		data = out
	}
	return data, "", nil, nil
}

// dictToParams converts decode parameters to filters.Params.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		}
	}
	return params
}
