package graphicsstate

import (
	"fmt"
	"math"

	"github.com/tsawler/folio/core"
)

// ColorSpace converts color components to RGB.
type ColorSpace struct {
	Family string // DeviceGray, DeviceRGB, DeviceCMYK, Indexed, Separation, Pattern, ...
	N      int    // components per color value

	// Indexed
	Base   *ColorSpace
	HiVal  int
	Lookup []byte
}

// Device color spaces.
var (
	DeviceGray = &ColorSpace{Family: "DeviceGray", N: 1}
	DeviceRGB  = &ColorSpace{Family: "DeviceRGB", N: 3}
	DeviceCMYK = &ColorSpace{Family: "DeviceCMYK", N: 4}
	patternCS  = &ColorSpace{Family: "Pattern", N: 1}
)

// Initial returns the initial color value of the space: black for the
// device spaces, index 0 for Indexed, full tint for Separation.
func (cs *ColorSpace) Initial() []float64 {
	switch cs.Family {
	case "DeviceCMYK":
		return []float64{0, 0, 0, 1}
	case "Separation", "DeviceN":
		v := make([]float64, cs.N)
		for i := range v {
			v[i] = 1
		}
		return v
	}
	return make([]float64, cs.N)
}

// RGB converts a color value to RGB components in [0, 1]. Missing
// components count as zero.
func (cs *ColorSpace) RGB(c []float64) (r, g, b float64) {
	at := func(i int) float64 {
		if i < len(c) {
			return clamp01(c[i])
		}
		return 0
	}
	switch cs.Family {
	case "DeviceGray", "CalGray":
		v := at(0)
		return v, v, v
	case "DeviceRGB", "CalRGB":
		return at(0), at(1), at(2)
	case "DeviceCMYK":
		return cmykToRGB(at(0), at(1), at(2), at(3))
	case "Lab":
		// Only lightness is kept.
		if len(c) > 0 {
			v := clamp01(c[0] / 100)
			return v, v, v
		}
		return 0, 0, 0
	case "Indexed":
		idx := 0
		if len(c) > 0 {
			idx = int(math.Round(c[0]))
		}
		return cs.lookup(idx)
	case "Separation", "DeviceN":
		// The tint is shown as gray: full tint is black.
		tint := 0.0
		for i := range cs.N {
			tint = max(tint, at(i))
		}
		v := 1 - tint
		return v, v, v
	case "Pattern":
		return 0.5, 0.5, 0.5
	}
	return 0, 0, 0
}

func (cs *ColorSpace) lookup(idx int) (r, g, b float64) {
	idx = max(0, min(idx, cs.HiVal))
	n := cs.Base.N
	off := idx * n
	if off+n > len(cs.Lookup) {
		return 0, 0, 0
	}
	comps := make([]float64, n)
	for i := range comps {
		comps[i] = float64(cs.Lookup[off+i]) / 255
	}
	return cs.Base.RGB(comps)
}

// DecodeRange returns the default /Decode range for component values of
// an image with bpc bits per component.
func (cs *ColorSpace) DecodeRange(bpc int) []float64 {
	if cs.Family == "Indexed" {
		return []float64{0, float64(int(1)<<bpc - 1)}
	}
	if cs.Family == "Lab" {
		return []float64{0, 100, -100, 100, -100, 100}
	}
	out := make([]float64, 0, 2*cs.N)
	for range cs.N {
		out = append(out, 0, 1)
	}
	return out
}

// cmykToRGB converts CMYK to RGB
func cmykToRGB(c, m, y, k float64) (r, g, b float64) {
	r = (1 - c) * (1 - k)
	g = (1 - m) * (1 - k)
	b = (1 - y) * (1 - k)
	return
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ParseColorSpace resolves a color space operand or resource value.
// Names not defined by PDF are looked up in the /ColorSpace resources.
func ParseColorSpace(obj core.Object, resources core.Dict, r Resolver) (*ColorSpace, error) {
	return parseColorSpace(obj, resources, r, 0)
}

func parseColorSpace(obj core.Object, resources core.Dict, r Resolver, depth int) (*ColorSpace, error) {
	if depth > 8 {
		return nil, fmt.Errorf("%w: color space nesting too deep", ErrColorSpace)
	}
	obj, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := obj.(type) {
	case core.Name:
		switch v {
		case "DeviceGray", "G", "CalGray":
			return DeviceGray, nil
		case "DeviceRGB", "RGB", "CalRGB":
			return DeviceRGB, nil
		case "DeviceCMYK", "CMYK":
			return DeviceCMYK, nil
		case "Pattern":
			return patternCS, nil
		case "Indexed", "I":
			return nil, fmt.Errorf("%w: bare /Indexed", ErrColorSpace)
		}
		if resources != nil {
			if csDict, err := resolveDict(resources.Get("ColorSpace"), r); err == nil && csDict != nil {
				if def := csDict.Get(string(v)); def != nil {
					return parseColorSpace(def, nil, r, depth+1)
				}
			}
		}
		return nil, fmt.Errorf("%w: unknown color space /%s", ErrColorSpace, v)
	case core.Array:
		return parseColorSpaceArray(v, resources, r, depth)
	}
	return nil, fmt.Errorf("%w: %T", ErrColorSpace, obj)
}

func parseColorSpaceArray(arr core.Array, resources core.Dict, r Resolver, depth int) (*ColorSpace, error) {
	family, ok := arr.GetName(0)
	if !ok {
		return nil, fmt.Errorf("%w: array without family name", ErrColorSpace)
	}
	switch family {
	case "CalGray":
		return &ColorSpace{Family: "CalGray", N: 1}, nil
	case "CalRGB":
		return &ColorSpace{Family: "CalRGB", N: 3}, nil
	case "Lab":
		return &ColorSpace{Family: "Lab", N: 3}, nil
	case "ICCBased":
		stream, err := r.Resolve(arr.Get(1))
		if err != nil {
			return nil, err
		}
		s, ok := stream.(*core.Stream)
		if !ok {
			return nil, fmt.Errorf("%w: ICCBased without stream", ErrColorSpace)
		}
		n, _ := s.Dict.GetInt("N")
		switch n {
		case 1:
			return DeviceGray, nil
		case 4:
			return DeviceCMYK, nil
		case 3:
			return DeviceRGB, nil
		}
		if alt := s.Dict.Get("Alternate"); alt != nil {
			return parseColorSpace(alt, resources, r, depth+1)
		}
		return DeviceRGB, nil
	case "Indexed", "I":
		base, err := parseColorSpace(arr.Get(1), resources, r, depth+1)
		if err != nil {
			return nil, err
		}
		hival, _ := core.Number(arr.Get(2))
		lookup, err := r.Resolve(arr.Get(3))
		if err != nil {
			return nil, err
		}
		cs := &ColorSpace{Family: "Indexed", N: 1, Base: base, HiVal: max(0, min(int(hival), 255))}
		switch l := lookup.(type) {
		case core.String:
			cs.Lookup = []byte(l)
		case *core.Stream:
			data, err := l.Decode()
			if err != nil {
				return nil, fmt.Errorf("%w: Indexed lookup: %w", ErrColorSpace, err)
			}
			cs.Lookup = data
		}
		return cs, nil
	case "Separation":
		return &ColorSpace{Family: "Separation", N: 1}, nil
	case "DeviceN":
		names, err := r.Resolve(arr.Get(1))
		if err != nil {
			return nil, err
		}
		n := 1
		if a, ok := names.(core.Array); ok && len(a) > 0 {
			n = len(a)
		}
		return &ColorSpace{Family: "DeviceN", N: n}, nil
	case "Pattern":
		return patternCS, nil
	case "DeviceGray", "DeviceRGB", "DeviceCMYK":
		return parseColorSpace(family, resources, r, depth+1)
	}
	return nil, fmt.Errorf("%w: unsupported family /%s", ErrColorSpace, family)
}

func resolveDict(obj core.Object, r Resolver) (core.Dict, error) {
	if obj == nil {
		return nil, nil
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case core.Dict:
		return v, nil
	case *core.Stream:
		return v.Dict, nil
	}
	return nil, nil
}
