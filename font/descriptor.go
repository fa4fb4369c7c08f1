package font

import (
	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/model"
)

// Font descriptor flags.
const (
	FlagFixedPitch  = 1 << 0
	FlagSerif       = 1 << 1
	FlagSymbolic    = 1 << 2
	FlagScript      = 1 << 3
	FlagNonsymbolic = 1 << 5
	FlagItalic      = 1 << 6
	FlagAllCap      = 1 << 16
	FlagSmallCap    = 1 << 17
	FlagForceBold   = 1 << 18
)

// Descriptor contains font metrics and properties
type Descriptor struct {
	FontName     string
	Flags        int
	FontBBox     model.Rect
	ItalicAngle  float64
	Ascent       float64
	Descent      float64
	CapHeight    float64
	StemV        float64
	MissingWidth float64
	FontFile     *core.Stream // Type 1 program
	FontFile2    *core.Stream // TrueType program
	FontFile3    *core.Stream // program identified by its /Subtype
}

// Symbolic reports whether the font uses characters outside the
// standard Latin set.
func (d *Descriptor) Symbolic() bool {
	return d != nil && d.Flags&FlagSymbolic != 0
}

// Embedded reports whether any font program is present.
func (d *Descriptor) Embedded() bool {
	return d != nil && (d.FontFile != nil || d.FontFile2 != nil || d.FontFile3 != nil)
}

func parseDescriptor(obj core.Object, r Resolver) *Descriptor {
	dict := resolveDict(obj, r)
	if dict == nil {
		return nil
	}
	d := &Descriptor{}
	if name, ok := dict.GetName("FontName"); ok {
		d.FontName = string(name)
	}
	d.Flags = int(number(dict.Get("Flags"), r))
	if arr := resolveArray(dict.Get("FontBBox"), r); len(arr) >= 4 {
		if v, ok := arr.Numbers(); ok {
			d.FontBBox = model.NewRect(v[0], v[1], v[2], v[3])
		}
	}
	d.ItalicAngle = number(dict.Get("ItalicAngle"), r)
	d.Ascent = number(dict.Get("Ascent"), r)
	d.Descent = number(dict.Get("Descent"), r)
	d.CapHeight = number(dict.Get("CapHeight"), r)
	d.StemV = number(dict.Get("StemV"), r)
	d.MissingWidth = number(dict.Get("MissingWidth"), r)
	d.FontFile = resolveStream(dict.Get("FontFile"), r)
	d.FontFile2 = resolveStream(dict.Get("FontFile2"), r)
	d.FontFile3 = resolveStream(dict.Get("FontFile3"), r)
	return d
}

// Helpers shared by the loaders. Resolution errors degrade to missing
// values; a broken entry should not make the whole font unusable.

func resolve(obj core.Object, r Resolver) core.Object {
	if obj == nil {
		return nil
	}
	if _, ok := obj.(core.IndirectRef); !ok {
		return obj
	}
	out, err := r.Resolve(obj)
	if err != nil {
		return nil
	}
	return out
}

func resolveDict(obj core.Object, r Resolver) core.Dict {
	switch v := resolve(obj, r).(type) {
	case core.Dict:
		return v
	case *core.Stream:
		return v.Dict
	}
	return nil
}

func resolveArray(obj core.Object, r Resolver) core.Array {
	arr, _ := resolve(obj, r).(core.Array)
	return arr
}

func resolveStream(obj core.Object, r Resolver) *core.Stream {
	s, _ := resolve(obj, r).(*core.Stream)
	return s
}

func number(obj core.Object, r Resolver) float64 {
	v, _ := core.Number(resolve(obj, r))
	return v
}
