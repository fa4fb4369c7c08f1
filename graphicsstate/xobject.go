package graphicsstate

import (
	"fmt"

	"github.com/tsawler/folio/contentstream"
	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/model"
)

// xobject paints the named XObject (Do operator).
func (p *Processor) xobject(name string) error {
	if p.resources == nil {
		return nil
	}
	xobjects, err := resolveDict(p.resources.Get("XObject"), p.r)
	if err != nil || xobjects == nil {
		return err
	}
	obj := xobjects.Get(name)
	if obj == nil {
		p.log.Debug("XObject not found", "name", name)
		return nil
	}
	var num int
	if ref, ok := obj.(core.IndirectRef); ok {
		num = ref.Number
	}
	resolved, err := p.r.Resolve(obj)
	if err != nil {
		return err
	}
	s, ok := resolved.(*core.Stream)
	if !ok {
		p.log.Debug("XObject is not a stream", "name", name)
		return nil
	}

	subtype, _ := s.Dict.GetName("Subtype")
	switch subtype {
	case "Image":
		p.image(s, false)
	case "Form":
		return p.form(s, num, model.Identity())
	default:
		p.log.Debug("XObject skipped", "name", name, "subtype", string(subtype))
	}
	return nil
}

// form runs a form XObject. num identifies the form for recursion
// checks; 0 means a direct stream.
func (p *Processor) form(s *core.Stream, num int, extra model.Matrix) error {
	if p.tooDeep() {
		p.log.Debug("form nesting too deep", "object", num)
		return nil
	}
	if containsForm(p.forms, num) {
		p.log.Debug("recursive form skipped", "object", num)
		return nil
	}
	data, err := s.Decode()
	if err != nil {
		p.log.Debug("form content skipped", "object", num, "error", err)
		return nil
	}
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return fmt.Errorf("form %d: %w", num, err)
	}

	m := model.Identity()
	if arr, ok := s.Dict.GetArray("Matrix"); ok && len(arr) == 6 {
		if v, ok := arr.Numbers(); ok {
			m = model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
		}
	}
	var bbox *Path
	if arr, ok := s.Dict.GetArray("BBox"); ok && len(arr) == 4 {
		if v, ok := arr.Numbers(); ok {
			r := model.NewRect(v[0], v[1], v[2], v[3])
			bbox = NewPath()
			bbox.Rectangle(r.Left, r.Bottom, r.Width(), r.Height())
		}
	}
	res, err := resolveDict(s.Dict.Get("Resources"), p.r)
	if err != nil {
		return err
	}

	p.forms = append(p.forms, num)
	defer func() { p.forms = p.forms[:len(p.forms)-1] }()
	return p.nested(ops, res, func(gs *GraphicsState) {
		gs.Transform(extra)
		gs.Transform(m)
		if bbox != nil {
			gs.Intersect(bbox, false)
		}
	})
}

// image hands an image to the device with its color space resolved.
func (p *Processor) image(s *core.Stream, inline bool) {
	img := &Image{Stream: s, Inline: inline, Resources: p.resources}
	if mask, _ := s.Dict.GetBool("ImageMask"); !mask {
		if csObj := s.Dict.Get("ColorSpace"); csObj != nil {
			cs, err := ParseColorSpace(csObj, p.resources, p.r)
			if err != nil {
				p.log.Debug("image color space unusable", "error", err)
			}
			img.ColorSpace = cs
		}
	}
	p.dev.DrawImage(p.gs, img)
}
