package pages

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/model"
)

// Annotation flags
const (
	AnnotInvisible = 1 << 0
	AnnotHidden    = 1 << 1
	AnnotPrint     = 1 << 2
	AnnotNoView    = 1 << 5
)

// Annotation is one entry of a page's /Annots array.
type Annotation struct {
	Ref     core.IndirectRef
	Subtype string
	Rect    model.Rect
	Flags   int
	Dict    core.Dict
}

// Visible reports whether the annotation is drawn on screen.
func (a Annotation) Visible() bool {
	return a.Flags&(AnnotHidden|AnnotNoView) == 0
}

// Link is a link annotation with its target.
type Link struct {
	Rect model.Rect
	URI  string
	Dest *Destination
}

// Annotations returns the page's annotations in document order. Entries
// that do not resolve to dictionaries are skipped. The list is read once
// and shared by later calls.
func (p *Page) Annotations() ([]Annotation, error) {
	p.annotsOnce.Do(func() {
		p.annots, p.annotsErr = p.loadAnnotations()
	})
	return p.annots, p.annotsErr
}

func (p *Page) loadAnnotations() ([]Annotation, error) {
	obj := p.dict.Get("Annots")
	if obj == nil {
		return nil, nil
	}
	resolved, err := p.tree.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Annots: %w", err)
	}
	arr, _ := resolved.(core.Array)

	annots := make([]Annotation, 0, len(arr))
	for _, item := range arr {
		ref, _ := item.(core.IndirectRef)
		v, err := p.tree.resolver.Resolve(item)
		if err != nil {
			continue
		}
		dict, ok := v.(core.Dict)
		if !ok {
			continue
		}
		a := Annotation{Ref: ref, Dict: dict}
		if st, ok := dict.GetName("Subtype"); ok {
			a.Subtype = string(st)
		}
		if f, ok := dict.GetInt("F"); ok {
			a.Flags = int(f)
		}
		if r, err := p.tree.resolver.Resolve(dict.Get("Rect")); err == nil {
			if arr, ok := r.(core.Array); ok && len(arr) == 4 {
				if v, ok := arr.Numbers(); ok {
					a.Rect = model.NewRect(v[0], v[1], v[2], v[3])
				}
			}
		}
		annots = append(annots, a)
	}
	return annots, nil
}

// Links returns the page's link annotations in document order.
func (p *Page) Links() ([]Link, error) {
	annots, err := p.Annotations()
	if err != nil {
		return nil, err
	}
	var links []Link
	for _, a := range annots {
		if a.Subtype != "Link" {
			continue
		}
		link := Link{Rect: a.Rect}
		if d := a.Dict.Get("Dest"); d != nil {
			link.Dest = p.tree.ResolveDest(d)
		}
		if action := p.tree.resolveDict(a.Dict.Get("A")); action != nil {
			switch s, _ := action.GetName("S"); s {
			case "URI":
				if uri, err := p.tree.resolver.Resolve(action.Get("URI")); err == nil {
					if s, ok := uri.(core.String); ok {
						link.URI = p.tree.resolveURI(string(s))
					}
				}
			case "GoTo":
				if link.Dest == nil {
					link.Dest = p.tree.ResolveDest(action.Get("D"))
				}
			}
		}
		links = append(links, link)
	}
	return links, nil
}

// resolveURI applies the catalog /URI /Base and converts non-ASCII host
// names to their ASCII form.
func (t *Tree) resolveURI(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if !u.IsAbs() {
		if uriDict := t.resolveDict(t.catalog.Get("URI")); uriDict != nil {
			if b, err := t.resolver.Resolve(uriDict.Get("Base")); err == nil {
				if bs, ok := b.(core.String); ok {
					if base, err := url.Parse(string(bs)); err == nil {
						u = base.ResolveReference(u)
					}
				}
			}
		}
	}

	if host := u.Hostname(); host != "" && !isASCII(host) {
		if ascii, err := idna.Lookup.ToASCII(host); err == nil {
			if port := u.Port(); port != "" {
				ascii += ":" + port
			}
			u.Host = ascii
		}
	}
	return u.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// resolveDict resolves obj and returns it when it is a dictionary.
func (t *Tree) resolveDict(obj core.Object) core.Dict {
	if obj == nil {
		return nil
	}
	v, err := t.resolver.Resolve(obj)
	if err != nil {
		return nil
	}
	d, _ := v.(core.Dict)
	return d
}
