package runtime

import (
	"sort"
	"strings"

	"github.com/vango-dev/resume/pkg/codec"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/symbol"
	"github.com/vango-dev/resume/pkg/vdom"
)

// Props is the property store of one element, backed by its attributes.
// Keys are camel-cased property names or attribute names; values use the
// attribute grammar, and object references are recorded in the element's
// subscription table so the objects are dehydrated with the document.
type Props struct {
	ctx *Context
	el  dom.Node
}

var _ reactive.Observable = (*Props)(nil)

// Element returns the backing element.
func (p *Props) Element() dom.Node { return p.el }

// Get decodes a property. Missing properties are nil.
func (p *Props) Get(key string) any {
	raw, ok := p.el.Attr(codec.KebabCase(key))
	if !ok {
		return nil
	}
	v, err := codec.DecodeAttr(raw, p.ctx)
	if err != nil {
		p.ctx.logger.Warn("undecodable property", "name", key, "error", err)
		return raw
	}
	return v
}

// Set writes a property. A change on a component host schedules its
// render.
func (p *Props) Set(key string, value any) {
	if p.Assign(codec.KebabCase(key), value) && dom.HasAttr(p.el, vdom.HookAttr) {
		p.ctx.Notify(p.el)
	}
}

// Keys returns the property names, excluding reserved attributes.
func (p *Props) Keys() []string {
	var keys []string
	for _, a := range p.el.Attrs() {
		if reserved(a.Name) {
			continue
		}
		keys = append(keys, codec.CamelCase(a.Name))
	}
	sort.Strings(keys)
	return keys
}

// Assign writes the attribute name without scheduling anything and
// reports whether it changed. Records are wrapped so they are written as
// references; nil removes the attribute.
func (p *Props) Assign(name string, value any) bool {
	if value == nil {
		return p.Remove(name)
	}
	if rec, ok := value.(reactive.Record); ok && rec != nil {
		value = p.ctx.Wrap(rec)
	}

	refs := &referenceList{}
	enc, err := codec.EncodeAttr(value, refs)
	if err != nil {
		p.ctx.logger.Warn("unencodable property", "name", name, "error", err)
		return false
	}
	cur, has := p.el.Attr(name)
	if has && cur == enc {
		return false
	}
	if has {
		p.release(name, cur)
	}
	for _, o := range refs.objects {
		p.ctx.subs.Attach(p.el, o.ID(), o, false, 1)
	}
	if isLocatorAttr(name) {
		for _, id := range locatorRefs(enc) {
			if o, ok := p.ctx.Resolve(id); ok {
				p.ctx.subs.Attach(p.el, id, o, false, 1)
			}
		}
	}
	p.el.SetAttr(name, enc)
	return true
}

// Remove deletes the attribute name and reports whether it existed.
func (p *Props) Remove(name string) bool {
	cur, has := p.el.Attr(name)
	if !has {
		return false
	}
	p.release(name, cur)
	p.el.RemoveAttr(name)
	return true
}

func (p *Props) release(name, encoded string) {
	ids, err := codec.References(encoded)
	if err != nil {
		return
	}
	if isLocatorAttr(name) {
		ids = append(ids, locatorRefs(encoded)...)
	}
	for _, id := range ids {
		p.ctx.subs.Release(p.el, id)
	}
}

func isLocatorAttr(name string) bool {
	return name == vdom.HookAttr || strings.HasPrefix(name, vdom.EventPrefix)
}

// locatorRefs returns the objects referenced by the call arguments of an
// encoded locator.
func locatorRefs(encoded string) []string {
	if encoded == "" || strings.HasPrefix(encoded, codec.RefPrefix) {
		return nil
	}
	v, err := codec.DecodeAttr(encoded, nil)
	if err != nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	loc, err := symbol.Parse(s)
	if err != nil {
		return nil
	}
	var ids []string
	for _, a := range loc.Args {
		refs, err := codec.References(a.Value)
		if err != nil {
			continue
		}
		ids = append(ids, refs...)
	}
	return ids
}

func reserved(name string) bool {
	return strings.HasPrefix(name, "rs:") || strings.HasPrefix(name, vdom.EventPrefix)
}

type referenceList struct {
	objects []*reactive.Object
}

func (l *referenceList) Reference(o *reactive.Object) {
	l.objects = append(l.objects, o)
}
