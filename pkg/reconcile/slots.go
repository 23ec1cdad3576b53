package reconcile

import (
	"sort"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/vdom"
)

// ownedSlots returns the projection elements belonging to host, by name
// in document order. Slots rendered by nested component hosts belong to
// those hosts, but content projected into them belongs to host again.
func ownedSlots(host dom.Node) map[string][]dom.Node {
	slots := make(map[string][]dom.Node)
	var walk func(n dom.Node, own bool)
	walk = func(n dom.Node, own bool) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if c.Type() != dom.ElementNode {
				continue
			}
			switch {
			case isSlotElement(c):
				if own {
					name, _ := c.Attr("name")
					slots[name] = append(slots[name], c)
				} else {
					walk(c, true)
				}
			case isUnslotted(c):
				if !own {
					walk(c, true)
				}
			case isHost(c):
				walk(c, false)
			default:
				walk(c, own)
			}
		}
	}
	walk(host, true)
	return slots
}

// unslotted returns the host's unslotted template, or nil.
func unslotted(host dom.Node) dom.Node {
	for c := host.FirstChild(); c != nil; c = c.NextSibling() {
		if isUnslotted(c) {
			return c
		}
	}
	return nil
}

func ensureUnslotted(doc dom.Document, host dom.Node) dom.Node {
	if t := unslotted(host); t != nil {
		return t
	}
	t := doc.CreateElement("template")
	t.SetAttr(UnslottedAttr, "")
	host.AppendChild(t)
	return t
}

// projection resolves slot markers while a host's render output is
// reconciled. Each named slot element is handed out at most once per
// pass, in document order.
type projection struct {
	r     *Reconciler
	host  dom.Node
	slots map[string][]dom.Node
	used  map[string]int
	taken map[dom.Node]bool
}

func (r *Reconciler) newProjection(host dom.Node) *projection {
	return &projection{
		r:     r,
		host:  host,
		slots: ownedSlots(host),
		used:  make(map[string]int),
		taken: make(map[dom.Node]bool),
	}
}

// take returns the next unconsumed slot element for name, creating one
// filled from the unslotted template when none is left.
func (p *projection) take(name string) (el dom.Node, created bool) {
	list := p.slots[name]
	if i := p.used[name]; i < len(list) {
		p.used[name] = i + 1
		p.taken[list[i]] = true
		return list[i], false
	}

	doc := p.r.env.Document()
	el = doc.CreateElement(vdom.SlotTag)
	el.SetAttr("name", name)
	if t := unslotted(p.host); t != nil {
		var moving []dom.Node
		for c := t.FirstChild(); c != nil; c = c.NextSibling() {
			if slotName(c) == name {
				moving = append(moving, c)
			}
		}
		for _, c := range moving {
			el.AppendChild(c)
		}
	}
	p.taken[el] = true
	p.slots[name] = append(p.slots[name], el)
	p.used[name] = len(p.slots[name])
	return el, true
}

// pending reports whether n is a slot element of this host that can
// still be taken in this pass.
func (p *projection) pending(n dom.Node) bool {
	if !isSlotElement(n) || p.taken[n] {
		return false
	}
	name, _ := n.Attr("name")
	list := p.slots[name]
	for _, s := range list[p.used[name]:] {
		if s == n {
			return true
		}
	}
	return false
}

// rescue moves the content of untaken slot elements inside n into the
// unslotted template so removing n does not lose projected content.
func (p *projection) rescue(n dom.Node) {
	for _, name := range p.names() {
		for _, s := range p.slots[name] {
			if p.taken[s] || !dom.Contains(n, s) || s.FirstChild() == nil {
				continue
			}
			t := ensureUnslotted(p.r.env.Document(), p.host)
			for _, c := range dom.Children(s) {
				t.AppendChild(c)
			}
		}
	}
}

// finish rescues slot elements that were not rendered this pass and
// drops an empty unslotted template.
func (p *projection) finish() {
	for _, name := range p.names() {
		for _, s := range p.slots[name] {
			if p.taken[s] || s.Parent() == nil || !dom.Contains(p.host, s) {
				continue
			}
			p.rescue(s)
			s.Parent().RemoveChild(s)
		}
	}
	if t := unslotted(p.host); t != nil && t.FirstChild() == nil {
		p.host.RemoveChild(t)
	}
}

func (p *projection) names() []string {
	names := make([]string, 0, len(p.slots))
	for name := range p.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SlotMap routes projected content of one component host to per-slot
// cursors. Slots rendered by the host get a cursor over their element;
// other names share the unslotted template, each cursor owning only the
// nodes of its name.
type SlotMap struct {
	r       *Reconciler
	host    dom.Node
	proj    *projection
	cursors map[string]*Cursor
	order   []string
	closed  bool
}

func (r *Reconciler) newSlotMap(host dom.Node, proj *projection) *SlotMap {
	m := &SlotMap{
		r:       r,
		host:    host,
		proj:    proj,
		cursors: make(map[string]*Cursor),
	}
	for name, list := range ownedSlots(host) {
		m.add(name, r.newCursor(list[0], list[0].FirstChild(), nil, proj))
	}
	if t := unslotted(host); t != nil {
		for c := t.FirstChild(); c != nil; c = c.NextSibling() {
			name := slotName(c)
			if _, ok := m.cursors[name]; !ok {
				m.add(name, m.templateCursor(t, name))
			}
		}
	}
	sort.Strings(m.order)
	return m
}

func (m *SlotMap) add(name string, c *Cursor) {
	m.cursors[name] = c
	m.order = append(m.order, name)
}

func (m *SlotMap) templateCursor(t dom.Node, name string) *Cursor {
	c := m.r.newCursor(t, t.FirstChild(), nil, m.proj)
	c.match = func(n dom.Node) bool { return slotName(n) == name }
	return c
}

// Cursor returns the cursor for content named name.
func (m *SlotMap) Cursor(name string) *Cursor {
	if c, ok := m.cursors[name]; ok {
		return c
	}
	t := ensureUnslotted(m.r.env.Document(), m.host)
	c := m.templateCursor(t, name)
	m.add(name, c)
	return c
}

// Close closes every slot cursor, pruning unconsumed content.
func (m *SlotMap) Close() {
	if m.closed {
		errors.Fatal("R005")
	}
	m.closed = true
	for _, name := range m.order {
		m.cursors[name].Close()
	}
	if t := unslotted(m.host); t != nil && t.FirstChild() == nil {
		m.host.RemoveChild(t)
	}
}

// contentSlot returns the slot name a virtual content node targets.
func contentSlot(v *vdom.VNode) string {
	if v.Kind != vdom.KindElement {
		return ""
	}
	name, _ := v.Props[vdom.SlotAttr].(string)
	return name
}
