package codec

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/reactive"
)

// Reserved names of the state block.
const (
	StateAttr = "rs:state"
	StateType = "rs/json"

	// Marker prefixes a nested object's identifier inside the state block.
	Marker = "\u0010"
)

// State is the decoded content of a state block: plain records keyed by
// identifier, nested objects still written as markers.
type State map[string]reactive.Record

// Collect gathers the records of the objects named by ids and of every
// object reachable from them. Nested records are registered in reg so
// shared records keep one identifier, then replaced by markers. Unknown
// identifiers are skipped and returned.
func Collect(reg *reactive.Registry, ids []string) (State, []string) {
	c := &collector{reg: reg, state: make(State)}
	var missing []string

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	for _, id := range sorted {
		o := reg.Lookup(id)
		if o == nil {
			missing = append(missing, id)
			continue
		}
		c.visit(o)
	}
	for len(c.queue) > 0 {
		o := c.queue[0]
		c.queue = c.queue[1:]
		c.state[o.ID()] = c.encodeRecord(o.Raw())
	}
	return c.state, missing
}

type collector struct {
	reg   *reactive.Registry
	state State
	queue []*reactive.Object
}

func (c *collector) visit(o *reactive.Object) string {
	id := o.ID()
	if _, seen := c.state[id]; !seen {
		// Reserve the slot so cycles terminate.
		c.state[id] = nil
		c.queue = append(c.queue, o)
	}
	return Marker + id
}

func (c *collector) encodeRecord(rec reactive.Record) reactive.Record {
	out := make(reactive.Record, len(rec))
	for k, v := range rec {
		out[k] = c.encodeValue(v)
	}
	return out
}

func (c *collector) encodeValue(v any) any {
	switch x := v.(type) {
	case *reactive.Object:
		return c.visit(x)
	case reactive.Record:
		if x == nil {
			return nil
		}
		o := c.reg.WrapRecord(x)
		return c.visit(o)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = c.encodeValue(e)
		}
		return out
	default:
		return v
	}
}

// Marshal encodes the state as JSON.
func (s State) Marshal() ([]byte, error) {
	data, err := json.Marshal(map[string]reactive.Record(s))
	if err != nil {
		return nil, errors.New("R030").Wrap(err)
	}
	return data, nil
}

// WriteState replaces the document's state block with data, appended as
// the last child of body.
func WriteState(doc dom.Document, data []byte) dom.Node {
	RemoveState(doc)

	script := doc.CreateElement("script")
	script.SetAttr("type", StateType)
	script.SetAttr(StateAttr, "")
	script.AppendChild(doc.CreateText(string(data)))
	doc.Body().AppendChild(script)
	return script
}

// FindState returns the state block element, or nil.
func FindState(doc dom.Document) dom.Node {
	nodes := doc.QueryAttr(StateAttr)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// RemoveState detaches every state block.
func RemoveState(doc dom.Document) {
	for _, n := range doc.QueryAttr(StateAttr) {
		if p := n.Parent(); p != nil {
			p.RemoveChild(n)
		}
	}
}

// ReadState decodes the state block without reviving it. ok is false when
// the document has none.
func ReadState(doc dom.Document) (state State, ok bool, err error) {
	script := FindState(doc)
	if script == nil {
		return nil, false, nil
	}
	state, err = ParseState(textContent(script))
	return state, true, err
}

// ParseState decodes state block JSON.
func ParseState(text string) (State, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errors.New("R030").Wrap(err)
	}
	state := make(State, len(raw))
	for id, v := range raw {
		rec, ok := v.(map[string]any)
		if !ok {
			return nil, errors.New("R030").WithDetail("entry %q is not a record", id)
		}
		state[id] = rec
	}
	return state, nil
}

// Revive registers every record of the state under its original
// identifier and replaces markers with the records they name, so shared
// references point at one record again.
func Revive(reg *reactive.Registry, state State) (map[string]*reactive.Object, error) {
	objects := make(map[string]*reactive.Object, len(state))
	for id, rec := range state {
		objects[id] = reg.WrapWithID(rec, id)
	}
	for _, rec := range state {
		for k, v := range rec {
			r, err := reviveValue(v, state)
			if err != nil {
				return nil, err
			}
			rec[k] = r
		}
	}
	return objects, nil
}

func reviveValue(v any, state State) (any, error) {
	switch x := v.(type) {
	case string:
		if !strings.HasPrefix(x, Marker) {
			return x, nil
		}
		id := x[len(Marker):]
		target, ok := state[id]
		if !ok {
			return nil, errors.New("R031").WithDetail("marker %q", id)
		}
		return target, nil
	case map[string]any:
		for k, e := range x {
			r, err := reviveValue(e, state)
			if err != nil {
				return nil, err
			}
			x[k] = r
		}
		return x, nil
	case []any:
		for i, e := range x {
			r, err := reviveValue(e, state)
			if err != nil {
				return nil, err
			}
			x[i] = r
		}
		return x, nil
	default:
		return v, nil
	}
}

// Hydrate reads, revives and removes the document's state block. It
// returns nil objects when there is no block.
func Hydrate(doc dom.Document, reg *reactive.Registry) (map[string]*reactive.Object, error) {
	state, ok, err := ReadState(doc)
	if !ok || err != nil {
		return nil, err
	}
	objects, err := Revive(reg, state)
	if err != nil {
		return nil, err
	}
	RemoveState(doc)
	return objects, nil
}

func textContent(n dom.Node) string {
	var b strings.Builder
	dom.Walk(n, func(c dom.Node) bool {
		if c.Type() == dom.TextNode {
			b.WriteString(c.Data())
		}
		return true
	})
	return b.String()
}

func identity(r reactive.Record) uintptr {
	return reflect.ValueOf(r).Pointer()
}
