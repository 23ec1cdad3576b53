// Package symbol resolves serializable symbol locators to values.
//
// A locator names an exported value as "path#symbol", optionally followed
// by call arguments "?name=value&..." whose values use the attribute
// grammar of package codec and are URL-escaped. Relative paths ("./x",
// "../x") resolve against the nearest ancestor carrying BaseAttr.
package symbol

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/codec"
	"github.com/vango-dev/resume/pkg/dom"
)

// BaseAttr holds the base path for relative locators.
const BaseAttr = "rs:base"

// Arg is one encoded call argument.
type Arg struct {
	Name  string
	Value string
}

// Locator is a parsed symbol reference.
type Locator struct {
	Path   string
	Symbol string
	Args   []Arg
}

// Parse reads a locator string.
func Parse(s string) (Locator, error) {
	ref, query, _ := strings.Cut(s, "?")
	p, sym, ok := strings.Cut(ref, "#")
	if !ok || sym == "" {
		return Locator{}, errors.New("R034").WithDetail("%q", s)
	}
	loc := Locator{Path: p, Symbol: sym}
	if query == "" {
		return loc, nil
	}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		n, err := url.QueryUnescape(name)
		if err != nil {
			return Locator{}, errors.New("R034").WithDetail("%q", s).Wrap(err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return Locator{}, errors.New("R034").WithDetail("%q", s).Wrap(err)
		}
		loc.Args = append(loc.Args, Arg{Name: n, Value: v})
	}
	return loc, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Locator {
	loc, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return loc
}

// New builds a locator, encoding args with the attribute grammar.
// Arguments are written in name order.
func New(ref string, args map[string]any, refs codec.Referencer) (Locator, error) {
	loc, err := Parse(ref)
	if err != nil {
		return Locator{}, err
	}
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := codec.EncodeAttr(args[name], refs)
		if err != nil {
			return Locator{}, err
		}
		loc.Args = append(loc.Args, Arg{Name: name, Value: v})
	}
	return loc, nil
}

// Key returns "path#symbol".
func (l Locator) Key() string {
	return l.Path + "#" + l.Symbol
}

// String renders the locator.
func (l Locator) String() string {
	if len(l.Args) == 0 {
		return l.Key()
	}
	var b strings.Builder
	b.WriteString(l.Key())
	for i, a := range l.Args {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(a.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(a.Value))
	}
	return b.String()
}

// Relative reports whether the path is relative to a base.
func (l Locator) Relative() bool {
	return strings.HasPrefix(l.Path, "./") || strings.HasPrefix(l.Path, "../")
}

// ResolveBase returns the locator with a relative path joined to base.
func (l Locator) ResolveBase(base string) Locator {
	if !l.Relative() || base == "" {
		return l
	}
	joined := path.Join(base, l.Path)
	if strings.HasPrefix(base, "/") && !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	l.Path = joined
	return l
}

// DecodeArgs decodes the call arguments.
func (l Locator) DecodeArgs(res codec.Resolver) (map[string]any, error) {
	out := make(map[string]any, len(l.Args))
	for _, a := range l.Args {
		v, err := codec.DecodeAttr(a.Value, res)
		if err != nil {
			return nil, err
		}
		out[a.Name] = v
	}
	return out, nil
}

// BaseOf returns the base path in effect at node.
func BaseOf(node dom.Node) string {
	for n := node; n != nil; n = n.Parent() {
		if n.Type() != dom.ElementNode {
			continue
		}
		if base, ok := n.Attr(BaseAttr); ok {
			return base
		}
	}
	return ""
}
