// Package htmldom implements dom.Document on top of golang.org/x/net/html.
//
// Documents can be created empty, parsed from markup produced by an
// earlier render (the resume path) and rendered back to HTML for handoff.
// Every mutation is counted so callers can assert that a reconcile pass
// wrote nothing.
package htmldom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/resume/pkg/dom"
)

const emptyDocument = "<!DOCTYPE html><html><head></head><body></body></html>"

// Stats counts mutations applied through the dom interfaces.
type Stats struct {
	Created    int
	Inserted   int
	Removed    int
	AttrWrites int
	TextWrites int
}

// Writes returns the total number of tree and attribute mutations.
func (s Stats) Writes() int {
	return s.Inserted + s.Removed + s.AttrWrites + s.TextWrites
}

// Document is an x/net/html backed dom.Document.
type Document struct {
	root  *html.Node
	nodes map[*html.Node]*Node
	stats Stats
}

var _ dom.Document = (*Document)(nil)

// New creates an empty HTML document with head and body.
func New() *Document {
	doc, err := Parse(strings.NewReader(emptyDocument))
	if err != nil {
		// The constant document always parses.
		panic(err)
	}
	return doc
}

// Parse parses a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		root:  root,
		nodes: make(map[*html.Node]*Node),
	}, nil
}

// ParseString parses a full HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning "" on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// RenderNode renders a single node and its subtree.
func RenderNode(n dom.Node) string {
	hn := Unwrap(n)
	if hn == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, hn); err != nil {
		return ""
	}
	return buf.String()
}

// Stats returns the mutation counters.
func (d *Document) Stats() Stats {
	return d.stats
}

// ResetStats zeroes the mutation counters.
func (d *Document) ResetStats() {
	d.stats = Stats{}
}

// Root implements dom.Document.
func (d *Document) Root() dom.Node {
	return d.wrap(d.root)
}

// Body implements dom.Document.
func (d *Document) Body() dom.Node {
	if body := findElement(d.root, atom.Body); body != nil {
		return d.wrap(body)
	}
	htmlEl := findElement(d.root, atom.Html)
	if htmlEl == nil {
		htmlEl = &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
		d.root.AppendChild(htmlEl)
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	htmlEl.AppendChild(body)
	return d.wrap(body)
}

// DocumentElement returns the <html> element, or nil.
func (d *Document) DocumentElement() dom.Node {
	if el := findElement(d.root, atom.Html); el != nil {
		return d.wrap(el)
	}
	return nil
}

// CreateElement implements dom.Document.
func (d *Document) CreateElement(tag string) dom.Node {
	d.stats.Created++
	tag = strings.ToLower(tag)
	return d.wrap(&html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	})
}

// CreateText implements dom.Document.
func (d *Document) CreateText(data string) dom.Node {
	d.stats.Created++
	return d.wrap(&html.Node{Type: html.TextNode, Data: data})
}

// CreateComment implements dom.Document.
func (d *Document) CreateComment(data string) dom.Node {
	d.stats.Created++
	return d.wrap(&html.Node{Type: html.CommentNode, Data: data})
}

// QueryAttr implements dom.Document.
func (d *Document) QueryAttr(name string) []dom.Node {
	var out []dom.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && attrIndex(n, name) >= 0 {
			out = append(out, d.wrap(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

// wrap returns the canonical wrapper for n. A nil n yields a nil
// interface rather than a typed nil.
func (d *Document) wrap(n *html.Node) dom.Node {
	if n == nil {
		return nil
	}
	if w, ok := d.nodes[n]; ok {
		return w
	}
	w := &Node{doc: d, n: n}
	d.nodes[n] = w
	return w
}

// forget drops the wrappers of a detached subtree. A wrapper still held
// by a caller is registered again when it is inserted.
func (d *Document) forget(n *html.Node) {
	delete(d.nodes, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

// Unwrap returns the underlying html.Node of a node created by this
// package, or nil.
func Unwrap(n dom.Node) *html.Node {
	if w, ok := n.(*Node); ok && w != nil {
		return w.n
	}
	return nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}

func attrIndex(n *html.Node, name string) int {
	for i, a := range n.Attr {
		if attrName(a) == name {
			return i
		}
	}
	return -1
}
