package htmldom

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/resume/pkg/dom"
)

// Node wraps an html.Node.
type Node struct {
	doc *Document
	n   *html.Node
}

var _ dom.Node = (*Node)(nil)

// Type implements dom.Node.
func (w *Node) Type() dom.NodeType {
	switch w.n.Type {
	case html.ElementNode:
		return dom.ElementNode
	case html.TextNode:
		return dom.TextNode
	case html.CommentNode:
		return dom.CommentNode
	case html.DocumentNode:
		return dom.DocumentNode
	default:
		return 0
	}
}

// Tag implements dom.Node.
func (w *Node) Tag() string {
	if w.n.Type != html.ElementNode {
		return ""
	}
	return w.n.Data
}

// Data implements dom.Node.
func (w *Node) Data() string {
	if w.n.Type == html.ElementNode {
		return ""
	}
	return w.n.Data
}

// SetData implements dom.Node.
func (w *Node) SetData(data string) {
	if w.n.Type == html.ElementNode {
		return
	}
	w.doc.stats.TextWrites++
	w.n.Data = data
}

// Attr implements dom.Node.
func (w *Node) Attr(name string) (string, bool) {
	if i := attrIndex(w.n, name); i >= 0 {
		return w.n.Attr[i].Val, true
	}
	return "", false
}

// SetAttr implements dom.Node.
func (w *Node) SetAttr(name, value string) {
	if w.n.Type != html.ElementNode {
		return
	}
	w.doc.stats.AttrWrites++
	if i := attrIndex(w.n, name); i >= 0 {
		w.n.Attr[i].Val = value
		return
	}
	w.n.Attr = append(w.n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr implements dom.Node.
func (w *Node) RemoveAttr(name string) {
	i := attrIndex(w.n, name)
	if i < 0 {
		return
	}
	w.doc.stats.AttrWrites++
	w.n.Attr = append(w.n.Attr[:i], w.n.Attr[i+1:]...)
}

// Attrs implements dom.Node.
func (w *Node) Attrs() []dom.Attribute {
	out := make([]dom.Attribute, len(w.n.Attr))
	for i, a := range w.n.Attr {
		out[i] = dom.Attribute{Name: attrName(a), Value: a.Val}
	}
	return out
}

// Parent implements dom.Node.
func (w *Node) Parent() dom.Node { return w.doc.wrap(w.n.Parent) }

// FirstChild implements dom.Node.
func (w *Node) FirstChild() dom.Node { return w.doc.wrap(w.n.FirstChild) }

// NextSibling implements dom.Node.
func (w *Node) NextSibling() dom.Node { return w.doc.wrap(w.n.NextSibling) }

// InsertBefore implements dom.Node.
func (w *Node) InsertBefore(child, ref dom.Node) {
	c := Unwrap(child)
	if c == nil {
		return
	}
	r := Unwrap(ref)
	if c == r {
		return
	}
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	w.doc.stats.Inserted++
	if cw, ok := child.(*Node); ok {
		w.doc.nodes[c] = cw
	}
	if r == nil {
		w.n.AppendChild(c)
		return
	}
	w.n.InsertBefore(c, r)
}

// AppendChild implements dom.Node.
func (w *Node) AppendChild(child dom.Node) {
	w.InsertBefore(child, nil)
}

// RemoveChild implements dom.Node.
func (w *Node) RemoveChild(child dom.Node) {
	c := Unwrap(child)
	if c == nil || c.Parent != w.n {
		return
	}
	w.doc.stats.Removed++
	w.n.RemoveChild(c)
	w.doc.forget(c)
}
