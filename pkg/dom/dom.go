// Package dom defines the minimal document-tree primitives the runtime
// depends on.
//
// The reconciler, the subscription table and the state codec only ever
// talk to a document through these interfaces: node creation, attribute
// access, the three tree mutations and an attribute-presence query.
// Package htmldom provides the implementation used by the server.
package dom

// NodeType discriminates live nodes.
type NodeType uint8

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
	DocumentNode
)

// String returns the node type name.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case CommentNode:
		return "Comment"
	case DocumentNode:
		return "Document"
	default:
		return "Unknown"
	}
}

// Attribute is a single name/value pair on an element.
type Attribute struct {
	Name  string
	Value string
}

// Node is a live document node.
//
// Implementations must return the same Node value for the same underlying
// node so that nodes can be used as map keys.
type Node interface {
	Type() NodeType

	// Tag returns the lower-case tag name for elements, "" otherwise.
	Tag() string

	// Data returns the content of text and comment nodes.
	Data() string
	SetData(data string)

	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
	Attrs() []Attribute

	Parent() Node
	FirstChild() Node
	NextSibling() Node

	// InsertBefore inserts child before ref. A nil ref appends. A child
	// that is already attached elsewhere is moved.
	InsertBefore(child, ref Node)
	RemoveChild(child Node)
	AppendChild(child Node)
}

// Document creates nodes and answers attribute-presence queries.
type Document interface {
	CreateElement(tag string) Node
	CreateText(data string) Node
	CreateComment(data string) Node

	// Root returns the document node.
	Root() Node

	// Body returns the body element, creating one if needed.
	Body() Node

	// QueryAttr returns every element carrying the attribute, in
	// document order.
	QueryAttr(name string) []Node
}

// Children returns the child nodes of n.
func Children(n Node) []Node {
	var out []Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, c)
	}
	return out
}

// HasAttr reports whether n is an element carrying name.
func HasAttr(n Node, name string) bool {
	if n == nil || n.Type() != ElementNode {
		return false
	}
	_, ok := n.Attr(name)
	return ok
}

// Contains reports whether n is ancestor or equal to other.
func Contains(n, other Node) bool {
	for p := other; p != nil; p = p.Parent() {
		if p == n {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants in document order. Returning false
// from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		Walk(c, fn)
	}
}
