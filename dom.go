package svginspect

import (
	"slices"
	"strings"
)

// NodeType identifies the kind of a Node.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

// Attribute is a single name/value pair on an element. Key keeps any
// namespace prefix exactly as written (e.g. "xlink:href").
type Attribute struct {
	Key, Val string
}

// Node is one node of a parsed document. For elements Data is the qualified
// tag name; for every other type it holds the raw content.
//
// Parent is a back-reference used for traversal only. A node belongs to the
// Document it was parsed into and is discarded with it.
type Node struct {
	Type   NodeType
	Data   string
	Attr   []Attribute
	Parent *Node

	nodes []*Node // all child nodes in document order
}

// Document is a parsed SVG text: the top-level nodes (XML declaration,
// comments, doctype) and the single root element among them.
type Document struct {
	Nodes []*Node
	Root  *Node
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...Attribute) *Node {
	return &Node{Type: ElementNode, Data: tag, Attr: attrs}
}

// NewText creates a detached text node.
func NewText(s string) *Node {
	return &Node{Type: TextNode, Data: s}
}

// Nodes returns every child node, including text and comments.
func (n *Node) Nodes() []*Node {
	return slices.Clone(n.nodes)
}

// Children returns the element children in order.
func (n *Node) Children() []*Node {
	var out []*Node
	for _, c := range n.nodes {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// ChildAt returns the element child at index, or nil.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 {
		return nil
	}
	count := 0
	for _, c := range n.nodes {
		if c.Type != ElementNode {
			continue
		}
		if count == index {
			return c
		}
		count++
	}
	return nil
}

// IndexOf returns the element index of child within parent, or -1.
func IndexOf(child, parent *Node) int {
	if child == nil || parent == nil {
		return -1
	}
	count := 0
	for _, c := range parent.nodes {
		if c == child {
			return count
		}
		if c.Type == ElementNode {
			count++
		}
	}
	return -1
}

// NextElementSibling returns the element following n under the same parent.
func (n *Node) NextElementSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	siblings := n.Parent.nodes
	i := slices.Index(siblings, n)
	for _, c := range siblings[i+1:] {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// InsertBefore inserts child as a child of n, immediately before ref.
// A nil ref appends. A child that is already attached somewhere is detached
// first; inserting a node before itself leaves the tree unchanged.
//
// It panics if ref is not a child of n or if child contains n.
func (n *Node) InsertBefore(child, ref *Node) {
	if child == ref {
		return
	}
	if ref != nil && ref.Parent != n {
		panic("svginspect: InsertBefore called for a non-child reference node")
	}
	if child.Contains(n) {
		panic("svginspect: InsertBefore would create a cycle")
	}
	child.Remove()
	child.Parent = n
	if ref == nil {
		n.nodes = append(n.nodes, child)
		return
	}
	i := slices.Index(n.nodes, ref)
	n.nodes = slices.Insert(n.nodes, i, child)
}

// AppendChild adds child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	n.InsertBefore(child, nil)
}

// Remove detaches n from its parent. It is a no-op for detached nodes.
func (n *Node) Remove() {
	p := n.Parent
	if p == nil {
		return
	}
	if i := slices.Index(p.nodes, n); i >= 0 {
		p.nodes = slices.Delete(p.nodes, i, i+1)
	}
	n.Parent = nil
}

// Prefix returns the namespace prefix of an element's tag, without the colon.
func (n *Node) Prefix() string {
	if i := strings.IndexByte(n.Data, ':'); i >= 0 {
		return n.Data[:i]
	}
	return ""
}

// ID returns the id attribute, if any.
func (n *Node) ID() string {
	v, _ := n.Attribute("id")
	return v
}

// Classes returns the whitespace separated entries of the class attribute.
func (n *Node) Classes() []string {
	v, _ := n.Attribute("class")
	return strings.Fields(v)
}

// Walk calls fn for n and every element below it in document order.
// Returning false from fn skips that node's subtree.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.nodes {
		if c.Type == ElementNode {
			walk(c, depth+1, fn)
		}
	}
}
