package svginspect

import (
	"slices"
	"strings"
)

const styleAttr = "style"

// StyleProperty is one declaration of an inline style attribute.
type StyleProperty struct {
	Name, Value string
}

// StyleBlock is the ordered list of declarations in a style attribute.
type StyleBlock []StyleProperty

// ParseStyle splits a style attribute value into its declarations.
// Segments are separated by ';' and split on their first ':'; empty segments
// are dropped.
func ParseStyle(s string) StyleBlock {
	var block StyleBlock
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		name, value, _ := strings.Cut(seg, ":")
		block = append(block, StyleProperty{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return block
}

// String renders the block as "name: value; name: value".
func (b StyleBlock) String() string {
	parts := make([]string, len(b))
	for i, p := range b {
		parts[i] = p.Name + ": " + p.Value
	}
	return strings.Join(parts, "; ")
}

// Get returns the value of name and whether it is present.
func (b StyleBlock) Get(name string) (string, bool) {
	for _, p := range b {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Set replaces the value of name in place, or appends a new property.
func (b StyleBlock) Set(name, value string) StyleBlock {
	out := slices.Clone(b)
	for i, p := range out {
		if p.Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, StyleProperty{Name: name, Value: value})
}

// Delete returns the block without name. The second result reports whether
// name was present.
func (b StyleBlock) Delete(name string) (StyleBlock, bool) {
	i := slices.IndexFunc(b, func(p StyleProperty) bool { return p.Name == name })
	if i < 0 {
		return b, false
	}
	return slices.Delete(slices.Clone(b), i, i+1), true
}

// Reorder moves dragged immediately before or after target.
func (b StyleBlock) Reorder(dragged, target string, pos Position) (StyleBlock, bool) {
	return reorder(b, func(p StyleProperty) string { return p.Name }, dragged, target, pos)
}

// Style returns the parsed style attribute of n.
func (n *Node) Style() StyleBlock {
	v, _ := n.Attribute(styleAttr)
	return ParseStyle(v)
}

// setStyle rewrites the whole style attribute from block. An empty block
// leaves an empty attribute behind rather than removing it.
func (n *Node) setStyle(block StyleBlock) {
	n.SetAttr(styleAttr, block.String())
}

// SetStyleProperty sets one property and rewrites the style attribute.
func (n *Node) SetStyleProperty(name, value string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	n.setStyle(n.Style().Set(name, strings.TrimSpace(value)))
	return true
}

// DeleteStyleProperty removes one property and rewrites the style attribute.
func (n *Node) DeleteStyleProperty(name string) bool {
	block, ok := n.Style().Delete(name)
	if !ok {
		return false
	}
	n.setStyle(block)
	return true
}

// ReorderStyleProperty moves one property next to another.
func (n *Node) ReorderStyleProperty(dragged, target string, pos Position) bool {
	block, ok := n.Style().Reorder(dragged, target, pos)
	if !ok {
		return false
	}
	n.setStyle(block)
	return true
}
