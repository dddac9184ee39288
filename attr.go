package svginspect

import "slices"

// Attribute returns the value of key and whether it is present.
func (n *Node) Attribute(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr updates key in place, or appends it when absent.
func (n *Node) SetAttr(key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, Attribute{Key: key, Val: val})
}

// DeleteAttr removes key, keeping the order of the remaining attributes.
func (n *Node) DeleteAttr(key string) bool {
	i := slices.IndexFunc(n.Attr, func(a Attribute) bool { return a.Key == key })
	if i < 0 {
		return false
	}
	n.Attr = slices.Delete(n.Attr, i, i+1)
	return true
}

// ReorderAttr moves dragged immediately before or after target.
// It reports false, leaving the node untouched, if either name is absent,
// if they are the same, or if pos is not before/after.
func (n *Node) ReorderAttr(dragged, target string, pos Position) bool {
	out, ok := reorder(n.Attr, func(a Attribute) string { return a.Key }, dragged, target, pos)
	if ok {
		n.Attr = out
	}
	return ok
}

// reorder removes the item named dragged and reinserts it next to the item
// named target. The input slice is not modified.
func reorder[T any](items []T, name func(T) string, dragged, target string, pos Position) ([]T, bool) {
	if dragged == target || (pos != PositionBefore && pos != PositionAfter) {
		return items, false
	}
	from := slices.IndexFunc(items, func(it T) bool { return name(it) == dragged })
	if from < 0 || !slices.ContainsFunc(items, func(it T) bool { return name(it) == target }) {
		return items, false
	}

	moved := items[from]
	out := slices.Delete(slices.Clone(items), from, from+1)
	to := slices.IndexFunc(out, func(it T) bool { return name(it) == target })
	if pos == PositionAfter {
		to++
	}
	return slices.Insert(out, to, moved), true
}
