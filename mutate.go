package svginspect

import (
	"slices"
)

const groupTag = "g"

// Move relocates sources relative to target. Sources equal to target or
// containing it are dropped from the batch; the rest keep their input order.
// It reports whether anything was moved.
//
// For PositionAfter the reference point is the first element after target
// that is not itself being moved, captured once, so the batch lands
// contiguously right after target.
func Move(sources []*Node, target *Node, pos Position) bool {
	if target == nil {
		return false
	}
	parent := target.Parent
	if parent == nil && pos != PositionInside {
		return false
	}

	valid := make([]*Node, 0, len(sources))
	for _, src := range sources {
		if src == nil || src.Contains(target) || slices.Contains(valid, src) {
			continue
		}
		valid = append(valid, src)
	}
	if len(valid) == 0 {
		return false
	}

	switch pos {
	case PositionInside:
		for _, src := range valid {
			target.AppendChild(src)
		}
	case PositionBefore:
		for _, src := range valid {
			parent.InsertBefore(src, target)
		}
	case PositionAfter:
		ref := target.NextElementSibling()
		for ref != nil && slices.Contains(valid, ref) {
			ref = ref.NextElementSibling()
		}
		for _, src := range valid {
			parent.InsertBefore(src, ref)
		}
	default:
		return false
	}
	return true
}

// Group wraps nodes in a new group element inserted where the earliest of
// them was. All nodes must be distinct siblings and there must be at least
// two; otherwise nothing changes and ok is false. The group tag uses the
// same namespace prefix as the grouped elements.
func Group(nodes []*Node) (group *Node, ok bool) {
	if len(nodes) < 2 || nodes[0] == nil {
		return nil, false
	}
	parent := nodes[0].Parent
	if parent == nil {
		return nil, false
	}
	for i, n := range nodes {
		if n == nil || n.Parent != parent || slices.Contains(nodes[:i], n) {
			return nil, false
		}
	}

	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b *Node) int {
		return IndexOf(a, parent) - IndexOf(b, parent)
	})

	tag := groupTag
	if prefix := sorted[0].Prefix(); prefix != "" {
		tag = prefix + ":" + groupTag
	}
	group = NewElement(tag)
	parent.InsertBefore(group, sorted[0])
	for _, n := range sorted {
		group.AppendChild(n)
	}
	return group, true
}

// ToggleVisibility hides n with visibility="hidden", or removes that
// attribute when n is already hidden.
func ToggleVisibility(n *Node) {
	if v, _ := n.Attribute("visibility"); v == "hidden" {
		n.DeleteAttr("visibility")
		return
	}
	n.SetAttr("visibility", "hidden")
}

// Hidden reports whether n carries visibility="hidden".
func Hidden(n *Node) bool {
	v, _ := n.Attribute("visibility")
	return v == "hidden"
}
