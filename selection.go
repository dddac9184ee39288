package svginspect

import "slices"

// Selection is an ordered set of elements of one live Document. Order is
// the order nodes were added, and the last one is the primary selection.
//
// After the Document is replaced the Selection must be rebuilt with Restore
// from paths captured beforehand, or cleared.
type Selection struct {
	nodes []*Node
}

// Select applies a click on n. Without multi the selection becomes {n}.
// With multi, n is toggled: removed if present, otherwise appended.
func (s *Selection) Select(n *Node, multi bool) {
	if n == nil {
		return
	}
	if !multi {
		s.nodes = []*Node{n}
		return
	}
	if i := slices.Index(s.nodes, n); i >= 0 {
		s.nodes = slices.Delete(s.nodes, i, i+1)
		return
	}
	s.nodes = append(s.nodes, n)
}

// Set replaces the selection with nodes, dropping nils and duplicates.
func (s *Selection) Set(nodes ...*Node) {
	s.nodes = nil
	for _, n := range nodes {
		if n != nil && !slices.Contains(s.nodes, n) {
			s.nodes = append(s.nodes, n)
		}
	}
}

func (s *Selection) Clear() { s.nodes = nil }

// Nodes returns the selected nodes in selection order.
func (s *Selection) Nodes() []*Node { return slices.Clone(s.nodes) }

func (s *Selection) Len() int { return len(s.nodes) }

func (s *Selection) Contains(n *Node) bool { return slices.Contains(s.nodes, n) }

// Primary returns the most recently selected node, or nil.
func (s *Selection) Primary() *Node {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[len(s.nodes)-1]
}

// Capture maps every selected node to its path under root. It must run
// before the tree holding the nodes is discarded. Nodes no longer under root
// are skipped.
func (s *Selection) Capture(root *Node) []NodePath {
	if root == nil {
		return nil
	}
	paths := make([]NodePath, 0, len(s.nodes))
	for _, n := range s.nodes {
		if p, err := GetPath(root, n); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

// Restore rebuilds the selection by resolving paths against a new root,
// keeping capture order. Paths that no longer resolve are dropped; a path may
// also resolve to a different element than before, since identity across
// trees is purely positional. It returns the number of restored nodes.
func (s *Selection) Restore(root *Node, paths []NodePath) int {
	s.nodes = nil
	for _, p := range paths {
		if n, ok := GetNode(root, p); ok && !slices.Contains(s.nodes, n) {
			s.nodes = append(s.nodes, n)
		}
	}
	return len(s.nodes)
}
