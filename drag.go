package svginspect

import "slices"

// DragSession carries the nodes being dragged from drag start to drop. A
// renderer creates one per gesture and hands it along with its events; no
// drag state lives outside it.
type DragSession struct {
	Nodes []*Node
}

// BeginDrag starts dragging n. When n is selected the whole selection is
// dragged, in selection order; otherwise only n.
func BeginDrag(s *Session, n *Node) DragSession {
	if n == nil {
		return DragSession{}
	}
	if s.IsSelected(n) {
		return DragSession{Nodes: s.Selected()}
	}
	return DragSession{Nodes: []*Node{n}}
}

// Active reports whether anything is being dragged.
func (d DragSession) Active() bool { return len(d.Nodes) > 0 }

// Dragging reports whether n is part of the dragged set.
func (d DragSession) Dragging(n *Node) bool { return slices.Contains(d.Nodes, n) }

// CanDrop reports whether target is a valid drop target: no dragged node may
// be target itself or one of its ancestors.
func (d DragSession) CanDrop(target *Node) bool {
	if !d.Active() || target == nil {
		return false
	}
	for _, n := range d.Nodes {
		if n.Contains(target) {
			return false
		}
	}
	return true
}

// Drop moves the dragged nodes relative to target through the Session.
func (d DragSession) Drop(s *Session, target *Node, pos Position) error {
	if !d.Active() {
		return nil
	}
	return s.MoveNodes(d.Nodes, target, pos)
}
