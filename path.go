package svginspect

import (
	"errors"
	"slices"
)

var (
	// ErrNotDescendant is returned by GetPath when target is not under root.
	ErrNotDescendant = errors.New("target node is not a descendant of root")
	errNotElement    = errors.New("integrity error: node not found among its parent's elements")
)

// GetPath finds the path from root to the target element.
func GetPath(root, target *Node) (NodePath, error) {
	if target == nil {
		return nil, ErrNotDescendant
	}
	path := NodePath{}

	// We build the path backwards from target to root
	current := target
	for current != root {
		parent := current.Parent
		if parent == nil {
			return nil, ErrNotDescendant
		}

		index := IndexOf(current, parent)
		if index == -1 {
			return nil, errNotElement
		}

		path = append(path, index)
		current = parent
	}
	slices.Reverse(path)
	return path, nil
}

// GetNode traverses the tree using the provided path to find an element.
// A missing index at any depth reports false; that is an expected outcome
// after structural edits, not an error.
func GetNode(root *Node, path NodePath) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	current := root
	for _, index := range path {
		child := current.ChildAt(index)
		if child == nil {
			return nil, false
		}
		current = child
	}
	return current, true
}
