package svginspect

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type ChangeType string

const (
	ChangeTag      ChangeType = "TAG"       // Element at Path has a different tag
	ChangeAttr     ChangeType = "ATTR"      // Attribute Key added, removed or changed
	ChangeAttrMove ChangeType = "ATTR_MOVE" // Same attributes, different order
	ChangeText     ChangeType = "TEXT"      // Text content of the element changed
	ChangeInsert   ChangeType = "INSERT"    // New has an element at Path that old lacks
	ChangeDelete   ChangeType = "DELETE"    // Old has an element at Path that new lacks
)

// Change is one positional difference between two trees.
type Change struct {
	Type     ChangeType `json:"type"`
	Path     NodePath   `json:"path"`
	Key      string     `json:"key,omitempty"`
	OldValue string     `json:"old_value,omitempty"`
	NewValue string     `json:"new_value,omitempty"`
}

// Diff compares two element trees position by position. Like path
// resolution it has no notion of identity: a removed first child shows up as
// changes on every later sibling plus a DELETE at the end.
func Diff(oldRoot, newRoot *Node) []Change {
	if oldRoot == nil || newRoot == nil {
		if oldRoot == newRoot {
			return nil
		}
		if oldRoot == nil {
			return []Change{{Type: ChangeInsert, Path: NodePath{}}}
		}
		return []Change{{Type: ChangeDelete, Path: NodePath{}}}
	}
	return diffNodes(oldRoot, newRoot, NodePath{})
}

// diffNodes compares two elements assumed to be at the same position.
func diffNodes(oldNode, newNode *Node, path NodePath) []Change {
	var changes []Change

	if oldNode.Data != newNode.Data {
		changes = append(changes, Change{
			Type:     ChangeTag,
			Path:     path,
			OldValue: oldNode.Data,
			NewValue: newNode.Data,
		})
	}

	changes = append(changes, diffAttributes(oldNode, newNode, path)...)

	if oldText, newText := textContent(oldNode), textContent(newNode); oldText != newText {
		changes = append(changes, Change{
			Type:     ChangeText,
			Path:     path,
			OldValue: oldText,
			NewValue: newText,
		})
	}

	return append(changes, diffChildren(oldNode, newNode, path)...)
}

func diffAttributes(oldNode, newNode *Node, path NodePath) []Change {
	var changes []Change
	oldAttrs := make(map[string]string, len(oldNode.Attr))
	for _, a := range oldNode.Attr {
		oldAttrs[a.Key] = a.Val
	}
	newAttrs := make(map[string]string, len(newNode.Attr))
	for _, a := range newNode.Attr {
		newAttrs[a.Key] = a.Val
	}

	// Walk in document order so the result is deterministic.
	for _, a := range oldNode.Attr {
		vNew, exists := newAttrs[a.Key]
		if !exists {
			changes = append(changes, Change{Type: ChangeAttr, Path: path, Key: a.Key, OldValue: a.Val})
		} else if vNew != a.Val {
			changes = append(changes, Change{Type: ChangeAttr, Path: path, Key: a.Key, OldValue: a.Val, NewValue: vNew})
		}
	}
	for _, a := range newNode.Attr {
		if _, exists := oldAttrs[a.Key]; !exists {
			changes = append(changes, Change{Type: ChangeAttr, Path: path, Key: a.Key, NewValue: a.Val})
		}
	}

	if len(changes) == 0 && !sameOrder(oldNode.Attr, newNode.Attr) {
		changes = append(changes, Change{Type: ChangeAttrMove, Path: path})
	}
	return changes
}

func sameOrder(a, b []Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key {
			return false
		}
	}
	return true
}

// diffChildren matches element children by index. It is not robust for
// reordering or inserting in the middle; everything after the edit point is
// reported as changed.
func diffChildren(oldNode, newNode *Node, parentPath NodePath) []Change {
	var changes []Change
	oldChildren := oldNode.Children()
	newChildren := newNode.Children()

	commonLen := min(len(oldChildren), len(newChildren))
	for i := 0; i < commonLen; i++ {
		childPath := append(append(NodePath(nil), parentPath...), i)
		changes = append(changes, diffNodes(oldChildren[i], newChildren[i], childPath)...)
	}
	for i := commonLen; i < len(oldChildren); i++ {
		changes = append(changes, Change{
			Type:     ChangeDelete,
			Path:     append(append(NodePath(nil), parentPath...), i),
			OldValue: oldChildren[i].Data,
		})
	}
	for i := commonLen; i < len(newChildren); i++ {
		changes = append(changes, Change{
			Type:     ChangeInsert,
			Path:     append(append(NodePath(nil), parentPath...), i),
			NewValue: newChildren[i].Data,
		})
	}
	return changes
}

// textContent concatenates the direct text children of n. Surrounding
// whitespace is formatting and does not count.
func textContent(n *Node) string {
	var sb strings.Builder
	for _, c := range n.nodes {
		if c.Type == TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

func hashString(s string) string {
	h := sha256.New()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}
