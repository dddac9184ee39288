package svginspect

import (
	"fmt"
	"strconv"
	"strings"
)

// NodePath represents the traversal steps from the root to a target element.
// Example: [0, 1, 3] means root -> child[0] -> child[1] -> child[3]
// Indices count element children only; text and comments are skipped.
type NodePath []int

// String renders the path as "/0/1/3". The root path renders as "/".
func (p NodePath) String() string {
	if len(p) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, i := range p {
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(i))
	}
	return sb.String()
}

// Equal reports whether both paths address the same position.
func (p NodePath) Equal(o NodePath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// ParseNodePath reads a path in the form produced by NodePath.String.
func ParseNodePath(s string) (NodePath, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "/" {
		return NodePath{}, nil
	}
	parts := strings.Split(strings.Trim(s, "/"), "/")
	path := make(NodePath, 0, len(parts))
	for _, part := range parts {
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("invalid path segment %q in %q", part, s)
		}
		path = append(path, i)
	}
	return path, nil
}

// Position says where a dragged item lands relative to its drop target.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
	PositionInside Position = "inside" // Only meaningful for node moves
)

type OpType string

const (
	OpSelect           OpType = "select"           // Select the node at Path (Multi toggles)
	OpSetAttr          OpType = "setAttr"          // Set Key=Value on the primary selection
	OpDeleteAttr       OpType = "deleteAttr"       // Remove Key from the primary selection
	OpReorderAttr      OpType = "reorderAttr"      // Move attribute Key before/after Target
	OpSetStyle         OpType = "setStyle"         // Set style property Key=Value
	OpDeleteStyle      OpType = "deleteStyle"      // Remove style property Key
	OpReorderStyle     OpType = "reorderStyle"     // Move style property Key before/after Target
	OpMoveNodes        OpType = "move"             // Move Sources before/after/inside Path
	OpGroup            OpType = "group"            // Wrap the current selection in a new group
	OpToggleVisibility OpType = "toggleVisibility" // Flip visibility="hidden" on Path
)

// Operation is a path-addressed edit sent by a renderer that does not hold
// node pointers (for example a remote preview).
type Operation struct {
	Type     OpType     `json:"type"`
	Path     NodePath   `json:"path,omitempty"`
	Sources  []NodePath `json:"sources,omitempty"` // For Move
	Key      string     `json:"key,omitempty"`     // Attribute or style property name
	Value    string     `json:"value,omitempty"`
	Target   string     `json:"target,omitempty"` // For reorders: name of the drop target
	Position Position   `json:"position,omitempty"`
	Multi    bool       `json:"multi,omitempty"` // For Select
}

type MessageType string

const (
	MsgReady     MessageType = "ready"     // core -> host, requests initial content
	MsgLoad      MessageType = "load"      // host -> core, authoritative full text
	MsgUpdateSVG MessageType = "updateSvg" // core -> host, full text after a local edit
)

// Message is the only shape exchanged with the text buffer host.
// Payloads are always the complete document, never a diff.
type Message struct {
	Type    MessageType `json:"type"`
	SVGText string      `json:"svgText,omitempty"`
}
