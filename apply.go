package svginspect

import (
	"fmt"
)

// Apply executes a path-addressed Operation against the live Document.
// Paths are resolved against the current root; an unresolvable path or an
// unknown type is reported as ErrInvalidOperation. Edits that resolve but
// have no effect (a reorder onto itself, a move into a descendant) are
// dropped quietly like their pointer-based counterparts.
func (s *Session) Apply(op Operation) error {
	switch op.Type {
	case OpSelect:
		node, err := s.resolve(op.Path)
		if err != nil {
			return err
		}
		s.Select(node, op.Multi)
		return nil

	case OpSetAttr:
		return s.SetAttribute(op.Key, op.Value)
	case OpDeleteAttr:
		return s.DeleteAttribute(op.Key)
	case OpReorderAttr:
		return s.ReorderAttribute(op.Key, op.Target, op.Position)

	case OpSetStyle:
		return s.SetStyleProperty(op.Key, op.Value)
	case OpDeleteStyle:
		return s.DeleteStyleProperty(op.Key)
	case OpReorderStyle:
		return s.ReorderStyleProperty(op.Key, op.Target, op.Position)

	case OpMoveNodes:
		target, err := s.resolve(op.Path)
		if err != nil {
			return err
		}
		// Resolve every source before moving anything; paths shift as
		// soon as the first node moves.
		sources := make([]*Node, 0, len(op.Sources))
		for _, p := range op.Sources {
			src, err := s.resolve(p)
			if err != nil {
				return err
			}
			sources = append(sources, src)
		}
		return s.MoveNodes(sources, target, op.Position)

	case OpGroup:
		return s.Group()

	case OpToggleVisibility:
		node, err := s.resolve(op.Path)
		if err != nil {
			return err
		}
		return s.ToggleVisibility(node)

	default:
		return fmt.Errorf("%w: unknown operation type %q", ErrInvalidOperation, op.Type)
	}
}

func (s *Session) resolve(path NodePath) (*Node, error) {
	node, ok := GetNode(s.Root(), path)
	if !ok {
		return nil, fmt.Errorf("%w: no element at path %v", ErrInvalidOperation, path)
	}
	return node, nil
}
