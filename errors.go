package svginspect

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOperation marks an edit that cannot apply to the current tree:
	// an unresolvable path, an unknown operation type, or a malformed request.
	// Benign drag-and-drop no-ops are not reported with it.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrBusy is returned when a handler re-enters the Session while a tree
	// replacement is in progress.
	ErrBusy = errors.New("session is applying a tree replacement")

	// ErrUnexpectedMessage is returned for messages the core never receives.
	ErrUnexpectedMessage = errors.New("unexpected message")

	errNoRoot        = errors.New("no root element")
	errMultipleRoots = errors.New("more than one root element")
	errTextOutside   = errors.New("character data outside the root element")
)

// ParseError reports text that is not well-formed markup. The core recovers
// from it by treating the document as absent.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse svg: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse svg: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
