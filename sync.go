package svginspect

import (
	"fmt"
	"log/slog"
)

// Host is the text buffer host as seen from the core. It owns the
// canonical text; the core only ever sends it whole documents.
type Host interface {
	Send(msg Message) error
}

// HostFunc adapts a function to Host.
type HostFunc func(msg Message) error

func (f HostFunc) Send(msg Message) error { return f(msg) }

// State is the synchronization state of a Session.
type State int

const (
	StateIdle     State = iota // Waiting for an external load or a local edit
	StateApplying              // Replacing the tree from a load
)

func (s State) String() string {
	if s == StateApplying {
		return "applying"
	}
	return "idle"
}

type Option func(*Session)

// WithCodec replaces the default XMLCodec.
func WithCodec(c Codec) Option {
	return func(s *Session) { s.codec = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithChangeHook registers fn to run after every load, selection change and
// pushed edit, once the Session is idle again.
func WithChangeHook(fn func()) Option {
	return func(s *Session) { s.onChange = fn }
}

// Session keeps a Document and its Selection synchronized with a Host.
//
// Pull: a load message captures the selection as paths, parses the text into
// a fresh Document, and restores the selection against it. Push: every
// successful edit serializes the whole Document and sends it as updateSvg;
// the local tree stays authoritative without waiting for the echo.
//
// A Session is not safe for concurrent use. All messages and edits must be
// delivered from one goroutine, in arrival order.
type Session struct {
	host     Host
	codec    Codec
	logger   *slog.Logger
	onChange func()

	state    State
	doc      *Document
	sel      Selection
	text     string
	pending  string // hash of the last pushed text until the next load
	parseErr error
	changes  []Change
}

func NewSession(host Host, opts ...Option) *Session {
	s := &Session{
		host:   host,
		codec:  XMLCodec{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start announces the core to the host, which answers with a load.
func (s *Session) Start() error {
	if err := s.host.Send(Message{Type: MsgReady}); err != nil {
		return fmt.Errorf("send ready: %w", err)
	}
	return nil
}

// HandleMessage processes one message from the host.
func (s *Session) HandleMessage(msg Message) error {
	switch msg.Type {
	case MsgLoad:
		return s.Load(msg.SVGText)
	default:
		return fmt.Errorf("%w: %q", ErrUnexpectedMessage, msg.Type)
	}
}

// Load replaces the Document with a parse of text. Text that does not parse
// leaves the Session without a Document and with an empty selection; that is
// reported through ParseErr, not as an error.
func (s *Session) Load(text string) error {
	if s.state == StateApplying {
		return ErrBusy
	}
	s.state = StateApplying
	s.apply(text)
	s.state = StateIdle
	s.notify()
	return nil
}

func (s *Session) apply(text string) {
	s.checkEcho(text)

	var oldRoot *Node
	var paths []NodePath
	if s.doc != nil {
		oldRoot = s.doc.Root
		paths = s.sel.Capture(oldRoot)
	}
	s.text = text

	doc, err := s.codec.Parse(text)
	if err != nil {
		s.logger.Warn("document is not well-formed", "error", err)
		s.doc = nil
		s.sel.Clear()
		s.parseErr = err
		s.changes = nil
		return
	}

	s.parseErr = nil
	s.changes = Diff(oldRoot, doc.Root)
	s.doc = doc
	restored := s.sel.Restore(doc.Root, paths)
	s.logger.Debug("document loaded",
		"bytes", len(text),
		"changes", len(s.changes),
		"selected", restored,
		"dropped", len(paths)-restored)
}

// checkEcho consumes the in-flight push token. A load matching the last
// push confirms it; anything else raced it. Both are applied as usual.
func (s *Session) checkEcho(text string) {
	if s.pending == "" {
		return
	}
	if hashString(text) == s.pending {
		s.logger.Debug("load confirms local update")
	} else {
		s.logger.Warn("external text arrived before local update was confirmed")
	}
	s.pending = ""
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Document returns the live Document, or nil when none is loaded.
func (s *Session) Document() *Document { return s.doc }

// Root returns the root element of the live Document, or nil.
func (s *Session) Root() *Node {
	if s.doc == nil {
		return nil
	}
	return s.doc.Root
}

// Text returns the last text loaded or pushed.
func (s *Session) Text() string { return s.text }

// State reports whether the Session is idle or applying a load.
func (s *Session) State() State { return s.state }

// ParseErr returns the error of the last load, or nil if it parsed.
func (s *Session) ParseErr() error { return s.parseErr }

// LastChanges returns the positional differences introduced by the last load.
func (s *Session) LastChanges() []Change { return s.changes }

// Pending reports whether a pushed update has not been echoed back yet.
func (s *Session) Pending() bool { return s.pending != "" }

// Selected returns the selected nodes in selection order.
func (s *Session) Selected() []*Node { return s.sel.Nodes() }

// Primary returns the primary selection, or nil.
func (s *Session) Primary() *Node { return s.sel.Primary() }

func (s *Session) IsSelected(n *Node) bool { return s.sel.Contains(n) }

// SelectedPaths returns the paths of the selected nodes in selection order.
func (s *Session) SelectedPaths() []NodePath { return s.sel.Capture(s.Root()) }

// owns reports whether n belongs to the live Document.
func (s *Session) owns(n *Node) bool {
	root := s.Root()
	if root == nil || n == nil || n.Type != ElementNode {
		return false
	}
	_, err := GetPath(root, n)
	return err == nil
}

// Select applies a click on n. Nodes from a previous Document are ignored.
func (s *Session) Select(n *Node, multi bool) {
	if s.state == StateApplying || !s.owns(n) {
		return
	}
	s.sel.Select(n, multi)
	s.notify()
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	if s.state == StateApplying {
		return
	}
	s.sel.Clear()
	s.notify()
}

// mutate runs fn against the live Document and pushes the result when fn
// reports a change. Invalid edits are dropped quietly.
func (s *Session) mutate(op string, fn func() bool) error {
	if s.state == StateApplying {
		return ErrBusy
	}
	if s.doc == nil {
		s.logger.Debug("edit ignored without a document", "op", op)
		return nil
	}
	if !fn() {
		s.logger.Debug("edit ignored", "op", op)
		return nil
	}
	return s.push()
}

// push serializes the whole Document and sends it to the host.
func (s *Session) push() error {
	text, err := s.codec.Serialize(s.doc)
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}
	s.text = text
	s.pending = hashString(text)
	if err := s.host.Send(Message{Type: MsgUpdateSVG, SVGText: text}); err != nil {
		return fmt.Errorf("push update: %w", err)
	}
	s.notify()
	return nil
}

// onPrimary runs fn on the primary selection.
func (s *Session) onPrimary(op string, fn func(n *Node) bool) error {
	return s.mutate(op, func() bool {
		n := s.sel.Primary()
		return n != nil && fn(n)
	})
}

func (s *Session) SetAttribute(key, val string) error {
	return s.onPrimary("setAttr", func(n *Node) bool {
		if key == "" {
			return false
		}
		n.SetAttr(key, val)
		return true
	})
}

func (s *Session) DeleteAttribute(key string) error {
	return s.onPrimary("deleteAttr", func(n *Node) bool { return n.DeleteAttr(key) })
}

func (s *Session) ReorderAttribute(dragged, target string, pos Position) error {
	return s.onPrimary("reorderAttr", func(n *Node) bool { return n.ReorderAttr(dragged, target, pos) })
}

func (s *Session) SetStyleProperty(name, value string) error {
	return s.onPrimary("setStyle", func(n *Node) bool { return n.SetStyleProperty(name, value) })
}

func (s *Session) DeleteStyleProperty(name string) error {
	return s.onPrimary("deleteStyle", func(n *Node) bool { return n.DeleteStyleProperty(name) })
}

func (s *Session) ReorderStyleProperty(dragged, target string, pos Position) error {
	return s.onPrimary("reorderStyle", func(n *Node) bool { return n.ReorderStyleProperty(dragged, target, pos) })
}

// MoveNodes moves sources before, after or inside target. Nodes that do not
// belong to the live Document are dropped from the batch.
func (s *Session) MoveNodes(sources []*Node, target *Node, pos Position) error {
	return s.mutate("move", func() bool {
		if !s.owns(target) {
			return false
		}
		live := make([]*Node, 0, len(sources))
		for _, src := range sources {
			if s.owns(src) {
				live = append(live, src)
			}
		}
		return Move(live, target, pos)
	})
}

// Group wraps the selected nodes in a new group, which becomes the only
// selected node.
func (s *Session) Group() error {
	return s.mutate("group", func() bool {
		g, ok := Group(s.sel.Nodes())
		if !ok {
			s.logger.Info("can only group two or more siblings", "selected", s.sel.Len())
			return false
		}
		s.sel.Set(g)
		return true
	})
}

func (s *Session) ToggleVisibility(n *Node) error {
	return s.mutate("toggleVisibility", func() bool {
		if !s.owns(n) {
			return false
		}
		ToggleVisibility(n)
		return true
	})
}
