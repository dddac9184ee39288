package svginspect

import (
	"errors"
	"strings"
	"testing"
)

type recordingHost struct {
	sent []Message
	err  error
}

func (h *recordingHost) Send(msg Message) error {
	if h.err != nil {
		return h.err
	}
	h.sent = append(h.sent, msg)
	return nil
}

func (h *recordingHost) updates() []string {
	var out []string
	for _, m := range h.sent {
		if m.Type == MsgUpdateSVG {
			out = append(out, m.SVGText)
		}
	}
	return out
}

func newLoadedSession(t *testing.T, text string, opts ...Option) (*Session, *recordingHost) {
	t.Helper()
	host := &recordingHost{}
	s := NewSession(host, opts...)
	if err := s.Load(text); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.ParseErr() != nil {
		t.Fatalf("Unexpected parse error: %v", s.ParseErr())
	}
	return s, host
}

func TestSessionStart(t *testing.T) {
	host := &recordingHost{}
	s := NewSession(host)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(host.sent) != 1 || host.sent[0].Type != MsgReady {
		t.Errorf("Expected one ready message, got %v", host.sent)
	}

	failing := NewSession(&recordingHost{err: errors.New("closed")})
	if err := failing.Start(); err == nil {
		t.Errorf("Expected send error from Start")
	}
}

func TestSessionGroupPushesWholeDocument(t *testing.T) {
	s, host := newLoadedSession(t, `<svg><rect id="a"/><circle id="b"/></svg>`)

	s.Select(s.Root().ChildAt(0), false)
	s.Select(s.Root().ChildAt(1), true)
	if err := s.Group(); err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	updates := host.updates()
	if len(updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(updates))
	}
	want := `<svg><g><rect id="a"/><circle id="b"/></g></svg>`
	if updates[0] != want {
		t.Errorf("Update mismatch\n got: %s\nwant: %s", updates[0], want)
	}
	paths := s.SelectedPaths()
	if len(paths) != 1 || !paths[0].Equal(NodePath{0}) {
		t.Errorf("Selection = %v, want [/0]", paths)
	}
	if s.Text() != want || !s.Pending() {
		t.Errorf("Session must remember the pushed text as pending")
	}
}

func TestSessionEchoClearsPending(t *testing.T) {
	s, host := newLoadedSession(t, `<svg><rect id="a"/></svg>`)
	s.Select(s.Root().ChildAt(0), false)
	if err := s.SetAttribute("fill", "red"); err != nil {
		t.Fatalf("SetAttribute failed: %v", err)
	}
	if !s.Pending() {
		t.Fatalf("Expected a pending update")
	}

	// The host echoes the same text back.
	if err := s.HandleMessage(Message{Type: MsgLoad, SVGText: host.updates()[0]}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if s.Pending() {
		t.Errorf("Echo must clear the pending update")
	}
	if len(s.LastChanges()) != 0 {
		t.Errorf("Echo must not change the tree, got %v", s.LastChanges())
	}
	if p := s.Primary(); p == nil || p.ID() != "a" {
		t.Errorf("Selection must survive the echo, got %v", p)
	}
	if v, _ := s.Primary().Attribute("fill"); v != "red" {
		t.Errorf("fill = %q after echo", v)
	}
}

func TestSessionExternalEditRemapsSelection(t *testing.T) {
	s, _ := newLoadedSession(t, `<svg><rect id="a"/><rect id="b"/><rect id="c"/></svg>`)
	s.Select(s.Root().ChildAt(0), false)
	s.Select(s.Root().ChildAt(2), true)

	if err := s.Load(`<svg><rect id="b"/><rect id="c"/></svg>`); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	sel := s.Selected()
	if len(sel) != 1 || sel[0].ID() != "b" {
		t.Errorf("Selection = %v, want [#b]", sel)
	}
	if len(s.LastChanges()) == 0 {
		t.Errorf("Expected positional changes after external edit")
	}
}

func TestSessionParseErrorRecovery(t *testing.T) {
	s, host := newLoadedSession(t, `<svg><rect id="a"/></svg>`)
	s.Select(s.Root().ChildAt(0), false)

	if err := s.Load(`<svg><rect id="a">`); err != nil {
		t.Fatalf("Load must not fail on bad text: %v", err)
	}
	var perr *ParseError
	if !errors.As(s.ParseErr(), &perr) {
		t.Fatalf("ParseErr = %v, want *ParseError", s.ParseErr())
	}
	if s.Document() != nil || s.Root() != nil || len(s.Selected()) != 0 {
		t.Errorf("Bad text must leave no document and no selection")
	}

	// Edits without a document are ignored.
	if err := s.SetAttribute("fill", "red"); err != nil {
		t.Errorf("SetAttribute without document: %v", err)
	}
	if len(host.updates()) != 0 {
		t.Errorf("Nothing may be pushed without a document")
	}

	// The next good load starts afresh.
	if err := s.Load(`<svg><rect id="a"/></svg>`); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.ParseErr() != nil || s.Root() == nil {
		t.Errorf("Session must recover on the next well-formed load")
	}
	if len(s.Selected()) != 0 {
		t.Errorf("Selection must stay empty after recovery")
	}
}

func TestSessionInvalidEditsDoNotPush(t *testing.T) {
	s, host := newLoadedSession(t, `<svg><g id="g"><rect id="a" x="1" y="2"/></g></svg>`)

	// Nothing selected.
	if err := s.DeleteAttribute("x"); err != nil {
		t.Fatal(err)
	}

	g := s.Root().ChildAt(0)
	a := g.ChildAt(0)
	s.Select(a, false)

	checks := []func() error{
		func() error { return s.SetAttribute("", "1") },
		func() error { return s.DeleteAttribute("missing") },
		func() error { return s.ReorderAttribute("x", "x", PositionAfter) },
		func() error { return s.ReorderAttribute("x", "missing", PositionAfter) },
		func() error { return s.DeleteStyleProperty("fill") },
		func() error { return s.ReorderStyleProperty("fill", "stroke", PositionBefore) },
		func() error { return s.MoveNodes([]*Node{g}, a, PositionInside) },
		func() error { return s.MoveNodes([]*Node{NewElement("rect")}, a, PositionAfter) },
		func() error { return s.Group() },
		func() error { return s.ToggleVisibility(NewElement("rect")) },
	}
	for i, fn := range checks {
		if err := fn(); err != nil {
			t.Errorf("check %d: unexpected error %v", i, err)
		}
	}
	if n := len(host.updates()); n != 0 {
		t.Errorf("Expected no updates, got %d: %v", n, host.updates())
	}
	if s.Pending() {
		t.Errorf("No-op edits must not leave a pending update")
	}
}

func TestSessionEdits(t *testing.T) {
	s, host := newLoadedSession(t, `<svg><rect id="a" fill="red" stroke="blue"/><circle id="b"/></svg>`)
	a := s.Root().ChildAt(0)
	b := s.Root().ChildAt(1)
	s.Select(a, false)

	steps := []struct {
		name string
		run  func() error
		want string
	}{
		{"reorder attr", func() error { return s.ReorderAttribute("fill", "stroke", PositionAfter) },
			`<svg><rect id="a" stroke="blue" fill="red"/><circle id="b"/></svg>`},
		{"set style", func() error { return s.SetStyleProperty("opacity", "0.5") },
			`<svg><rect id="a" stroke="blue" fill="red" style="opacity: 0.5"/><circle id="b"/></svg>`},
		{"delete style", func() error { return s.DeleteStyleProperty("opacity") },
			`<svg><rect id="a" stroke="blue" fill="red" style=""/><circle id="b"/></svg>`},
		{"delete attr", func() error { return s.DeleteAttribute("style") },
			`<svg><rect id="a" stroke="blue" fill="red"/><circle id="b"/></svg>`},
		{"move", func() error { return s.MoveNodes([]*Node{b}, a, PositionBefore) },
			`<svg><circle id="b"/><rect id="a" stroke="blue" fill="red"/></svg>`},
		{"hide", func() error { return s.ToggleVisibility(b) },
			`<svg><circle id="b" visibility="hidden"/><rect id="a" stroke="blue" fill="red"/></svg>`},
	}
	for i, step := range steps {
		if err := step.run(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		updates := host.updates()
		if len(updates) != i+1 {
			t.Fatalf("%s: expected %d updates, got %d", step.name, i+1, len(updates))
		}
		if got := updates[i]; got != step.want {
			t.Errorf("%s\n got: %s\nwant: %s", step.name, got, step.want)
		}
	}
}

// reentrantCodec calls back into the Session while it is applying a load.
type reentrantCodec struct {
	XMLCodec
	s   *Session
	err error
}

func (c *reentrantCodec) Parse(text string) (*Document, error) {
	if c.s != nil && c.err == nil {
		c.err = c.s.Load(text)
		if c.err == nil {
			c.err = errors.New("nested load accepted")
		}
	}
	return c.XMLCodec.Parse(text)
}

func TestSessionRejectsReentrantLoad(t *testing.T) {
	codec := &reentrantCodec{}
	s := NewSession(&recordingHost{}, WithCodec(codec))
	codec.s = s

	if err := s.Load(`<svg/>`); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !errors.Is(codec.err, ErrBusy) {
		t.Errorf("Nested load error = %v, want ErrBusy", codec.err)
	}
	if s.State() != StateIdle {
		t.Errorf("State = %v after load, want idle", s.State())
	}
}

func TestSessionUnexpectedMessage(t *testing.T) {
	s := NewSession(&recordingHost{})
	for _, typ := range []MessageType{MsgReady, MsgUpdateSVG, "bogus"} {
		err := s.HandleMessage(Message{Type: typ})
		if !errors.Is(err, ErrUnexpectedMessage) {
			t.Errorf("HandleMessage(%q) = %v, want ErrUnexpectedMessage", typ, err)
		}
	}
}

func TestSessionChangeHook(t *testing.T) {
	var calls []State
	var s *Session
	s = NewSession(&recordingHost{}, WithChangeHook(func() { calls = append(calls, s.State()) }))

	s.Load(`<svg><rect/></svg>`)
	s.Select(s.Root().ChildAt(0), false)
	s.SetAttribute("x", "1")

	if len(calls) != 3 {
		t.Fatalf("Expected 3 hook calls, got %d", len(calls))
	}
	for i, st := range calls {
		if st != StateIdle {
			t.Errorf("call %d ran in state %v", i, st)
		}
	}
}

func TestSessionIgnoresStaleNodes(t *testing.T) {
	s, host := newLoadedSession(t, `<svg><rect id="a"/></svg>`)
	stale := s.Root().ChildAt(0)
	s.Load(`<svg><rect id="a"/></svg>`)

	s.Select(stale, false)
	if len(s.Selected()) != 0 {
		t.Errorf("Nodes of a replaced document must not be selectable")
	}
	s.ToggleVisibility(stale)
	if len(host.updates()) != 0 {
		t.Errorf("Edits on stale nodes must not push")
	}
}

func TestSessionKeepsMultilineAttributes(t *testing.T) {
	s, host := newLoadedSession(t, "<svg><path d=\"M0 0\n   L10 10\"/></svg>")
	s.Select(s.Root().ChildAt(0), false)
	if err := s.SetAttribute("fill", "red"); err != nil {
		t.Fatalf("SetAttribute failed: %v", err)
	}
	want := "<svg><path d=\"M0 0\n   L10 10\" fill=\"red\"/></svg>"
	if got := host.updates(); len(got) != 1 || got[0] != want {
		t.Errorf("Update = %q, want %q", got, want)
	}
}

func TestSessionPushError(t *testing.T) {
	host := &recordingHost{}
	s := NewSession(host)
	s.Load(`<svg><rect/></svg>`)
	s.Select(s.Root().ChildAt(0), false)

	host.err = errors.New("pipe closed")
	err := s.SetAttribute("x", "1")
	if err == nil || !strings.Contains(err.Error(), "pipe closed") {
		t.Errorf("SetAttribute error = %v, want wrapped send error", err)
	}
}
