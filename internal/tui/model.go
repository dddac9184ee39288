// Package tui is a terminal renderer for a Session: a layer tree on the
// left and the attributes of the primary selection on the right.
package tui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dannyswat/svginspect"
)

type pane int

const (
	paneLayers pane = iota
	paneAttrs
)

type editKind int

const (
	editNone editKind = iota
	editValue
	editNewAttr
	editNewStyle
)

// Options configures the renderer.
type Options struct {
	Title            string
	ShowHiddenMarker bool
	Logger           *slog.Logger
}

type startMsg struct{}

// hostMsg is a message from the text buffer host.
type hostMsg svginspect.Message

type hostClosedMsg struct{}

// layerRow is one element of the flattened layer tree.
type layerRow struct {
	node  *svginspect.Node
	depth int
}

// attrRow is one attribute, or one property of the style attribute.
type attrRow struct {
	key, value string
	style      bool
}

// Model is the bubbletea model. Every Session call happens inside Update,
// on the program goroutine.
type Model struct {
	session *svginspect.Session
	recv    <-chan svginspect.Message
	opts    Options
	logger  *slog.Logger

	width  int
	height int

	pane       pane
	cursor     int
	attrCursor int
	layers     []layerRow
	attrs      []attrRow

	drag svginspect.DragSession

	edit    editKind
	editRow attrRow
	input   textinput.Model

	status string
}

// New returns a Model driving s. Host messages are read from recv until it
// is closed.
func New(s *svginspect.Session, recv <-chan svginspect.Message, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Model{
		session: s,
		recv:    recv,
		opts:    opts,
		logger:  logger,
		width:   80,
		height:  24,
		input:   textinput.New(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startMsg{} },
		m.waitForHost(),
	)
}

func (m *Model) waitForHost() tea.Cmd {
	if m.recv == nil {
		return nil
	}
	recv := m.recv
	return func() tea.Msg {
		msg, ok := <-recv
		if !ok {
			return hostClosedMsg{}
		}
		return hostMsg(msg)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case startMsg:
		m.check(m.session.Start())
		return m, nil

	case hostMsg:
		// Dragged nodes belong to the tree being replaced.
		m.drag = svginspect.DragSession{}
		m.check(m.session.HandleMessage(svginspect.Message(msg)))
		m.refresh()
		return m, m.waitForHost()

	case hostClosedMsg:
		m.status = "host disconnected"
		m.logger.Warn("host closed the connection")
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.edit != editNone {
			return m.updateEdit(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if msg.String() == "tab" {
			m.togglePane()
			return m, nil
		}
		if m.pane == paneAttrs {
			return m.updateAttrs(msg)
		}
		return m.updateLayers(msg)
	}
	return m, nil
}

func (m *Model) togglePane() {
	if m.pane == paneLayers {
		m.pane = paneAttrs
	} else {
		m.pane = paneLayers
	}
	m.drag = svginspect.DragSession{}
}

func (m *Model) updateLayers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cur := m.current()
	m.status = ""

	if m.drag.Active() {
		switch msg.String() {
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "esc":
			m.drag = svginspect.DragSession{}
		case "b", "a", "i":
			pos := map[string]svginspect.Position{
				"b": svginspect.PositionBefore,
				"a": svginspect.PositionAfter,
				"i": svginspect.PositionInside,
			}[msg.String()]
			if !m.drag.CanDrop(cur) {
				m.status = "cannot drop onto a dragged element or its children"
				return m, nil
			}
			m.check(m.drag.Drop(m.session, cur, pos))
			m.drag = svginspect.DragSession{}
			m.refresh()
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "home":
		m.cursor = 0
	case "end":
		m.cursor = max(len(m.layers)-1, 0)
	case "enter":
		m.session.Select(cur, false)
	case " ":
		m.session.Select(cur, true)
	case "esc":
		m.session.ClearSelection()
	case "g":
		before := len(m.session.Selected())
		m.check(m.session.Group())
		if before < 2 {
			m.status = "select two or more siblings to group"
		}
	case "v":
		m.check(m.session.ToggleVisibility(cur))
	case "m":
		if cur != nil {
			m.drag = svginspect.BeginDrag(m.session, cur)
			m.status = "moving: b before, a after, i inside, esc cancel"
		}
	}
	m.refresh()
	return m, nil
}

func (m *Model) updateAttrs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	row, ok := m.currentAttr()

	switch msg.String() {
	case "up", "k":
		m.attrCursor = max(m.attrCursor-1, 0)
	case "down", "j":
		m.attrCursor = min(m.attrCursor+1, max(len(m.attrs)-1, 0))
	case "K":
		if ok {
			m.reorderAttr(row, -1)
		}
	case "J":
		if ok {
			m.reorderAttr(row, 1)
		}
	case "d":
		if ok {
			if row.style {
				m.check(m.session.DeleteStyleProperty(row.key))
			} else {
				m.check(m.session.DeleteAttribute(row.key))
			}
		}
	case "e", "enter":
		if ok {
			return m, m.startEdit(editValue, row, row.value)
		}
	case "+":
		if m.session.Primary() != nil {
			return m, m.startEdit(editNewAttr, attrRow{}, "")
		}
	case "s":
		if m.session.Primary() != nil {
			return m, m.startEdit(editNewStyle, attrRow{}, "")
		}
	case "esc":
		m.pane = paneLayers
	}
	m.refresh()
	return m, nil
}

// reorderAttr swaps row with its neighbour of the same kind in direction dir.
func (m *Model) reorderAttr(row attrRow, dir int) {
	for i := m.attrCursor + dir; i >= 0 && i < len(m.attrs); i += dir {
		other := m.attrs[i]
		if other.style != row.style {
			continue
		}
		pos := svginspect.PositionBefore
		if dir > 0 {
			pos = svginspect.PositionAfter
		}
		if row.style {
			m.check(m.session.ReorderStyleProperty(row.key, other.key, pos))
		} else {
			m.check(m.session.ReorderAttribute(row.key, other.key, pos))
		}
		m.refresh()
		m.focusAttr(row)
		return
	}
}

func (m *Model) startEdit(kind editKind, row attrRow, value string) tea.Cmd {
	m.edit = kind
	m.editRow = row
	switch kind {
	case editValue:
		m.input.Prompt = row.key + ": "
		m.input.Placeholder = ""
	case editNewAttr:
		m.input.Prompt = "attribute: "
		m.input.Placeholder = "name=value"
	case editNewStyle:
		m.input.Prompt = "style: "
		m.input.Placeholder = "name: value"
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopEdit()
		return m, nil
	case "enter":
		m.commitEdit(m.input.Value())
		m.stopEdit()
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) commitEdit(value string) {
	switch m.edit {
	case editValue:
		if m.editRow.style {
			m.check(m.session.SetStyleProperty(m.editRow.key, value))
		} else {
			m.check(m.session.SetAttribute(m.editRow.key, value))
		}
		m.focusAttr(m.editRow)
	case editNewAttr:
		name, val, _ := strings.Cut(value, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			m.status = "attribute name is required"
			return
		}
		m.check(m.session.SetAttribute(name, strings.Trim(strings.TrimSpace(val), `"`)))
	case editNewStyle:
		name, val, _ := strings.Cut(value, ":")
		if strings.TrimSpace(name) == "" {
			m.status = "property name is required"
			return
		}
		m.check(m.session.SetStyleProperty(name, val))
	}
}

func (m *Model) stopEdit() {
	m.edit = editNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) check(err error) {
	if err != nil {
		m.status = err.Error()
		m.logger.Error("operation failed", "error", err)
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.layers)-1, 0))
}

func (m *Model) current() *svginspect.Node {
	if m.cursor < 0 || m.cursor >= len(m.layers) {
		return nil
	}
	return m.layers[m.cursor].node
}

func (m *Model) currentAttr() (attrRow, bool) {
	if m.attrCursor < 0 || m.attrCursor >= len(m.attrs) {
		return attrRow{}, false
	}
	return m.attrs[m.attrCursor], true
}

func (m *Model) focusAttr(row attrRow) {
	for i, r := range m.attrs {
		if r.key == row.key && r.style == row.style {
			m.attrCursor = i
			return
		}
	}
}

// refresh rebuilds the layer and attribute rows from the Session.
func (m *Model) refresh() {
	m.layers = m.layers[:0]
	if root := m.session.Root(); root != nil {
		svginspect.Walk(root, func(n *svginspect.Node, depth int) bool {
			m.layers = append(m.layers, layerRow{node: n, depth: depth})
			return true
		})
	}
	m.moveCursor(0)

	m.attrs = m.attrs[:0]
	if n := m.session.Primary(); n != nil {
		for _, a := range n.Attr {
			m.attrs = append(m.attrs, attrRow{key: a.Key, value: a.Val})
			if a.Key == "style" {
				for _, p := range svginspect.ParseStyle(a.Val) {
					m.attrs = append(m.attrs, attrRow{key: p.Name, value: p.Value, style: true})
				}
			}
		}
	}
	m.attrCursor = min(max(m.attrCursor, 0), max(len(m.attrs)-1, 0))

	if m.drag.Active() && m.session.Root() == nil {
		m.drag = svginspect.DragSession{}
	}
}
