package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dannyswat/svginspect"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	activeStyle   = paneStyle.BorderForeground(lipgloss.Color("62"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("255"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	primaryStyle  = selectedStyle.Underline(true)
	hiddenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Faint(true)
	draggedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	title := m.opts.Title
	if title == "" {
		title = "svginspect"
	}
	b.WriteString(titleStyle.Render(title))
	if m.session.Pending() {
		b.WriteString(faintStyle.Render("  (saving)"))
	}
	b.WriteByte('\n')

	if err := m.session.ParseErr(); err != nil {
		b.WriteString(errorStyle.Render(err.Error()))
		b.WriteByte('\n')
	}

	bodyHeight := max(m.height-6, 3)
	leftWidth := max(m.width*3/5-4, 20)
	rightWidth := max(m.width-leftWidth-8, 20)

	left, right := paneStyle, paneStyle
	if m.pane == paneLayers {
		left = activeStyle
	} else {
		right = activeStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		left.Width(leftWidth).Height(bodyHeight).Render(m.layersView(bodyHeight)),
		right.Width(rightWidth).Height(bodyHeight).Render(m.attrsView(bodyHeight)),
	))
	b.WriteByte('\n')

	if m.edit != editNone {
		b.WriteString(m.input.View())
	} else if m.status != "" {
		b.WriteString(m.status)
	}
	b.WriteByte('\n')
	b.WriteString(faintStyle.Render(m.footerText()))
	return b.String()
}

func (m *Model) layersView(height int) string {
	if len(m.layers) == 0 {
		return faintStyle.Render("no document")
	}
	start := scrollStart(m.cursor, len(m.layers), height)
	end := min(start+height, len(m.layers))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := m.layers[i]
		line := strings.Repeat("  ", row.depth) + label(row.node)

		style := lipgloss.NewStyle()
		switch {
		case row.node == m.session.Primary():
			style = primaryStyle
		case m.session.IsSelected(row.node):
			style = selectedStyle
		case svginspect.Hidden(row.node):
			style = hiddenStyle
		}
		if m.drag.Dragging(row.node) {
			style = draggedStyle
		}
		line = style.Render(line)
		if m.opts.ShowHiddenMarker && svginspect.Hidden(row.node) {
			line += hiddenStyle.Render(" [hidden]")
		}
		if i == m.cursor && m.pane == paneLayers {
			line = cursorStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) attrsView(height int) string {
	primary := m.session.Primary()
	if primary == nil {
		return faintStyle.Render("nothing selected")
	}
	lines := []string{titleStyle.Render("<" + primary.Data + ">")}
	if len(m.attrs) == 0 {
		lines = append(lines, faintStyle.Render("no attributes"))
	}
	height--
	start := scrollStart(m.attrCursor, len(m.attrs), height)
	end := min(start+height, len(m.attrs))
	for i := start; i < end; i++ {
		row := m.attrs[i]
		var line string
		if row.style {
			line = fmt.Sprintf("   %s: %s", row.key, row.value)
		} else {
			line = fmt.Sprintf("%s = %q", row.key, row.value)
		}
		if i == m.attrCursor && m.pane == paneAttrs {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) footerText() string {
	switch {
	case m.edit != editNone:
		return "enter: apply  esc: cancel"
	case m.drag.Active():
		return fmt.Sprintf("moving %d  b: before  a: after  i: inside  esc: cancel", len(m.drag.Nodes))
	case m.pane == paneAttrs:
		return "j/k: move  K/J: reorder  e: edit  d: delete  +: attribute  s: style  tab: layers  q: quit"
	default:
		return "j/k: move  enter: select  space: multi  g: group  v: visibility  m: move  tab: attributes  q: quit"
	}
}

// label renders an element as tag#id.class.
func label(n *svginspect.Node) string {
	var b strings.Builder
	b.WriteString(n.Data)
	if id := n.ID(); id != "" {
		b.WriteByte('#')
		b.WriteString(id)
	}
	for _, c := range n.Classes() {
		b.WriteByte('.')
		b.WriteString(c)
	}
	return b.String()
}

func scrollStart(cursor, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	start := cursor - height/2
	return min(max(start, 0), total-height)
}
