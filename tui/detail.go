package tui

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arsalan924/trajlens/internal/trajectory"
)

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "esc", "h":
		m.focus = focusList
		return m, nil

	case "up", "k":
		m.offset--
	case "down", "j":
		m.offset++
	case "pgup", "u":
		m.offset -= m.detailRows() / 2
	case "pgdown", "d":
		m.offset += m.detailRows() / 2
	case "home", "g":
		m.offset = 0
	case "end", "G":
		m.offset = len(m.lines)

	case "r":
		if m.selected != "" {
			m.loading = true
			m.loadName = m.selected
			return m, m.refreshCmd()
		}
		return m, nil

	case "i":
		if len(m.overlayImages()) > 0 {
			m.overlayCursor = 0
			m.expandedID = ""
			m.focus = focusOverlay
		}
		return m, nil

	default:
		return m, nil
	}

	m.clampDetail()
	m.ctrl.SetScroll(m.offset)
	return m, nil
}

func (m Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	images := m.overlayImages()
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.overlayCursor > 0 {
			m.overlayCursor--
		}

	case "down", "j":
		if m.overlayCursor < len(images)-1 {
			m.overlayCursor++
		}

	case "enter":
		if len(images) > 0 {
			id := images[m.overlayCursor].ID
			if m.expandedID == id {
				m.expandedID = ""
			} else {
				m.expandedID = id
			}
		}

	case "esc":
		if m.expandedID != "" {
			m.expandedID = ""
		} else {
			m.focus = focusDetail
		}

	case "i":
		m.focus = focusDetail
	}
	return m, nil
}

// overlayImages flattens image blocks across all steps, in step order.
func (m Model) overlayImages() []trajectory.ImageBlock {
	if m.rendered == nil {
		return nil
	}
	var out []trajectory.ImageBlock
	for _, step := range m.rendered.Steps {
		out = append(out, step.Images...)
	}
	return out
}

func (m Model) detailWidth() int {
	w := m.width - m.listWidth() - 3
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) listWidth() int {
	w := m.width / 4
	if w < 24 {
		w = 24
	}
	return w
}

func (m Model) detailRows() int {
	rows := m.height - 3
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) rebuildLines() {
	if m.rendered == nil {
		m.lines = nil
		return
	}
	m.lines = buildLines(m.rendered, m.highlighter())
}

func (m *Model) clampDetail() {
	m.offset = clampOffset(m.offset, len(m.lines), m.detailRows())
}

// clampOffset keeps the viewport offset within [0, total-visible].
func clampOffset(offset, total, visible int) int {
	max := total - visible
	if max < 0 {
		max = 0
	}
	if offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// highlighter returns the action formatter. Glamour can panic on
// pathological input, so fall back to the plain text.
func (m Model) highlighter() func(string) string {
	renderer := m.renderer
	return func(text string) (out string) {
		if renderer == nil {
			return text
		}
		defer func() {
			if r := recover(); r != nil {
				out = text
			}
		}()
		rendered, err := renderer.Render("```\n" + text + "\n```")
		if err != nil {
			return text
		}
		return strings.TrimRight(rendered, "\n")
	}
}

// buildLines flattens a rendered trajectory into display lines. Content
// arrives HTML-escaped from the renderer and is unescaped for the
// terminal here.
func buildLines(rt *trajectory.RenderedTrajectory, highlight func(string) string) []string {
	if highlight == nil {
		highlight = func(s string) string { return s }
	}

	var lines []string
	add := func(s string) {
		lines = append(lines, strings.Split(s, "\n")...)
	}

	if len(rt.Steps) == 0 {
		return []string{dimStyle.Render("no trajectory content")}
	}

	for i, step := range rt.Steps {
		if i > 0 {
			add("")
		}
		add(stepHeaderStyle.Render(fmt.Sprintf(" Step %d ", i+1)))

		if step.Response != "" {
			add(responseLabelStyle.Render("response"))
			add(html.UnescapeString(step.Response))
		}
		if step.Action != "" {
			add(actionLabelStyle.Render("action"))
			add(highlight(html.UnescapeString(step.Action)))
		}
		if step.Observation != "" {
			add(observationLabelStyle.Render("observation"))
			add(html.UnescapeString(step.Observation))
		}
		for j, img := range step.Images {
			alt := img.AltText
			add(imageStyle.Render(fmt.Sprintf("[image %d] %s (%s)", j+1, alt, img.Format)))
		}
		if step.HasExecutionTime {
			add(dimStyle.Render("took " + step.ExecutionLabel))
		}
		for _, msg := range step.Messages {
			role := roleStyle
			if msg.Demo {
				role = demoRoleStyle
			}
			add(role.Render("[" + msg.Role + "]"))
			if msg.Content != "" {
				add(html.UnescapeString(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				add(toolCallStyle.Render(html.UnescapeString(tc)))
			}
		}
	}

	if rt.Info != nil && rt.Info.ExitStatus != "" {
		add("")
		add(dimStyle.Render("exit status: " + rt.Info.ExitStatus))
	}
	return lines
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	left := m.viewList()
	var right string
	if m.focus == focusOverlay {
		right = m.viewOverlay()
	} else {
		right = m.viewDetail()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	return body + "\n" + m.viewStatus()
}

func (m Model) viewList() string {
	var b strings.Builder
	title := m.label
	if title == "" {
		title = "trajectories"
	}
	b.WriteString(listHeaderStyle.Render(truncate(title, m.listWidth())))
	b.WriteString("\n")

	if m.focus == focusSearch || m.searchInput.Value() != "" {
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}

	rows := m.listRows()
	end := m.listOff + rows
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for i := m.listOff; i < end; i++ {
		name := truncate(m.filtered[i], m.listWidth()-2)
		line := "  " + name
		if m.filtered[i] == m.selected {
			line = selectedStyle.Render("* " + name)
		}
		if i == m.cursor && m.focus == focusList {
			line = cursorStyle.Render("> " + name)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("  (empty)"))
	}
	return lipgloss.NewStyle().Width(m.listWidth()).Render(b.String())
}

func (m Model) viewDetail() string {
	if m.errText != "" {
		return errorStyle.Render("load failed: " + m.errText)
	}
	if m.loading {
		return dimStyle.Render("loading " + m.loadName + "...")
	}
	if m.rendered == nil {
		return dimStyle.Render("press enter to open a trajectory")
	}

	rows := m.detailRows()
	end := m.offset + rows
	if end > len(m.lines) {
		end = len(m.lines)
	}
	start := m.offset
	if start > end {
		start = end
	}
	return strings.Join(m.lines[start:end], "\n")
}

func (m Model) viewOverlay() string {
	images := m.overlayImages()
	var b strings.Builder
	b.WriteString(titleStyle.Render("images"))
	b.WriteString("\n\n")
	for i, img := range images {
		marker := "  "
		if i == m.overlayCursor {
			marker = "> "
		}
		b.WriteString(cursorLine(marker, fmt.Sprintf("%s (%s)", img.AltText, img.Format), i == m.overlayCursor))
		b.WriteString("\n")
		if img.ID == m.expandedID {
			b.WriteString(dimStyle.Render(fmt.Sprintf("    id %s, ~%d bytes decoded", img.ID, decodedSize(img.DataURL))))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter expand/collapse, esc close"))
	return overlayStyle.Render(b.String())
}

func cursorLine(marker, text string, active bool) string {
	if active {
		return cursorStyle.Render(marker + text)
	}
	return marker + text
}

// decodedSize reports the decoded byte count of a base64 data URL payload.
func decodedSize(dataURL string) int {
	idx := strings.IndexByte(dataURL, ',')
	if idx < 0 {
		return 0
	}
	payload := dataURL[idx+1:]
	return base64.StdEncoding.DecodedLen(len(payload)) - strings.Count(payload, "=")
}

func (m Model) viewStatus() string {
	state := m.ctrl.State().String()
	left := statusBarStyle.Render(" " + state + " ")
	help := helpStyle.Render("enter open  / filter  r refresh  i images  tab pane  q quit")
	return left + " " + help
}

func truncate(s string, w int) string {
	if w <= 3 || len(s) <= w {
		return s
	}
	return s[:w-3] + "..."
}
