package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/taskflow-tui/internal/tasks"
)

// View renders the UI
func (m Model) View() string {
	if m.showIntro {
		return m.renderIntro()
	}

	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Overlays replace the list, as in the other modes
	if m.formMode {
		return m.renderForm()
	}
	if m.deleteConfirmMode {
		return m.renderDeleteConfirmation()
	}

	header := m.renderHeader()
	help := m.renderHelp()
	status := m.renderStatus()

	listHeight := m.height - lipgloss.Height(header) - 4
	list := borderStyle.
		Width(m.width - 2).
		Height(listHeight).
		Render(m.renderList(m.width-4, listHeight))

	return lipgloss.JoinVertical(lipgloss.Left, header, list, status, help)
}

// renderHeader renders the app title and the filter chips with live counts
func (m Model) renderHeader() string {
	counts := tasks.CountTasks(m.tasks)

	var chips []string
	for _, f := range tasks.Filters {
		label := fmt.Sprintf("%s %d", f.Label(), counts.For(f))
		if f == m.filter {
			chips = append(chips, activeChipStyle.Render("✓ "+label))
		} else {
			chips = append(chips, chipStyle.Render(label))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(" TaskFlow"),
		" "+strings.Join(chips, " "),
	)
}

// renderList renders the filtered tasks, two lines per task
func (m Model) renderList(width, height int) string {
	filtered := m.filteredTasks()

	if len(filtered) == 0 {
		hint := "Press a to create a new task"
		if m.filter != tasks.FilterAll {
			hint = fmt.Sprintf("No %s tasks available", strings.ToLower(m.filter.String()))
		}
		return lipgloss.NewStyle().
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No tasks found\n\n" + descStyle.Render(hint))
	}

	// Calculate visible range
	visible := max(height/2, 1)
	startIdx := 0
	if m.selected >= visible {
		startIdx = m.selected - visible + 1
	}

	now := m.now()
	var lines []string
	for i := startIdx; i < len(filtered) && i < startIdx+visible; i++ {
		t := filtered[i]

		check := "[ ]"
		if t.IsCompleted {
			check = "[x]"
		}

		due := "due " + t.DueDate
		overdue := tasks.IsOverdue(t, now)
		if overdue {
			due = "overdue " + t.DueDate
		}

		title := t.Title
		room := width - len(check) - len(due) - 4
		if room > 0 && lipgloss.Width(title) > room {
			title = truncate(title, room)
		}

		// Apply selection styling to the entire line if selected
		var line string
		if i == m.selected {
			line = selectedStyle.Render(padBetween(check+" "+title, due, width))
		} else {
			styledTitle := title
			if t.IsCompleted {
				styledTitle = completedStyle.Render(title)
			}
			styledDue := dueStyle.Render(due)
			if overdue {
				styledDue = overdueStyle.Render(due)
			}
			line = padBetween(check+" "+styledTitle, styledDue, width)
		}
		lines = append(lines, line)

		desc := strings.ReplaceAll(t.Description, "\n", " ")
		if desc != "" {
			desc = truncate(desc, width-4)
		}
		lines = append(lines, "    "+descStyle.Render(desc))
	}

	return strings.Join(lines, "\n")
}

// renderStatus renders the last action's outcome
func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusError {
		return " " + errorStyle.Render(m.status)
	}
	return " " + m.status
}

// renderHelp renders the help line
func (m Model) renderHelp() string {
	if m.deleteConfirmMode {
		return " y: confirm delete • any other key: cancel"
	}

	if m.formMode {
		return " Tab: next field • Ctrl+S: save • Esc: cancel"
	}

	return " j/k: navigate • a: add • e: edit • space: done • d: delete • f: filter • q: quit"
}

// renderForm renders the add/edit overlay
func (m Model) renderForm() string {
	heading := "New task"
	if m.editingID != "" {
		heading = "Edit task"
	}

	labels := []string{
		"Title:       ",
		"Description: ",
		"Due date:    ",
	}

	var lines []string
	lines = append(lines, titleStyle.Render(heading))
	lines = append(lines, strings.Repeat("─", 40))
	lines = append(lines, "")

	for i, label := range labels {
		if i == m.formField {
			label = selectedStyle.Render(label)
		}
		switch i {
		case FormFieldTitle:
			lines = append(lines, label+m.title.View())
		case FormFieldDescription:
			lines = append(lines, label)
			lines = append(lines, m.desc.View())
		case FormFieldDueDate:
			lines = append(lines, label+m.due.View())
		}
		lines = append(lines, "")
	}

	if m.formErr != "" {
		lines = append(lines, errorStyle.Render(m.formErr))
		lines = append(lines, "")
	}

	lines = append(lines, m.renderHelp())

	content := strings.Join(lines, "\n")
	box := borderStyle.
		Padding(1).
		Render(content)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box)
}

// renderDeleteConfirmation renders the delete confirmation prompt
func (m Model) renderDeleteConfirmation() string {
	var title string
	if task, ok := tasks.Find(m.tasks, m.deleteTaskID); ok {
		title = task.Title
	}

	width := 60
	height := 7

	prompt := fmt.Sprintf("Delete task '%s'? (y/n)", truncate(title, width-24))

	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-4).
		Align(lipgloss.Center, lipgloss.Center).
		Render(prompt)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(width).
		Height(height).
		Render(content)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box)
}

// renderIntro renders the splash screen
func (m Model) renderIntro() string {
	logo := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("183")).
		Padding(1, 4).
		Render(titleStyle.Render("✓ TaskFlow"))

	if m.width == 0 || m.height == 0 {
		return logo
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(logo)
}

// padBetween places left and right on one line of the given width
func padBetween(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// truncate shortens s to at most width cells, marking the cut with an ellipsis
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if lipgloss.Width(s) <= width {
		return s
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
