package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/taskflow-tui/internal/storage"
	"github.com/pdxmph/taskflow-tui/internal/tasks"
)

// Model represents the main application state
type Model struct {
	ctx      context.Context
	store    *tasks.Store
	tasks    []tasks.Task
	filter   tasks.Filter
	selected int
	width    int
	height   int
	now      func() time.Time

	// Intro splash
	showIntro     bool
	introDuration time.Duration

	// Add/edit form mode
	formMode  bool
	editingID string // empty while adding
	formField int
	title     textinput.Model
	desc      textarea.Model
	due       textinput.Model
	formErr   string

	// Delete confirmation mode
	deleteConfirmMode bool
	deleteTaskID      string

	// Status line
	status      string
	statusError bool

	// Changes written by other processes
	notifications <-chan storage.Notification
}

// Form field indices
const (
	FormFieldTitle = iota
	FormFieldDescription
	FormFieldDueDate
	FormFieldCount // Total number of fields
)

type introDoneMsg struct{}

type storageMsg struct {
	n storage.Notification
}

type watchClosedMsg struct{}

// Option configures the model
type Option func(*Model)

// WithIntro shows the splash screen for d before the task list
func WithIntro(d time.Duration) Option {
	return func(m *Model) {
		m.showIntro = d > 0
		m.introDuration = d
	}
}

// WithNotifications applies changes arriving on ch, typically from Store.Watch
func WithNotifications(ch <-chan storage.Notification) Option {
	return func(m *Model) { m.notifications = ch }
}

// WithClock sets the time source for overdue markers and form defaults
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithFilter selects the filter shown first
func WithFilter(f tasks.Filter) Option {
	return func(m *Model) { m.filter = f }
}

// WithContext sets the context used for storage writes
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// New creates a new application model over a loaded store
func New(store *tasks.Store, opts ...Option) *Model {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200
	title.Width = 40
	title.Prompt = ""

	due := textinput.New()
	due.Placeholder = tasks.DateLayout
	due.CharLimit = len(tasks.DateLayout)
	due.Width = 12
	due.Prompt = ""

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.SetHeight(3)
	desc.SetWidth(40)
	desc.CharLimit = 1000
	desc.ShowLineNumbers = false

	m := &Model{
		ctx:   context.Background(),
		store: store,
		tasks: store.Tasks(),
		now:   time.Now,
		title: title,
		desc:  desc,
		due:   due,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init starts the intro timer and the storage listener
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.showIntro {
		cmds = append(cmds, tea.Tick(m.introDuration, func(time.Time) tea.Msg {
			return introDoneMsg{}
		}))
	}
	if m.notifications != nil {
		cmds = append(cmds, waitForNotification(m.notifications))
	}
	return tea.Batch(cmds...)
}

func waitForNotification(ch <-chan storage.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return watchClosedMsg{}
		}
		return storageMsg{n: n}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 0 {
			inputWidth := min(m.width-20, 60)
			if inputWidth > 10 {
				m.title.Width = inputWidth
				m.desc.SetWidth(inputWidth)
			}
		}
		return m, nil

	case introDoneMsg:
		m.showIntro = false
		return m, nil

	case storageMsg:
		if m.store.Apply(msg.n) {
			m.refresh()
			m.setStatus("Updated from another window")
		}
		return m, waitForNotification(m.notifications)

	case watchClosedMsg:
		m.notifications = nil
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// Any key skips the intro
		if m.showIntro {
			m.showIntro = false
			return m, nil
		}

		// Delete confirmation mode handling
		if m.deleteConfirmMode {
			switch msg.String() {
			case "y", "Y":
				if err := m.store.Delete(m.ctx, m.deleteTaskID); err != nil {
					m.setError(err)
				} else {
					m.setStatus("Task deleted")
				}
				m.refresh()
			}
			// Any other key cancels
			m.deleteConfirmMode = false
			m.deleteTaskID = ""
			return m, nil
		}

		if m.formMode {
			return m.updateForm(msg)
		}

		// Normal mode handling
		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "j", "down":
			if m.selected < len(m.filteredTasks())-1 {
				m.selected++
			}

		case "k", "up":
			if m.selected > 0 {
				m.selected--
			}

		case "g", "home":
			m.selected = 0

		case "G", "end":
			m.selected = max(len(m.filteredTasks())-1, 0)

		case "f", "tab":
			m.filter = m.filter.Next()
			m.selected = m.ensureValidSelection()

		case "1", "2", "3":
			m.filter = tasks.Filters[int(msg.String()[0]-'1')]
			m.selected = m.ensureValidSelection()

		case "a", "n":
			return m.openForm(nil)

		case "e", "enter":
			if task, ok := m.selectedTask(); ok {
				return m.openForm(&task)
			}

		case " ", "x":
			if task, ok := m.selectedTask(); ok {
				if err := m.store.Toggle(m.ctx, task.ID); err != nil {
					m.setError(err)
				} else {
					m.status = ""
				}
				m.refresh()
			}

		case "d", "delete":
			if task, ok := m.selectedTask(); ok {
				m.deleteConfirmMode = true
				m.deleteTaskID = task.ID
			}
		}
	}

	return m, nil
}

// updateForm handles keys while the add/edit form is open
func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return m, nil

	case "ctrl+s":
		form := tasks.FormData{
			Title:       strings.TrimSpace(m.title.Value()),
			Description: strings.TrimSpace(m.desc.Value()),
			DueDate:     strings.TrimSpace(m.due.Value()),
		}
		if err := form.Validate(); err != nil {
			m.formErr = err.Error()
			return m, nil
		}

		var err error
		if m.editingID == "" {
			_, err = m.store.Add(m.ctx, form)
		} else {
			err = m.store.Edit(m.ctx, m.editingID, form)
		}
		if err != nil {
			m.setError(err)
		} else if m.editingID == "" {
			m.setStatus("Task added")
			// New tasks are prepended; show them if the filter allows
			if m.filter != tasks.FilterCompleted {
				m.selected = 0
			}
		} else {
			m.setStatus("Task updated")
		}
		m.refresh()
		m.closeForm()
		return m, nil

	case "tab":
		return m.focusField((m.formField + 1) % FormFieldCount)

	case "shift+tab":
		return m.focusField((m.formField + FormFieldCount - 1) % FormFieldCount)

	case "enter":
		// Enter moves on from single-line fields; the description takes newlines
		if m.formField != FormFieldDescription {
			return m.focusField((m.formField + 1) % FormFieldCount)
		}
	}

	var cmd tea.Cmd
	switch m.formField {
	case FormFieldTitle:
		m.title, cmd = m.title.Update(msg)
	case FormFieldDescription:
		m.desc, cmd = m.desc.Update(msg)
	case FormFieldDueDate:
		m.due, cmd = m.due.Update(msg)
	}
	m.formErr = ""
	return m, cmd
}

// openForm opens the form for a new task, or for editing task when non-nil
func (m Model) openForm(task *tasks.Task) (tea.Model, tea.Cmd) {
	m.formMode = true
	m.formErr = ""

	form := tasks.FormData{DueDate: tasks.FormatDate(m.now())}
	m.editingID = ""
	if task != nil {
		form = tasks.FormFor(*task)
		m.editingID = task.ID
	}

	m.title.SetValue(form.Title)
	m.desc.SetValue(form.Description)
	m.due.SetValue(form.DueDate)

	return m.focusField(FormFieldTitle)
}

func (m *Model) closeForm() {
	m.formMode = false
	m.editingID = ""
	m.formField = 0
	m.formErr = ""
	m.title.Blur()
	m.desc.Blur()
	m.due.Blur()
}

func (m Model) focusField(field int) (tea.Model, tea.Cmd) {
	m.title.Blur()
	m.desc.Blur()
	m.due.Blur()

	m.formField = field
	var cmd tea.Cmd
	switch field {
	case FormFieldTitle:
		cmd = m.title.Focus()
	case FormFieldDescription:
		cmd = m.desc.Focus()
	case FormFieldDueDate:
		cmd = m.due.Focus()
	}
	return m, cmd
}

// refresh reloads the task list from the store
func (m *Model) refresh() {
	m.tasks = m.store.Tasks()
	m.selected = m.ensureValidSelection()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusError = false
}

func (m *Model) setError(err error) {
	if errors.Is(err, tasks.ErrNotSaved) {
		m.status = fmt.Sprintf("Change not saved (%v)", err)
	} else {
		m.status = fmt.Sprintf("Error: %v", err)
	}
	m.statusError = true
}

// filteredTasks returns tasks matching the current filter
func (m Model) filteredTasks() []tasks.Task {
	return tasks.FilterTasks(m.tasks, m.filter)
}

// selectedTask returns the task under the cursor
func (m Model) selectedTask() (tasks.Task, bool) {
	filtered := m.filteredTasks()
	if len(filtered) == 0 || m.selected >= len(filtered) {
		return tasks.Task{}, false
	}
	return filtered[m.selected], true
}

// ensureValidSelection ensures the current selection is within bounds
func (m Model) ensureValidSelection() int {
	filtered := m.filteredTasks()
	if len(filtered) == 0 {
		return 0
	}
	if m.selected >= len(filtered) {
		return len(filtered) - 1
	}
	if m.selected < 0 {
		return 0
	}
	return m.selected
}

// Styles
var (
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))

	overdueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Strikethrough(true)

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))

	chipStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("246"))

	activeChipStyle = chipStyle.Copy().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("183"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)
