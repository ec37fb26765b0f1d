package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/taskflow-tui/internal/config"
	"github.com/pdxmph/taskflow-tui/internal/storage"
	"github.com/pdxmph/taskflow-tui/internal/storage/storagetest"
	"github.com/pdxmph/taskflow-tui/internal/tasks"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestModel(t *testing.T, opts ...Option) (Model, *tasks.Store, *storage.MemorySlot) {
	t.Helper()

	slot := storage.NewMemorySlot()
	n := 0
	store := tasks.NewStore(slot,
		tasks.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		tasks.WithClock(clock),
		tasks.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("task-%d", n)
		}),
	)
	store.Load(context.Background())

	opts = append([]Option{WithClock(clock)}, opts...)
	m := *New(store, opts...)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, store, slot
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func keys(t *testing.T, m Model, ks ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range ks {
		m = send(t, m, k)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyCtrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func TestNewShowsStoredTasks(t *testing.T) {
	m, store, _ := newTestModel(t)

	assert.Equal(t, store.Tasks(), m.tasks)
	assert.Equal(t, tasks.FilterAll, m.filter)

	view := m.View()
	assert.Contains(t, view, "TaskFlow")
	assert.Contains(t, view, "All 3")
	assert.Contains(t, view, "Pending 2")
	assert.Contains(t, view, "Done 1")
	assert.Contains(t, view, "Learn the keyboard shortcuts")
}

func TestViewBeforeWindowSize(t *testing.T) {
	slot := storage.NewMemorySlot()
	store := tasks.NewStore(slot, tasks.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	store.Load(context.Background())

	assert.Equal(t, "Loading...", New(store).View())
}

func TestAddTask(t *testing.T) {
	m, store, slot := newTestModel(t)

	m = keys(t, m, runes("a"))
	require.True(t, m.formMode)
	assert.Equal(t, "", m.editingID)
	assert.Equal(t, "2024-06-01", m.due.Value(), "due date defaults to today")
	assert.Contains(t, m.View(), "New task")

	m = keys(t, m, runes("Buy milk"), keyCtrlS)

	assert.False(t, m.formMode)
	assert.Equal(t, "Task added", m.status)
	require.Len(t, store.Tasks(), 4)
	assert.Equal(t, "Buy milk", store.Tasks()[0].Title)
	assert.Equal(t, "2024-06-01", store.Tasks()[0].DueDate)
	assert.Equal(t, 0, m.selected)

	raw, ok, err := slot.Get(context.Background(), config.DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, "Buy milk")
}

func TestAddTaskAllFields(t *testing.T) {
	m, store, _ := newTestModel(t)

	m = keys(t, m, runes("a"), runes("Call mom"), keyTab, runes("Sunday"), keyTab)
	assert.Equal(t, FormFieldDueDate, m.formField)

	// Replace the default due date
	for range tasks.DateLayout {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m = keys(t, m, runes("2024-06-09"), keyCtrlS)

	got := store.Tasks()[0]
	assert.Equal(t, "Call mom", got.Title)
	assert.Equal(t, "Sunday", got.Description)
	assert.Equal(t, "2024-06-09", got.DueDate)
	assert.False(t, got.IsCompleted)
}

func TestAddTaskRequiresTitle(t *testing.T) {
	m, store, _ := newTestModel(t)

	m = keys(t, m, runes("a"), runes("   "), keyCtrlS)

	assert.True(t, m.formMode)
	assert.Equal(t, tasks.ErrTitleRequired.Error(), m.formErr)
	assert.Len(t, store.Tasks(), 3)
	assert.Contains(t, m.View(), tasks.ErrTitleRequired.Error())

	// Typing clears the error
	m = keys(t, m, runes("x"))
	assert.Empty(t, m.formErr)
}

func TestEscCancelsForm(t *testing.T) {
	m, store, _ := newTestModel(t)

	m = keys(t, m, runes("a"), runes("Never mind"), keyEsc)

	assert.False(t, m.formMode)
	assert.Len(t, store.Tasks(), 3)
}

func TestEditTask(t *testing.T) {
	m, store, _ := newTestModel(t)
	before := store.Tasks()[0]

	m = keys(t, m, runes("e"))
	require.True(t, m.formMode)
	assert.Equal(t, before.ID, m.editingID)
	assert.Equal(t, before.Title, m.title.Value())
	assert.Contains(t, m.View(), "Edit task")

	m = keys(t, m, runes("!"), keyCtrlS)

	assert.Equal(t, "Task updated", m.status)
	after := store.Tasks()[0]
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Title+"!", after.Title)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Len(t, store.Tasks(), 3)
}

func TestToggleSelectedTask(t *testing.T) {
	m, store, _ := newTestModel(t)

	m = keys(t, m, keySpace)
	assert.True(t, store.Tasks()[0].IsCompleted)
	assert.Contains(t, m.View(), "Done 2")

	m = keys(t, m, runes("x"))
	assert.False(t, store.Tasks()[0].IsCompleted)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	m, store, _ := newTestModel(t)
	target := store.Tasks()[1]

	m = keys(t, m, keyDown, runes("d"))
	require.True(t, m.deleteConfirmMode)
	assert.Contains(t, m.View(), "Delete task '"+target.Title+"'? (y/n)")

	m = keys(t, m, runes("n"))
	assert.False(t, m.deleteConfirmMode)
	assert.Len(t, store.Tasks(), 3)

	m = keys(t, m, runes("d"), runes("y"))
	assert.False(t, m.deleteConfirmMode)
	assert.Equal(t, "Task deleted", m.status)
	require.Len(t, store.Tasks(), 2)
	_, found := tasks.Find(store.Tasks(), target.ID)
	assert.False(t, found)
}

func TestFilterCycle(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = keys(t, m, runes("f"))
	assert.Equal(t, tasks.FilterPending, m.filter)
	assert.Len(t, m.filteredTasks(), 2)
	assert.Contains(t, m.View(), "✓ Pending 2")

	m = keys(t, m, runes("f"))
	assert.Equal(t, tasks.FilterCompleted, m.filter)
	assert.Len(t, m.filteredTasks(), 1)
	assert.NotContains(t, m.View(), "Learn the keyboard shortcuts")

	m = keys(t, m, runes("f"))
	assert.Equal(t, tasks.FilterAll, m.filter)

	m = keys(t, m, runes("3"))
	assert.Equal(t, tasks.FilterCompleted, m.filter)
}

func TestStartWithFilter(t *testing.T) {
	f, err := tasks.ParseFilter("pending")
	require.NoError(t, err)

	m, _, _ := newTestModel(t, WithFilter(f))
	assert.Equal(t, tasks.FilterPending, m.filter)
	assert.Contains(t, m.View(), "✓ Pending 2")
	assert.NotContains(t, m.View(), "Set up TaskFlow")
}

func TestSelectionFollowsFilter(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = keys(t, m, runes("G"))
	assert.Equal(t, 2, m.selected)

	m = keys(t, m, runes("3"))
	assert.Equal(t, 0, m.selected, "selection is clamped to the filtered list")
}

func TestEmptyStates(t *testing.T) {
	m, store, _ := newTestModel(t)
	require.NoError(t, store.Save(context.Background(), nil))
	m.refresh()

	view := m.View()
	assert.Contains(t, view, "No tasks found")
	assert.Contains(t, view, "Press a to create a new task")

	m = keys(t, m, runes("2"))
	assert.Contains(t, m.View(), "No pending tasks available")

	// Actions on an empty list are no-ops
	m = keys(t, m, keySpace, runes("d"), runes("e"))
	assert.False(t, m.deleteConfirmMode)
	assert.False(t, m.formMode)
}

func TestOverdueMarker(t *testing.T) {
	m, store, _ := newTestModel(t)
	require.NoError(t, store.Save(context.Background(), []tasks.Task{
		{ID: "late", Title: "Pay rent", DueDate: "2024-05-31", CreatedAt: fixedNow.UnixMilli()},
	}))
	m.refresh()

	assert.Contains(t, m.View(), "overdue 2024-05-31")
}

func TestSaveFailureKeepsTasks(t *testing.T) {
	m, store, slot := newTestModel(t)
	before := store.Tasks()
	slot.FailPuts(errors.New("quota exceeded"))

	m = keys(t, m, keySpace)

	assert.True(t, m.statusError)
	assert.Contains(t, m.status, "Change not saved")
	assert.Contains(t, m.status, "quota exceeded")
	assert.Equal(t, before, store.Tasks())
	assert.Equal(t, before, m.tasks)
}

func TestStorageNotificationReplacesTasks(t *testing.T) {
	ch := make(chan storage.Notification)
	m, store, _ := newTestModel(t, WithNotifications(ch))

	value := `[{"id":"remote","title":"From elsewhere","dueDate":"2024-06-02","isCompleted":false,"createdAt":1}]`
	next, cmd := m.Update(storageMsg{n: storage.Notification{Key: config.DefaultKey, Value: value, Present: true}})
	m = next.(Model)

	assert.NotNil(t, cmd, "keeps listening")
	assert.Equal(t, "Updated from another window", m.status)
	require.Len(t, m.tasks, 1)
	assert.Equal(t, "remote", m.tasks[0].ID)
	assert.Equal(t, m.tasks, store.Tasks())
}

func TestDelayedOwnWritesKeepLatestState(t *testing.T) {
	m, store, slot := newTestModel(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := store.Watch(ctx)
	require.NoError(t, err)
	m.notifications = ch

	// Two toggles before the first echo is handled
	m = keys(t, m, keySpace, keyDown, keySpace)
	for i := 0; i < 2; i++ {
		m = send(t, m, storageMsg{n: storagetest.Next(t, ch, time.Second)})
	}

	assert.Empty(t, m.status)
	require.Len(t, m.tasks, 3)
	assert.True(t, m.tasks[0].IsCompleted)
	assert.True(t, m.tasks[1].IsCompleted)

	// A further intent persists on top of both toggles
	m = keys(t, m, runes("G"), runes("d"), runes("y"))
	m = send(t, m, storageMsg{n: storagetest.Next(t, ch, time.Second)})
	assert.Equal(t, "Task deleted", m.status)

	raw, ok, err := slot.Get(ctx, config.DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	reloaded := tasks.NewStore(slot, tasks.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.Equal(t, tasks.LoadedStored, reloaded.Load(ctx), raw)
	require.Len(t, reloaded.Tasks(), 2)
	assert.True(t, reloaded.Tasks()[0].IsCompleted)
	assert.True(t, reloaded.Tasks()[1].IsCompleted)
}

func TestStorageNotificationIgnored(t *testing.T) {
	ch := make(chan storage.Notification)
	m, store, _ := newTestModel(t, WithNotifications(ch))
	before := store.Tasks()

	m = send(t, m, storageMsg{n: storage.Notification{Key: config.DefaultKey, Value: "{broken"}})
	m = send(t, m, storageMsg{n: storage.Notification{Key: config.DefaultKey, Present: false}})
	m = send(t, m, storageMsg{n: storage.Notification{Key: "other", Value: "[]", Present: true}})

	assert.Empty(t, m.status)
	assert.Equal(t, before, m.tasks)
}

func TestWatchClosed(t *testing.T) {
	ch := make(chan storage.Notification)
	m, _, _ := newTestModel(t, WithNotifications(ch))

	m = send(t, m, watchClosedMsg{})
	assert.Nil(t, m.notifications)
}

func TestIntro(t *testing.T) {
	m, _, _ := newTestModel(t, WithIntro(time.Second))

	require.True(t, m.showIntro)
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "✓ TaskFlow")
	assert.NotContains(t, m.View(), "Pending")

	m = send(t, m, introDoneMsg{})
	assert.False(t, m.showIntro)

	// A key press also skips it, without acting on the key
	m, _, _ = newTestModel(t, WithIntro(time.Second))
	m = keys(t, m, runes("a"))
	assert.False(t, m.showIntro)
	assert.False(t, m.formMode)
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	// ctrl+c quits from the form as well
	m = keys(t, m, runes("a"))
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
