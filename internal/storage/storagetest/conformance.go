// Package storagetest holds behaviour every storage.Slot must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/taskflow-tui/internal/storage"
)

// Run exercises a slot's Get/Put/Delete contract. open must return a fresh, empty slot.
func Run(t *testing.T, open func(t *testing.T) storage.Slot) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		slot := open(t)
		value, ok, err := slot.Get(ctx, "taskflow_data_v1")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("put then get", func(t *testing.T) {
		slot := open(t)
		require.NoError(t, slot.Put(ctx, "taskflow_data_v1", `[{"id":"a"}]`))

		value, ok, err := slot.Get(ctx, "taskflow_data_v1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"id":"a"}]`, value)
	})

	t.Run("empty array is present", func(t *testing.T) {
		slot := open(t)
		require.NoError(t, slot.Put(ctx, "taskflow_data_v1", "[]"))

		value, ok, err := slot.Get(ctx, "taskflow_data_v1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "[]", value)
	})

	t.Run("put replaces", func(t *testing.T) {
		slot := open(t)
		require.NoError(t, slot.Put(ctx, "taskflow_data_v1", "one"))
		require.NoError(t, slot.Put(ctx, "taskflow_data_v1", "two"))

		value, _, err := slot.Get(ctx, "taskflow_data_v1")
		require.NoError(t, err)
		assert.Equal(t, "two", value)
	})

	t.Run("keys are independent", func(t *testing.T) {
		slot := open(t)
		require.NoError(t, slot.Put(ctx, "a", "1"))
		require.NoError(t, slot.Put(ctx, "b", "2"))

		value, _, err := slot.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "1", value)
	})

	t.Run("delete", func(t *testing.T) {
		slot := open(t)
		require.NoError(t, slot.Put(ctx, "taskflow_data_v1", "x"))
		require.NoError(t, slot.Delete(ctx, "taskflow_data_v1"))
		require.NoError(t, slot.Delete(ctx, "taskflow_data_v1"), "deleting twice is fine")

		_, ok, err := slot.Get(ctx, "taskflow_data_v1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// Next waits for the next notification on ch, failing the test after timeout
func Next(t *testing.T, ch <-chan storage.Notification, timeout time.Duration) storage.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "notification channel closed")
		return n
	case <-time.After(timeout):
		t.Fatalf("no notification within %s", timeout)
		return storage.Notification{}
	}
}

// RunWatch checks that a write made through writer is reported to a watcher
// opened on watched. The two slots must share the same underlying storage.
func RunWatch(t *testing.T, watched storage.Slot, writer storage.Slot) {
	t.Helper()

	w, ok := watched.(storage.Watcher)
	require.True(t, ok, "%s does not implement storage.Watcher", watched.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := w.Watch(ctx, "taskflow_data_v1")
	require.NoError(t, err)

	require.NoError(t, writer.Put(ctx, "taskflow_data_v1", `[{"id":"other-window"}]`))
	n := Next(t, ch, 5*time.Second)
	assert.Equal(t, "taskflow_data_v1", n.Key)
	assert.True(t, n.Present)
	assert.Equal(t, `[{"id":"other-window"}]`, n.Value)

	require.NoError(t, writer.Delete(ctx, "taskflow_data_v1"))
	n = Next(t, ch, 5*time.Second)
	assert.False(t, n.Present)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "channel closes after cancel")
}
