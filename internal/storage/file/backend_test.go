package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/taskflow-tui/internal/config"
	"github.com/pdxmph/taskflow-tui/internal/storage"
	"github.com/pdxmph/taskflow-tui/internal/storage/storagetest"
)

func TestBackend(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Slot {
		b, err := NewBackend(t.TempDir())
		require.NoError(t, err)
		return b
	})
}

func TestBackendWatch(t *testing.T) {
	dir := t.TempDir()
	watched, err := NewBackend(dir)
	require.NoError(t, err)
	writer, err := NewBackend(dir)
	require.NoError(t, err)

	storagetest.RunWatch(t, watched, writer)
}

func TestBackendLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slots")
	b, err := NewBackend(dir)
	require.NoError(t, err)

	require.NoError(t, b.Put(context.Background(), "taskflow_data_v1", "[]"))

	data, err := os.ReadFile(filepath.Join(dir, "taskflow_data_v1.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestBackendRejectsPathKeys(t *testing.T) {
	b, err := NewBackend(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, b.Put(context.Background(), key, "x"), key)
	}
}

func TestNewBackendRequiresDir(t *testing.T) {
	_, err := NewBackend("")
	assert.ErrorIs(t, err, storage.ErrPathRequired)

	_, err = storage.Open(config.StorageConfig{Backend: "file"})
	assert.ErrorIs(t, err, storage.ErrPathRequired)
}

func TestRegisteredAsFile(t *testing.T) {
	slot, err := storage.Open(config.StorageConfig{Backend: "file", Path: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "file", slot.Name())
}
