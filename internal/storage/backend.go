package storage

import (
	"context"
	"errors"

	"github.com/pdxmph/taskflow-tui/internal/config"
)

var (
	// ErrWatchUnsupported is returned when a slot cannot report external changes
	ErrWatchUnsupported = errors.New("slot does not support change notifications")

	// ErrUnknownBackend is returned when opening a backend nobody registered
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrPathRequired is returned by backends that need storage.path but got none
	ErrPathRequired = errors.New("storage path is required")
)

// Slot is a durable key/value location holding serialized values.
// Get reports ok=false when the key has never been written or was deleted,
// which callers must be able to tell apart from an empty value.
type Slot interface {
	// Name returns the backend identifier (e.g., "sqlite", "file")
	Name() string

	// Get reads the value stored under key
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put replaces the value stored under key
	Put(ctx context.Context, key, value string) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources
	Close() error
}

// Notification reports that a key changed outside the current process or store.
// Present is false when the key was cleared.
type Notification struct {
	Key     string
	Value   string
	Present bool
}

// Watcher is implemented by slots that can notify about external changes.
// The returned channel is closed when ctx is done.
type Watcher interface {
	Watch(ctx context.Context, key string) (<-chan Notification, error)
}

// BackendFactory opens a slot from the storage configuration
type BackendFactory func(cfg config.StorageConfig) (Slot, error)
