package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdxmph/taskflow-tui/internal/config"
	"github.com/pdxmph/taskflow-tui/internal/db"
	"github.com/pdxmph/taskflow-tui/internal/storage"
)

// Backend implements storage.Slot on top of the SQLite slots table
type Backend struct {
	db *db.DB
}

// NewBackend opens (or creates) the database at path
func NewBackend(path string) (*Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite backend needs a database file: %w", storage.ErrPathRequired)
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &Backend{db: database}, nil
}

// DB exposes the underlying database for maintenance commands
func (b *Backend) DB() *db.DB {
	return b.db
}

// Name returns the backend identifier
func (b *Backend) Name() string {
	return "sqlite"
}

// Get reads the value stored under key
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	return b.db.GetSlot(ctx, key)
}

// Put replaces the value stored under key
func (b *Backend) Put(ctx context.Context, key, value string) error {
	return b.db.PutSlot(ctx, key, value)
}

// Delete removes key
func (b *Backend) Delete(ctx context.Context, key string) error {
	return b.db.DeleteSlot(ctx, key)
}

// Watch reports changes to key committed by any process sharing the database.
// Commits touch the database file or its -journal/-wal companions, so all
// three are watched.
func (b *Backend) Watch(ctx context.Context, key string) (<-chan storage.Notification, error) {
	path := b.db.Path()
	base := filepath.Base(path)
	return storage.WatchDir(ctx, b, key, filepath.Dir(path), func(event string) bool {
		name := filepath.Base(event)
		return name == base || strings.HasPrefix(name, base+"-")
	})
}

// Close closes the database
func (b *Backend) Close() error {
	return b.db.Close()
}

func init() {
	storage.Register("sqlite", func(cfg config.StorageConfig) (storage.Slot, error) {
		return NewBackend(cfg.Path)
	})
}
