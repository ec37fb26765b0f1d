package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdxmph/taskflow-tui/internal/config"
	"github.com/pdxmph/taskflow-tui/internal/storage"
)

// Backend stores each key as <dir>/<key>.json
type Backend struct {
	dir string
}

// NewBackend creates a file backend rooted at dir, creating it if needed
func NewBackend(dir string) (*Backend, error) {
	if dir == "" {
		return nil, fmt.Errorf("file backend needs a directory: %w", storage.ErrPathRequired)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &Backend{dir: dir}, nil
}

// Name returns the backend identifier
func (b *Backend) Name() string {
	return "file"
}

// Get reads the value stored under key
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	path, err := b.path(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), true, nil
}

// Put writes value to a temporary file and renames it over the key's file,
// so readers never observe a partial write
func (b *Backend) Put(ctx context.Context, key, value string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Delete removes the key's file
func (b *Backend) Delete(ctx context.Context, key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Watch reports changes to the key's file made by any process
func (b *Backend) Watch(ctx context.Context, key string) (<-chan storage.Notification, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	return storage.WatchDir(ctx, b, key, b.dir, func(event string) bool {
		return filepath.Base(event) == name
	})
}

// Close is a no-op for the file backend
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(b.dir, key+".json"), nil
}

func init() {
	storage.Register("file", func(cfg config.StorageConfig) (storage.Slot, error) {
		return NewBackend(cfg.Path)
	})
}
