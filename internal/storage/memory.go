package storage

import (
	"context"
	"sync"

	"github.com/pdxmph/taskflow-tui/internal/config"
)

// MemorySlot keeps values in process memory. Every Put and Delete is
// broadcast to all watchers of the key, so two stores sharing one
// MemorySlot behave like two windows sharing one storage area.
type MemorySlot struct {
	mu       sync.Mutex
	values   map[string]string
	watchers map[string][]chan Notification
	putErr   error
	getErr   error
}

// NewMemorySlot creates an empty in-memory slot
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{
		values:   make(map[string]string),
		watchers: make(map[string][]chan Notification),
	}
}

// Name returns the backend identifier
func (m *MemorySlot) Name() string {
	return "memory"
}

// FailPuts makes every following Put return err; nil restores normal behaviour
func (m *MemorySlot) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

// FailGets makes every following Get return err; nil restores normal behaviour
func (m *MemorySlot) FailGets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// Get reads the value stored under key
func (m *MemorySlot) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return "", false, m.getErr
	}
	value, ok := m.values[key]
	return value, ok, nil
}

// Put replaces the value stored under key and notifies watchers
func (m *MemorySlot) Put(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.putErr != nil {
		return m.putErr
	}
	m.values[key] = value
	m.broadcast(Notification{Key: key, Value: value, Present: true})
	return nil
}

// Delete removes key and notifies watchers
func (m *MemorySlot) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[key]; !ok {
		return nil
	}
	delete(m.values, key)
	m.broadcast(Notification{Key: key})
	return nil
}

// Watch subscribes to changes of key until ctx is done
func (m *MemorySlot) Watch(ctx context.Context, key string) (<-chan Notification, error) {
	ch := make(chan Notification, 16)

	m.mu.Lock()
	m.watchers[key] = append(m.watchers[key], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.watchers[key]
		for i, sub := range subs {
			if sub == ch {
				m.watchers[key] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

// Close drops all stored values
func (m *MemorySlot) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}

// broadcast must be called with m.mu held. A slow watcher loses its oldest
// pending notification rather than blocking the writer.
func (m *MemorySlot) broadcast(n Notification) {
	for _, ch := range m.watchers[n.Key] {
		select {
		case ch <- n:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- n:
			default:
			}
		}
	}
}

func init() {
	Register("memory", func(cfg config.StorageConfig) (Slot, error) {
		return NewMemorySlot(), nil
	})
}
