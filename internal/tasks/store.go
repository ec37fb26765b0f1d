package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdxmph/taskflow-tui/internal/config"
	"github.com/pdxmph/taskflow-tui/internal/storage"
)

// ErrNotSaved wraps every failure to persist a new task sequence
var ErrNotSaved = errors.New("tasks not saved")

// LoadSource tells where Load took the initial sequence from
type LoadSource int

const (
	// LoadedStored means the stored sequence was used verbatim
	LoadedStored LoadSource = iota
	// LoadedDefaults means nothing was stored yet and the sample tasks were used
	LoadedDefaults
	// LoadedFallback means reading or decoding failed and the sample tasks were used
	LoadedFallback
)

func (s LoadSource) String() string {
	switch s {
	case LoadedStored:
		return "stored"
	case LoadedDefaults:
		return "defaults"
	default:
		return "fallback"
	}
}

// maxEchoes bounds the own writes remembered for Apply
const maxEchoes = 64

// Store owns the task sequence and mirrors it to a single key of a
// storage.Slot. Save is the only way the sequence changes locally; Apply
// takes in changes written by other processes, last write wins.
type Store struct {
	mu      sync.RWMutex
	slot    storage.Slot
	key     string
	tasks   []Task
	lastRaw string // value known to be stored under key
	echoes  []string // own writes not yet seen by Apply, oldest first
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Store
type Option func(*Store)

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used for recovered failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock sets the time source for new tasks and sample data
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the generator for new task IDs
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore creates a store over slot. Call Load before use.
func NewStore(slot storage.Slot, opts ...Option) *Store {
	s := &Store{
		slot:   slot,
		key:    config.DefaultKey,
		tasks:  []Task{},
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store", "key", s.key)
	return s
}

// Key returns the storage key the store is bound to
func (s *Store) Key() string {
	return s.key
}

// Load reads the initial sequence. A stored value is used as is, including
// an empty list; a missing value yields the sample tasks; a failed read or an
// undecodable value is logged and also yields the sample tasks. Load never
// fails and never writes.
func (s *Store) Load(ctx context.Context) LoadSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.slot.Get(ctx, s.key)
	if err != nil {
		s.logger.Error("failed to load tasks from storage", "backend", s.slot.Name(), "error", err)
		s.tasks = DefaultTasks(s.now())
		return LoadedFallback
	}

	if !ok || raw == "" {
		s.tasks = DefaultTasks(s.now())
		s.logger.Info("no stored tasks, using sample tasks")
		return LoadedDefaults
	}

	tasks, err := decode(raw)
	if err != nil {
		s.logger.Error("failed to load tasks from storage", "backend", s.slot.Name(), "error", err)
		s.tasks = DefaultTasks(s.now())
		return LoadedFallback
	}

	s.tasks = tasks
	s.lastRaw = raw
	s.logger.Info("loaded tasks", "count", len(tasks))
	return LoadedStored
}

// Tasks returns a copy of the current sequence
func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.tasks)
}

// Save writes the complete sequence to storage and then makes it current.
// If the write fails the current sequence is kept and the returned error
// wraps ErrNotSaved.
func (s *Store) Save(ctx context.Context, tasks []Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, tasks)
}

// save must be called with s.mu held
func (s *Store) save(ctx context.Context, tasks []Task) error {
	next := clone(tasks)

	data, err := json.Marshal(next)
	if err != nil {
		s.logger.Error("failed to encode tasks", "error", err)
		return fmt.Errorf("%w: encoding: %w", ErrNotSaved, err)
	}

	if err := s.slot.Put(ctx, s.key, string(data)); err != nil {
		s.logger.Error("failed to save tasks to storage", "backend", s.slot.Name(), "error", err)
		return fmt.Errorf("%w: %w", ErrNotSaved, err)
	}

	s.tasks = next
	s.lastRaw = string(data)
	s.echoes = append(s.echoes, s.lastRaw)
	if len(s.echoes) > maxEchoes {
		s.echoes = s.echoes[len(s.echoes)-maxEchoes:]
	}
	s.logger.Debug("saved tasks", "count", len(next))
	return nil
}

// mutate computes and saves the next sequence while holding the lock, so a
// concurrent Apply cannot slip in between reading and writing
func (s *Store) mutate(ctx context.Context, fn func([]Task) []Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, fn(s.tasks))
}

// Add prepends a new incomplete task built from form
func (s *Store) Add(ctx context.Context, form FormData) (Task, error) {
	task := NewTask(form, s.newID(), s.now())
	err := s.mutate(ctx, func(tasks []Task) []Task {
		return AddTask(tasks, task)
	})
	return task, err
}

// Edit replaces the title, description and due date of the task with id
func (s *Store) Edit(ctx context.Context, id string, form FormData) error {
	return s.mutate(ctx, func(tasks []Task) []Task {
		return EditTask(tasks, id, form)
	})
}

// Toggle flips the completion flag of the task with id
func (s *Store) Toggle(ctx context.Context, id string) error {
	return s.mutate(ctx, func(tasks []Task) []Task {
		return ToggleTask(tasks, id)
	})
}

// Delete removes the task with id
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(tasks []Task) []Task {
		return DeleteTask(tasks, id)
	})
}

// Watch subscribes to changes of the store's key made elsewhere. Feed the
// notifications to Apply.
func (s *Store) Watch(ctx context.Context) (<-chan storage.Notification, error) {
	w, ok := s.slot.(storage.Watcher)
	if !ok {
		return nil, fmt.Errorf("%s backend: %w", s.slot.Name(), storage.ErrWatchUnsupported)
	}
	return w.Watch(ctx, s.key)
}

// Apply replaces the current sequence with the value carried by n and
// reports whether anything changed. Notifications for other keys, for a
// cleared key, for the value this store last saw, for any of this store's
// own writes, or with an undecodable value are ignored. An echo of an older
// own write arriving after a newer Save is ignored as well.
func (s *Store) Apply(n storage.Notification) bool {
	if n.Key != s.key {
		return false
	}
	if !n.Present {
		s.logger.Info("stored tasks were cleared elsewhere, keeping current tasks")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ownEcho(n.Value) || n.Value == s.lastRaw {
		return false
	}

	tasks, err := decode(n.Value)
	if err != nil {
		s.logger.Warn("ignoring unreadable change from storage", "error", err)
		return false
	}

	s.tasks = tasks
	s.lastRaw = n.Value
	s.logger.Info("tasks replaced by external change", "count", len(tasks))
	return true
}

// ownEcho reports whether raw is one of this store's pending writes and
// forgets it together with every older one. Must be called with s.mu held.
func (s *Store) ownEcho(raw string) bool {
	for i, echo := range s.echoes {
		if echo == raw {
			s.echoes = s.echoes[i+1:]
			return true
		}
	}
	return false
}

func decode(raw string) ([]Task, error) {
	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	if tasks == nil {
		return nil, fmt.Errorf("decoding tasks: stored value is null")
	}
	return tasks, nil
}
