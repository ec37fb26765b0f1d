package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// WatchDir watches dir for filesystem events on files accepted by match.
// On each event the key is re-read through slot and a Notification is sent
// when the value differs from the last one seen, so bursts of events from a
// single write collapse into one notification. The channel closes when ctx
// is done.
func WatchDir(ctx context.Context, slot Slot, key, dir string, match func(name string) bool) (<-chan Notification, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	last, err := read(ctx, slot, key)
	if err != nil {
		w.Close()
		return nil, err
	}

	logger := slog.Default().With("backend", slot.Name(), "key", key)
	out := make(chan Notification, 1)

	go func() {
		defer close(out)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !match(ev.Name) || (ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write)) {
					continue
				}

				current, err := read(ctx, slot, key)
				if err != nil {
					logger.Warn("re-reading slot after change", "file", ev.Name, "error", err)
					continue
				}
				if current == last {
					continue
				}
				last = current

				select {
				case out <- current:
				case <-ctx.Done():
					return
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", "error", err)
			}
		}
	}()

	return out, nil
}

func read(ctx context.Context, slot Slot, key string) (Notification, error) {
	value, ok, err := slot.Get(ctx, key)
	if err != nil {
		return Notification{}, fmt.Errorf("reading %s: %w", key, err)
	}
	return Notification{Key: key, Value: value, Present: ok}, nil
}
