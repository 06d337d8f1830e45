package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// CredentialsFunc receives a freshly read cookie export. A returned error is
// passed to the watcher's error handler; watching continues.
type CredentialsFunc func(raw string) error

// ErrorFunc observes watcher failures. May be nil.
type ErrorFunc func(err error)

// WatchCredentials re-reads the cookie export at path whenever it is written,
// created or renamed into place and hands the content to fn. It watches the
// parent directory so editors that replace the file atomically are seen.
// It blocks until ctx is done.
func WatchCredentials(ctx context.Context, path string, fn CredentialsFunc, onErr ErrorFunc) error {
	if path == "" {
		return ErrEmptyPath
	}
	if fn == nil {
		return ErrNilCallback
	}
	if onErr == nil {
		onErr = func(error) {}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			raw, err := ReadCredentials(abs)
			if err != nil {
				// Rename away and partial writes surface here; wait for the next event.
				onErr(err)
				continue
			}
			if err := fn(raw); err != nil {
				onErr(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onErr(fmt.Errorf("config: watcher: %w", err))
		}
	}
}
