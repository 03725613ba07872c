package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long a file must stay quiet before it is converted
// again. Editors often write a file several times per save.
const watchDebounce = 200 * time.Millisecond

// watchFile calls onChange after each settled change to path until ctx is
// canceled. The parent directory is watched so that editors replacing the
// file by rename are still seen.
func watchFile(ctx context.Context, path string, onChange func(), stderr io.Writer) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	ticker := time.NewTicker(watchDebounce / 2)
	defer ticker.Stop()

	var changedAt time.Time
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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				changedAt = time.Now()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(stderr, "warning: watch:", err)
		case <-ticker.C:
			if !changedAt.IsZero() && time.Since(changedAt) >= watchDebounce {
				changedAt = time.Time{}
				onChange()
			}
		}
	}
}
