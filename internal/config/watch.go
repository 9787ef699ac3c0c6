package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 150 * time.Millisecond

// Watch reloads the config file at path whenever it is written, renamed into
// place or removed, and passes the result to onChange. Bursts of events are
// coalesced. Watch returns once the watcher is running; it stops when ctx is
// done.
func Watch(ctx context.Context, path string, onChange func(*Config, error)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// the directory survives editors that save by renaming over the file
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		var timer *time.Timer
		fire := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			case <-fire:
				onChange(LoadFile(absPath))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				onChange(nil, err)
			}
		}
	}()
	return nil
}
