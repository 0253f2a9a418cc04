package config

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the env file and invokes onChange with a freshly loaded
// Config after writes settle. Editors replace files on save, so Remove and
// Rename re-add the path before reloading.
func Watch(path string, onChange func(Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if err := w.Add(ev.Name); err != nil {
						slog.Error("config watch re-add", "path", ev.Name, "err", err)
					}
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(250 * time.Millisecond)
				}
			case <-debounce.C:
				slog.Info("config: reloading", "path", path)
				onChange(Load())
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Error("config watch error", "err", err)
			}
		}
	}()
	return nil
}
