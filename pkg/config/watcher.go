package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch watches the config file at path and invokes onChange with the freshly
// loaded config whenever the file is rewritten. Parse or validation failures
// are reported through onError and the previous config stays in effect.
// The returned stop function releases the watcher.
func Watch(path string, onChange func(*Config), onError func(error)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	// Watch the directory, not the file: editors and config maps replace the
	// file, which drops a file-level watch.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	target := filepath.Clean(path)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				cfg := defaultConfig()
				if err := loadFile(cfg, path); err != nil {
					onError(err)
					continue
				}
				applyEnv(cfg)
				if err := cfg.Validate(); err != nil {
					onError(err)
					continue
				}
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onError(err)
			}
		}
	}()

	return watcher.Close, nil
}
