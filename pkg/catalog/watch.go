package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 300 * time.Millisecond

// Watch reloads path into the registry whenever it changes on disk. The parent
// directory is watched so that editors replacing the file are noticed too.
// A file that fails to load leaves the previous catalog in place.
func Watch(ctx context.Context, path string, registry *Registry) (func() error, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath {
					continue
				}

				// Debounce: drain any additional events to avoid rapid reloads
			debounce:
				for {
					select {
					case <-time.After(debounceDelay):
						break debounce
					case <-watcher.Events:
					}
				}

				c, err := Load(ctx, absPath)
				if err != nil {
					logf("! Unable to reload catalog: %s", err)
					continue
				}

				log("> Catalog reloaded:", len(c.Resources), "resources,", len(c.Tools), "tools,", len(c.Prompts), "prompts")
				registry.Replace(c)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log("! Catalog watcher error:", err)

			case <-ctx.Done():
				return
			}
		}
	}()

	return watcher.Close, nil
}
