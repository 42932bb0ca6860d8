package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with a freshly loaded config whenever one of the
// config files of workingDir is written, until ctx is done.
func Watch(ctx context.Context, workingDir string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	files := map[string]struct{}{
		GlobalConfig():     {},
		GlobalConfigData(): {},
	}
	for _, name := range projectConfigNames {
		files[filepath.Join(workingDir, name)] = struct{}{}
	}

	// Files may not exist yet, so their directories are watched instead.
	dirs := map[string]struct{}{}
	for path := range files {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	watched := 0
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			slog.Debug("Skipping config directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		return fmt.Errorf("no config directory could be watched")
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if _, ok := files[filepath.Clean(event.Name)]; !ok {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
					continue
				}
				cfg, err := Load(workingDir)
				if err != nil {
					slog.Warn("Failed to reload config", "path", event.Name, "error", err)
					continue
				}
				slog.Info("Config reloaded", "path", event.Name)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Config watcher error", "error", err)
			}
		}
	}()
	return nil
}
