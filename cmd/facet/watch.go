package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/taigrr/facet/internal/config"
	"github.com/taigrr/facet/pkg/scene"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// loadedScene is a resolved config and the world built from it.
type loadedScene struct {
	cfg   config.Config
	world *scene.World
}

// loadScene reads the scene file at path (or the defaults when path is
// empty), applies flags and builds the world.
func loadScene(path string, flags config.Flags) (loadedScene, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return loadedScene{}, err
		}
	}
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return loadedScene{}, err
	}
	world, err := cfg.Build()
	if err != nil {
		return loadedScene{}, fmt.Errorf("load scene: %w", err)
	}
	return loadedScene{cfg: cfg, world: world}, nil
}

// watchScene rebuilds the scene each time the file at path is written and
// sends the result on the returned channel. Broken edits are logged and
// skipped. The watcher stops when ctx ends.
func watchScene(ctx context.Context, path string, flags config.Flags, logger *slog.Logger) (<-chan loadedScene, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create scene watcher: %w", err)
	}
	target := filepath.Clean(path)
	// Watch the directory: editors often replace the file instead of
	// writing it in place, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	out := make(chan loadedScene)
	go func() {
		defer watcher.Close()
		defer close(out)

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				pending = time.After(reloadDelay)
			case <-pending:
				pending = nil
				sc, err := loadScene(path, flags)
				if err != nil {
					logger.Warn("scene reload failed", "path", path, "err", err)
					continue
				}
				logger.Info("scene reloaded", "path", path, "objects", len(sc.world.Objects()))
				select {
				case out <- sc:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("scene watcher error", "err", err)
			}
		}
	}()
	return out, nil
}
