package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// changeOps are the events that mean the file at path now has new content.
// Editors that save via rename-over produce Create (or Rename on some
// platforms) for the target name instead of Write.
const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watch monitors path and calls onChange each time the file is written or
// replaced. It watches the parent directory, so the watch survives the file
// being swapped out underneath it. It runs until ctx is cancelled. onChange
// runs on the watcher goroutine; callers hand the request over to the game
// loop themselves.
func Watch(ctx context.Context, path string, log *zap.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}
	log.Info("監看設定檔變更", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&changeOps == 0 {
				continue
			}
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("設定檔監看錯誤", zap.Error(err))
		}
	}
}
