package mud

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchMessages watches the messages file and nudges reload (a
// capacity-1 channel drained by the game loop) when it changes.
// Editors often replace the file rather than write it in place, so the
// watch is on the directory and filtered by name.
func watchMessages(path string, reload chan<- struct{}, logger *slog.Logger) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	base := filepath.Base(path)

	go func() {
		// Collapse editor write bursts into one reload.
		var pending <-chan time.Time
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				pending = time.After(250 * time.Millisecond)
			case <-pending:
				pending = nil
				select {
				case reload <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("message file watcher error", "error", err)
			}
		}
	}()

	logger.Info("watching messages file", "path", path)
	return watcher, nil
}
