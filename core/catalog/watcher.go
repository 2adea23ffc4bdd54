package catalog

import (
	"path/filepath"
	"time"

	"WaveFM/logger"
	"WaveFM/repository"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-seeds the catalog whenever the seed file changes, so catalog
// edits do not require a restart.
type Watcher struct {
	repo repository.SongRepository
	path string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher starts watching the directory containing the seed file.
// Watching the directory rather than the file survives editors that
// replace the file on save.
func NewWatcher(repo repository.SongRepository, path string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		repo:    repo,
		path:    path,
		watcher: fsWatcher,
		done:    make(chan struct{}),
	}
	go w.run()

	logger.Info("watching catalog seed", logger.String("path", path))
	return w, nil
}

// run drains events, debouncing bursts: editors commonly emit several
// Write/Create events per save.
func (w *Watcher) run() {
	var debounce *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(300*time.Millisecond, func() {
				if err := Seed(w.repo, w.path); err != nil {
					logger.Error("catalog reload failed", logger.ErrorField(err))
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("catalog watcher error", logger.ErrorField(err))

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
