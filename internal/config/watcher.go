package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay coalesces the burst of events an editor save produces.
const DefaultReloadDelay = 100 * time.Millisecond

// Watcher reloads the workspace config into a Store whenever one of the
// ConfigFiles changes. The directory is watched rather than the file so that
// atomic rename-based writes are picked up.
type Watcher struct {
	dir     string
	store   *Store
	watcher *fsnotify.Watcher
	onError func(error)

	delay time.Duration
	mu    sync.Mutex
	timer *time.Timer

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher starts watching dir. onError may be nil.
func NewWatcher(dir string, store *Store, onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if onError == nil {
		onError = func(error) {}
	}

	w := &Watcher{
		dir:     dir,
		store:   store,
		watcher: fw,
		onError: onError,
		delay:   DefaultReloadDelay,
		done:    make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if isConfigFile(event.Name) && !event.Has(fsnotify.Chmod) {
				w.scheduleReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func isConfigFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range ConfigFiles {
		if base == name {
			return true
		}
	}
	return false
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.reload)
}

// reload replaces the snapshot. A file that fails to load keeps the previous
// snapshot active.
func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	cfg, err := LoadConfig(w.dir)
	if err != nil {
		w.onError(fmt.Errorf("config reload failed: %w", err))
		return
	}
	w.store.Replace(cfg)
}

// Close stops the watcher and any pending reload.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		close(w.done)
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()

		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
