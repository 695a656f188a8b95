package config

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce collapses the burst of events an editor save produces.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher reloads a configuration file when it changes and hands every
// successfully loaded Config to the registered handlers. A file that fails
// to load or validate is logged and ignored; the last good config stays.
type Watcher struct {
	path     string
	debounce time.Duration
	apply    func(*Config) error

	mu       sync.Mutex
	handlers []func(Config)

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
}

// NewWatcher creates a watcher for path. apply, when non-nil, runs on each
// freshly loaded config before validation, e.g. to re-apply env and flag
// overrides.
func NewWatcher(path string, debounce time.Duration, apply func(*Config) error) *Watcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		apply:    apply,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// OnReload registers a handler called from the watcher goroutine.
func (w *Watcher) OnReload(handler func(Config)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, handler)
	w.mu.Unlock()
}

// Start begins watching. The directory is watched rather than the file so
// that editors which replace the file on save are still seen.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw

	log.Printf("config: watching %s", w.path)
	go w.watch()
	return nil
}

// Stop stops watching and waits for the watcher goroutine to exit.
func (w *Watcher) Stop() error {
	if w.watcher == nil {
		return nil
	}
	close(w.done)
	err := w.watcher.Close()
	<-w.stopped
	return err
}

func (w *Watcher) watch() {
	defer close(w.stopped)

	var timer *time.Timer
	var timerC <-chan time.Time
	target := filepath.Clean(w.path)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config: watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err == nil && w.apply != nil {
		err = w.apply(&cfg)
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Printf("config: reload of %s rejected: %v", w.path, err)
		return
	}

	log.Printf("config: reloaded %s", w.path)
	w.mu.Lock()
	handlers := append(([]func(Config))(nil), w.handlers...)
	w.mu.Unlock()
	for _, h := range handlers {
		h(cfg)
	}
}
