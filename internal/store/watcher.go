package store

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// StateWatcher reloads a Store when another azkar process saves the same
// state file. Only needed when no daemon owns the state; otherwise every
// mutation goes through the daemon over D-Bus.
//
// JSONPersistence.Save writes <state>.tmp and renames it over the state file.
// The rename arrives as a Create on the state name, while the .tmp writes are
// ignored so a half-written file is never loaded.
type StateWatcher struct {
	watcher   *fsnotify.Watcher
	store     *Store
	statePath string
	logger    *slog.Logger
	done      chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewStateWatcher creates a watcher for the state file at statePath.
func NewStateWatcher(store *Store, statePath string) (*StateWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &StateWatcher{
		watcher:   watcher,
		store:     store,
		statePath: statePath,
		logger:    store.logger,
		done:      make(chan struct{}),
	}, nil
}

// Start watches the directory holding the state file. The file itself may
// not exist yet and is replaced on every save, so watching it directly would
// lose the watch after the first rename.
func (w *StateWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(w.statePath)); err != nil {
		return err
	}
	w.running = true

	go w.watch()
	return nil
}

// isStateSave reports whether ev completes a save of the state file named base.
func isStateSave(ev fsnotify.Event, base string) bool {
	if filepath.Base(ev.Name) != base {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)
}

func (w *StateWatcher) watch() {
	base := filepath.Base(w.statePath)

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isStateSave(ev, base) {
				continue
			}
			// Our own saves also land here; Reload drops them as unchanged.
			w.logger.Debug("state file saved externally, reloading", "file", w.statePath, "op", ev.Op.String())
			w.store.Reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("state watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Stop stops watching. Safe to call more than once.
func (w *StateWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	default:
	}
	w.running = false
	close(w.done)
	return w.watcher.Close()
}
