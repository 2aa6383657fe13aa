// Package control gives the CLI and TUI one command surface whether azkard is
// running or not.
package control

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/azkar/internal/dbus"
	"github.com/jmylchreest/azkar/internal/model"
	"github.com/jmylchreest/azkar/internal/store"
)

// Controller is the command surface shared by the daemon client and the
// in-process store.
type Controller interface {
	Get() (model.SchedulerState, error)
	AddItem(text string) (model.SchedulerState, error)
	RemoveItem(id string) (model.SchedulerState, error)
	UpdateItem(id, text string) (model.SchedulerState, error)
	SetInterval(seconds int64) (model.SchedulerState, error)
	TogglePause() (model.SchedulerState, error)

	// Changes returns a channel of change events. It is closed by Close.
	Changes() (<-chan store.ChangeEvent, error)
	Close() error
}

var (
	_ Controller = (*dbus.Client)(nil)
	_ Controller = (*Local)(nil)
)

// Local drives a Store opened in this process. Use it only when no daemon
// owns the state; otherwise the two would race on the state file.
type Local struct {
	store   *store.Store
	watcher *store.StateWatcher
	events  <-chan store.ChangeEvent
}

// NewLocal wraps an already opened store. It does not watch the state file.
func NewLocal(st *store.Store) *Local {
	return &Local{store: st}
}

// OpenLocal opens the state file at statePath and watches it for external rewrites.
func OpenLocal(statePath string, logger *slog.Logger) (*Local, error) {
	p, err := store.NewJSONPersistence(statePath)
	if err != nil {
		return nil, err
	}
	st := store.Open(p, store.WithLogger(logger))

	l := &Local{store: st}
	fw, err := store.NewStateWatcher(st, statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create state watcher: %w", err)
	}
	if err := fw.Start(); err != nil {
		_ = fw.Stop()
		return nil, fmt.Errorf("failed to watch state file: %w", err)
	}
	l.watcher = fw
	return l, nil
}

// Store returns the underlying store.
func (l *Local) Store() *store.Store { return l.store }

func (l *Local) Get() (model.SchedulerState, error) {
	return l.store.Get(), nil
}

func (l *Local) AddItem(text string) (model.SchedulerState, error) {
	return l.store.AddItem(text)
}

func (l *Local) RemoveItem(id string) (model.SchedulerState, error) {
	return l.store.RemoveItem(id)
}

func (l *Local) UpdateItem(id, text string) (model.SchedulerState, error) {
	return l.store.UpdateItem(id, text)
}

func (l *Local) SetInterval(seconds int64) (model.SchedulerState, error) {
	return l.store.SetInterval(seconds)
}

func (l *Local) TogglePause() (model.SchedulerState, error) {
	return l.store.TogglePause()
}

func (l *Local) Changes() (<-chan store.ChangeEvent, error) {
	if l.events == nil {
		l.events = l.store.Subscribe()
	}
	return l.events, nil
}

// Close stops the watcher and closes the store.
func (l *Local) Close() error {
	var errs []error
	if l.watcher != nil {
		errs = append(errs, l.watcher.Stop())
	}
	errs = append(errs, l.store.Close())
	return errors.Join(errs...)
}

// Dialer connects to a running daemon.
type Dialer func() (Controller, error)

// DialDaemon is the default Dialer.
func DialDaemon() (Controller, error) {
	c, err := dbus.Dial()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Connect returns a client for the running daemon, or a Local controller on
// statePath when the daemon cannot be reached.
func Connect(dial Dialer, statePath string, logger *slog.Logger) (Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dial == nil {
		dial = DialDaemon
	}

	c, err := dial()
	if err == nil {
		logger.Debug("using daemon", "bus_name", dbus.BusName)
		return c, nil
	}
	if errors.Is(err, dbus.ErrDaemonNotRunning) {
		logger.Debug("daemon not running, using state file", "path", statePath)
	} else {
		logger.Debug("daemon unreachable, using state file", "path", statePath, "error", err)
	}

	return OpenLocal(statePath, logger)
}
