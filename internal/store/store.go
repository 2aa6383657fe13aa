// Package store provides the scheduler state store for azkar.
package store

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/jmylchreest/azkar/internal/metrics"
	"github.com/jmylchreest/azkar/internal/model"
)

// ChangeType indicates the type of store change.
type ChangeType int

const (
	// ChangeTypeItems indicates items were added, removed or edited.
	ChangeTypeItems ChangeType = iota
	// ChangeTypeInterval indicates the interval changed.
	ChangeTypeInterval
	// ChangeTypePause indicates the paused flag was toggled.
	ChangeTypePause
	// ChangeTypeTick indicates a scheduler tick changed counters (reset or firing).
	ChangeTypeTick
	// ChangeTypeReload indicates the state was replaced from disk.
	ChangeTypeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeTypeItems:
		return "items"
	case ChangeTypeInterval:
		return "interval"
	case ChangeTypePause:
		return "pause"
	case ChangeTypeTick:
		return "tick"
	case ChangeTypeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change sources used by the built-in callers.
const (
	SourceCommand   = "command"
	SourceScheduler = "scheduler"
	SourceFile      = "file"
)

// ChangeEvent signals store content changes.
type ChangeEvent struct {
	Type   ChangeType
	Source string
}

// Store holds the canonical SchedulerState behind one exclusive lock and
// mirrors it to a Persistence after every mutation.
type Store struct {
	mu    sync.Mutex
	state model.SchedulerState

	persistence Persistence
	clock       clockwork.Clock
	logger      *slog.Logger
	recorder    metrics.Recorder

	subscribers []chan ChangeEvent
	closed      bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and persist diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used to compute today's date for default state.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// Open loads state from persistence and returns a ready Store.
// A missing, corrupt or incompatible state file yields the default state;
// Open itself never fails on bad data. A nil persistence keeps state in memory only.
func Open(persistence Persistence, opts ...Option) *Store {
	s := &Store{
		persistence: persistence,
		clock:       clockwork.NewRealClock(),
		logger:      slog.Default(),
		recorder:    metrics.NoopRecorder{},
		subscribers: make([]chan ChangeEvent, 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	defaults := model.DefaultState(model.DateString(s.clock.Now()))
	s.state = defaults
	if persistence != nil {
		loaded, err := persistence.Load(defaults.Clone())
		switch {
		case err == nil:
			s.state = loaded
		case errors.Is(err, os.ErrNotExist):
			s.logger.Debug("no saved state, using defaults")
		default:
			s.logger.Warn("saved state unusable, using defaults", "error", err)
		}
	}
	s.state.Normalize()
	s.recorder.SetState(s.state.DailyCount, len(s.state.Items), s.state.IsPaused)

	return s
}

// Get returns a snapshot of the current state.
func (s *Store) Get() model.SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// AddItem appends a new item with a fresh id and the given text.
// Empty text is accepted.
func (s *Store) AddItem(text string) (model.SchedulerState, error) {
	return s.mutate(ChangeTypeItems, SourceCommand, func(st *model.SchedulerState) bool {
		st.Items = append(st.Items, model.ReminderItem{ID: s.newItemID(st), Text: text})
		return true
	})
}

// RemoveItem removes the item with the given id. Unknown ids are a no-op.
// A LastShownItemID pointing at the removed item is left in place.
func (s *Store) RemoveItem(id string) (model.SchedulerState, error) {
	return s.mutate(ChangeTypeItems, SourceCommand, func(st *model.SchedulerState) bool {
		for i, item := range st.Items {
			if item.ID == id {
				st.Items = append(st.Items[:i], st.Items[i+1:]...)
				return true
			}
		}
		return false
	})
}

// UpdateItem replaces the text of the item with the given id. Unknown ids are a no-op.
func (s *Store) UpdateItem(id, text string) (model.SchedulerState, error) {
	return s.mutate(ChangeTypeItems, SourceCommand, func(st *model.SchedulerState) bool {
		for i := range st.Items {
			if st.Items[i].ID == id {
				st.Items[i].Text = text
				return true
			}
		}
		return false
	})
}

// SetInterval sets the interval in seconds, clamped to at least MinIntervalSeconds.
func (s *Store) SetInterval(seconds int64) (model.SchedulerState, error) {
	return s.mutate(ChangeTypeInterval, SourceCommand, func(st *model.SchedulerState) bool {
		st.IntervalSeconds = model.ClampInterval(seconds)
		return true
	})
}

// TogglePause flips the paused flag.
func (s *Store) TogglePause() (model.SchedulerState, error) {
	return s.mutate(ChangeTypePause, SourceCommand, func(st *model.SchedulerState) bool {
		st.IsPaused = !st.IsPaused
		return true
	})
}

// Mutate runs fn inside the store's critical section. fn reports whether it
// changed the state; only then is the state persisted and subscribers notified.
// The returned snapshot reflects the state after fn.
func (s *Store) Mutate(source string, fn func(*model.SchedulerState) bool) (model.SchedulerState, error) {
	return s.mutate(ChangeTypeTick, source, fn)
}

func (s *Store) mutate(typ ChangeType, source string, fn func(*model.SchedulerState) bool) (model.SchedulerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state.Clone(), ErrStoreClosed
	}

	if !fn(&s.state) {
		return s.state.Clone(), nil
	}

	s.persistLocked()
	s.recorder.SetState(s.state.DailyCount, len(s.state.Items), s.state.IsPaused)
	s.notifyChange(ChangeEvent{Type: typ, Source: source})

	return s.state.Clone(), nil
}

// Reload re-reads the state file and replaces the in-memory state if it differs.
// Unreadable or corrupt files are logged and leave the current state untouched.
func (s *Store) Reload() {
	if s.persistence == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	loaded, err := s.persistence.Load(model.DefaultState(model.DateString(s.clock.Now())))
	if err != nil {
		s.logger.Warn("failed to reload state, keeping current", "error", err)
		return
	}
	loaded.Normalize()
	if loaded.Equal(s.state) {
		return
	}

	s.state = loaded
	s.recorder.SetState(s.state.DailyCount, len(s.state.Items), s.state.IsPaused)
	s.notifyChange(ChangeEvent{Type: ChangeTypeReload, Source: SourceFile})
}

// persistLocked writes the state; failures are logged and counted, never returned.
func (s *Store) persistLocked() {
	if s.persistence == nil {
		return
	}
	if err := s.persistence.Save(s.state); err != nil {
		s.recorder.IncPersistFailure()
		s.logger.Warn("failed to persist state", "error", err)
	}
}

// newItemID generates an id not already used by st.
func (s *Store) newItemID(st *model.SchedulerState) string {
	for {
		id := model.NewItemID()
		if _, exists := st.FindItem(id); !exists {
			return id
		}
	}
}

// Subscribe returns a channel that receives change events.
func (s *Store) Subscribe() <-chan ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeEvent, 10)
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(ch <-chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close releases resources and closes all subscriber channels.
// Further mutations return ErrStoreClosed; Get keeps returning the last state.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil

	return nil
}

// notifyChange sends a change event to all subscribers (non-blocking).
func (s *Store) notifyChange(event ChangeEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// Errors
var (
	ErrStoreClosed = storeError("store is closed")
)

type storeError string

func (e storeError) Error() string {
	return string(e)
}
