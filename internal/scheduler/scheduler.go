// Package scheduler decides when a reminder fires and which item it shows.
package scheduler

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jmylchreest/azkar/internal/metrics"
	"github.com/jmylchreest/azkar/internal/model"
	"github.com/jmylchreest/azkar/internal/notify"
	"github.com/jmylchreest/azkar/internal/store"
)

// TickKind is the outcome of a single tick.
type TickKind int

const (
	// TickClosed means the store was closed and nothing was evaluated.
	TickClosed TickKind = iota
	// TickPaused means the scheduler is paused.
	TickPaused
	// TickNotDue means the interval has not elapsed since the last firing.
	TickNotDue
	// TickEmpty means a firing was due but there are no items.
	TickEmpty
	// TickFired means an item was selected and dispatched.
	TickFired
)

// String returns the tick kind name.
func (k TickKind) String() string {
	switch k {
	case TickPaused:
		return "paused"
	case TickNotDue:
		return "not_due"
	case TickEmpty:
		return "empty"
	case TickFired:
		return "fired"
	default:
		return "closed"
	}
}

// TickResult describes what a tick did.
type TickResult struct {
	Kind  TickKind
	Item  model.ReminderItem // Set when Kind is TickFired
	Reset bool               // The daily count was reset by this tick
	State model.SchedulerState
}

// Chime is played after a reminder fires.
type Chime interface {
	Play()
}

// HistoryRecorder records fired reminders.
type HistoryRecorder interface {
	Append(r model.FiringRecord) error
}

// Scheduler evaluates the due-check against a Store.
type Scheduler struct {
	store    *store.Store
	notifier notify.Notifier
	clock    clockwork.Clock
	logger   *slog.Logger
	recorder metrics.Recorder
	chime    Chime
	history  HistoryRecorder

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRand sets the random source used for item selection.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithChime sets the chime played after each firing.
func WithChime(c Chime) Option {
	return func(s *Scheduler) { s.chime = c }
}

// WithHistory sets where firings are logged.
func WithHistory(h HistoryRecorder) Option {
	return func(s *Scheduler) { s.history = h }
}

// New creates a Scheduler that reads and mutates st and delivers through n.
func New(st *store.Store, n notify.Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		notifier: n,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clock returns the scheduler's time source.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Tick runs one evaluation. The day-boundary reset, due-check, selection and
// counter update happen in one store critical section; delivery, chime and
// history happen afterwards, outside the lock.
func (s *Scheduler) Tick() TickResult {
	now := s.clock.Now()
	today := model.DateString(now)
	nowUnix := now.Unix()

	var res TickResult
	state, err := s.store.Mutate(store.SourceScheduler, func(st *model.SchedulerState) bool {
		changed := false
		if st.LastResetDate != today {
			st.DailyCount = 0
			st.LastResetDate = today
			res.Reset = true
			changed = true
		}

		switch {
		case st.IsPaused:
			res.Kind = TickPaused
			return changed
		case !st.IsDue(nowUnix):
			res.Kind = TickNotDue
			return changed
		case len(st.Items) == 0:
			res.Kind = TickEmpty
			return changed
		}

		item := s.selectItem(st.Items, st.LastShownItemID)
		st.DailyCount++
		st.LastNotificationTime = nowUnix
		st.LastShownItemID = item.ID

		res.Kind = TickFired
		res.Item = item
		return true
	})
	if err != nil {
		s.logger.Debug("tick skipped", "error", err)
		return TickResult{Kind: TickClosed, State: state}
	}
	res.State = state

	if res.Reset {
		s.logger.Info("daily count reset", "date", today)
	}
	s.recorder.IncTick(metrics.TickResultLabel(res.Kind.String()))

	if res.Kind == TickFired {
		s.dispatch(res.Item, now)
	}

	return res
}

// dispatch delivers a fired item. Failures are logged and counted, never retried.
func (s *Scheduler) dispatch(item model.ReminderItem, firedAt time.Time) {
	s.recorder.IncFired()
	s.logger.Debug("reminder fired", "item_id", item.ID)

	if s.notifier != nil {
		if err := s.notifier.Display(item.Text); err != nil {
			s.recorder.IncDeliveryFailure()
			s.logger.Warn("notification delivery failed", "item_id", item.ID, "error", err)
		}
	}

	if s.chime != nil {
		s.chime.Play()
	}

	if s.history != nil {
		rec := model.FiringRecord{ItemID: item.ID, Text: item.Text, FiredAt: firedAt.Unix()}
		if err := s.history.Append(rec); err != nil {
			s.logger.Warn("failed to record history", "error", err)
		}
	}
}

// selectItem picks uniformly among items other than lastShownID, or among all
// items when that excludes nothing (single item, or a dangling id).
// items must not be empty.
func (s *Scheduler) selectItem(items []model.ReminderItem, lastShownID string) model.ReminderItem {
	candidates := make([]model.ReminderItem, 0, len(items))
	for _, item := range items {
		if item.ID != lastShownID {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		candidates = items
	}

	s.rngMu.Lock()
	idx := s.rng.IntN(len(candidates))
	s.rngMu.Unlock()

	return candidates[idx]
}
