// Package model defines the core data structures for azkar.
package model

import (
	"encoding/json"
	"math"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
)

// Scheduler defaults.
const (
	// MinIntervalSeconds is the smallest interval accepted between firings.
	MinIntervalSeconds int64 = 1
	// DefaultIntervalSeconds is the interval used when none is configured.
	DefaultIntervalSeconds int64 = 60
	// DateLayout is the layout of LastResetDate (local calendar date).
	DateLayout = "2006-01-02"
)

// ReminderItem is a single zekr shown to the user.
type ReminderItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SchedulerState is the single persisted aggregate shared by the scheduler and
// the command surface.
type SchedulerState struct {
	Items                []ReminderItem `json:"items"`
	IntervalSeconds      int64          `json:"interval_seconds"`
	DailyCount           int64          `json:"daily_count"`
	LastResetDate        string         `json:"last_reset_date"`
	LastNotificationTime int64          `json:"last_notification_time"` // Unix seconds, 0 = never fired
	IsPaused             bool           `json:"is_paused"`
	LastShownItemID      string         `json:"last_shown_item_id,omitempty"` // Lookup key only; may dangle
}

// defaultItems are the built-in azkar seeded on first run.
var defaultItems = []ReminderItem{
	{ID: "1", Text: "سبحان الله"},
	{ID: "2", Text: "الحمد لله"},
	{ID: "3", Text: "الله أكبر"},
	{ID: "4", Text: "لا إله إلا الله"},
	{ID: "5", Text: "أستغفر الله"},
	{ID: "6", Text: "لا حول ولا قوة إلا بالله"},
}

// DefaultItems returns a copy of the built-in azkar.
func DefaultItems() []ReminderItem {
	items := make([]ReminderItem, len(defaultItems))
	copy(items, defaultItems)
	return items
}

// DefaultState returns the state used on first run or when the state file is unusable.
func DefaultState(today string) SchedulerState {
	return SchedulerState{
		Items:           DefaultItems(),
		IntervalSeconds: DefaultIntervalSeconds,
		LastResetDate:   today,
	}
}

// NewItemID returns a fresh, time-ordered unique item id.
func NewItemID() string {
	return ulid.Make().String()
}

// DateString formats t as a calendar date in t's location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// ClampInterval enforces the minimum interval.
func ClampInterval(seconds int64) int64 {
	if seconds < MinIntervalSeconds {
		return MinIntervalSeconds
	}
	return seconds
}

// Clone returns a deep copy of the state.
func (s SchedulerState) Clone() SchedulerState {
	clone := s
	clone.Items = make([]ReminderItem, len(s.Items))
	copy(clone.Items, s.Items)
	return clone
}

// Normalize repairs values that would break invariants: the interval is
// clamped, negative counters are zeroed and duplicate ids are dropped
// (the first occurrence wins).
func (s *SchedulerState) Normalize() {
	s.IntervalSeconds = ClampInterval(s.IntervalSeconds)
	if s.DailyCount < 0 {
		s.DailyCount = 0
	}
	if s.LastNotificationTime < 0 {
		s.LastNotificationTime = 0
	}

	seen := make(map[string]bool, len(s.Items))
	items := make([]ReminderItem, 0, len(s.Items))
	for _, item := range s.Items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		items = append(items, item)
	}
	s.Items = items
}

// Equal reports whether two states hold the same values.
func (s SchedulerState) Equal(other SchedulerState) bool {
	return s.IntervalSeconds == other.IntervalSeconds &&
		s.DailyCount == other.DailyCount &&
		s.LastResetDate == other.LastResetDate &&
		s.LastNotificationTime == other.LastNotificationTime &&
		s.IsPaused == other.IsPaused &&
		s.LastShownItemID == other.LastShownItemID &&
		slices.Equal(s.Items, other.Items)
}

// FindItem returns the item with the given id.
func (s SchedulerState) FindItem(id string) (ReminderItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return ReminderItem{}, false
}

// LastShownItem returns the most recently shown item if it still exists.
func (s SchedulerState) LastShownItem() (ReminderItem, bool) {
	if s.LastShownItemID == "" {
		return ReminderItem{}, false
	}
	return s.FindItem(s.LastShownItemID)
}

// HasFired reports whether a notification has ever been fired.
func (s SchedulerState) HasFired() bool {
	return s.LastNotificationTime > 0
}

// LastNotificationAt returns LastNotificationTime as a time.Time.
func (s SchedulerState) LastNotificationAt() time.Time {
	return time.Unix(s.LastNotificationTime, 0)
}

// IsDue reports whether at least IntervalSeconds have passed since the last
// firing. Compares elapsed time so huge intervals cannot overflow.
func (s SchedulerState) IsDue(nowUnix int64) bool {
	return nowUnix-s.LastNotificationTime >= s.IntervalSeconds
}

// NextDueAt returns the earliest time the next notification may fire.
// The deadline saturates at math.MaxInt64 seconds.
func (s SchedulerState) NextDueAt() time.Time {
	if s.IntervalSeconds > math.MaxInt64-s.LastNotificationTime {
		return time.Unix(math.MaxInt64, 0)
	}
	return time.Unix(s.LastNotificationTime+s.IntervalSeconds, 0)
}

// UnmarshalJSON decodes onto the receiver's current values, so fields missing
// from the document keep whatever the caller pre-filled. The key names used by
// earlier releases ("azkar", "last_zekr_id") are accepted as aliases.
// Items are decoded into a fresh slice, never into the pre-filled one.
func (s *SchedulerState) UnmarshalJSON(data []byte) error {
	type plain SchedulerState
	aux := struct {
		*plain
		Items           []ReminderItem `json:"items"`
		LegacyItems     []ReminderItem `json:"azkar"`
		LegacyLastShown *string        `json:"last_zekr_id"`
	}{plain: (*plain)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys["items"]; ok {
		s.Items = aux.Items
	} else if aux.LegacyItems != nil {
		s.Items = aux.LegacyItems
	}
	if _, ok := keys["last_shown_item_id"]; !ok && aux.LegacyLastShown != nil {
		s.LastShownItemID = *aux.LegacyLastShown
	}
	return nil
}

// FiringRecord is one entry of the firing history log.
type FiringRecord struct {
	ItemID  string `json:"item_id"`
	Text    string `json:"text"`
	FiredAt int64  `json:"fired_at"` // Unix seconds
}

// FiredTime returns FiredAt as a time.Time.
func (r FiringRecord) FiredTime() time.Time {
	return time.Unix(r.FiredAt, 0)
}
