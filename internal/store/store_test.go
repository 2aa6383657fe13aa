package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/azkar/internal/metrics"
	"github.com/jmylchreest/azkar/internal/model"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)

// failingPersistence loads nothing and fails every save.
type failingPersistence struct {
	saves int
}

func (f *failingPersistence) Load(defaults model.SchedulerState) (model.SchedulerState, error) {
	return defaults, os.ErrNotExist
}

func (f *failingPersistence) Save(model.SchedulerState) error {
	f.saves++
	return errors.New("disk full")
}

// countingRecorder counts persist failures.
type countingRecorder struct {
	mu              sync.Mutex
	persistFailures int
	lastDaily       int64
	lastItems       int
}

func (r *countingRecorder) IncTick(metrics.TickResultLabel) {}
func (r *countingRecorder) IncFired()                {}
func (r *countingRecorder) IncDeliveryFailure()      {}
func (r *countingRecorder) IncPersistFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistFailures++
}
func (r *countingRecorder) SetState(daily int64, items int, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastDaily = daily
	r.lastItems = items
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "azkar_data.json")
	p, err := NewJSONPersistence(path)
	require.NoError(t, err)
	s := Open(p, WithClock(clockwork.NewFakeClockAt(testNow)))
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpen_MissingFileUsesDefaults(t *testing.T) {
	s, path := newTestStore(t)

	st := s.Get()
	assert.Len(t, st.Items, 6)
	assert.Equal(t, model.DefaultIntervalSeconds, st.IntervalSeconds)
	assert.Equal(t, "2026-03-14", st.LastResetDate)
	assert.False(t, st.IsPaused)

	// Nothing is written until the first mutation
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpen_CorruptFileUsesDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage", content: "not json at all {"},
		{name: "wrong shape", content: `[1, 2, 3]`},
		{name: "wrong field type", content: `{"items": "nope"}`},
		{name: "truncated", content: `{"items": [{"id": "1", "te`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "azkar_data.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			p, err := NewJSONPersistence(path)
			require.NoError(t, err)
			s := Open(p, WithClock(clockwork.NewFakeClockAt(testNow)))
			defer s.Close()

			assert.Equal(t, model.DefaultState("2026-03-14"), s.Get())
		})
	}
}

func TestOpen_EmptyItemsKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "azkar_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"items": []}`), 0600))

	p, err := NewJSONPersistence(path)
	require.NoError(t, err)
	s := Open(p, WithClock(clockwork.NewFakeClockAt(testNow)))
	defer s.Close()

	st := s.Get()
	assert.Empty(t, st.Items)
	assert.NotNil(t, st.Items)
	assert.Equal(t, model.DefaultIntervalSeconds, st.IntervalSeconds)
	assert.Equal(t, int64(0), st.DailyCount)
	assert.Equal(t, "2026-03-14", st.LastResetDate)
	assert.False(t, st.IsPaused)
}

func TestOpen_NormalizesLoadedState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "azkar_data.json")
	doc := `{"items": [{"id": "a", "text": "x"}, {"id": "a", "text": "y"}], "interval_seconds": 0}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	p, err := NewJSONPersistence(path)
	require.NoError(t, err)
	s := Open(p)
	defer s.Close()

	st := s.Get()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "x", st.Items[0].Text)
	assert.Equal(t, int64(1), st.IntervalSeconds)
}

func TestStore_GetIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	first := s.Get()
	second := s.Get()
	assert.Equal(t, first, second)

	// Snapshots are independent of the store
	first.Items[0].Text = "mutated"
	assert.NotEqual(t, "mutated", s.Get().Items[0].Text)
}

func TestStore_AddItem(t *testing.T) {
	s, path := newTestStore(t)

	st, err := s.AddItem("سبحان الله وبحمده")
	require.NoError(t, err)
	require.Len(t, st.Items, 7)
	added := st.Items[6]
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "سبحان الله وبحمده", added.Text)

	// Empty text is allowed
	st, err = s.AddItem("")
	require.NoError(t, err)
	assert.Len(t, st.Items, 8)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestStore_ItemIDsUniqueAndOrdered(t *testing.T) {
	s, _ := newTestStore(t)

	var expected []string
	for _, item := range s.Get().Items {
		expected = append(expected, item.ID)
	}

	for i := range 50 {
		st, err := s.AddItem("item")
		require.NoError(t, err)
		expected = append(expected, st.Items[len(st.Items)-1].ID)

		if i%3 == 0 {
			victim := expected[len(expected)/2]
			_, err := s.RemoveItem(victim)
			require.NoError(t, err)
			expected = removeString(expected, victim)
		}
		if i%5 == 0 {
			_, err := s.UpdateItem(expected[0], "edited")
			require.NoError(t, err)
		}
	}

	st := s.Get()
	var ids []string
	seen := make(map[string]bool)
	for _, item := range st.Items {
		require.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
		ids = append(ids, item.ID)
	}
	assert.Equal(t, expected, ids)
}

func removeString(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func TestStore_RemoveItem(t *testing.T) {
	s, _ := newTestStore(t)

	st, err := s.RemoveItem("3")
	require.NoError(t, err)
	assert.Len(t, st.Items, 5)
	_, found := st.FindItem("3")
	assert.False(t, found)

	// Unknown id is a no-op
	st2, err := s.RemoveItem("does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, st, st2)
}

func TestStore_RemoveLastShownLeavesDanglingReference(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Mutate(SourceScheduler, func(st *model.SchedulerState) bool {
		st.LastShownItemID = "2"
		return true
	})
	require.NoError(t, err)

	st, err := s.RemoveItem("2")
	require.NoError(t, err)
	assert.Equal(t, "2", st.LastShownItemID)
	_, ok := st.LastShownItem()
	assert.False(t, ok)
}

func TestStore_UpdateItem(t *testing.T) {
	s, _ := newTestStore(t)

	st, err := s.UpdateItem("1", "updated")
	require.NoError(t, err)
	item, ok := st.FindItem("1")
	require.True(t, ok)
	assert.Equal(t, "updated", item.Text)
	assert.Equal(t, "1", st.Items[0].ID)

	st2, err := s.UpdateItem("missing", "x")
	require.NoError(t, err)
	assert.Equal(t, st, st2)
}

func TestStore_SetInterval(t *testing.T) {
	s, _ := newTestStore(t)

	tests := []struct {
		in   int64
		want int64
	}{
		{in: 0, want: 1},
		{in: -10, want: 1},
		{in: 1, want: 1},
		{in: 300, want: 300},
	}
	for _, tt := range tests {
		st, err := s.SetInterval(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, st.IntervalSeconds, "SetInterval(%d)", tt.in)
	}
}

func TestStore_TogglePause(t *testing.T) {
	s, _ := newTestStore(t)

	st, err := s.TogglePause()
	require.NoError(t, err)
	assert.True(t, st.IsPaused)

	st, err = s.TogglePause()
	require.NoError(t, err)
	assert.False(t, st.IsPaused)
}

func TestStore_PersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "azkar_data.json")
	p, err := NewJSONPersistence(path)
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(testNow)

	s := Open(p, WithClock(clock))
	_, err = s.AddItem("لا إله إلا أنت سبحانك")
	require.NoError(t, err)
	_, err = s.SetInterval(90)
	require.NoError(t, err)
	_, err = s.TogglePause()
	require.NoError(t, err)
	want, err := s.Mutate(SourceScheduler, func(st *model.SchedulerState) bool {
		st.DailyCount = 4
		st.LastNotificationTime = testNow.Unix()
		st.LastShownItemID = "5"
		return true
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := Open(p, WithClock(clock))
	defer reopened.Close()
	assert.Equal(t, want, reopened.Get())
}

func TestStore_PersistFailureIsTolerated(t *testing.T) {
	p := &failingPersistence{}
	rec := &countingRecorder{}
	s := Open(p, WithRecorder(rec))
	defer s.Close()

	st, err := s.AddItem("kept in memory")
	require.NoError(t, err)
	assert.Len(t, st.Items, 7)
	assert.Len(t, s.Get().Items, 7)
	assert.Equal(t, 1, p.saves)
	assert.Equal(t, 1, rec.persistFailures)
	assert.Equal(t, 7, rec.lastItems)
}

func TestStore_PersistToUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "azkar_data.json")
	p, err := NewJSONPersistence(path)
	require.NoError(t, err)
	s := Open(p)
	defer s.Close()

	// Replace the directory with a file so writes fail
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0600))
	t.Cleanup(func() { _ = os.Remove(dir) })

	st, err := s.SetInterval(5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), st.IntervalSeconds)
}

func TestStore_MutateNoChange(t *testing.T) {
	p := &failingPersistence{}
	s := Open(p)
	defer s.Close()
	ch := s.Subscribe()

	_, err := s.Mutate(SourceScheduler, func(*model.SchedulerState) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, 0, p.saves)

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestStore_Subscribe(t *testing.T) {
	s, _ := newTestStore(t)
	ch := s.Subscribe()

	_, err := s.TogglePause()
	require.NoError(t, err)
	_, err = s.Mutate(SourceScheduler, func(st *model.SchedulerState) bool {
		st.DailyCount++
		return true
	})
	require.NoError(t, err)

	ev := <-ch
	assert.Equal(t, ChangeTypePause, ev.Type)
	assert.Equal(t, SourceCommand, ev.Source)

	ev = <-ch
	assert.Equal(t, ChangeTypeTick, ev.Type)
	assert.Equal(t, SourceScheduler, ev.Source)
}

func TestStore_SubscribeNonBlocking(t *testing.T) {
	s, _ := newTestStore(t)
	_ = s.Subscribe() // never drained

	for range 50 {
		_, err := s.TogglePause()
		require.NoError(t, err)
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s, _ := newTestStore(t)
	ch := s.Subscribe()
	s.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestStore_Close(t *testing.T) {
	s, _ := newTestStore(t)
	ch := s.Subscribe()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, ok := <-ch
	assert.False(t, ok)

	_, err := s.AddItem("late")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.Len(t, s.Get().Items, 6)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.AddItem("concurrent")
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Mutate(SourceScheduler, func(st *model.SchedulerState) bool {
				st.DailyCount++
				return true
			})
		}()
	}
	wg.Wait()

	st := s.Get()
	assert.Len(t, st.Items, 26)
	assert.Equal(t, int64(20), st.DailyCount)
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "azkar_data.json")
	p, err := NewJSONPersistence(path)
	require.NoError(t, err)

	s := Open(p)
	defer s.Close()
	_, err = s.SetInterval(30)
	require.NoError(t, err)
	ch := s.Subscribe()

	// Unchanged file: no event
	s.Reload()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	// Another writer changes the file
	other := Open(p)
	_, err = other.SetInterval(120)
	require.NoError(t, err)
	require.NoError(t, other.Close())

	s.Reload()
	ev := <-ch
	assert.Equal(t, ChangeTypeReload, ev.Type)
	assert.Equal(t, SourceFile, ev.Source)
	assert.Equal(t, int64(120), s.Get().IntervalSeconds)

	// Corrupt file keeps current state
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))
	s.Reload()
	assert.Equal(t, int64(120), s.Get().IntervalSeconds)
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "items", ChangeTypeItems.String())
	assert.Equal(t, "tick", ChangeTypeTick.String())
	assert.Equal(t, "unknown", ChangeType(99).String())
}
