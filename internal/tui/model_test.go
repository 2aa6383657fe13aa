package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/azkar/internal/control"
	"github.com/jmylchreest/azkar/internal/model"
	"github.com/jmylchreest/azkar/internal/store"
)

func newTestModel(t *testing.T) (Model, *control.Local) {
	t.Helper()
	ctrl := control.NewLocal(store.Open(nil))
	t.Cleanup(func() { _ = ctrl.Close() })

	m := New(ctrl, Options{Now: func() time.Time { return time.Unix(1_700_000_000, 0) }})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(t, m, m.loadState())
	return m, ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// press sends a key and feeds a resulting stateMsg back into the model.
func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	out := next.(Model)
	if cmd == nil {
		return out
	}
	if sm, ok := cmd().(stateMsg); ok {
		out = update(t, out, sm)
	}
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_LoadsState(t *testing.T) {
	m, _ := newTestModel(t)

	assert.True(t, m.loaded)
	assert.Len(t, m.list.Items(), len(model.DefaultItems()))
	assert.Contains(t, m.View(), "active")
}

func TestModel_AddItem(t *testing.T) {
	m, ctrl := newTestModel(t)

	m = press(t, m, runes("a"))
	assert.Equal(t, ModeInput, m.mode)

	// "q" is text while typing, not quit
	m = update(t, m, runes("q"))
	assert.Equal(t, ModeInput, m.mode)
	assert.Equal(t, "q", m.input.Value())
	m.input.SetValue("سبحان الله وبحمده")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeList, m.mode)

	st, err := ctrl.Get()
	require.NoError(t, err)
	require.Len(t, st.Items, len(model.DefaultItems())+1)
	assert.Equal(t, "سبحان الله وبحمده", st.Items[len(st.Items)-1].Text)
	assert.Len(t, m.list.Items(), len(st.Items))
}

func TestModel_EditItem(t *testing.T) {
	m, ctrl := newTestModel(t)

	m = press(t, m, runes("e"))
	require.Equal(t, ModeInput, m.mode)
	assert.Equal(t, "1", m.editingID)
	assert.Equal(t, model.DefaultItems()[0].Text, m.input.Value())

	m.input.SetValue("edited")
	_ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	st, _ := ctrl.Get()
	item, ok := st.FindItem("1")
	require.True(t, ok)
	assert.Equal(t, "edited", item.Text)
}

func TestModel_InputEscCancels(t *testing.T) {
	m, ctrl := newTestModel(t)

	m = press(t, m, runes("a"))
	m.input.SetValue("discard me")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, ModeList, m.mode)
	st, _ := ctrl.Get()
	assert.Len(t, st.Items, len(model.DefaultItems()))
}

func TestModel_DeleteItem(t *testing.T) {
	m, ctrl := newTestModel(t)

	m = press(t, m, runes("d"))

	st, _ := ctrl.Get()
	assert.Len(t, st.Items, len(model.DefaultItems())-1)
	_, ok := st.FindItem("1")
	assert.False(t, ok)
	assert.Len(t, m.list.Items(), len(st.Items))
}

func TestModel_TogglePause(t *testing.T) {
	m, ctrl := newTestModel(t)

	m = press(t, m, runes("p"))
	st, _ := ctrl.Get()
	assert.True(t, st.IsPaused)
	assert.True(t, m.state.IsPaused)
	assert.Contains(t, m.View(), "paused")

	_ = press(t, m, runes("p"))
	st, _ = ctrl.Get()
	assert.False(t, st.IsPaused)
}

func TestModel_AdjustInterval(t *testing.T) {
	m, ctrl := newTestModel(t)
	require.Equal(t, model.DefaultIntervalSeconds, m.state.IntervalSeconds)

	m = press(t, m, runes("+"))
	st, _ := ctrl.Get()
	assert.Equal(t, int64(120), st.IntervalSeconds)

	m = press(t, m, runes("-"))
	m = press(t, m, runes("-"))
	st, _ = ctrl.Get()
	assert.Equal(t, int64(55), st.IntervalSeconds)

	_, err := ctrl.SetInterval(3)
	require.NoError(t, err)
	m = update(t, m, m.loadState())
	_ = press(t, m, runes("-"))
	st, _ = ctrl.Get()
	assert.Equal(t, model.MinIntervalSeconds, st.IntervalSeconds)
}

func TestIntervalStep(t *testing.T) {
	assert.Equal(t, int64(5), intervalStep(30))
	assert.Equal(t, int64(60), intervalStep(60))
	assert.Equal(t, int64(60), intervalStep(599))
	assert.Equal(t, int64(300), intervalStep(600))
}

func TestModel_Search(t *testing.T) {
	m, ctrl := newTestModel(t)
	_, err := ctrl.AddItem("Subhan Allah")
	require.NoError(t, err)
	m = update(t, m, m.loadState())

	m = press(t, m, runes("/"))
	require.Equal(t, ModeSearch, m.mode)

	for _, r := range "subhan" {
		m = update(t, m, runes(string(r)))
	}
	assert.Equal(t, "subhan", m.searchQuery)
	require.Len(t, m.list.Items(), 1)

	ri := m.list.Items()[0].(reminderItem)
	assert.Equal(t, "Subhan Allah", ri.item.Text)
	assert.Equal(t, len(model.DefaultItems())+1, ri.index)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeList, m.mode)
	assert.Len(t, m.list.Items(), len(model.DefaultItems())+1)
}

func TestModel_LastShownHighlighted(t *testing.T) {
	m, ctrl := newTestModel(t)
	_, err := ctrl.Store().Mutate(store.SourceScheduler, func(st *model.SchedulerState) bool {
		st.LastShownItemID = "3"
		st.LastNotificationTime = 1_700_000_000 - 120
		st.DailyCount = 4
		return true
	})
	require.NoError(t, err)
	m = update(t, m, m.loadState())

	ri := m.list.Items()[2].(reminderItem)
	assert.True(t, ri.lastShown)
	assert.Contains(t, ri.Description(), "last shown")

	header := m.renderHeader()
	assert.Contains(t, header, "4")
	assert.Contains(t, header, "2 minutes ago")
}

func TestModel_ChangesTriggerRefresh(t *testing.T) {
	m, ctrl := newTestModel(t)

	_, err := ctrl.AddItem("external")
	require.NoError(t, err)

	msg := m.watchForChanges()
	require.IsType(t, refreshMsg{}, msg)

	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	m = update(t, next.(Model), m.loadState())
	assert.Len(t, m.list.Items(), len(model.DefaultItems())+1)
}

func TestModel_ErrorShowsStatus(t *testing.T) {
	m, ctrl := newTestModel(t)
	require.NoError(t, ctrl.Close())

	next, cmd := m.Update(runes("p"))
	m = next.(Model)
	require.NotNil(t, cmd)
	sm := cmd().(stateMsg)
	require.Error(t, sm.err)

	next, cmd = m.Update(sm)
	require.NotNil(t, cmd)
	m = update(t, next.(Model), cmd())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.statusMsg, "closed")
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("?"))
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeList, m.mode)
}

func TestBuildKeybindBar_FitsWidth(t *testing.T) {
	m, _ := newTestModel(t)

	narrow := m.buildKeybindBar(12, "list")
	assert.Contains(t, narrow, "quit")
	assert.NotContains(t, narrow, "delete")

	wide := m.buildKeybindBar(200, "list")
	assert.Contains(t, wide, "refresh")
}
