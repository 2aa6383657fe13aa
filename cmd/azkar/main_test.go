package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/azkar/internal/autostart"
	"github.com/jmylchreest/azkar/internal/control"
	"github.com/jmylchreest/azkar/internal/dbus"
	"github.com/jmylchreest/azkar/internal/model"
	"github.com/jmylchreest/azkar/internal/store"
)

// runCLI executes the command tree against an isolated XDG environment with
// no daemon, returning stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	getOpts.format, getOpts.template, getOpts.itemsOnly, getOpts.maxLen = "", "", false, 80
	itemsOpts.stdin = false
	historyOpts.limit, historyOpts.prune, historyOpts.format = 0, 0, "plain"
	autostartOpts.exec = ""
	globalOpts.verbose, globalOpts.stateFile, globalOpts.configPath = false, "", ""
	ctrl = nil

	dialer = func() (control.Controller, error) { return nil, dbus.ErrDaemonNotRunning }
	t.Cleanup(func() { dialer = control.DialDaemon })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	return dir
}

func loadState(t *testing.T, dir string) model.SchedulerState {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "data", "azkar", "azkar_data.json"))
	require.NoError(t, err)
	var st model.SchedulerState
	require.NoError(t, json.Unmarshal(data, &st))
	return st
}

func TestGet_JSON(t *testing.T) {
	setupXDG(t)

	out, err := runCLI(t, "", "get", "--format", "json")
	require.NoError(t, err)

	var st model.SchedulerState
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Len(t, st.Items, len(model.DefaultItems()))
	assert.Equal(t, model.DefaultIntervalSeconds, st.IntervalSeconds)
}

func TestGet_ByRef(t *testing.T) {
	setupXDG(t)

	out, err := runCLI(t, "", "get", "2")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultItems()[1].Text+"\n", out)

	_, err = runCLI(t, "", "get", "99")
	assert.Error(t, err)
}

func TestGet_InvalidFormat(t *testing.T) {
	setupXDG(t)

	_, err := runCLI(t, "", "get", "--format", "xml")
	assert.Error(t, err)
}

func TestItems_AddUpdateRemove(t *testing.T) {
	dir := setupXDG(t)

	out, err := runCLI(t, "", "items", "add", "Subhan", "Allah")
	require.NoError(t, err)
	assert.Contains(t, out, "Added [7]")

	st := loadState(t, dir)
	require.Len(t, st.Items, 7)
	added := st.Items[6]
	assert.Equal(t, "Subhan Allah", added.Text)

	_, err = runCLI(t, "", "items", "update", "7", "Alhamdulillah")
	require.NoError(t, err)
	st = loadState(t, dir)
	item, ok := st.FindItem(added.ID)
	require.True(t, ok)
	assert.Equal(t, "Alhamdulillah", item.Text)

	out, err = runCLI(t, "", "items", "remove", added.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed "+added.ID)
	st = loadState(t, dir)
	assert.Len(t, st.Items, 6)
}

func TestItems_AddStdin(t *testing.T) {
	dir := setupXDG(t)

	_, err := runCLI(t, "one\n\n  two  \nthree\n", "items", "add", "--stdin")
	require.NoError(t, err)

	st := loadState(t, dir)
	require.Len(t, st.Items, 9)
	assert.Equal(t, "one", st.Items[6].Text)
	assert.Equal(t, "two", st.Items[7].Text)
	assert.Equal(t, "three", st.Items[8].Text)
}

func TestItems_AddRequiresText(t *testing.T) {
	setupXDG(t)

	_, err := runCLI(t, "", "items", "add")
	assert.Error(t, err)
}

func TestItems_List(t *testing.T) {
	setupXDG(t)

	out, err := runCLI(t, "", "items", "list")
	require.NoError(t, err)
	for _, item := range model.DefaultItems() {
		assert.Contains(t, out, item.Text)
	}
	assert.NotContains(t, out, "Interval")
}

func TestInterval(t *testing.T) {
	dir := setupXDG(t)

	out, err := runCLI(t, "", "interval", "300")
	require.NoError(t, err)
	assert.Equal(t, "Interval: 5m\n", out)
	assert.Equal(t, int64(300), loadState(t, dir).IntervalSeconds)

	_, err = runCLI(t, "", "interval", "1h30m")
	require.NoError(t, err)
	assert.Equal(t, int64(5400), loadState(t, dir).IntervalSeconds)

	_, err = runCLI(t, "", "interval", "0")
	require.NoError(t, err)
	assert.Equal(t, model.MinIntervalSeconds, loadState(t, dir).IntervalSeconds)

	_, err = runCLI(t, "", "interval", "soon")
	assert.Error(t, err)
}

func TestPause(t *testing.T) {
	dir := setupXDG(t)

	out, err := runCLI(t, "", "pause", "status")
	require.NoError(t, err)
	assert.Equal(t, "Reminders: active\n", out)

	out, err = runCLI(t, "", "pause", "toggle")
	require.NoError(t, err)
	assert.Equal(t, "Reminders: paused\n", out)
	assert.True(t, loadState(t, dir).IsPaused)
}

func TestStatus_Waybar(t *testing.T) {
	setupXDG(t)

	out, err := runCLI(t, "", "status")
	require.NoError(t, err)

	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "0", status["text"])
	assert.Equal(t, "active", status["class"])
}

func TestHistory(t *testing.T) {
	dir := setupXDG(t)

	out, err := runCLI(t, "", "history")
	require.NoError(t, err)
	assert.Equal(t, "No history\n", out)

	path := filepath.Join(dir, "data", "azkar", "history.jsonl")
	h, err := store.OpenHistoryLog(path)
	require.NoError(t, err)
	for i, text := range []string{"a", "b", "c"} {
		require.NoError(t, h.Append(model.FiringRecord{ItemID: text, Text: text, FiredAt: int64(1_700_000_000 + i)}))
	}
	require.NoError(t, h.Close())

	out, err = runCLI(t, "", "history", "--format", "json", "--limit", "2")
	require.NoError(t, err)
	var records []model.FiringRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].Text)

	out, err = runCLI(t, "", "history", "--prune", "1")
	require.NoError(t, err)
	assert.Equal(t, "Removed 2 entries\n", out)
}

// memAutostart stands in for the desktop entry backend.
type memAutostart struct {
	entry *[]string
	exec  []string
}

func (a *memAutostart) Enable() error   { *a.entry = a.exec; return nil }
func (a *memAutostart) Disable() error  { *a.entry = nil; return nil }
func (a *memAutostart) IsEnabled() bool { return *a.entry != nil }

func TestAutostart(t *testing.T) {
	dir := setupXDG(t)
	bin := filepath.Join(dir, "azkard")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	var entry []string
	prev := autostartManager
	autostartManager = autostart.NewManagerWith(func(exec []string) autostart.App {
		return &memAutostart{entry: &entry, exec: exec}
	})
	t.Cleanup(func() { autostartManager = prev })

	out, err := runCLI(t, "", "autostart", "status")
	require.NoError(t, err)
	assert.Equal(t, "Autostart: disabled\n", out)

	out, err = runCLI(t, "", "autostart", "on", "--exec", bin)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "config", "autostart", "azkard.desktop"))
	assert.Equal(t, []string{bin, "--minimized"}, entry)

	out, err = runCLI(t, "", "autostart", "status")
	require.NoError(t, err)
	assert.Equal(t, "Autostart: enabled\n", out)

	_, err = runCLI(t, "", "autostart", "off")
	require.NoError(t, err)
	out, err = runCLI(t, "", "autostart", "status")
	require.NoError(t, err)
	assert.Equal(t, "Autostart: disabled\n", out)
}

func TestStateFileFlag(t *testing.T) {
	setupXDG(t)
	path := filepath.Join(t.TempDir(), "custom.json")

	_, err := runCLI(t, "", "--state-file", path, "interval", "90")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"interval_seconds": 90`)
}

func TestParseIntervalArg(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"60", 60, false},
		{"5m", 300, false},
		{"1500ms", 1, false},
		{"-5", -5, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseIntervalArg(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
