package dbus

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmylchreest/azkar/internal/model"
	"github.com/jmylchreest/azkar/internal/store"
)

const (
	// Interface is the control interface name.
	Interface = "io.github.jmylchreest.Azkar"
	// Path is the control object path.
	Path = "/io/github/jmylchreest/Azkar"
	// BusName is the bus name claimed by azkard.
	BusName = Interface

	stateChangedSignal = Interface + ".StateChanged"
)

// Errors
var (
	// ErrDaemonNotRunning is returned by Dial when no process owns BusName.
	ErrDaemonNotRunning = errors.New("azkard is not running")
	// ErrAlreadyRunning is returned by Server.Start when BusName is taken.
	ErrAlreadyRunning = errors.New("another azkard instance owns the bus name")
)

// encodeState serializes a snapshot for transport as a D-Bus string.
func encodeState(st model.SchedulerState) (string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return string(data), nil
}

// decodeState parses a snapshot produced by encodeState.
func decodeState(s string) (model.SchedulerState, error) {
	var st model.SchedulerState
	if err := json.Unmarshal([]byte(s), &st); err != nil {
		return model.SchedulerState{}, fmt.Errorf("decode state: %w", err)
	}
	st.Normalize()
	return st, nil
}

// parseChangeType maps a signal's change name back to a store.ChangeType.
func parseChangeType(name string) store.ChangeType {
	for _, ct := range []store.ChangeType{
		store.ChangeTypeItems,
		store.ChangeTypeInterval,
		store.ChangeTypePause,
		store.ChangeTypeTick,
		store.ChangeTypeReload,
	} {
		if ct.String() == name {
			return ct
		}
	}
	return store.ChangeTypeReload
}
