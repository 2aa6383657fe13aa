package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/azkar/internal/store"
)

// emitStateChanged emits the StateChanged signal for a store change.
func emitStateChanged(conn *dbus.Conn, ev store.ChangeEvent) error {
	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}
	if err := conn.Emit(Path, stateChangedSignal, ev.Type.String(), ev.Source); err != nil {
		return fmt.Errorf("failed to emit StateChanged signal: %w", err)
	}
	return nil
}

// signalToEvent converts a received StateChanged signal to a ChangeEvent.
func signalToEvent(sig *dbus.Signal) (store.ChangeEvent, bool) {
	if sig == nil || sig.Name != stateChangedSignal || len(sig.Body) != 2 {
		return store.ChangeEvent{}, false
	}
	change, ok1 := sig.Body[0].(string)
	source, ok2 := sig.Body[1].(string)
	if !ok1 || !ok2 {
		return store.ChangeEvent{}, false
	}
	return store.ChangeEvent{Type: parseChangeType(change), Source: source}, true
}
