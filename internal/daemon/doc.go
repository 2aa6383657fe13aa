// Package daemon provides the main orchestration for azkard.
// It wires the state store, scheduler runner, D-Bus control service,
// notification backend, chime, metrics sink and configuration hot-reload.
package daemon
