// Package dbus exposes the azkar command surface on the session bus.
// azkard runs a Server bound to io.github.jmylchreest.Azkar; the azkar CLI and
// TUI use a Client to read and mutate the daemon's state and to follow its
// StateChanged signal instead of polling.
package dbus
