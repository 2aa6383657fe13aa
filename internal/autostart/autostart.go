// Package autostart manages the login entry that launches azkard.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goautostart "github.com/emersion/go-autostart"
)

// Entry metadata written to the XDG desktop entry.
const (
	AppName     = "azkard"
	DisplayName = "Azkar"
	Icon        = "appointment-soon"
)

// ErrEmptyExec is returned when enabling without a daemon path.
var ErrEmptyExec = errors.New("autostart: empty executable path")

// App is a single login entry. *goautostart.App satisfies it.
type App interface {
	Enable() error
	Disable() error
	IsEnabled() bool
}

// Manager installs and removes the azkard autostart entry.
type Manager struct {
	newApp func(exec []string) App
}

// NewManager returns a Manager backed by the platform autostart mechanism
// (an XDG desktop entry on Linux).
func NewManager() *Manager {
	return NewManagerWith(func(exec []string) App {
		return &goautostart.App{
			Name:        AppName,
			DisplayName: DisplayName,
			Exec:        exec,
			Icon:        Icon,
		}
	})
}

// NewManagerWith returns a Manager that builds entries with newApp.
func NewManagerWith(newApp func(exec []string) App) *Manager {
	return &Manager{newApp: newApp}
}

// IsEnabled reports whether the autostart entry is installed.
func (m *Manager) IsEnabled() bool {
	return m.newApp(nil).IsEnabled()
}

// Enable installs an entry launching execPath minimized, replacing any
// existing one.
func (m *Manager) Enable(execPath string) error {
	if execPath == "" {
		return ErrEmptyExec
	}
	absPath, err := filepath.Abs(execPath)
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	if err := m.newApp([]string{absPath, "--minimized"}).Enable(); err != nil {
		return fmt.Errorf("failed to write autostart entry: %w", err)
	}
	return nil
}

// Disable removes the entry. A missing entry is not an error.
func (m *Manager) Disable() error {
	app := m.newApp(nil)
	if !app.IsEnabled() {
		return nil
	}
	if err := app.Disable(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove autostart entry: %w", err)
	}
	return nil
}

// Dir returns the XDG autostart directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "autostart"), nil
}

// Path returns the path of the azkard desktop entry on Linux.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".desktop"), nil
}
