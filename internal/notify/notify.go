// Package notify delivers reminder notifications to the desktop.
package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/azkar/internal/config"
)

// Notifier displays a notification with the given title.
// Delivery is fire-and-forget: callers log errors but never retry.
type Notifier interface {
	Display(title string) error
}

// New returns the Notifier for the configured backend.
func New(cfg config.NotifyConfig, logger *slog.Logger) (Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case config.BackendDBus:
		return NewDBusNotifier(cfg, logger), nil
	case config.BackendBeeep:
		return NewBeeepNotifier(cfg), nil
	case config.BackendLog:
		return NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notify backend %q", cfg.Backend)
	}
}

// LogNotifier writes notifications to the log instead of the desktop.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Display logs the title at info level.
func (n *LogNotifier) Display(title string) error {
	n.logger.Info("reminder", "text", title)
	return nil
}

// Swappable is a Notifier whose backend can be replaced at runtime (config reload).
type Swappable struct {
	mu      sync.RWMutex
	current Notifier
}

// NewSwappable wraps n.
func NewSwappable(n Notifier) *Swappable {
	return &Swappable{current: n}
}

// Swap replaces the backend and returns the previous one.
func (s *Swappable) Swap(n Notifier) Notifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = n
	return prev
}

// Display forwards to the current backend.
func (s *Swappable) Display(title string) error {
	s.mu.RLock()
	n := s.current
	s.mu.RUnlock()

	if n == nil {
		return nil
	}
	return n.Display(title)
}

// Close closes the current backend if it holds resources.
func (s *Swappable) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.current.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
