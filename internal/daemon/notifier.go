package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jmylchreest/azkar/internal/notify"
)

// InternalNotifier tells the user about azkard's own problems (a broken
// config edit, a taken bus name) through the regular notification backend.
// The same key is not repeated within minInterval.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	clock  clockwork.Clock

	notifier notify.Notifier

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration

	enabled bool
}

// NewInternalNotifier creates an InternalNotifier delivering through n.
func NewInternalNotifier(n notify.Notifier, clock clockwork.Clock, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &InternalNotifier{
		logger:         logger,
		clock:          clock,
		notifier:       n,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    30 * time.Second,
		enabled:        true,
	}
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications with the same key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify displays title unless key was notified within the minimum interval.
// It reports whether the notification was sent.
func (n *InternalNotifier) Notify(key, title string) bool {
	n.mu.Lock()
	if !n.enabled || n.notifier == nil {
		n.mu.Unlock()
		return false
	}

	now := n.clock.Now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return false
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	if err := n.notifier.Display(title); err != nil {
		n.logger.Warn("failed to send internal notification", "key", key, "error", err)
		return false
	}
	return true
}

// NotifyConfigError reports a rejected config edit.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "azkard: configuration not reloaded: "+err.Error())
}
