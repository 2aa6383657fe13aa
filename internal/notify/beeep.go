package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/jmylchreest/azkar/internal/config"
)

// BeeepNotifier uses gen2brain/beeep, which picks the platform's native
// mechanism (D-Bus, notify-send, toast, osascript).
type BeeepNotifier struct {
	icon   string
	notify func(title, message, icon string) error
}

// NewBeeepNotifier creates a BeeepNotifier. beeep's application name is
// process-global, so the last constructed notifier wins.
func NewBeeepNotifier(cfg config.NotifyConfig) *BeeepNotifier {
	if cfg.AppName != "" {
		beeep.AppName = cfg.AppName
	}
	return &BeeepNotifier{
		icon: cfg.Icon,
		notify: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
	}
}

// Display sends title with an empty body.
func (n *BeeepNotifier) Display(title string) error {
	return n.notify(title, "", n.icon)
}
