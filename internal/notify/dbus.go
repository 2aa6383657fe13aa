package notify

import (
	"fmt"
	"log/slog"
	"sync"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/azkar/internal/config"
)

const (
	notificationsBusName = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = notificationsBusName + ".Notify"
)

// DBusNotifier sends notifications through org.freedesktop.Notifications on the
// session bus. The connection is opened on first use and dropped after a failed
// call, so a restarted notification daemon is picked up on the next firing.
type DBusNotifier struct {
	mu      sync.Mutex
	conn    *godbus.Conn
	cfg     config.NotifyConfig
	logger  *slog.Logger
	connect func() (*godbus.Conn, error)
}

// NewDBusNotifier creates a DBusNotifier.
func NewDBusNotifier(cfg config.NotifyConfig, logger *slog.Logger) *DBusNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DBusNotifier{
		cfg:     cfg,
		logger:  logger,
		connect: func() (*godbus.Conn, error) { return godbus.ConnectSessionBus() },
	}
}

// Display sends title as the notification summary.
func (n *DBusNotifier) Display(title string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		conn, err := n.connect()
		if err != nil {
			return fmt.Errorf("connect to session bus: %w", err)
		}
		n.conn = conn
	}

	hints := map[string]godbus.Variant{
		"urgency":  godbus.MakeVariant(n.cfg.UrgencyLevel()),
		"category": godbus.MakeVariant("im.received"),
	}
	timeout := int32(-1)
	if ms := n.cfg.Timeout.Milliseconds(); ms > 0 {
		timeout = int32(ms)
	}

	obj := n.conn.Object(notificationsBusName, notificationsPath)
	call := obj.Call(notifyMethod, 0,
		n.cfg.AppName,
		uint32(0),
		n.cfg.Icon,
		title,
		"",
		[]string{},
		hints,
		timeout,
	)
	if call.Err != nil {
		n.logger.Debug("notification call failed, dropping connection", "error", call.Err)
		_ = n.conn.Close()
		n.conn = nil
		return fmt.Errorf("notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err == nil {
		n.logger.Debug("notification sent", "dbus_id", id)
	}
	return nil
}

// Close releases the bus connection.
func (n *DBusNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}
