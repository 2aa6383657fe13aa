package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/azkar/internal/model"
	"github.com/jmylchreest/azkar/internal/store"
)

// Server exports the command surface of a Store on the session bus.
type Server struct {
	store  *store.Store
	logger *slog.Logger
	object *controlObject

	mu      sync.Mutex
	conn    *dbus.Conn
	events  <-chan store.ChangeEvent
	done    chan struct{}
	running bool
}

// NewServer creates a Server for st.
func NewServer(st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  st,
		logger: logger,
		object: &controlObject{store: st, logger: logger},
	}
}

// Start connects to the session bus, exports the control object and claims
// BusName. It returns ErrAlreadyRunning if another daemon holds the name.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s.object, Path, Interface); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: Path,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: controlMethods(),
				Signals: controlSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, BusName)
	}

	s.conn = conn
	s.events = s.store.Subscribe()
	s.done = make(chan struct{})
	s.running = true
	go s.forwardChanges(s.conn, s.events, s.done)

	s.logger.Info("D-Bus control service started", "bus_name", BusName, "path", Path)
	return nil
}

// forwardChanges emits a StateChanged signal for every store change event.
func (s *Server) forwardChanges(conn *dbus.Conn, events <-chan store.ChangeEvent, done chan struct{}) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := emitStateChanged(conn, ev); err != nil {
				s.logger.Warn("failed to emit StateChanged", "error", err)
			}
		case <-done:
			return
		}
	}
}

// Stop releases the bus name and closes the connection.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	close(s.done)
	s.store.Unsubscribe(s.events)

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	err := s.conn.Close()
	s.conn = nil

	s.logger.Info("D-Bus control service stopped")
	return err
}

// controlObject is the exported D-Bus object. Every method returns the
// resulting state snapshot as JSON.
type controlObject struct {
	store  *store.Store
	logger *slog.Logger
}

func (o *controlObject) reply(method string, st model.SchedulerState, err error) (string, *dbus.Error) {
	if err != nil {
		o.logger.Debug("control call failed", "method", method, "error", err)
		return "", dbus.MakeFailedError(err)
	}
	out, err := encodeState(st)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return out, nil
}

// GetState returns the current state.
// D-Bus method: GetState() -> s
func (o *controlObject) GetState() (string, *dbus.Error) {
	return o.reply("GetState", o.store.Get(), nil)
}

// AddItem appends an item.
// D-Bus method: AddItem(s) -> s
func (o *controlObject) AddItem(text string) (string, *dbus.Error) {
	st, err := o.store.AddItem(text)
	return o.reply("AddItem", st, err)
}

// RemoveItem removes an item by id.
// D-Bus method: RemoveItem(s) -> s
func (o *controlObject) RemoveItem(id string) (string, *dbus.Error) {
	st, err := o.store.RemoveItem(id)
	return o.reply("RemoveItem", st, err)
}

// UpdateItem replaces an item's text.
// D-Bus method: UpdateItem(ss) -> s
func (o *controlObject) UpdateItem(id, text string) (string, *dbus.Error) {
	st, err := o.store.UpdateItem(id, text)
	return o.reply("UpdateItem", st, err)
}

// SetInterval sets the interval in seconds.
// D-Bus method: SetInterval(x) -> s
func (o *controlObject) SetInterval(seconds int64) (string, *dbus.Error) {
	st, err := o.store.SetInterval(seconds)
	return o.reply("SetInterval", st, err)
}

// TogglePause flips the paused flag.
// D-Bus method: TogglePause() -> s
func (o *controlObject) TogglePause() (string, *dbus.Error) {
	st, err := o.store.TogglePause()
	return o.reply("TogglePause", st, err)
}

func stateOut() introspect.Arg {
	return introspect.Arg{Name: "state", Type: "s", Direction: "out"}
}

// controlMethods returns the D-Bus method introspection data.
func controlMethods() []introspect.Method {
	return []introspect.Method{
		{Name: "GetState", Args: []introspect.Arg{stateOut()}},
		{Name: "AddItem", Args: []introspect.Arg{
			{Name: "text", Type: "s", Direction: "in"},
			stateOut(),
		}},
		{Name: "RemoveItem", Args: []introspect.Arg{
			{Name: "id", Type: "s", Direction: "in"},
			stateOut(),
		}},
		{Name: "UpdateItem", Args: []introspect.Arg{
			{Name: "id", Type: "s", Direction: "in"},
			{Name: "text", Type: "s", Direction: "in"},
			stateOut(),
		}},
		{Name: "SetInterval", Args: []introspect.Arg{
			{Name: "seconds", Type: "x", Direction: "in"},
			stateOut(),
		}},
		{Name: "TogglePause", Args: []introspect.Arg{stateOut()}},
	}
}

// controlSignals returns the D-Bus signal introspection data.
func controlSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "StateChanged",
			Args: []introspect.Arg{
				{Name: "change", Type: "s"},
				{Name: "source", Type: "s"},
			},
		},
	}
}
