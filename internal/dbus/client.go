package dbus

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/azkar/internal/model"
	"github.com/jmylchreest/azkar/internal/store"
)

// Client calls a running azkard over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject

	mu      sync.Mutex
	signals chan *dbus.Signal
	changes chan store.ChangeEvent
}

// Dial connects to the session bus and checks that azkard owns BusName.
// It returns ErrDaemonNotRunning when nobody does.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var hasOwner bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&hasOwner); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to query bus name owner: %w", err)
	}
	if !hasOwner {
		conn.Close()
		return nil, ErrDaemonNotRunning
	}

	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, Path),
	}, nil
}

func (c *Client) call(method string, args ...any) (model.SchedulerState, error) {
	var out string
	if err := c.obj.Call(Interface+"."+method, 0, args...).Store(&out); err != nil {
		return model.SchedulerState{}, fmt.Errorf("%s: %w", method, err)
	}
	return decodeState(out)
}

// Get returns the daemon's current state.
func (c *Client) Get() (model.SchedulerState, error) {
	return c.call("GetState")
}

// AddItem appends an item.
func (c *Client) AddItem(text string) (model.SchedulerState, error) {
	return c.call("AddItem", text)
}

// RemoveItem removes an item by id.
func (c *Client) RemoveItem(id string) (model.SchedulerState, error) {
	return c.call("RemoveItem", id)
}

// UpdateItem replaces an item's text.
func (c *Client) UpdateItem(id, text string) (model.SchedulerState, error) {
	return c.call("UpdateItem", id, text)
}

// SetInterval sets the interval in seconds.
func (c *Client) SetInterval(seconds int64) (model.SchedulerState, error) {
	return c.call("SetInterval", seconds)
}

// TogglePause flips the paused flag.
func (c *Client) TogglePause() (model.SchedulerState, error) {
	return c.call("TogglePause")
}

// Changes subscribes to StateChanged and returns a channel of change events.
// Repeated calls return the same channel. It is closed by Close.
func (c *Client) Changes() (<-chan store.ChangeEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.changes != nil {
		return c.changes, nil
	}

	if err := c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember("StateChanged"),
	); err != nil {
		return nil, fmt.Errorf("failed to add signal match: %w", err)
	}

	c.signals = make(chan *dbus.Signal, 10)
	c.changes = make(chan store.ChangeEvent, 10)
	c.conn.Signal(c.signals)

	go func(in <-chan *dbus.Signal, out chan<- store.ChangeEvent) {
		defer close(out)
		for sig := range in {
			if ev, ok := signalToEvent(sig); ok {
				select {
				case out <- ev:
				default:
				}
			}
		}
	}(c.signals, c.changes)

	return c.changes, nil
}

// Close releases the bus connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.signals != nil {
		c.conn.RemoveSignal(c.signals)
		close(c.signals)
		c.signals = nil
	}
	return c.conn.Close()
}
