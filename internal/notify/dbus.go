// Package notify raises desktop notifications for soundpad failures.
package notify

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName      = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"
)

// Notification holds the parameters of an org.freedesktop.Notifications.Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Urgency returns the urgency hint, or 1 (normal) when unset.
func (n *Notification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return b
		}
	}
	return 1
}

// Sender delivers notifications to a notification server.
type Sender interface {
	Send(n *Notification) (uint32, error)
}

// DBusSender sends notifications over the session bus.
// The connection is opened on first use.
type DBusSender struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

// NewDBusSender creates a sender. No connection is made until Send.
func NewDBusSender() *DBusSender {
	return &DBusSender{}
}

// Send calls Notify on the notification server and returns the notification id.
func (s *DBusSender) Send(n *Notification) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return 0, fmt.Errorf("failed to connect to session bus: %w", err)
		}
		s.conn = conn
	}

	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	obj := s.conn.Object(notificationsName, dbus.ObjectPath(notificationsPath))
	call := obj.Call(notificationsInterface+".Notify", 0,
		n.AppName,
		n.ReplacesID,
		n.AppIcon,
		n.Summary,
		n.Body,
		actions,
		hints,
		n.ExpireTimeout,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("notify call failed: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}
	return id, nil
}

// Close closes the bus connection if one was opened.
func (s *DBusSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
