package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/soundpad/internal/model"
)

// Level indicates the severity of a notification.
type Level int

const (
	// LevelInfo is for informational messages (low urgency).
	LevelInfo Level = iota
	// LevelWarning is for warning messages (normal urgency).
	LevelWarning
	// LevelError is for error messages (critical urgency).
	LevelError
)

// DefaultMinInterval is the minimum time between notifications with the same key.
const DefaultMinInterval = 5 * time.Second

// Notifier sends soundpad notifications with per-key rate limiting.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	sender Sender
	now    func() time.Time

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration

	enabled bool
}

// NewNotifier creates a notifier that delivers through sender.
func NewNotifier(sender Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:         logger,
		sender:         sender,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    DefaultMinInterval,
		enabled:        true,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *Notifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless one with the same key was sent within
// the minimum interval. It reports whether a notification was sent.
// Delivery errors are logged and never returned.
func (n *Notifier) Notify(key, summary, body string, level Level) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled || n.sender == nil {
		return false
	}

	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.logger.Debug("notification rate-limited", "key", key, "summary", summary)
		return false
	}
	n.lastNotifyTime[key] = now

	notification := &Notification{
		AppName: "soundpad",
		AppIcon: levelIcon(level),
		Summary: summary,
		Body:    body,
		Hints: map[string]dbus.Variant{
			"urgency":       dbus.MakeVariant(levelUrgency(level)),
			"category":      dbus.MakeVariant("device"),
			"transient":     dbus.MakeVariant(true),
			"desktop-entry": dbus.MakeVariant("soundpad"),
		},
		ExpireTimeout: 5000,
	}

	if _, err := n.sender.Send(notification); err != nil {
		n.logger.Debug("notification not delivered", "key", key, "error", err)
		return false
	}
	n.logger.Debug("notification sent", "key", key, "summary", summary, "level", level)
	return true
}

// NotifyEvent turns failure and reload events into notifications.
// Other events are ignored.
func (n *Notifier) NotifyEvent(e model.Event) bool {
	switch e.Type {
	case model.EventListenerDown:
		return n.Notify(
			"listener-down",
			"Remote triggers unavailable",
			fmt.Sprintf("UDP port %d: %s", e.Port, e.Reason),
			LevelError,
		)
	case model.EventPlaybackFailed:
		label := e.Label
		if label == "" {
			label = "sound"
		}
		return n.Notify(
			"playback-failed:"+e.Label,
			"Could not play "+label,
			e.Reason,
			LevelWarning,
		)
	case model.EventConfigReloaded:
		if e.Reason != "" {
			return n.Notify("config-error", "Configuration error", e.Reason, LevelWarning)
		}
		return n.Notify("config-reload", "Configuration reloaded", "soundpad settings were reloaded.", LevelInfo)
	default:
		return false
	}
}

// Forward notifies for events read from events until ctx is done or events is closed.
func (n *Notifier) Forward(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			n.NotifyEvent(e)
		}
	}
}

func levelUrgency(level Level) byte {
	switch level {
	case LevelInfo:
		return 0
	case LevelError:
		return 2
	default:
		return 1
	}
}

func levelIcon(level Level) string {
	switch level {
	case LevelInfo:
		return "dialog-information"
	case LevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}
