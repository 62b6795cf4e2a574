package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/soundpad/internal/model"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*Notification
	err  error
}

func (s *fakeSender) Send(n *Notification) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.sent = append(s.sent, n)
	return uint32(len(s.sent)), nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestNotifier() (*Notifier, *fakeSender, *fakeClock) {
	sender := &fakeSender{}
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	n := NewNotifier(sender, nil)
	n.now = clock.now
	return n, sender, clock
}

func TestNotifier_RateLimitsByKey(t *testing.T) {
	n, sender, clock := newTestNotifier()

	assert.True(t, n.Notify("k", "s", "b", LevelInfo))
	assert.False(t, n.Notify("k", "s", "b", LevelInfo))
	assert.True(t, n.Notify("other", "s", "b", LevelInfo))

	clock.advance(DefaultMinInterval)
	assert.True(t, n.Notify("k", "s", "b", LevelInfo))
	assert.Equal(t, 3, sender.count())
}

func TestNotifier_Disabled(t *testing.T) {
	n, sender, _ := newTestNotifier()
	n.SetEnabled(false)

	assert.False(t, n.Notify("k", "s", "b", LevelError))
	assert.Equal(t, 0, sender.count())
}

func TestNotifier_SendErrorIsSwallowed(t *testing.T) {
	n, sender, _ := newTestNotifier()
	sender.err = errors.New("no session bus")

	assert.False(t, n.Notify("k", "s", "b", LevelError))
}

func TestNotifier_LevelHints(t *testing.T) {
	tests := []struct {
		level   Level
		urgency byte
		icon    string
	}{
		{LevelInfo, 0, "dialog-information"},
		{LevelWarning, 1, "dialog-warning"},
		{LevelError, 2, "dialog-error"},
	}

	for _, tt := range tests {
		n, sender, _ := newTestNotifier()
		require.True(t, n.Notify("k", "s", "b", tt.level))
		sent := sender.sent[0]
		assert.Equal(t, tt.urgency, sent.Urgency())
		assert.Equal(t, tt.icon, sent.AppIcon)
		assert.Equal(t, "soundpad", sent.AppName)
	}
}

func TestNotifier_NotifyEvent(t *testing.T) {
	n, sender, _ := newTestNotifier()

	down := model.NewEvent(model.EventListenerDown)
	down.Port = 7878
	down.Reason = "address already in use"
	assert.True(t, n.NotifyEvent(down))
	assert.Contains(t, sender.sent[0].Body, "7878")

	failed := model.NewEvent(model.EventPlaybackFailed)
	failed.Label = "Airhorn"
	failed.Reason = "sound file not found"
	assert.True(t, n.NotifyEvent(failed))
	assert.Equal(t, "Could not play Airhorn", sender.sent[1].Summary)

	assert.False(t, n.NotifyEvent(model.NewEvent(model.EventPlaybackStarted)))
	assert.False(t, n.NotifyEvent(model.NewEvent(model.EventDevicesRefreshed)))

	reloaded := model.NewEvent(model.EventConfigReloaded)
	assert.True(t, n.NotifyEvent(reloaded))
	assert.Equal(t, 3, sender.count())
}

func TestNotifier_Forward(t *testing.T) {
	n, sender, _ := newTestNotifier()
	events := make(chan model.Event, 4)
	events <- model.NewEvent(model.EventListenerDown)
	events <- model.NewEvent(model.EventPlaybackStarted)
	close(events)

	done := make(chan struct{})
	go func() {
		n.Forward(context.Background(), events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Forward did not return after channel close")
	}
	assert.Equal(t, 1, sender.count())
}
