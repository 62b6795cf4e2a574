package feed

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/soundpad/internal/model"
)

type wireMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Ts   time.Time       `json:"ts"`
	Data json.RawMessage `json:"data"`
}

func startServer(t *testing.T, snapshot func() any) (*Server, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := NewServer(NewHub(nil, HubConfig{}), snapshot, nil)
	go srv.Hub().Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + Path
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg wireMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestServer_SendsSnapshotThenEvents(t *testing.T) {
	srv, url := startServer(t, func() any {
		return map[string]any{"device": "speakers"}
	})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	init := readMessage(t, conn)
	assert.Equal(t, "state_init", init.Type)
	assert.JSONEq(t, `{"device":"speakers"}`, string(init.Data))

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	events := make(chan model.Event, 1)
	e := model.NewEvent(model.EventPlaybackStarted)
	e.Label = "Airhorn"
	events <- e
	close(events)
	srv.Forward(context.Background(), events)

	got := readMessage(t, conn)
	assert.Equal(t, "playback_started", got.Type)
	assert.Equal(t, e.ID, got.ID)

	var data model.Event
	require.NoError(t, json.Unmarshal(got.Data, &data))
	assert.Equal(t, "Airhorn", data.Label)
}

func TestServer_ClientDisconnectUnregisters(t *testing.T) {
	srv, url := startServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_DropsSlowClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, HubConfig{SendBuf: 1, BroadcastBuf: 8})
	go hub.Run(ctx)

	slow := &client{hub: hub, send: make(chan []byte, 1), remoteAddr: "slow", logger: hub.logger}
	fast := &client{hub: hub, send: make(chan []byte, 8), remoteAddr: "fast", logger: hub.logger}
	require.True(t, hub.add(slow))
	require.True(t, hub.add(fast))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.broadcast <- []byte(`{"type":"a"}`)
	hub.broadcast <- []byte(`{"type":"b"}`)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, fast.send, 2)

	// The slow client's queue is closed after its buffered message.
	<-slow.send
	_, ok := <-slow.send
	assert.False(t, ok)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, HubConfig{})
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := &client{hub: hub, send: make(chan []byte, 1), remoteAddr: "c", logger: hub.logger}
	require.True(t, hub.add(c))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	_, ok := <-c.send
	assert.False(t, ok)
	assert.False(t, hub.add(c))
}

func TestEncode(t *testing.T) {
	e := model.NewEvent(model.EventListenerDown)
	e.Port = 7878
	e.Reason = "bind failed"

	raw, err := Encode(e)
	require.NoError(t, err)

	var msg wireMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "listener_down", msg.Type)
	assert.Equal(t, e.ID, msg.ID)
	assert.True(t, msg.Ts.Equal(e.At.UTC()))
}
