package feed

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

// client is one WebSocket connection with its outbound queue.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	remoteAddr string
	logger     *slog.Logger

	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *client {
	return &client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, hub.sendBuf),
		remoteAddr: remoteAddr,
		logger:     hub.logger,
	}
}

// close closes the send queue, which makes writePump send a close frame and exit.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// closeStatus extracts the websocket close code and text when err is a close error.
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

func (c *client) logExit(pump string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Debug("feed "+pump+" exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
		return
	}
	c.logger.Debug("feed "+pump+" exiting", "remote_addr", c.remoteAddr, "error", err)
}

// writePump writes queued messages and keepalive pings until the queue is closed
// or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("writePump", err)
				c.hub.remove(c)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("writePump", err)
				c.hub.remove(c)
				return
			}
		}
	}
}

// readPump discards incoming messages to process control frames and detect disconnects.
func (c *client) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logExit("readPump", err)
			c.hub.remove(c)
			return
		}
	}
}
