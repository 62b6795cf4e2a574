package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmylchreest/soundpad/internal/model"
)

// Path is the HTTP path the event feed is served on.
const Path = "/events"

// envelope is the wire format for feed messages.
type envelope struct {
	Type string     `json:"type"`
	ID   string     `json:"id,omitempty"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// Encode serializes an event into a feed frame.
func Encode(e model.Event) ([]byte, error) {
	ts := e.At.UTC()
	return json.Marshal(envelope{
		Type: string(e.Type),
		ID:   e.ID,
		Ts:   &ts,
		Data: e,
	})
}

// Server serves the event feed over WebSocket.
type Server struct {
	hub      *Hub
	logger   *slog.Logger
	snapshot func() any
	upgrader websocket.Upgrader
}

// NewServer creates a feed server on hub. snapshot, if set, supplies the
// "state_init" payload sent to each new client.
func NewServer(hub *Hub, snapshot func() any, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		hub:      hub,
		logger:   logger,
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Hub returns the server's hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns an HTTP handler serving the feed at Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, s)
	return mux
}

// ServeHTTP upgrades the connection and registers the client.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("feed upgrade failed", "error", err)
		return
	}

	c := newClient(s.hub, conn, r.RemoteAddr)

	// Queue the snapshot before registering so it is the first frame.
	if s.snapshot != nil {
		now := time.Now().UTC()
		msg, err := json.Marshal(envelope{Type: "state_init", Ts: &now, Data: s.snapshot()})
		if err == nil {
			c.send <- msg
		}
	}

	if !s.hub.add(c) {
		_ = conn.Close()
		return
	}

	// The pumps outlive the request; the hub and socket errors end them.
	go c.writePump()
	go c.readPump()
}

// Forward broadcasts every event from events until ctx is done or events is closed.
func (s *Server) Forward(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			msg, err := Encode(e)
			if err != nil {
				s.logger.Warn("feed marshal failed", "type", e.Type, "error", err)
				continue
			}
			s.hub.Broadcast(msg)
		}
	}
}

// ListenAndServe runs the hub and serves the feed on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("feed listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hub and serves the feed on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("event feed listening", "addr", ln.Addr().String(), "path", Path)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("feed serve: %w", err)
	}
	return nil
}
