package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// State is the lifecycle state of a Listener.
type State string

const (
	StateIdle      State = "idle"
	StateBound     State = "bound"
	StateListening State = "listening"
	StateStopped   State = "stopped"
	StateFaulted   State = "faulted"
)

// ListenFunc opens the datagram socket for a port.
type ListenFunc func(port uint16) (net.PacketConn, error)

func listenUDP(port uint16) (net.PacketConn, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: int(port)})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Listener receives trigger datagrams on one UDP port.
// A Listener is single-use: once stopped or faulted, create a new one.
type Listener struct {
	port   uint16
	logger *slog.Logger

	listen ListenFunc

	mu    sync.Mutex
	state State
	conn  net.PacketConn
}

// NewListener creates a listener for 0.0.0.0:port. Port 0 picks a free port.
func NewListener(port uint16, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		port:   port,
		logger: logger.With("component", "trigger-listener"),
		listen: listenUDP,
		state:  StateIdle,
	}
}

// SetListenFunc replaces the socket opener. It must be called before Bind.
func (l *Listener) SetListenFunc(fn ListenFunc) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listen = fn
}

// State returns the current lifecycle state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Addr returns the bound local address, or nil before Bind.
func (l *Listener) Addr() *net.UDPAddr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	addr, _ := l.conn.LocalAddr().(*net.UDPAddr)
	return addr
}

// Port returns the bound port, or the requested port before Bind.
func (l *Listener) Port() uint16 {
	if addr := l.Addr(); addr != nil {
		return uint16(addr.Port)
	}
	return l.port
}

// Bind opens the UDP socket. A failure moves the listener to StateFaulted.
func (l *Listener) Bind() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateIdle {
		return fmt.Errorf("%w: listener is %s", ErrBind, l.state)
	}

	conn, err := l.listen(l.port)
	if err != nil {
		l.state = StateFaulted
		return fmt.Errorf("%w: port %d: %w", ErrBind, l.port, err)
	}

	l.conn = conn
	l.state = StateBound
	l.logger.Debug("trigger socket bound", "addr", conn.LocalAddr().String())
	return nil
}

// Run receives datagrams and sends parsed trigger numbers to out until ctx is
// cancelled or the socket fails. A full out channel blocks the receive loop.
// Run binds first if Bind has not been called.
//
// Cancellation returns nil and frees the port. A receive error returns an
// error wrapping ErrSocketReceive.
func (l *Listener) Run(ctx context.Context, out chan<- uint64) error {
	if l.State() == StateIdle {
		if err := l.Bind(); err != nil {
			return err
		}
	}

	l.mu.Lock()
	if l.state != StateBound {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("%w: listener is %s", ErrNotBound, state)
	}
	conn := l.conn
	l.state = StateListening
	l.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	l.logger.Info("trigger listener started", "addr", conn.LocalAddr().String())

	buf := make([]byte, MaxDatagramSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.finish(StateStopped)
				l.logger.Info("trigger listener stopped")
				return nil
			}
			l.finish(StateFaulted)
			return fmt.Errorf("%w: %w", ErrSocketReceive, err)
		}

		id, err := ParseDatagram(buf[:n])
		if err != nil {
			l.logger.Debug("dropping datagram", "from", from, "error", err)
			continue
		}

		l.logger.Debug("trigger received", "from", from, "trigger", id)

		select {
		case out <- id:
		case <-ctx.Done():
			l.finish(StateStopped)
			l.logger.Info("trigger listener stopped")
			return nil
		}
	}
}

// Close stops a running listener or releases a bound socket.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return nil
	}
	if l.state == StateBound {
		l.state = StateStopped
	}
	return l.conn.Close()
}

func (l *Listener) finish(state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	_ = l.conn.Close()
}
