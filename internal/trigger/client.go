package trigger

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// Send delivers trigger id to a listener at host:port as a single datagram.
// Delivery is not confirmed.
func Send(ctx context.Context, host string, port uint16, id uint64) error {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Write(FormatDatagram(id)); err != nil {
		return fmt.Errorf("send trigger to %s: %w", addr, err)
	}
	return nil
}
