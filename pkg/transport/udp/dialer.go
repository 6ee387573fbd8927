// Package udp provides the UDP transport: reliable, ordered byte streams over
// UDP using KCP sessions from github.com/xtaci/kcp-go/v5. Erased sockets of
// this transport carry the KCP conversation id as their native handle.
package udp

import (
	"context"
	"fmt"
	"net"

	"dominicbreuker/anysock/pkg/config"

	kcp "github.com/xtaci/kcp-go/v5"
)

// Dialer implements the transport.Dialer interface for KCP over UDP.
type Dialer struct {
	remoteAddr   *net.UDPAddr
	packetConnFn config.PacketListenerFunc
}

// NewDialer creates a new UDP dialer for the specified address.
// The deps parameter is optional and can be nil to use default implementations.
func NewDialer(addr string, deps *config.Dependencies) (*Dialer, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err)
	}

	return &Dialer{
		remoteAddr:   udpAddr,
		packetConnFn: config.GetPacketListenerFunc(deps),
	}, nil
}

// Dial opens a KCP session to the configured address. KCP has no handshake,
// so Dial succeeds without the peer being reachable; the first read or
// write is what fails.
func (d *Dialer) Dial(ctx context.Context) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pc, err := d.packetConnFn("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("listen(udp, :0): %w", err)
	}

	// No block cipher and no FEC: the optional TLS layer above does both jobs.
	sess, err := kcp.NewConn(d.remoteAddr.String(), nil, 0, 0, pc)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("kcp.NewConn(%s): %w", d.remoteAddr.String(), err)
	}
	tune(sess)

	return &Session{UDPSession: sess, pc: pc}, nil
}

// tune switches a session to low latency stream mode.
func tune(sess *kcp.UDPSession) {
	// nodelay on, 10ms update interval, fast resend after 2 ACK skips,
	// congestion control off
	sess.SetNoDelay(1, 10, 2, 1)
	sess.SetStreamMode(true)
	sess.SetWindowSize(1024, 1024)
}
