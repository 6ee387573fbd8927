// Package ws provides the WebSocket transport (ws and wss) on top of
// github.com/coder/websocket. Messages are binary and exposed as a byte
// stream through websocket.NetConn. The raw TCP connection beneath the
// WebSocket, and beneath the HTTPS layer for wss, stays reachable through
// NetConn so socket.Socket.LowestLayer can configure it.
package ws

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"

	"dominicbreuker/anysock/pkg/config"

	"github.com/coder/websocket"
)

const subprotocol = "bin"

// Dialer implements the transport.Dialer interface for WebSocket connections.
type Dialer struct {
	ctx      context.Context
	url      string
	dialerFn config.TCPDialerFunc
}

// NewDialer creates a WebSocket dialer for addr. proto selects ws or wss.
// Connections it dials are closed when ctx is cancelled.
func NewDialer(ctx context.Context, addr string, proto config.Protocol, deps *config.Dependencies) *Dialer {
	return &Dialer{
		ctx:      ctx,
		url:      fmt.Sprintf("%s://%s", proto.String(), addr),
		dialerFn: config.GetTCPDialerFunc(deps),
	}
}

// Dial performs the WebSocket handshake, which ctx bounds.
func (d *Dialer) Dial(ctx context.Context) (net.Conn, error) {
	var mu sync.Mutex
	var raw net.Conn

	httpTransport := &http.Transport{
		// For wss, skip verification; inner TLS (app layer) is authoritative.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			tcpAddr, err := net.ResolveTCPAddr(network, addr)
			if err != nil {
				return nil, fmt.Errorf("net.ResolveTCPAddr(%s, %s): %w", network, addr, err)
			}
			c, err := d.dialerFn(ctx, network, nil, tcpAddr)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			raw = c
			mu.Unlock()
			return c, nil
		},
	}

	c, _, err := websocket.Dial(ctx, d.url, &websocket.DialOptions{
		Subprotocols: []string{subprotocol},
		HTTPClient:   &http.Client{Transport: httpTransport},
	})
	if err != nil {
		return nil, fmt.Errorf("websocket.Dial(%s): %w", d.url, err)
	}

	mu.Lock()
	defer mu.Unlock()
	return newConn(d.ctx, c, raw), nil
}
