// Package format renders addresses for dialing and display.
package format

import (
	"net"
	"strconv"
)

// Addr joins host and port into a dialable address, bracketing IPv6 hosts.
func Addr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// URL renders an address as scheme://host:port.
func URL(scheme, host string, port int) string {
	return scheme + "://" + Addr(host, port)
}
