// Package config holds the settings shared by dialing and listening, and
// the injectable dependencies used in tests.
package config

import (
	"fmt"
	"time"

	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/sockopt"
)

// Protocol selects the transport.
type Protocol int

const (
	ProtoTCP Protocol = 1
	ProtoWS  Protocol = 2
	ProtoWSS Protocol = 3
	ProtoUDP Protocol = 4
)

// String returns the URL scheme of the protocol, or "" if unknown.
func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoWS:
		return "ws"
	case ProtoWSS:
		return "wss"
	case ProtoUDP:
		return "udp"
	default:
		return ""
	}
}

// Shared configures both sides of a connection.
type Shared struct {
	Protocol Protocol
	Host     string
	Port     int
	SSL      bool
	Key      string
	Verbose  bool
	Timeout  time.Duration // TLS handshake and dial timeout, 0 disables
	Mux      bool          // carry the data in a yamux stream
	LogFile  string        // copy traffic to this file
	Sockopt  sockopt.Options

	Logger *log.Logger
	Deps   *Dependencies
}

var KeySalt = "bn6ySqbg2BgmHaljx3mhg94DOybkBF3G" // overwrite with custom value during release build

// Validate returns every problem with the configuration.
func (c *Shared) Validate() []error {
	var errors []error

	if c.Protocol.String() == "" {
		errors = append(errors, fmt.Errorf("unknown protocol %d", c.Protocol))
	}

	if !c.SSL && c.Key != "" {
		errors = append(errors, fmt.Errorf("You must use '--ssl' to use '--key'"))
	}

	if err := validatePort(c.Port); err != nil {
		errors = append(errors, fmt.Errorf("port: %s", err))
	}

	if c.Timeout < 0 {
		errors = append(errors, fmt.Errorf("'--timeout' must not be negative"))
	}

	if c.Sockopt.ReadBuffer < 0 || c.Sockopt.WriteBuffer < 0 {
		errors = append(errors, fmt.Errorf("socket buffer sizes must not be negative"))
	}

	return errors
}

// GetKey returns the salted mTLS key, or "" if no key is set.
func (c *Shared) GetKey() string {
	if c.Key == "" {
		return ""
	}

	return KeySalt + c.Key
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%d not in [1, 65535]", port)
	}

	return nil
}
