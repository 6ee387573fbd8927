package shared

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"dominicbreuker/anysock/pkg/config"
)

var errExiting = errors.New("exiting")

var transportRe = regexp.MustCompile(`^(tcp|ws|wss|udp)://(\[[0-9a-fA-F:.]+\]|[^:\[\]]*):(\d+)$`)

// ParseTransport parses a transport string in the format "protocol://host:port"
// where protocol is one of tcp, ws, wss, or udp. IPv6 hosts go in brackets.
// The host can be empty or "*" to bind to all interfaces.
func ParseTransport(s string) (proto config.Protocol, host string, port int, err error) {
	matches := transportRe.FindStringSubmatch(s)
	if len(matches) != 4 {
		return 0, "", 0, parsingError(s)
	}

	switch matches[1] {
	case "tcp":
		proto = config.ProtoTCP
	case "ws":
		proto = config.ProtoWS
	case "wss":
		proto = config.ProtoWSS
	case "udp":
		proto = config.ProtoUDP
	}

	host = strings.TrimSuffix(strings.TrimPrefix(matches[2], "["), "]")
	if host == "*" { // also counts as all interfaces
		host = ""
	}

	port, err = strconv.Atoi(matches[3])
	if err != nil || port < 1 || port > 65535 {
		return 0, "", 0, parsingError(s)
	}

	return proto, host, port, nil
}

// ParseArgs parses the single transport argument of cmd. requireHost rejects
// transports without a host, which only make sense when listening.
func ParseArgs(args []string, requireHost bool) (config.Protocol, string, int, error) {
	if len(args) != 1 {
		return 0, "", 0, fmt.Errorf("must provide exactly one argument, got %d (%s)", len(args), strings.Join(args, ", "))
	}

	proto, host, port, err := ParseTransport(args[0])
	if err != nil {
		return 0, "", 0, fmt.Errorf("parsing transport: %w", err)
	}
	if requireHost && host == "" {
		return 0, "", 0, fmt.Errorf("parsing transport: %s: specify a host", args[0])
	}

	return proto, host, port, nil
}

func parsingError(s string) error {
	return fmt.Errorf("parsing %s: format should be 'protocol://host:port', where protocol = tcp|ws|wss|udp", s)
}
