// Package shared provides the CLI flags and helpers used by both the
// connect and listen commands.
package shared

import (
	"strings"
	"time"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/sockopt"

	"github.com/urfave/cli/v3"
)

const categoryCommon = "common"
const categorySocket = "socket"

// SSLFlag is the name of the flag to enable TLS encryption.
const SSLFlag = "ssl"

// KeyFlag is the name of the flag to specify the mTLS authentication key.
const KeyFlag = "key"

// VerboseFlag is the name of the flag to enable verbose logging.
const VerboseFlag = "verbose"

// TimeoutFlag is the name of the flag to specify the dial and handshake
// timeout in milliseconds.
const TimeoutFlag = "timeout"

// LogFileFlag is the name of the flag to specify a traffic log file.
const LogFileFlag = "log"

// MuxFlag is the name of the flag to carry data in a yamux stream.
const MuxFlag = "mux"

// NoDelayFlag is the name of the flag to set TCP_NODELAY.
const NoDelayFlag = "nodelay"

// KeepAliveFlag is the name of the flag to set SO_KEEPALIVE.
const KeepAliveFlag = "keepalive"

// ReadBufferFlag is the name of the flag to set SO_RCVBUF.
const ReadBufferFlag = "rcvbuf"

// WriteBufferFlag is the name of the flag to set SO_SNDBUF.
const WriteBufferFlag = "sndbuf"

// GetBaseDescription returns the base description text for transport
// specifications used in CLI commands.
func GetBaseDescription() string {
	return strings.Join([]string{
		"Specify transport like this: tcp://127.0.0.1:123 (supports tcp|ws|wss|udp)",
		"You can omit the host when listening to bind to all interfaces.",
	}, "\n")
}

// GetArgsUsage returns the arguments usage string for CLI commands.
func GetArgsUsage() string {
	return "transport"
}

// GetFlags returns the flags both commands accept.
func GetFlags() []cli.Flag {
	return append(GetCommonFlags(), GetSocketFlags()...)
}

// GetCommonFlags returns the connection flags.
func GetCommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:     SSLFlag,
			Aliases:  []string{"s"},
			Usage:    "Use TLS encryption",
			Category: categoryCommon,
		},
		&cli.StringFlag{
			Name:     KeyFlag,
			Aliases:  []string{"k"},
			Usage:    "Key for mTLS authentication, leave empty to disable authentication",
			Category: categoryCommon,
		},
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Verbose logging",
			Category: categoryCommon,
		},
		&cli.IntFlag{
			Name:     TimeoutFlag,
			Aliases:  []string{"t"},
			Usage:    "Dial and TLS handshake timeout in milliseconds, 0 to wait forever",
			Category: categoryCommon,
			Value:    10000,
		},
		&cli.StringFlag{
			Name:     LogFileFlag,
			Aliases:  []string{"l"},
			Usage:    "Append all traffic to this file",
			Category: categoryCommon,
		},
		&cli.BoolFlag{
			Name:     MuxFlag,
			Aliases:  []string{"m"},
			Usage:    "Carry the data in a yamux stream",
			Category: categoryCommon,
		},
	}
}

// GetSocketFlags returns the flags applied to the lowest transport layer.
func GetSocketFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:     NoDelayFlag,
			Usage:    "Disable Nagle's algorithm (TCP_NODELAY)",
			Category: categorySocket,
			Value:    true,
		},
		&cli.BoolFlag{
			Name:     KeepAliveFlag,
			Usage:    "Send TCP keep-alive probes (SO_KEEPALIVE)",
			Category: categorySocket,
			Value:    true,
		},
		&cli.IntFlag{
			Name:     ReadBufferFlag,
			Usage:    "Receive buffer size in bytes (SO_RCVBUF), 0 for the system default",
			Category: categorySocket,
		},
		&cli.IntFlag{
			Name:     WriteBufferFlag,
			Usage:    "Send buffer size in bytes (SO_SNDBUF), 0 for the system default",
			Category: categorySocket,
		},
	}
}

// NewConfig builds the shared configuration from the flags of cmd.
func NewConfig(cmd *cli.Command, proto config.Protocol, host string, port int, deps *config.Dependencies) *config.Shared {
	verbose := cmd.Bool(VerboseFlag)

	return &config.Shared{
		Protocol: proto,
		Host:     host,
		Port:     port,
		SSL:      cmd.Bool(SSLFlag),
		Key:      cmd.String(KeyFlag),
		Verbose:  verbose,
		Timeout:  time.Duration(cmd.Int(TimeoutFlag)) * time.Millisecond,
		Mux:      cmd.Bool(MuxFlag),
		LogFile:  cmd.String(LogFileFlag),
		Sockopt: sockopt.Options{
			NoDelay:     cmd.Bool(NoDelayFlag),
			KeepAlive:   cmd.Bool(KeepAliveFlag),
			ReadBuffer:  int(cmd.Int(ReadBufferFlag)),
			WriteBuffer: int(cmd.Int(WriteBufferFlag)),
		},
		Logger: log.NewLogger(verbose),
		Deps:   deps,
	}
}

// Validate prints every problem with cfg and returns an error if there was
// at least one.
func Validate(cfg *config.Shared) error {
	errs := cfg.Validate()
	if len(errs) == 0 {
		return nil
	}

	log.ErrorMsg("Argument validation errors:\n")
	for _, err := range errs {
		log.ErrorMsg(" - %s\n", err)
	}
	return errExiting
}
