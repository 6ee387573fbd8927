package net

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"time"

	"dominicbreuker/anysock/pkg/config"
	"dominicbreuker/anysock/pkg/crypto"
	"dominicbreuker/anysock/pkg/format"
	"dominicbreuker/anysock/pkg/log"
	"dominicbreuker/anysock/pkg/transport"
	"dominicbreuker/anysock/pkg/transport/mux"
	"dominicbreuker/anysock/pkg/transport/tcp"
	"dominicbreuker/anysock/pkg/transport/udp"
	"dominicbreuker/anysock/pkg/transport/ws"
)

// dialDependencies lets tests replace the transport dialers.
type dialDependencies struct {
	newTCPDialer func(string, *config.Dependencies) (transport.Dialer, error)
	newWSDialer  func(context.Context, string, config.Protocol, *config.Dependencies) transport.Dialer
	newUDPDialer func(string, *config.Dependencies) (transport.Dialer, error)
}

func realNewTCPDialer(addr string, deps *config.Dependencies) (transport.Dialer, error) {
	return tcp.NewDialer(addr, deps)
}

func realNewWSDialer(ctx context.Context, addr string, proto config.Protocol, deps *config.Dependencies) transport.Dialer {
	return ws.NewDialer(ctx, addr, proto, deps)
}

func realNewUDPDialer(addr string, deps *config.Dependencies) (transport.Dialer, error) {
	return udp.NewDialer(addr, deps)
}

func createDialer(ctx context.Context, cfg *config.Shared, deps *dialDependencies) (transport.Dialer, error) {
	addr := format.Addr(cfg.Host, cfg.Port)

	switch cfg.Protocol {
	case config.ProtoWS, config.ProtoWSS:
		return deps.newWSDialer(ctx, addr, cfg.Protocol, cfg.Deps), nil

	case config.ProtoUDP:
		dialer, err := deps.newUDPDialer(addr, cfg.Deps)
		if err != nil {
			cfg.Logger.VerboseMsg("Failed to create UDP dialer: %v", err)
			return nil, fmt.Errorf("create UDP dialer: %w", err)
		}
		return dialer, nil

	default:
		dialer, err := deps.newTCPDialer(addr, cfg.Deps)
		if err != nil {
			cfg.Logger.VerboseMsg("Failed to create TCP dialer: %v", err)
			return nil, fmt.Errorf("create TCP dialer: %w", err)
		}
		return dialer, nil
	}
}

// establishConnection dials, bounding the attempt by cfg.Timeout.
func establishConnection(ctx context.Context, dialer transport.Dialer, cfg *config.Shared) (net.Conn, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	conn, err := dialer.Dial(ctx)
	if err != nil {
		cfg.Logger.VerboseMsg("Connection failed: %v", err)
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	cfg.Logger.VerboseMsg("Connection established")
	return conn, nil
}

func upgradeTLS(conn net.Conn, cfg *config.Shared) (net.Conn, error) {
	tlsConfig, err := buildTLSConfig(cfg.GetKey(), cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("building TLS config: %w", err)
	}

	tlsConn := tls.Client(conn, tlsConfig)
	if err := handshake(tlsConn, cfg.Timeout, cfg.Logger); err != nil {
		_ = tlsConn.Close()
		return nil, fmt.Errorf("TLS handshake: %w", err)
	}

	return tlsConn, nil
}

func buildTLSConfig(key string, logger *log.Logger) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: true, // custom verification below
	}

	if key != "" {
		logger.VerboseMsg("Generating TLS client certificates for mutual authentication")
		caCert, cert, err := crypto.GenerateCertificates(key)
		if err != nil {
			return nil, fmt.Errorf("generate certificates: %w", err)
		}

		cfg.Certificates = []tls.Certificate{cert}
		cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			return crypto.VerifyPeer(caCert, rawCerts)
		}
	}

	return cfg, nil
}

// handshake runs the TLS handshake under timeout and clears the deadline
// afterwards, so it cannot kill the healthy connection later.
func handshake(tlsConn *tls.Conn, timeout time.Duration, logger *log.Logger) error {
	if timeout > 0 {
		_ = tlsConn.SetDeadline(time.Now().Add(timeout))
	}

	err := tlsConn.Handshake()

	if timeout > 0 {
		_ = tlsConn.SetDeadline(time.Time{})
	}

	if err != nil {
		logger.VerboseMsg("TLS handshake failed: %v", err)
		return err
	}

	logger.VerboseMsg("TLS handshake completed")
	return nil
}

func logTraffic(conn net.Conn, cfg *config.Shared) (net.Conn, error) {
	if cfg.LogFile == "" {
		return conn, nil
	}

	logged, err := log.NewLoggedConn(conn, cfg.LogFile)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("log.NewLoggedConn(%s): %w", cfg.LogFile, err)
	}
	cfg.Logger.VerboseMsg("Logging traffic to %s", cfg.LogFile)
	return logged, nil
}

func openStream(ctx context.Context, conn net.Conn, cfg *config.Shared) (net.Conn, error) {
	return mux.Client(ctx, conn, cfg.Timeout)
}
