package net

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"dominicbreuker/anysock/pkg/crypto"
	"dominicbreuker/anysock/pkg/log"
)

type tlsServerConfig struct {
	*tls.Config
}

func buildServerTLSConfig(key string, logger *log.Logger) (*tlsServerConfig, error) {
	logger.VerboseMsg("Generating TLS certificates for server")

	caCert, cert, err := crypto.GenerateCertificates(key)
	if err != nil {
		return nil, fmt.Errorf("generate certificates: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}

	if key != "" {
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = caCert
		logger.VerboseMsg("TLS mutual authentication enabled")
	}

	return &tlsServerConfig{cfg}, nil
}

func (c *tlsServerConfig) upgrade(conn net.Conn, timeout time.Duration, logger *log.Logger) (net.Conn, error) {
	tlsConn := tls.Server(conn, c.Config)
	if err := handshake(tlsConn, timeout, logger); err != nil {
		_ = tlsConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
