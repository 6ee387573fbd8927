package log

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

// loggedConn wraps a net.Conn and copies all traffic read or written to a file.
type loggedConn struct {
	conn    net.Conn
	logFile *os.File

	mu sync.Mutex // serializes appends from concurrent readers and writers
}

func (lc *loggedConn) Read(b []byte) (int, error) {
	n, err := lc.conn.Read(b)
	if n > 0 {
		if lerr := lc.record(b[:n]); lerr != nil {
			return n, fmt.Errorf("logging read: %w", lerr)
		}
	}
	return n, err
}

func (lc *loggedConn) Write(b []byte) (int, error) {
	n, err := lc.conn.Write(b)
	if n > 0 {
		if lerr := lc.record(b[:n]); lerr != nil {
			return n, fmt.Errorf("logging write: %w", lerr)
		}
	}
	return n, err
}

func (lc *loggedConn) record(b []byte) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	_, err := lc.logFile.Write(b)
	return err
}

// Close closes the connection and then the log file.
func (lc *loggedConn) Close() error {
	err := lc.conn.Close()
	lc.mu.Lock()
	_ = lc.logFile.Close()
	lc.mu.Unlock()
	return err
}

// NetConn returns the wrapped connection.
func (lc *loggedConn) NetConn() net.Conn {
	return lc.conn
}

func (lc *loggedConn) LocalAddr() net.Addr {
	return lc.conn.LocalAddr()
}

func (lc *loggedConn) RemoteAddr() net.Addr {
	return lc.conn.RemoteAddr()
}

func (lc *loggedConn) SetDeadline(t time.Time) error {
	return lc.conn.SetDeadline(t)
}

func (lc *loggedConn) SetReadDeadline(t time.Time) error {
	return lc.conn.SetReadDeadline(t)
}

func (lc *loggedConn) SetWriteDeadline(t time.Time) error {
	return lc.conn.SetWriteDeadline(t)
}

// NewLoggedConn wraps a network connection to log all data read from and written to it.
// The log file is created or appended to at the specified path.
func NewLoggedConn(conn net.Conn, logFilePath string) (net.Conn, error) {
	logFile, err := os.OpenFile(logFilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile(%s): %w", logFilePath, err)
	}

	return &loggedConn{conn: conn, logFile: logFile}, nil
}
