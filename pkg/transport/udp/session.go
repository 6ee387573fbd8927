package udp

import (
	"net"

	kcp "github.com/xtaci/kcp-go/v5"
)

// Session is a KCP session used as a net.Conn. Dialed sessions own their
// packet conn and close it with the session.
type Session struct {
	*kcp.UDPSession
	pc net.PacketConn
}

// Close closes the session and, for dialed sessions, its packet conn.
func (s *Session) Close() error {
	err := s.UDPSession.Close()
	if s.pc != nil {
		_ = s.pc.Close()
	}
	return err
}

// Conv returns the KCP conversation id shared by both ends of the session.
func (s *Session) Conv() uint32 {
	return s.GetConv()
}
