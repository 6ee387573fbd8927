//go:build unix

package sockopt

import "golang.org/x/sys/unix"

const supported = true

const (
	levelSocket = unix.SOL_SOCKET
	levelTCP    = unix.IPPROTO_TCP

	optNoDelay   = unix.TCP_NODELAY
	optKeepAlive = unix.SO_KEEPALIVE
	optRcvBuf    = unix.SO_RCVBUF
	optSndBuf    = unix.SO_SNDBUF
)

func setInt(fd uintptr, level, opt, value int) error {
	return unix.SetsockoptInt(int(fd), level, opt, value)
}

func getInt(fd uintptr, level, opt int) (int, error) {
	return unix.GetsockoptInt(int(fd), level, opt)
}
