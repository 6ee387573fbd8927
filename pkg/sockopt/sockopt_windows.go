//go:build windows

package sockopt

import "golang.org/x/sys/windows"

const supported = true

const (
	levelSocket = windows.SOL_SOCKET
	levelTCP    = windows.IPPROTO_TCP

	optNoDelay   = windows.TCP_NODELAY
	optKeepAlive = windows.SO_KEEPALIVE
	optRcvBuf    = windows.SO_RCVBUF
	optSndBuf    = windows.SO_SNDBUF
)

func setInt(fd uintptr, level, opt, value int) error {
	return windows.SetsockoptInt(windows.Handle(fd), level, opt, value)
}

func getInt(fd uintptr, level, opt int) (int, error) {
	return windows.GetsockoptInt(windows.Handle(fd), level, opt)
}
