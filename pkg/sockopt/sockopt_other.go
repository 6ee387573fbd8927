//go:build !unix && !windows

package sockopt

const supported = false

const (
	levelSocket = 0
	levelTCP    = 0

	optNoDelay   = 0
	optKeepAlive = 0
	optRcvBuf    = 0
	optSndBuf    = 0
)

func setInt(fd uintptr, level, opt, value int) error {
	return ErrUnsupported
}

func getInt(fd uintptr, level, opt int) (int, error) {
	return 0, ErrUnsupported
}
