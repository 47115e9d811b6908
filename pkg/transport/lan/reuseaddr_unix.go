//go:build !windows

package lan

import (
	"net"

	"golang.org/x/sys/unix"
)

// setReuseAddr sets SO_REUSEADDR on conn so a node restarting on the same
// LAN port doesn't have to wait out the previous socket's TIME_WAIT.
func setReuseAddr(conn *net.UDPConn) error {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var sockErr error
	if err := rawConn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return sockErr
}
