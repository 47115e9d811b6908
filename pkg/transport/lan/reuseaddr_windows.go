//go:build windows

package lan

import "net"

// setReuseAddr is a no-op on Windows: SO_REUSEADDR has unsafe multicast
// semantics there (it allows silently stealing another process's bound
// port), so we simply accept the longer TIME_WAIT on restart instead.
func setReuseAddr(conn *net.UDPConn) error {
	return nil
}
