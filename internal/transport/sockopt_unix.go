//go:build unix

// File: internal/transport/sockopt_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrControl sets SO_REUSEADDR so a restarted server can rebind a port
// whose previous connections are still in TIME_WAIT.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
