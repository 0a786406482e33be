//go:build windows

// File: internal/transport/sockopt_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// reuseAddrControl leaves SO_REUSEADDR alone: on Windows it lets another process
// bind the same port. Only TCP_NODELAY is applied.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_TCP, windows.TCP_NODELAY, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
