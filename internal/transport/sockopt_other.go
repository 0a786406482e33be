//go:build !unix && !windows

// File: internal/transport/sockopt_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "syscall"

func reuseAddrControl(_, _ string, _ syscall.RawConn) error { return nil }
