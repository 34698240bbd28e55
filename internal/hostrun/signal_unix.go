// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package hostrun

import (
	"os"
	"syscall"
)

func interrupt(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
