// SPDX-License-Identifier: MPL-2.0

//go:build windows

package hostrun

import "os"

func interrupt(p *os.Process) error {
	return p.Kill()
}
