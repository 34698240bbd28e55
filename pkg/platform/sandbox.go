// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

const (
	// SandboxNone means addonkit runs directly on the host.
	SandboxNone SandboxType = ""
	// SandboxFlatpak means addonkit runs inside a Flatpak, for example from a
	// Flatpak-packaged editor's terminal.
	SandboxFlatpak SandboxType = "flatpak"
	// SandboxSnap means addonkit runs inside a Snap.
	SandboxSnap SandboxType = "snap"

	flatpakInfoFile = "/.flatpak-info"
)

// SandboxType identifies the application sandbox addonkit runs in.
type SandboxType string

// detectOnce caches detection for the process lifetime.
// detectSandboxFrom must not panic: sync.OnceValue re-panics on every call.
var detectOnce = sync.OnceValue(func() SandboxType {
	return detectSandboxFrom(os.Getenv, statFile)
})

// DetectSandbox returns the sandbox the current process runs in.
func DetectSandbox() SandboxType {
	return detectOnce()
}

// HostCommand returns the program and arguments that run name with args on
// the host system from inside the sandbox st. Flatpak escapes through
// flatpak-spawn --host. Snap confinement has no such escape, so name runs
// as given.
func HostCommand(st SandboxType, name string, args ...string) (string, []string) {
	if st == SandboxFlatpak {
		return "flatpak-spawn", append([]string{"--host", name}, args...)
	}
	return name, args
}

// detectSandboxFrom detects the sandbox with injected lookups. Flatpak takes
// precedence over Snap.
func detectSandboxFrom(getenv func(string) string, stat func(string) error) SandboxType {
	if stat(flatpakInfoFile) == nil {
		return SandboxFlatpak
	}
	if getenv("SNAP_NAME") != "" {
		return SandboxSnap
	}
	return SandboxNone
}

func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
