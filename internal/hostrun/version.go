// SPDX-License-Identifier: MPL-2.0

package hostrun

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/addonkit/addonkit/pkg/platform"
)

// ErrVersionUnknown is returned when the host does not report a version.
var ErrVersionUnknown = errors.New("host version not detected")

// Version runs `<exe> --version` and parses the first "Blender X.Y[.Z]"
// line of its output.
func (h *Host) Version(ctx context.Context) (*semver.Version, error) {
	out, err := h.command(ctx, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to query host version: %w", err)
	}
	return ParseVersion(string(out))
}

// ParseVersion extracts the version from host --version output.
func ParseVersion(output string) (*semver.Version, error) {
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		rest, ok := strings.CutPrefix(strings.TrimSpace(sc.Text()), "Blender ")
		if !ok {
			continue
		}
		field, _, _ := strings.Cut(strings.TrimSpace(rest), " ")
		v, err := semver.NewVersion(field)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrVersionUnknown, field, err)
		}
		return v, nil
	}
	return nil, ErrVersionUnknown
}

// AddonPath returns the directory the host loads addons from: next to the
// executable on Windows and Linux (preferring scripts/addons_core), and in
// the user's Application Support folder on macOS.
func (h *Host) AddonPath(ctx context.Context) (string, error) {
	v, err := h.Version(ctx)
	if err != nil {
		return "", err
	}
	home, err := os.UserHomeDir()
	if err != nil && runtime.GOOS == platform.Darwin {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return DefaultAddonPath(runtime.GOOS, h.ExePath, home, v), nil
}

// DefaultAddonPath derives the addon directory for the host version v.
func DefaultAddonPath(goos, exe, home string, v *semver.Version) string {
	series := fmt.Sprintf("%d.%d", v.Major(), v.Minor())
	if goos == platform.Darwin {
		return filepath.Join(home, "Library", "Application Support", "Blender", series, "scripts", "addons")
	}
	core := filepath.Join(filepath.Dir(exe), series, "scripts", "addons_core")
	if info, err := os.Stat(core); err == nil && info.IsDir() {
		return core
	}
	return filepath.Join(filepath.Dir(exe), series, "scripts", "addons")
}
