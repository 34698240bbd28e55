// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ManifestFile is the per-addon manifest read in extension mode.
const ManifestFile = "blender_manifest.toml"

// WheelsDir is the bundle subdirectory receiving manifest wheels.
const WheelsDir = "wheels"

var (
	// ErrManifestNotFound is returned when an addon has no manifest.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrWheelNotFound is returned when a wheel listed in a manifest is missing.
	ErrWheelNotFound = errors.New("wheel not found")
)

// Manifest is the subset of an extension manifest addonkit reads.
type Manifest struct {
	SchemaVersion string   `toml:"schema_version"`
	ID            string   `toml:"id"`
	Version       string   `toml:"version"`
	Name          string   `toml:"name"`
	Tagline       string   `toml:"tagline"`
	Maintainer    string   `toml:"maintainer"`
	Type          string   `toml:"type"`
	Wheels        []string `toml:"wheels"`

	// Path is the file the manifest was read from.
	Path string `toml:"-"`
}

// LoadManifest reads the manifest in addonDir.
func LoadManifest(addonDir string) (*Manifest, error) {
	path := filepath.Join(addonDir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("invalid manifest %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	m.Path = path
	return &m, nil
}

// CopyWheels copies every wheel the manifest lists, resolved against root,
// into bundleDir/wheels. Any missing wheel aborts the copy.
func (m *Manifest) CopyWheels(root, bundleDir string) ([]string, error) {
	if len(m.Wheels) == 0 {
		return nil, nil
	}
	dst := filepath.Join(bundleDir, WheelsDir)

	var copied []string
	for _, wheel := range m.Wheels {
		src := wheel
		if !filepath.IsAbs(src) {
			src = filepath.Join(root, filepath.FromSlash(wheel))
		}
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			return copied, fmt.Errorf("%w: %s (listed in %s)", ErrWheelNotFound, src, m.Path)
		}
		target := filepath.Join(dst, filepath.Base(src))
		if err := CopyFile(src, target); err != nil {
			return copied, err
		}
		copied = append(copied, target)
	}
	return copied, nil
}
