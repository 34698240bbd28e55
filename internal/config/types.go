// SPDX-License-Identifier: MPL-2.0

package config

import (
	"path/filepath"
)

const (
	// DefaultReleaseDir is where `addonkit release` writes, relative to the
	// workspace root.
	DefaultReleaseDir = "../addon_release"
	// DefaultTestReleaseDir is where `addonkit test` stages bundles.
	DefaultTestReleaseDir = "../addon_test"
)

type (
	// Config is the full addonkit configuration.
	Config struct {
		Host    HostConfig     `json:"host" mapstructure:"host"`
		Default DefaultsConfig `json:"default" mapstructure:"default"`
		UI      UIConfig       `json:"ui" mapstructure:"ui"`
	}

	// HostConfig locates the host application.
	HostConfig struct {
		ExePath   string `json:"exe_path" mapstructure:"exe_path"`
		AddonPath string `json:"addon_path" mapstructure:"addon_path"`
	}

	// DefaultsConfig holds per-workspace defaults for commands.
	DefaultsConfig struct {
		Addon          string `json:"addon" mapstructure:"addon"`
		Extension      bool   `json:"extension" mapstructure:"extension"`
		ReleaseDir     string `json:"release_dir" mapstructure:"release_dir"`
		TestReleaseDir string `json:"test_release_dir" mapstructure:"test_release_dir"`
	}

	// UIConfig configures output.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Default: DefaultsConfig{
			ReleaseDir:     DefaultReleaseDir,
			TestReleaseDir: DefaultTestReleaseDir,
		},
	}
}

// ReleaseDir returns the release directory resolved against root.
func (c *Config) ReleaseDir(root string) string {
	return resolveAgainst(root, c.Default.ReleaseDir, DefaultReleaseDir)
}

// TestReleaseDir returns the test release directory resolved against root.
func (c *Config) TestReleaseDir(root string) string {
	return resolveAgainst(root, c.Default.TestReleaseDir, DefaultTestReleaseDir)
}

func resolveAgainst(root, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
