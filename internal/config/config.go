// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/addonkit/addonkit/internal/cueutil"
	"github.com/addonkit/addonkit/internal/issue"
	"github.com/addonkit/addonkit/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "addonkit"
	// ProjectFileName is the workspace-level config file.
	ProjectFileName = "addonkit.cue"
	// UserFileName is the config file inside ConfigDir.
	UserFileName = "config.cue"

	maxFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ErrConfigNotFound is returned when an explicitly requested file is missing.
var ErrConfigNotFound = errors.New("config file not found")

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific file when set.
	ConfigFilePath string
	// ProjectRoot is searched for addonkit.cue.
	ProjectRoot string
	// ConfigDirPath overrides the user config directory when set.
	ConfigDirPath string
}

// ConfigDir returns the user configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS, $XDG_CONFIG_HOME
// (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case platform.Windows:
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

// Load resolves and reads the configuration. It returns the config and the
// path of the file it came from, empty when only defaults applied.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("host.exe_path", defaults.Host.ExePath)
	v.SetDefault("host.addon_path", defaults.Host.AddonPath)
	v.SetDefault("default.addon", defaults.Default.Addon)
	v.SetDefault("default.extension", defaults.Default.Extension)
	v.SetDefault("default.release_dir", defaults.Default.ReleaseDir)
	v.SetDefault("default.test_release_dir", defaults.Default.TestReleaseDir)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	path, err := locate(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the schema shown by 'addonkit config --help'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, path, nil
}

// locate picks the config file: the explicit path, then the project file,
// then the user file. No file is not an error.
func locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				Wrap(ErrConfigNotFound).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}
	if opts.ProjectRoot != "" {
		if p := filepath.Join(opts.ProjectRoot, ProjectFileName); fileExists(p) {
			return p, nil
		}
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if p := filepath.Join(dir, UserFileName); fileExists(p) {
		return p, nil
	}
	return "", nil
}

// loadCUEIntoViper validates the file against #Config and merges it into v.
// Fields are optional, so validation does not require concrete values.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	configMap, err := cueutil.Decode[map[string]any]([]byte(configSchema), data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
		cueutil.WithMaxFileSize(maxFileSize),
	)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(*configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE renders cfg in the config file format.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// addonkit configuration\n\n")

	sb.WriteString("host: {\n")
	fmt.Fprintf(&sb, "\texe_path:   %q\n", cfg.Host.ExePath)
	fmt.Fprintf(&sb, "\taddon_path: %q\n", cfg.Host.AddonPath)
	sb.WriteString("}\n\n")

	sb.WriteString("default: {\n")
	fmt.Fprintf(&sb, "\taddon:            %q\n", cfg.Default.Addon)
	fmt.Fprintf(&sb, "\textension:        %v\n", cfg.Default.Extension)
	fmt.Fprintf(&sb, "\trelease_dir:      %q\n", cfg.Default.ReleaseDir)
	fmt.Fprintf(&sb, "\ttest_release_dir: %q\n", cfg.Default.TestReleaseDir)
	sb.WriteString("}\n\n")

	sb.WriteString("ui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")
	return sb.String()
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
