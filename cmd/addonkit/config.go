// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/addonkit/addonkit/internal/config"
)

// newConfigCommand creates the `addonkit config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage addonkit configuration",
		Long: `Manage addonkit configuration.

Configuration is read from the first file found:
  - the --config flag
  - ` + config.ProjectFileName + ` in the workspace root
  - ` + config.UserFileName + ` in the user config folder
    (Linux: ~/.config/addonkit, macOS: ~/Library/Application Support/addonkit,
    Windows: %APPDATA%\addonkit)

Keys: host.exe_path, host.addon_path, default.addon, default.extension,
default.release_dir, default.test_release_dir, ui.verbose.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), app.loadOptions())
			if err != nil {
				return app.fail(cmd, err, "load configuration", app.flags.configFile)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, err := config.Load(cmd.Context(), app.loadOptions())
			if err != nil {
				return app.fail(cmd, err, "load configuration", app.flags.configFile)
			}
			if path == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("no configuration file found, using defaults"))
				return nil
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	var user bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write the default configuration to ` + config.ProjectFileName + ` in the workspace
root, or to the user config folder with --user. An existing file is kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.initConfigPath(user)
			if err != nil {
				return app.fail(cmd, err, "initialize configuration", "")
			}
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(app.stdout, "%s %s already exists\n", WarningStyle.Render("!"), path)
				return nil
			}
			if err := config.Save(config.DefaultConfig(), path); err != nil {
				return app.fail(cmd, err, "initialize configuration", path)
			}
			fmt.Fprintf(app.stdout, "%s Wrote %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&user, "user", false, "write the user configuration instead of the workspace one")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func (a *App) projectRoot() string {
	if a.flags.projectDir != "" {
		return a.flags.projectDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.flags.configFile, ProjectRoot: a.projectRoot()}
}

func (a *App) initConfigPath(user bool) (string, error) {
	if !user {
		return filepath.Join(a.projectRoot(), config.ProjectFileName), nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.UserFileName), nil
}
