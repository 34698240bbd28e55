// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "addonkit",
		Short: "Package Blender addons out of a shared workspace",
		Long: TitleStyle.Render("addonkit") + SubtitleStyle.Render(" - Package Blender addons out of a shared workspace") + `

addonkit works on a workspace holding an addons/ folder with one
subfolder per addon, next to shared Python packages. A release copies
the addon together with every workspace module it imports, rewrites the
imports so the bundle is self-contained, and optionally zips it.

` + SubtitleStyle.Render("Examples:") + `
  addonkit create my_addon             Create an addon from sample_addon
  addonkit test my_addon --watch       Run Blender and hot reload on changes
  addonkit release my_addon --zip      Build an installable archive
  addonkit deps my_addon               List the files the addon pulls in
  addonkit order my_addon              Show the class registration order`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configFile, "config", "", "config file (default is addonkit.cue in the workspace, then the user config)")
	rootCmd.PersistentFlags().StringVarP(&app.flags.projectDir, "project", "C", "", "workspace root (default is the current directory)")

	rootCmd.AddCommand(
		newCreateCommand(app),
		newTestCommand(app),
		newReleaseCommand(app),
		newDepsCommand(app),
		newOrderCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the CLI and runs it. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
