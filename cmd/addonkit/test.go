// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/addonkit/addonkit/internal/hostrun"
	"github.com/addonkit/addonkit/internal/workspace"
)

// newTestCommand creates the `addonkit test` command.
func newTestCommand(app *App) *cobra.Command {
	var (
		watchFlag  bool
		extension  bool
		releaseDir string
		addonPath  string
	)

	cmd := &cobra.Command{
		Use:   "test [name]",
		Short: "Deploy an addon into Blender and run it",
		Long: `Release the addon without zipping, copy it into Blender's addon folder
and start Blender with the addon enabled. The deployed copy is removed
when Blender exits.

With --watch every change to a .py file in the workspace triggers a new
release; Blender polls the deployed signature file and reloads the addon.

The addon defaults to default.addon from the configuration.

Examples:
  addonkit test my_addon
  addonkit test my_addon --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.session(ctx)
			if err != nil {
				return app.fail(cmd, err, "open workspace", app.flags.projectDir)
			}
			name, err := s.addonName(args)
			if err != nil {
				return app.fail(cmd, err, "test addon", "")
			}

			exe := s.cfg.Host.ExePath
			if exe == "" {
				return app.fail(cmd, fmt.Errorf("%w: host.exe_path is not configured", hostrun.ErrExecutableNotFound), "start host", "")
			}
			host, err := app.NewHost(exe, s.logger)
			if err != nil {
				return app.fail(cmd, err, "start host", exe)
			}
			if addonPath == "" {
				addonPath = s.cfg.Host.AddonPath
			}
			if addonPath == "" {
				if addonPath, err = host.AddonPath(ctx); err != nil {
					return app.fail(cmd, err, "locate host addon folder", exe)
				}
			}
			if releaseDir == "" {
				releaseDir = s.cfg.TestReleaseDir(s.ws.Root())
			}

			err = s.ws.Test(ctx, name, workspace.TestOptions{
				ReleaseDir: releaseDir,
				AddonPath:  addonPath,
				Extension:  extension || s.cfg.Default.Extension,
				Watch:      watchFlag,
				Host:       host,
			})
			if err != nil {
				return app.fail(cmd, err, "test addon", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "redeploy and reload on every source change")
	cmd.Flags().BoolVar(&extension, "extension", false, "package as an extension (relative imports, manifest required)")
	cmd.Flags().StringVar(&releaseDir, "release-dir", "", "staging folder (default is default.test_release_dir)")
	cmd.Flags().StringVar(&addonPath, "addon-path", "", "Blender addon folder (default is host.addon_path, else derived from the executable)")

	return cmd
}
