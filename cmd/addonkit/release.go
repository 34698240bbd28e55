// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/addonkit/addonkit/internal/workspace"
	"github.com/addonkit/addonkit/pkg/bundle"
)

// newReleaseCommand creates the `addonkit release` command.
func newReleaseCommand(app *App) *cobra.Command {
	var (
		opts     workspace.ReleaseOptions
		showTree bool
	)

	cmd := &cobra.Command{
		Use:   "release [name]",
		Short: "Build a self-contained addon bundle",
		Long: `Assemble the addon and every workspace module it imports into
<release-dir>/<name>, rewrite imports so the bundle is self-contained
and optionally zip it as <name>[_V<version>][_<yyyymmdd_HHMMSS>].zip.

The release folder must lie outside the workspace. It defaults to
default.release_dir from the configuration (../addon_release).

Examples:
  addonkit release my_addon --zip
  addonkit release my_addon --zip --with-version --with-timestamp
  addonkit release my_addon --extension --zip
  addonkit release my_addon --tree`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return app.fail(cmd, err, "open workspace", app.flags.projectDir)
			}
			name, err := s.addonName(args)
			if err != nil {
				return app.fail(cmd, err, "release addon", "")
			}
			if opts.DestinationDir == "" {
				opts.DestinationDir = s.cfg.ReleaseDir(s.ws.Root())
			}
			opts.Extension = opts.Extension || s.cfg.Default.Extension

			res, err := s.ws.Release(cmd.Context(), name, opts)
			if err != nil {
				return app.fail(cmd, err, "release addon", name)
			}

			if n := len(res.Rewrite.Warnings); n > 0 {
				fmt.Fprintf(app.stderr, "%s %d import(s) could not be rewritten\n", WarningStyle.Render("warning:"), n)
			}
			if showTree {
				if err := bundle.Tree(app.stdout, res.BundleDir); err != nil {
					return app.fail(cmd, err, "render bundle", res.BundleDir)
				}
			}
			out := res.BundleDir
			if opts.Zip {
				out = res.ZipPath
			}
			fmt.Fprintf(app.stdout, "%s Released %s (%d files) to %s\n",
				SuccessStyle.Render("✓"), CmdStyle.Render(name), res.Closure.Len(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Zip, "zip", false, "write a zip archive next to the bundle folder")
	cmd.Flags().BoolVar(&opts.WithVersion, "with-version", false, "append _V<version> to the archive name")
	cmd.Flags().BoolVar(&opts.WithTimestamp, "with-timestamp", false, "append _<yyyymmdd_HHMMSS> to the archive name")
	cmd.Flags().StringVar(&opts.DestinationDir, "release-dir", "", "release folder (default is default.release_dir)")
	cmd.Flags().BoolVar(&opts.Extension, "extension", false, "package as an extension (relative imports, manifest required)")
	cmd.Flags().BoolVar(&showTree, "tree", false, "print the bundle layout")

	return cmd
}
