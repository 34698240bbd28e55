// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/addonkit/addonkit/internal/workspace"
)

// newCreateCommand creates the `addonkit create` command.
func newCreateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an addon from the template",
		Long: `Create a new addon by copying addons/` + workspace.TemplateAddon + ` to addons/<name>.

Occurrences of "` + workspace.TemplateAddon + `" in the template's .py and .toml files
are replaced with the new name.

Examples:
  addonkit create my_addon`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return app.fail(cmd, err, "open workspace", app.flags.projectDir)
			}
			dir, err := s.ws.Create(args[0])
			if err != nil {
				return app.fail(cmd, err, "create addon", args[0])
			}
			fmt.Fprintf(app.stdout, "%s Created %s at %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(args[0]), dir)
			return nil
		},
	}
}
