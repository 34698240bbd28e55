// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/addonkit/addonkit/internal/workspace"
)

type (
	orderReport struct {
		Addon        string            `yaml:"addon"`
		Registration []string          `yaml:"registration"`
		Extensions   []extensionReport `yaml:"extensions,omitempty"`
		Warnings     []string          `yaml:"warnings,omitempty"`
	}

	extensionReport struct {
		Class  string `yaml:"class"`
		Target string `yaml:"target"`
		Mode   string `yaml:"mode"`
	}
)

// newOrderCommand creates the `addonkit order` command.
func newOrderCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "order [name]",
		Short: "Show the order in which an addon's classes register",
		Long: `Discover the component classes of the addon statically and print the
order in which they register with Blender. Classes unregister in the
reverse order.

Examples:
  addonkit order my_addon
  addonkit order my_addon --format yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			s, err := app.session(cmd.Context())
			if err != nil {
				return app.fail(cmd, err, "open workspace", app.flags.projectDir)
			}
			name, err := s.addonName(args)
			if err != nil {
				return app.fail(cmd, err, "compute registration order", "")
			}
			res, err := s.ws.RegistrationOrder(name)
			if err != nil {
				return app.fail(cmd, err, "compute registration order", name)
			}

			report := newOrderReport(name, res)
			if format == formatYAML {
				return writeYAML(app.stdout, report)
			}
			fmt.Fprintln(app.stdout, TitleStyle.Render("Registration order"))
			for i, id := range report.Registration {
				fmt.Fprintf(app.stdout, "%3d. %s\n", i+1, CmdStyle.Render(id))
			}
			if len(report.Extensions) > 0 {
				fmt.Fprintln(app.stdout, TitleStyle.Render("UI extensions"))
				for _, e := range report.Extensions {
					fmt.Fprintf(app.stdout, "  %s %s %s\n", CmdStyle.Render(e.Class), SubtitleStyle.Render(e.Mode), e.Target)
				}
			}
			for _, w := range report.Warnings {
				fmt.Fprintf(app.stderr, "%s %s\n", WarningStyle.Render("warning:"), w)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatText, "output format (text, yaml)")
	return cmd
}

func newOrderReport(name string, res *workspace.OrderResult) orderReport {
	report := orderReport{Addon: name, Registration: res.Order}
	for _, e := range res.Extensions {
		report.Extensions = append(report.Extensions, extensionReport{Class: e.ID, Target: e.Target, Mode: string(e.Mode)})
	}
	for _, w := range res.Warnings {
		report.Warnings = append(report.Warnings, w.String())
	}
	return report
}
