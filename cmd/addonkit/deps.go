// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/addonkit/addonkit/pkg/resolve"
)

const (
	formatText = "text"
	formatYAML = "yaml"
)

type (
	// depsReport is the yaml form of an addon's dependency closure. Paths
	// are slash-separated and relative to the workspace root.
	depsReport struct {
		Addon   string              `yaml:"addon"`
		Root    string              `yaml:"root"`
		Entries []string            `yaml:"entries"`
		Files   []string            `yaml:"files"`
		Imports map[string][]string `yaml:"imports,omitempty"`
	}
)

// newDepsCommand creates the `addonkit deps` command.
func newDepsCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "deps [name]",
		Short: "List the workspace files an addon pulls in",
		Long: `Compute the transitive closure of the addon's imports and list every
workspace file a release would copy, relative to the workspace root.

Examples:
  addonkit deps my_addon
  addonkit deps my_addon --format yaml`,
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
				return app.fail(cmd, err, "list dependencies", "")
			}
			c, err := s.ws.Dependencies(name)
			if err != nil {
				return app.fail(cmd, err, "list dependencies", name)
			}
			report := newDepsReport(name, c)
			if format == formatYAML {
				return writeYAML(app.stdout, report)
			}
			for _, f := range report.Files {
				fmt.Fprintln(app.stdout, f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatText, "output format (text, yaml)")
	return cmd
}

func newDepsReport(name string, c *resolve.Closure) depsReport {
	rel := func(path string) string {
		r, err := filepath.Rel(c.Root, path)
		if err != nil {
			return filepath.ToSlash(path)
		}
		return filepath.ToSlash(r)
	}
	report := depsReport{Addon: name, Root: c.Root, Imports: make(map[string][]string)}
	for _, e := range c.Entries {
		report.Entries = append(report.Entries, rel(e))
	}
	slices.Sort(report.Entries)
	for _, f := range c.Files() {
		report.Files = append(report.Files, rel(f))
		for _, dep := range c.Edges[f] {
			report.Imports[rel(f)] = append(report.Imports[rel(f)], rel(dep))
		}
	}
	return report
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want %s or %s)", format, formatText, formatYAML)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
