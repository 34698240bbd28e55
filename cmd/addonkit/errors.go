// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/addonkit/addonkit/internal/hostrun"
	"github.com/addonkit/addonkit/internal/issue"
	"github.com/addonkit/addonkit/internal/workspace"
	"github.com/addonkit/addonkit/pkg/bundle"
	"github.com/addonkit/addonkit/pkg/component"
	"github.com/addonkit/addonkit/pkg/pysrc"
)

// classifyError wraps err as an ActionableError for the failed operation,
// linking the matching issue catalog entry and suggestions. Errors that are
// already actionable are returned unchanged.
func classifyError(err error, operation, resource string) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)

	var (
		parseErr *pysrc.ParseError
		cycleErr *component.CycleError
	)
	switch {
	case errors.Is(err, workspace.ErrAddonNotFound):
		ctx.WithIssue(issue.AddonNotFoundId).
			WithSuggestion("Run 'addonkit create " + resource + "' to create it from the template")
	case errors.Is(err, workspace.ErrAddonExists):
		ctx.WithIssue(issue.AddonExistsId).
			WithSuggestion("Pick another name or remove the existing folder")
	case errors.Is(err, bundle.ErrInvalidName):
		ctx.WithIssue(issue.InvalidAddonNameId).
			WithSuggestion("Use a letter followed by letters, digits or underscores")
	case errors.Is(err, workspace.ErrReleaseDirInside):
		ctx.WithIssue(issue.ReleaseDirInsideWorkspaceId).
			WithSuggestion("Pass --release-dir with a folder outside the workspace")
	case errors.Is(err, bundle.ErrManifestNotFound):
		ctx.WithIssue(issue.ManifestNotFoundId).
			WithSuggestion("Add a " + bundle.ManifestFile + " or release without --extension")
	case errors.Is(err, bundle.ErrWheelNotFound):
		ctx.WithIssue(issue.WheelNotFoundId).
			WithSuggestion("Check the wheels paths in " + bundle.ManifestFile + "; they are relative to the workspace root")
	case errors.As(err, &parseErr):
		ctx.WithIssue(issue.PythonParseErrorId).
			WithSuggestion(fmt.Sprintf("Fix the syntax error in %s", parseErr.Path))
	case errors.As(err, &cycleErr):
		ctx.WithIssue(issue.RegistrationCycleId).
			WithSuggestion("Break the cycle between the listed classes")
	case errors.Is(err, hostrun.ErrExecutableNotFound):
		ctx.WithIssue(issue.HostNotFoundId).
			WithSuggestion("Set host.exe_path in " + "addonkit.cue or the user config")
	case errors.Is(err, workspace.ErrNotWorkspace):
		ctx.WithSuggestion("Run addonkit from the workspace root or pass --project")
	case errors.Is(err, errNoAddon):
		ctx.WithSuggestion("Pass the addon name or set default.addon in the configuration")
	}
	return ctx.Build()
}

// renderError writes the styled error and, in verbose mode, the rendered
// issue guidance.
func renderError(w io.Writer, ae *issue.ActionableError, verbose bool) {
	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), ae.Format(verbose))
	if !verbose {
		return
	}
	guidance := ae.Guidance()
	if guidance == nil {
		return
	}
	rendered, err := guidance.Render("dark")
	if err != nil {
		log.Warn("failed to render issue guidance", "issue", ae.Issue, "err", err)
		return
	}
	fmt.Fprint(w, rendered)
}

// fail renders err for the failed operation and returns an ExitError so
// that the error is not printed twice.
func (a *App) fail(cmd *cobra.Command, err error, operation, resource string) error {
	ae := classifyError(err, operation, resource)
	renderError(a.stderr, ae, a.flags.verbose)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: 1, Err: ae}
}
