// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/addonkit/addonkit/internal/config"
	"github.com/addonkit/addonkit/internal/hostrun"
	"github.com/addonkit/addonkit/internal/workspace"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and resolves its per-invocation state through it.
	App struct {
		Config  ConfigProvider
		NewHost HostFactory
		Clock   workspace.Clock
		stdout  io.Writer
		stderr  io.Writer

		flags globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		NewHost HostFactory
		Clock   workspace.Clock
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// HostService runs the host application and locates its addon folder.
	// *hostrun.Host implements it.
	HostService interface {
		workspace.HostRunner
		AddonPath(ctx context.Context) (string, error)
	}

	// HostFactory opens the host executable at exePath.
	HostFactory func(exePath string, logger *log.Logger) (HostService, error)

	globalFlags struct {
		verbose    bool
		configFile string
		projectDir string
	}

	// session is the state shared by one command invocation.
	session struct {
		cfg    *config.Config
		logger *log.Logger
		ws     *workspace.Workspace
	}
)

// errNoAddon is returned when neither an argument nor default.addon names
// the addon to work on.
var errNoAddon = errors.New("no addon name given and default.addon is not configured")

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:  deps.Config,
		NewHost: deps.NewHost,
		Clock:   deps.Clock,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.NewHost == nil {
		app.NewHost = func(exePath string, logger *log.Logger) (HostService, error) {
			h, err := hostrun.New(exePath, logger)
			if err != nil {
				return nil, err
			}
			return h, nil
		}
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// newLogger creates the stderr logger; verbose lowers the level to debug.
func (a *App) newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// session loads the configuration and opens the workspace for one command.
func (a *App) session(ctx context.Context) (*session, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	// Apply verbose from config if not set via flag
	if !a.flags.verbose {
		a.flags.verbose = cfg.UI.Verbose
	}
	logger := a.newLogger(a.flags.verbose)

	ws, err := workspace.Open(a.projectRoot(), workspace.WithLogger(logger), workspace.WithClock(a.Clock))
	if err != nil {
		return nil, err
	}
	logger.Debug("workspace opened", "root", ws.Root())
	return &session{cfg: cfg, logger: logger, ws: ws}, nil
}

// addonName returns the addon named on the command line, else default.addon.
func (s *session) addonName(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if s.cfg.Default.Addon != "" {
		return s.cfg.Default.Addon, nil
	}
	return "", errNoAddon
}
