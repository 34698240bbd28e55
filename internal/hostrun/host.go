// SPDX-License-Identifier: MPL-2.0

// Package hostrun launches the host application for interactive addon
// testing and streams its error output back to the terminal.
package hostrun

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/addonkit/addonkit/pkg/platform"
)

// ErrExecutableNotFound is returned when the configured host executable is
// missing.
var ErrExecutableNotFound = errors.New("host executable not found")

// waitDelay bounds how long Run waits for the host to exit after ctx is
// cancelled before killing it.
const waitDelay = 5 * time.Second

type (
	// Host is one host executable.
	Host struct {
		ExePath string
		// Stderr receives the host's error output. Defaults to os.Stderr.
		Stderr io.Writer
		Logger *log.Logger
		// Sandbox is the sandbox addonkit runs in. Inside a Flatpak the host
		// is started on the host system through flatpak-spawn.
		Sandbox platform.SandboxType
	}

	// RunOptions configures one host session.
	RunOptions struct {
		// Script is passed to the host's embedded Python interpreter.
		Script string
		// DeployedPath and ProjectRoot map traceback paths of the deployed
		// copy back to the workspace.
		DeployedPath string
		ProjectRoot  string
	}
)

// New returns a Host for exePath after normalizing it for the platform.
// Inside a Flatpak the path names a host file and is not checked.
func New(exePath string, logger *log.Logger) (*Host, error) {
	exe := NormalizeExePath(exePath)
	sandbox := platform.DetectSandbox()
	if sandbox != platform.SandboxFlatpak {
		info, err := os.Stat(exe)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrExecutableNotFound, exe)
		}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if sandbox != platform.SandboxNone {
		logger.Debug("running inside a sandbox", "sandbox", sandbox)
	}
	return &Host{ExePath: exe, Stderr: os.Stderr, Logger: logger, Sandbox: sandbox}, nil
}

// command builds the host invocation, escaping the sandbox when needed.
func (h *Host) command(ctx context.Context, args ...string) *exec.Cmd {
	name, args := platform.HostCommand(h.Sandbox, h.ExePath, args...)
	return exec.CommandContext(ctx, name, args...)
}

// Run starts the host with opts.Script and blocks until it exits or ctx is
// cancelled. Traceback lines naming files of the deployed copy are rewritten
// to point into the workspace. A non-zero exit status is not an error.
func (h *Host) Run(ctx context.Context, opts RunOptions) error {
	args := []string{"--python-use-system-env"}
	if opts.Script != "" {
		args = append(args, "--python-expr", opts.Script)
	}
	cmd := h.command(ctx, args...)
	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = waitDelay
	cmd.Stdout = os.Stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to attach to host stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start host %s: %w", h.ExePath, err)
	}
	h.Logger.Debug("host started", "exe", h.ExePath, "pid", cmd.Process.Pid)

	copyErr := h.stream(stderr, opts)
	waitErr := cmd.Wait()

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		h.Logger.Info("host terminated")
		return nil
	case errors.As(waitErr, &exitErr):
		h.Logger.Warn("host exited", "code", exitErr.ExitCode())
		return nil
	case waitErr != nil:
		return fmt.Errorf("host %s: %w", h.ExePath, waitErr)
	}
	return copyErr
}

func (h *Host) stream(r io.Reader, opts RunOptions) error {
	out := h.Stderr
	if out == nil {
		out = os.Stderr
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if opts.DeployedPath != "" && opts.ProjectRoot != "" && strings.HasPrefix(strings.TrimSpace(line), "File") {
			line = strings.ReplaceAll(line, opts.DeployedPath, opts.ProjectRoot)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// NormalizeExePath appends the bundle-internal binary path to a macOS
// application bundle.
func NormalizeExePath(exe string) string {
	if strings.HasSuffix(exe, ".app") {
		return filepath.Join(exe, "Contents", "MacOS", "Blender")
	}
	return exe
}
