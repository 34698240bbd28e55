// SPDX-License-Identifier: MPL-2.0

// Package workspace implements the addon operations of a multi-addon
// workspace: creating an addon from the template, releasing it as a
// self-contained bundle, and deploying it into the host for testing.
//
// A workspace is a directory holding an addons/ folder. Every subfolder of
// addons/ with an __init__.py is one addon; the folder name is the addon
// name. Any other package in the workspace is shared code that releases
// pull in on demand.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/addonkit/addonkit/pkg/resolve"
)

const (
	// AddonsDir is the workspace folder holding one subfolder per addon.
	AddonsDir = "addons"
	// TemplateAddon is copied by Create.
	TemplateAddon = "sample_addon"
)

var (
	// ErrAddonExists is returned by Create for a name already in use.
	ErrAddonExists = errors.New("addon already exists")
	// ErrAddonNotFound is returned for a name without an addon folder.
	ErrAddonNotFound = errors.New("addon not found")
	// ErrReleaseDirInside is returned for a destination inside the workspace.
	ErrReleaseDirInside = errors.New("release directory is inside the workspace")
	// ErrNotWorkspace is returned by Open for a directory without addons/.
	ErrNotWorkspace = errors.New("not an addon workspace")
)

type (
	// ValidationError reports a rejected operation input. Err is one of the
	// package sentinels or a bundle validation error.
	ValidationError struct {
		Op      string
		Subject string
		Err     error
	}

	// Clock supplies timestamps for release names.
	Clock interface {
		Now() time.Time
	}

	// Workspace is an opened addon workspace.
	Workspace struct {
		root   string
		logger *log.Logger
		clock  Clock
	}

	// Option configures a Workspace.
	Option func(*Workspace)

	systemClock struct{}
)

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Subject, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (systemClock) Now() time.Time { return time.Now() }

// WithLogger sets the logger for progress and warnings.
func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithClock replaces the wall clock used for release timestamps.
func WithClock(c Clock) Option {
	return func(w *Workspace) {
		if c != nil {
			w.clock = c
		}
	}
}

// Open opens the workspace rooted at root.
func Open(root string, opts ...Option) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace root %q: %w", root, err)
	}
	if info, err := os.Stat(filepath.Join(abs, AddonsDir)); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s has no %s folder", ErrNotWorkspace, abs, AddonsDir)
	}
	w := &Workspace{root: abs, logger: log.New(io.Discard), clock: systemClock{}}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string { return w.root }

// AddonDir returns the folder of the named addon.
func (w *Workspace) AddonDir(name string) string {
	return filepath.Join(w.root, AddonsDir, name)
}

// InitFile returns the path of the named addon's __init__.py.
func (w *Workspace) InitFile(name string) string {
	return filepath.Join(w.AddonDir(name), resolve.PackageMarker)
}

// Exists reports whether the named addon has an __init__.py.
func (w *Workspace) Exists(name string) bool {
	info, err := os.Stat(w.InitFile(name))
	return err == nil && info.Mode().IsRegular()
}

// Addons lists the addon names of the workspace, sorted.
func (w *Workspace) Addons() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(w.root, AddonsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to list addons: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && w.Exists(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func (w *Workspace) requireAddon(op, name string) error {
	if !w.Exists(name) {
		return &ValidationError{Op: op, Subject: name, Err: ErrAddonNotFound}
	}
	return nil
}

func (w *Workspace) newResolver() (*resolve.Resolver, error) {
	return resolve.New(w.root, resolve.WithLogger(w.logger))
}

// within reports whether path equals base or lies below it.
func within(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !hasParentPrefix(rel))
}

func hasParentPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}
