// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"fmt"

	"github.com/addonkit/addonkit/pkg/component"
	"github.com/addonkit/addonkit/pkg/component/scan"
	"github.com/addonkit/addonkit/pkg/resolve"
)

// OrderResult is the statically computed registration order of an addon.
type OrderResult struct {
	Order      []string
	Extensions []component.Extension
	Warnings   []component.Warning
}

// Dependencies returns the dependency closure of the addon's sources.
func (w *Workspace) Dependencies(name string) (*resolve.Closure, error) {
	if err := w.requireAddon("inspect", name); err != nil {
		return nil, err
	}
	r, err := w.newResolver()
	if err != nil {
		return nil, err
	}
	entries, err := w.entryFiles(name)
	if err != nil {
		return nil, err
	}
	c, err := r.Closure(entries...)
	if err != nil {
		return nil, fmt.Errorf("dependencies of %s: %w", name, err)
	}
	return c, nil
}

// RegistrationOrder scans the addon's closure for component classes and
// schedules them without running the host.
func (w *Workspace) RegistrationOrder(name string) (*OrderResult, error) {
	c, err := w.Dependencies(name)
	if err != nil {
		return nil, err
	}
	r, err := w.newResolver()
	if err != nil {
		return nil, err
	}
	found, err := scan.Scan(r, c)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", name, err)
	}

	l := component.NewLifecycle(w.logger)
	if err := l.Init(found.Registry); err != nil {
		return nil, fmt.Errorf("schedule %s: %w", name, err)
	}
	warnings := append(found.Warnings, l.Warnings()...)
	for _, wn := range found.Warnings {
		w.logger.Warn(wn.Message, "class", wn.Subject)
	}
	return &OrderResult{
		Order:      l.Order(),
		Extensions: found.Registry.Extensions(),
		Warnings:   warnings,
	}, nil
}
