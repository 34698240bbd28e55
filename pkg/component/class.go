// SPDX-License-Identifier: MPL-2.0

package component

import (
	"fmt"
	"strings"
)

const (
	// ExpandAppend draws the extension after the target's own content.
	ExpandAppend ExpandMode = "APPEND"
	// ExpandPrepend draws the extension before the target's own content.
	ExpandPrepend ExpandMode = "PREPEND"
)

type (
	// Property is a declared property slot on a component class.
	Property struct {
		Name string
		// Type is the ID of the class the slot holds, empty when the slot is
		// not typed by a class.
		Type string
	}

	// Class describes one component class the host must register.
	Class struct {
		// ID is the qualified identifier, e.g. `addons.demo.panels.MainPanel`.
		ID string
		// Bases lists the IDs of the direct base classes in declaration order.
		Bases      []string
		Properties []Property
		// ParentID names another class by its IDName.
		ParentID string
		// IDName is the class's own declared identifier (`bl_idname`).
		IDName string
		// Priority orders classes that become ready together. Nil sorts after
		// every declared priority.
		Priority *int
	}

	// ExpandMode selects where an extension draws relative to its target.
	ExpandMode string

	// Extension attaches a draw callback to an existing host UI element.
	Extension struct {
		ID     string
		Target string
		Mode   ExpandMode
	}

	// Module is a unit of addon code with optional register hooks, run after
	// all classes are registered and before they are unregistered.
	Module struct {
		Name       string
		Register   func(Host) error
		Unregister func(Host) error
	}
)

// Priority returns a pointer to n for use in Class.Priority.
func Priority(n int) *int { return &n }

// String returns the class ID.
func (c Class) String() string { return c.ID }

// Validate checks that the mode is one of the known values.
func (m ExpandMode) Validate() error {
	switch m {
	case ExpandAppend, ExpandPrepend:
		return nil
	default:
		return fmt.Errorf("invalid expand mode %q (must be %s or %s)", string(m), ExpandAppend, ExpandPrepend)
	}
}

// ParseExpandMode parses a mode case-insensitively. An empty string means
// ExpandAppend.
func ParseExpandMode(s string) (ExpandMode, error) {
	if s == "" {
		return ExpandAppend, nil
	}
	m := ExpandMode(strings.ToUpper(s))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}
